package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newStatusCmd(g *globals) *cobra.Command {
	var ignored bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List changed paths in the working tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				var opts []gitstate.Option
				if ignored {
					opts = append(opts, gitstate.WithIgnored())
				}

				status, err := svc.Status(ctx, g.dir, opts...)
				if err != nil {
					return err
				}

				if g.json {
					return g.output(cmd, status, "")
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				for _, e := range status.Entries {
					fmt.Fprintf(tw, "%s\t%s\n", e.State, e.Path)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&ignored, "ignored", false, "Include ignored paths")

	return cmd
}

func newDirtyCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dirty",
		Short: "Report whether the working tree has uncommitted changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				dirty, err := svc.IsDirty(ctx, g.dir)
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]bool{"dirty": dirty}, strconv.FormatBool(dirty))
			})
		},
	}
}

type ignoredPath struct {
	Path    string `json:"path"`
	Ignored bool   `json:"ignored"`
}

func newIgnoredCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ignored <path>...",
		Short: "Evaluate paths against the ignore rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				results := make([]ignoredPath, 0, len(args))
				for _, path := range args {
					ignored, err := svc.IsIgnored(ctx, g.dir, path)
					if err != nil {
						return err
					}
					results = append(results, ignoredPath{Path: path, Ignored: ignored})
				}

				lines := lo.Map(results, func(r ignoredPath, _ int) string {
					return r.Path + "\t" + strconv.FormatBool(r.Ignored)
				})
				return g.output(cmd, results, strings.Join(lines, "\n"))
			})
		},
	}
}

func newBranchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "branch",
		Short: "Print the tag, branch or revision checked out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				branch, err := svc.GetBranch(ctx, g.dir)
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]string{"branch": branch}, branch)
			})
		},
	}
}

func newRevisionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "revision",
		Short: "Print the commit HEAD resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				revision, err := svc.GetCurrentRevision(ctx, g.dir)
				if errors.Is(err, gitstate.ErrNoHead) {
					return g.output(cmd, map[string]*string{"revision": nil}, "")
				}
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]string{"revision": revision}, revision)
			})
		},
	}
}

func newOriginCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "origin",
		Short: "Print the URL of the origin remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				origin, ok, err := svc.GetOriginURL(ctx, g.dir)
				if err != nil {
					return err
				}
				if !ok {
					return g.output(cmd, map[string]*gitstate.RemoteURL{"origin": nil}, "")
				}
				return g.output(cmd, map[string]gitstate.RemoteURL{"origin": origin}, origin.String())
			})
		},
	}
}

func newRepositoryCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "repository",
		Short: "Print the repository identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				id, err := svc.GetRepository(ctx, g.dir)
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]string{"repository": id}, id)
			})
		},
	}
}

func newFlagCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "flag",
		Short: "Print the branch flag, or dirty for uncommitted changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				flag, err := svc.GetBranchFlag(ctx, g.dir)
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]string{"flag": flag}, flag)
			})
		},
	}
}

func newInfoCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the workspace state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				state, err := svc.GetState(ctx, g.dir)
				if err != nil {
					return err
				}

				if g.json {
					return g.output(cmd, state, "")
				}

				origin := ""
				if state.Origin != nil {
					origin = state.Origin.String()
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "root:\t%s\n", state.Root)
				fmt.Fprintf(tw, "repository:\t%s\n", state.Repository)
				fmt.Fprintf(tw, "branch:\t%s\n", state.Branch)
				fmt.Fprintf(tw, "flag:\t%s\n", state.Flag)
				fmt.Fprintf(tw, "revision:\t%s\n", state.Revision)
				fmt.Fprintf(tw, "origin:\t%s\n", origin)
				fmt.Fprintf(tw, "dirty:\t%t\n", state.Dirty)
				return tw.Flush()
			})
		},
	}
}

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read repository configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a value from the repository configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(cmd, g, func(ctx context.Context, svc *gitstate.Service) error {
				value, ok, err := svc.GetConfigValue(ctx, g.dir, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return g.output(cmd, map[string]*string{args[0]: nil}, "")
				}
				return g.output(cmd, map[string]string{args[0]: value}, value)
			})
		},
	})

	return cmd
}
