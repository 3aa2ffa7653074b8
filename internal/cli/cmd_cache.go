package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/apiarycd/gitstate/internal/buildcache"
	"github.com/apiarycd/gitstate/pkg/badgerfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type cacheFlags struct {
	dataDir string
}

func (f *cacheFlags) modules() []fx.Option {
	return []fx.Option{
		badgerfx.Module(),
		buildcache.Module(),
		fx.Decorate(func(cfg badgerfx.Config) badgerfx.Config {
			if f.dataDir != "" {
				cfg.Dir = f.dataDir
				cfg.InMemory = false
			}
			return cfg
		}),
	}
}

func newCacheCmd(g *globals) *cobra.Command {
	f := &cacheFlags{}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Read and write build outputs keyed by workspace state",
	}
	cmd.PersistentFlags().StringVar(&f.dataDir, "data-dir", "", "Cache storage directory")

	cmd.AddCommand(
		newCacheGetCmd(g, f),
		newCachePutCmd(g, f),
		newCacheListCmd(g, f),
		newCachePurgeCmd(g, f),
	)

	return cmd
}

func newCacheGetCmd(g *globals, f *cacheFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Write a cached value to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, g, func(ctx context.Context, svc *buildcache.Service) error {
				entry, err := svc.Get(ctx, g.dir, args[0])
				if errors.Is(err, buildcache.ErrNotFound) || errors.Is(err, buildcache.ErrDirtyWorkspace) {
					if g.json {
						return g.output(cmd, map[string]any{"hit": false}, "")
					}
					return nil
				}
				if err != nil {
					return err
				}

				if g.json {
					return g.output(cmd, entry, "")
				}

				_, err = cmd.OutOrStdout().Write(entry.Value)
				return err
			}, f.modules()...)
		},
	}
}

func newCachePutCmd(g *globals, f *cacheFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> [file]",
		Short: "Store a value read from file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := readValue(cmd, args[1:])
			if err != nil {
				return err
			}

			return run(cmd, g, func(ctx context.Context, svc *buildcache.Service) error {
				entry, putErr := svc.Put(ctx, g.dir, args[0], value)
				if putErr != nil {
					return putErr
				}
				return g.output(cmd, entry, entry.ID.String())
			}, f.modules()...)
		},
	}
}

func newCacheListCmd(g *globals, f *cacheFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached entries of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, func(ctx context.Context, svc *buildcache.Service) error {
				entries, err := svc.List(ctx, g.dir)
				if err != nil {
					return err
				}

				if g.json {
					return g.output(cmd, entries, "")
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "FLAG\tREVISION\tKEY\tSIZE\tCREATED")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
						e.Namespace.Flag, e.Namespace.Revision, e.Key, len(e.Value), e.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			}, f.modules()...)
		},
	}
}

func newCachePurgeCmd(g *globals, f *cacheFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached entry of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, g, func(ctx context.Context, svc *buildcache.Service) error {
				removed, err := svc.Purge(ctx, g.dir)
				if err != nil {
					return err
				}
				return g.output(cmd, map[string]int{"removed": removed}, strconv.Itoa(removed))
			}, f.modules()...)
		},
	}
}

func readValue(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		value, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return value, nil
	}

	value, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return value, nil
}
