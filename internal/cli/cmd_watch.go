package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apiarycd/gitstate/internal/gitstate"
	"github.com/apiarycd/gitstate/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the workspace state whenever its flag or revision changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return run(cmd, g, func(ctx context.Context, watcher *watch.Watcher) error {
				var emitErr error
				err := watcher.Watch(ctx, g.dir, func(state *gitstate.State) {
					if emitErr != nil {
						return
					}
					if g.json {
						emitErr = g.output(cmd, state, "")
						return
					}
					_, emitErr = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tdirty=%t\n", state.Flag, state.Revision, state.Dirty)
				})
				if err != nil {
					return err
				}
				return emitErr
			}, watch.Module())
		},
	}
}
