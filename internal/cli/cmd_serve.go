package cli

import (
	"github.com/apiarycd/gitstate/internal"
	"github.com/go-core-fx/fiberfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newServeCmd(g *globals) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve workspace state and the build cache over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			internal.Run(g.version,
				g.overrides(),
				fx.Decorate(func(cfg fiberfx.Config) fiberfx.Config {
					if address != "" {
						cfg.Address = address
					}
					return cfg
				}),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Listen address, overriding http.address")

	return cmd
}
