package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"corelab/internal/config"
	"corelab/internal/logger"
	"corelab/internal/rpc"
	"corelab/internal/version"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command API over local HTTP",
		Long: `Serve every command as POST /api/{command} with JSON arguments.
GET /api/commands lists them, /healthz reports liveness and /metrics exposes
Prometheus metrics. The server stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: withRuntime(func(ctx context.Context, rt *runtime, _ *cobra.Command, _ []string) error {
			srv, err := rpc.NewServer(rt.core)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting CoreLab", "version", version.GetVersion(), "provider", rt.core.Provider().Name())
			return srv.ListenAndServe(ctx, rt.cfg.Listen)
		}),
	}
	cmd.Flags().String(config.KeyListen, "", "Listen address [default: "+config.DefaultListen+"]")
	cobra.CheckErr(viper.BindPFlag(config.KeyListen, cmd.Flags().Lookup(config.KeyListen)))
	return cmd
}
