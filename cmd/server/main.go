package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamgate/streamgate-server/internal/app"
	"github.com/streamgate/streamgate-server/internal/config"
	"github.com/streamgate/streamgate-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
	)

	root := &cobra.Command{
		Use:          "streamgate-server",
		Short:        "Relays a live capture session between one producer and many viewers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info")
			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting streamgate server")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	root.Flags().StringVar(&addr, "addr", "", "HTTP listen address override")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
