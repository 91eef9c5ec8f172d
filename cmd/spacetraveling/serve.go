package main

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/qepting91/spacetraveling/internal/blog"
	"github.com/qepting91/spacetraveling/internal/collector"
	"github.com/qepting91/spacetraveling/internal/web"
)

func newServeCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog, rendering pages on demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			if !debug {
				gin.SetMode(gin.ReleaseMode)
			}

			repo, closeRepo, err := collector.NewRepository(cfg, logger)
			if err != nil {
				return err
			}
			defer closeRepo()
			logger.Info("Content repository initialized", "mode", cfg.Content.Mode)

			srv, err := web.NewServer(blog.NewService(repo, logger), cfg.Site, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, ":"+cfg.Server.Port, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}
