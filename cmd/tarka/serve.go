package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/tarka/internal/ingest"
	"github.com/codeready-toolchain/tarka/internal/queue"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Alertmanager webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			publisher := queue.NewPublisher(a.dbClient)
			ingestPipeline := ingest.NewPipeline(a.store, publisher, a.cfg)
			server := ingest.NewServer(ingestPipeline)

			router := gin.New()
			router.Use(gin.Recovery())
			server.Register(router)
			router.GET("/metrics", gin.WrapH(promhttp.Handler()))

			a.logger.Info("starting webhook server", "addr", a.cfg.ListenAddr)
			return http.ListenAndServe(a.cfg.ListenAddr, router)
		},
	}
}
