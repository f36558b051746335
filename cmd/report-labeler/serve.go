package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/api"
	"github.com/Lllllllleong/reportlabeler/internal/app"
)

func newGatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Serves the report webhook on server.port",
		Long: `Serves GET /tableau-webhook?sheet_name=..&region=.. which fetches the
report view from backend.base_url, labels it and returns the labeled PDF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			fn, err := a.ReportLabeler()
			if err != nil {
				return err
			}
			e.logger.Info("Starting report gateway.",
				zap.String("backend", e.cfg.Backend.BaseURL),
				zap.String("labelingMode", e.cfg.Labeling.Mode),
			)
			server := api.NewGatewayServer(fn, e.logger.Named("api"), api.WithReadiness(a.Ready))
			return app.Serve(cmd.Context(), e.cfg.Server.Port, server.Handler(), e.logger)
		},
	}
}

func newLabelingServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labeling-service",
		Short: "Serves the multipart labeling endpoint on labeling.port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.LabelingService()
			if err != nil {
				return err
			}
			e.logger.Info("Starting labeling service.", zap.String("defaultText", svc.DefaultLabelText()))
			server := api.NewLabelingServer(svc, e.logger.Named("api"),
				api.WithReadiness(a.Ready),
				api.WithMaxUploadBytes(e.cfg.Backend.MaxDocumentBytes),
			)
			return app.Serve(cmd.Context(), e.cfg.Labeling.Port, server.Handler(), e.logger)
		},
	}
}
