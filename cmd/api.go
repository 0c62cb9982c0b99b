package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/loomtrack/services/supplychain/internal/api"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for lots, pipelines, capabilities and the role catalog`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := buildDependencies()
	if err != nil {
		return err
	}
	defer deps.close()

	server := api.NewServer(
		deps.cfg,
		deps.lotService,
		deps.pipelineService,
		deps.catalogService,
		deps.capabilityService,
		deps.metrics,
		deps.tracer,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
