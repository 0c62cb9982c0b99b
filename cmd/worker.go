package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/loomtrack/services/supplychain/internal/messaging"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to ingest workbench inspection events and reconcile lot aggregates`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := buildDependencies()
	if err != nil {
		return err
	}
	defer deps.close()

	g, ctx := errgroup.WithContext(ctx)

	azureBus, err := messaging.NewAzureServiceBus(deps.cfg.Azure, deps.tracer)
	if err != nil {
		return err
	}
	defer azureBus.Close()

	g.Go(func() error {
		log.Info().Str("queue", deps.cfg.Azure.QueueName).Msg("Starting inspection event processor")
		return azureBus.ProcessMessages(ctx, deps.lotService.HandleInspectionMessage)
	})

	// Fallback reconciliation for aggregates missed by the event path.
	g.Go(func() error {
		log.Info().
			Dur("interval", deps.cfg.Worker.ReconcileInterval).
			Msg("Starting lot aggregate reconciliation job")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(deps.cfg.Worker.ReconcileInterval),
			gocron.NewTask(func() {
				if err := deps.lotService.ReconcileLotAggregates(ctx, deps.cfg.Worker.ReconcileBatch); err != nil {
					log.Error().Err(err).Msg("Failed to reconcile lot aggregates")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
