package main

import (
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/log"
	"tracker/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)

	logger.Info("Starting tracker-worker", log.FieldOperation, log.OpStartup)
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	factory := backend.NewFactory(logger.Logger)

	res, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	writer, err := factory.CreateReportWriter(ctx, bcfg)
	if err != nil {
		return err
	}

	exporter := worker.NewExportWorker(res.Store, writer, time.Local)

	// Without a broker the schedule exports inline.
	var publisher worker.JobPublisher = exporter
	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client

		g.Go(func() error {
			return cli.IgnoreCanceled(client.ConsumeExportJobs(ctx, exporter.HandleExportJob))
		})
		logger.Info("Consuming export jobs",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Warn("AMQP disabled, scheduled exports run in process")
	}

	sched, err := exporter.Schedule(ctx, cfg.ExportCron, publisher)
	if err != nil {
		return err
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		<-sched.Stop().Done()
		return nil
	})

	return g.Wait()
}
