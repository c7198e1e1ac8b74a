package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cache"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/dashboard"
	apphttp "tracker/internal/http"
	"tracker/internal/identity"
	"tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Tracker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Tracker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext()
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateStore(ctx, bcfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	st := res.Store

	snapshots := cache.NewLRUCache[dashboard.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(snapshots)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	loader := dashboard.NewLoader(st, snapshots, logger.WithComponent(log.ComponentCache).Logger)

	g, ctx := errgroup.WithContext(ctx)

	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without cross-process updates", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			g.Go(func() error {
				err := cli.IgnoreCanceled(client.ConsumeChanges(ctx, func(n *amqp.ChangeNotice) {
					loader.Invalidate(n.OwnerID)
					st.Refresh(n.OwnerID)
				}))
				if err != nil {
					// Remote notices are best effort.
					logger.Error("Change notice consumer stopped", log.FieldError, err)
				}
				return nil
			})
			logger.Info("Cross-process updates enabled",
				"exchange", cfg.AMQPExchange,
				"origin", client.Origin())
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:        st,
		Loader:       loader,
		Tokens:       identity.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Logger:       logger,
		Transactions: services.NewTransactionService(st, publisher, logger.Logger),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g.Go(func() error {
		logger.Info("Starting tracker server",
			"port", cfg.Port,
			"backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
