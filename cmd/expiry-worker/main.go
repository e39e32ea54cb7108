package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robertarktes/venue-sync/internal/app"
	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/clock"
	"github.com/robertarktes/venue-sync/internal/config"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/outbox"
	"github.com/robertarktes/venue-sync/internal/service"
	"github.com/robertarktes/venue-sync/internal/store"
	"github.com/robertarktes/venue-sync/internal/worker"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flagSet := pflag.NewFlagSet("expiry-worker", pflag.ExitOnError)
	interval := flagSet.Duration("interval", cfg.ExpiryInterval, "time between sweeps")
	once := flagSet.Bool("once", false, "run a single sweep and exit")
	flagSet.Parse(os.Args[1:])

	if cfg.StoreBackend == config.BackendMemory {
		log.Fatalf("expiry worker needs a shared store backend, STORE_BACKEND is %q", cfg.StoreBackend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "venue-expiry-worker")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open dependencies: %v", err)
	}
	defer deps.Close()

	sinks, err := deps.Sinks(logger)
	if err != nil {
		log.Fatalf("failed to create sinks: %v", err)
	}
	st := store.New(deps.Backend, outbox.NewPublisher(bus.New(logger), logger, sinks...), logger)
	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatalf("invalid venue options: %v", err)
	}
	w := worker.NewExpiryWorker(service.New(st, clock.Real(), opts, logger), logger)

	if *once {
		n, err := w.Sweep(ctx)
		if err != nil {
			log.Fatalf("sweep failed: %v", err)
		}
		logger.WithField("expired", n).Info("sweep finished")
		return
	}

	logger.WithField("interval", interval.String()).Info("expiry worker started")
	w.Run(ctx, *interval)
	logger.Info("Shutdown expiry worker")
}
