package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robertarktes/venue-sync/internal/adapters/mongo"
	redisadapter "github.com/robertarktes/venue-sync/internal/adapters/redis"
	"github.com/robertarktes/venue-sync/internal/app"
	"github.com/robertarktes/venue-sync/internal/bus"
	"github.com/robertarktes/venue-sync/internal/clock"
	"github.com/robertarktes/venue-sync/internal/config"
	"github.com/robertarktes/venue-sync/internal/domain"
	httphandler "github.com/robertarktes/venue-sync/internal/http"
	"github.com/robertarktes/venue-sync/internal/idempotency"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/outbox"
	"github.com/robertarktes/venue-sync/internal/rateLimit"
	"github.com/robertarktes/venue-sync/internal/seed"
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

	flagSet := pflag.NewFlagSet("api", pflag.ExitOnError)
	addr := flagSet.String("addr", cfg.HTTPAddr, "listen address")
	seedPath := flagSet.String("seed", "", "YAML seed file applied at startup")
	exportCatalog := flagSet.Bool("export-catalog", false, "also write the seed products to the mongo catalog")
	runExpiry := flagSet.Bool("expiry-worker", cfg.StoreBackend == config.BackendMemory, "run the guest ticket expiry sweep in process")
	flagSet.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "venue-api")
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
	b := bus.New(logger)
	badges := bus.NewBadges(b)
	defer badges.Close()
	b.OnChange(func(_ context.Context, n domain.Notification) {
		logger.WithField("collections", n.Collections).WithField("events", n.Events).Debug("store changed")
	})

	st := store.New(deps.Backend, outbox.NewPublisher(b, logger, sinks...), logger)
	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatalf("invalid venue options: %v", err)
	}
	svc := service.New(st, clock.Real(), opts, logger)

	var idemp *idempotency.Idempotency
	var rl *rateLimit.RateLimiter
	if deps.Redis != nil {
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotency(deps.Redis), cfg.IdempotencyTTL)
		rl = rateLimit.NewRateLimiter(redisadapter.NewCache(deps.Redis))
	} else {
		idemp = idempotency.NewIdempotency(idempotency.NewMemoryBackend(), cfg.IdempotencyTTL)
	}

	var catalog httphandler.CatalogSource
	var catalogRepo *mongo.CatalogRepository
	if deps.Mongo != nil {
		catalogRepo = mongo.NewCatalogRepository(deps.Mongo, logger)
		catalog = catalogRepo
	}

	if *seedPath != "" {
		f, err := seed.Load(*seedPath)
		if err != nil {
			log.Fatalf("failed to load seed: %v", err)
		}
		if err := seed.Apply(ctx, svc, f); err != nil {
			log.Fatalf("failed to apply seed: %v", err)
		}
		if catalogRepo != nil && *exportCatalog {
			if err := seed.ExportCatalog(ctx, catalogRepo, f); err != nil {
				log.Fatalf("failed to export catalog: %v", err)
			}
		}
		logger.WithField("path", *seedPath).Info("seed applied")
	}

	handlers := httphandler.NewHandlers(svc, badges, catalog, deps.Ping)
	r := httphandler.SetupRouter(handlers, logger, rl, idemp)

	if *runExpiry {
		go worker.NewExpiryWorker(svc, logger).Run(ctx, cfg.ExpiryInterval)
	}

	srv := &http.Server{
		Addr:    *addr,
		Handler: r,
	}

	go func() {
		logger.WithField("addr", *addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
