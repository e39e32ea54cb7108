package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	mongoadapter "github.com/robertarktes/venue-sync/internal/adapters/mongo"
	"github.com/robertarktes/venue-sync/internal/adapters/rabbit"
	"github.com/robertarktes/venue-sync/internal/app"
	"github.com/robertarktes/venue-sync/internal/config"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flagSet := pflag.NewFlagSet("event-relay", pflag.ExitOnError)
	queue := flagSet.String("queue", "venue.relay", "queue bound to the events exchange")
	recent := flagSet.Int64("recent", 0, "print this many recent audit entries and exit")
	flagSet.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := observability.SetupOTel(ctx, cfg, "venue-event-relay")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger(cfg.LogLevel)

	// The relay never touches the shared store itself.
	cfg.StoreBackend = config.BackendMemory
	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open dependencies: %v", err)
	}
	defer deps.Close()

	var audit *mongoadapter.AuditLogger
	if deps.Mongo != nil {
		audit = mongoadapter.NewAuditLogger(deps.Mongo, logger)
	}

	if *recent > 0 {
		if audit == nil {
			log.Fatalf("--recent needs MONGO_URI")
		}
		entries, err := audit.Recent(ctx, *recent)
		if err != nil {
			log.Fatalf("failed to read audit log: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		for _, e := range entries {
			enc.Encode(e)
		}
		return
	}

	if deps.Rabbit == nil {
		log.Fatalf("event relay needs RABBIT_URL")
	}
	consumer, err := rabbit.NewConsumer(deps.Rabbit, *queue)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	logger.WithField("queue", *queue).Info("event relay started")
	err = consumer.Consume(ctx, func(ctx context.Context, key string, n domain.Notification) error {
		logger.WithField("routing_key", key).WithField("collections", n.Collections).Info("event received")
		if audit == nil || key == rabbit.ChangeRoutingKey {
			return nil
		}
		return audit.LogEvent(ctx, "relay."+key, map[string]interface{}{"collections": collectionNames(n)})
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("consume: %v", err)
	}
	logger.Info("Shutdown event relay")
}

func collectionNames(n domain.Notification) []string {
	out := make([]string, len(n.Collections))
	for i, c := range n.Collections {
		out[i] = string(c)
	}
	return out
}
