// Package app opens the infrastructure the commands share: the store backend
// and the optional redis, mongo and rabbit connections.
package app

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/robertarktes/venue-sync/internal/adapters/crdb"
	"github.com/robertarktes/venue-sync/internal/adapters/memory"
	mongoadapter "github.com/robertarktes/venue-sync/internal/adapters/mongo"
	"github.com/robertarktes/venue-sync/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/venue-sync/internal/adapters/redis"
	"github.com/robertarktes/venue-sync/internal/config"
	"github.com/robertarktes/venue-sync/internal/observability"
	"github.com/robertarktes/venue-sync/internal/outbox"
	"github.com/robertarktes/venue-sync/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MongoDatabase = "venue"

type Deps struct {
	Backend store.Backend
	Redis   *redisclient.Client
	Mongo   *mongo.Database
	Rabbit  *amqp.Connection

	closers []func()
}

// Open connects everything cfg names. Connections that are not configured
// stay nil.
func Open(ctx context.Context, cfg *config.Config, logger observability.Logger) (*Deps, error) {
	d := &Deps{}

	if cfg.RedisAddr != "" {
		d.Redis = redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		d.closers = append(d.closers, func() { d.Redis.Close() })
	}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		d.Backend = memory.NewKV()
	case config.BackendRedis:
		d.Backend = redisadapter.NewKV(d.Redis)
	case config.BackendCRDB:
		pool, err := pgxpool.New(ctx, cfg.CRDBDSN)
		if err != nil {
			d.Close()
			return nil, errors.Wrap(err, "connect to crdb")
		}
		d.closers = append(d.closers, pool.Close)
		repo := crdb.NewRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			d.Close()
			return nil, errors.Wrap(err, "migrate crdb")
		}
		d.Backend = repo
	}
	logger.WithField("backend", cfg.StoreBackend).Info("store backend ready")

	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			d.Close()
			return nil, errors.Wrap(err, "connect to mongo")
		}
		d.closers = append(d.closers, func() { client.Disconnect(context.Background()) })
		d.Mongo = client.Database(MongoDatabase)
	}

	if cfg.RabbitURL != "" {
		conn, err := amqp.Dial(cfg.RabbitURL)
		if err != nil {
			d.Close()
			return nil, errors.Wrap(err, "connect to rabbitmq")
		}
		d.closers = append(d.closers, func() { conn.Close() })
		d.Rabbit = conn
	}
	return d, nil
}

// Sinks returns the external notification sinks of the configured
// connections.
func (d *Deps) Sinks(logger observability.Logger) ([]outbox.Sink, error) {
	var sinks []outbox.Sink
	if d.Rabbit != nil {
		pub, err := rabbit.NewPublisher(d.Rabbit)
		if err != nil {
			return nil, errors.Wrap(err, "create rabbit publisher")
		}
		sinks = append(sinks, pub)
	}
	if d.Mongo != nil {
		sinks = append(sinks, mongoadapter.NewAuditLogger(d.Mongo, logger))
	}
	return sinks, nil
}

// Ping checks the store backend is reachable.
func (d *Deps) Ping(ctx context.Context) error {
	_, err := d.Backend.Get(ctx, "products")
	return err
}

func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
