package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditLogger keeps an append-only record of every committed change so a
// divergence can be traced back after the fact.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}

func (a *AuditLogger) Name() string { return "mongo-audit" }

func (a *AuditLogger) Forward(ctx context.Context, n domain.Notification) error {
	colls := make([]string, len(n.Collections))
	for i, c := range n.Collections {
		colls[i] = string(c)
	}
	events := make([]string, len(n.Events))
	for i, e := range n.Events {
		events[i] = string(e)
	}
	return a.LogEvent(ctx, "store.changed", map[string]interface{}{
		"collections": colls,
		"events":      events,
	})
}

// Recent returns the latest audit entries, newest first.
func (a *AuditLogger) Recent(ctx context.Context, limit int64) ([]AuditLog, error) {
	cur, err := a.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	var out []AuditLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
