package mongo

import (
	"context"
	"time"

	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository is the head-office product catalog. Stores import it into
// their shared store; it is never written by the views.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("products"),
		logger: logger,
	}
}

type ProductDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Image      string    `bson:"image"`
	PointPrice int       `bson:"point_price"`
	Price      float64   `bson:"price"`
	Stock      *int      `bson:"stock"`
	OnShelf    bool      `bson:"on_shelf"`
	Category   string    `bson:"category"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d ProductDoc) Product() domain.Product {
	return domain.Product{
		ID:         d.ID,
		Name:       d.Name,
		Image:      d.Image,
		PointPrice: d.PointPrice,
		Price:      d.Price,
		Stock:      d.Stock,
		OnShelf:    d.OnShelf,
		Category:   d.Category,
	}
}

func (c *CatalogRepository) Products(ctx context.Context) ([]domain.Product, error) {
	cur, err := c.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		c.logger.Error("failed to list catalog products", err)
		return nil, err
	}
	var docs []ProductDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(docs))
	for i, d := range docs {
		out[i] = d.Product()
	}
	return out, nil
}

func (c *CatalogRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	doc := ProductDoc{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		PointPrice: p.PointPrice,
		Price:      p.Price,
		Stock:      p.Stock,
		OnShelf:    p.OnShelf,
		Category:   p.Category,
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		c.logger.Error("failed to upsert catalog product", err)
		return err
	}
	return nil
}
