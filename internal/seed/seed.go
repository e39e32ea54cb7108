// Package seed loads a YAML file with the starting catalog, group-buy codes
// and points balance of a store.
package seed

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/service"
	"gopkg.in/yaml.v3"
)

type Product struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Image      string  `yaml:"image,omitempty"`
	PointPrice int     `yaml:"point_price"`
	Price      float64 `yaml:"price"`
	// Stock is omitted for unlimited products.
	Stock    *int   `yaml:"stock,omitempty"`
	OnShelf  bool   `yaml:"on_shelf"`
	Category string `yaml:"category,omitempty"`
}

type StaffTicket struct {
	Name   string `yaml:"name"`
	People int    `yaml:"people"`
}

type File struct {
	Products     []Product     `yaml:"products"`
	StaffTickets []StaffTicket `yaml:"staff_tickets"`
	Points       int           `yaml:"points"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse seed")
	}
	if f.Points < 0 {
		return nil, errors.Newf("seed points must not be negative, got %d", f.Points)
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed %s", path)
	}
	return Parse(data)
}

func (p Product) Product() domain.Product {
	return domain.Product{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		PointPrice: p.PointPrice,
		Price:      p.Price,
		Stock:      p.Stock,
		OnShelf:    p.OnShelf,
		Category:   p.Category,
	}
}

// Apply writes the seed through the service so every write is announced like
// any other change. Points are credited as a manual adjustment.
func Apply(ctx context.Context, svc *service.Service, f *File) error {
	products := make([]domain.Product, 0, len(f.Products))
	for _, p := range f.Products {
		products = append(products, p.Product())
	}
	if len(products) > 0 {
		if err := svc.ImportProducts(ctx, products); err != nil {
			return errors.Wrap(err, "seed products")
		}
	}
	for _, st := range f.StaffTickets {
		if _, err := svc.GenerateStaffTicket(ctx, st.Name, st.People); err != nil {
			return errors.Wrapf(err, "seed staff ticket %q", st.Name)
		}
	}
	if f.Points > 0 {
		if _, err := svc.AdjustPoints(ctx, f.Points, "seed"); err != nil {
			return errors.Wrap(err, "seed points")
		}
	}
	return nil
}

type CatalogWriter interface {
	UpsertProduct(ctx context.Context, p domain.Product) error
}

// ExportCatalog publishes the seed products to the head-office catalog.
func ExportCatalog(ctx context.Context, w CatalogWriter, f *File) error {
	for _, p := range f.Products {
		if p.ID == "" {
			return errors.Newf("catalog product %q needs an id", p.Name)
		}
		if err := w.UpsertProduct(ctx, p.Product()); err != nil {
			return errors.Wrapf(err, "export product %s", p.ID)
		}
	}
	return nil
}
