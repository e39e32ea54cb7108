package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

// ProductStock is a product with its derived availability. Available is nil
// for products without a stock counter.
type ProductStock struct {
	domain.Product
	Available *int `json:"available"`
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Wrap(domain.ErrInvalidInput, "product name is empty")
	}
	if p.PointPrice < 0 || p.Price < 0 {
		return errors.Wrapf(domain.ErrInvalidInput, "product %s has a negative price", p.Name)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return errors.Wrapf(domain.ErrInvalidInput, "product %s has negative stock", p.Name)
	}
	return nil
}

// UpsertProduct creates or replaces a product. An empty ID creates one.
func (s *Service) UpsertProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		tickets, err := tx.MerchTickets().List()
		if err != nil {
			return err
		}
		if err := domain.CheckRestock(p, tickets); err != nil {
			return err
		}
		return tx.Products().Put(p)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// ImportProducts upserts a batch of products in one commit.
func (s *Service) ImportProducts(ctx context.Context, products []domain.Product) error {
	for i := range products {
		if err := validateProduct(products[i]); err != nil {
			return err
		}
		if products[i].ID == "" {
			products[i].ID = uuid.NewString()
		}
	}
	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		tickets, err := tx.MerchTickets().List()
		if err != nil {
			return err
		}
		for _, p := range products {
			if err := domain.CheckRestock(p, tickets); err != nil {
				return err
			}
			if err := tx.Products().Put(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetOnShelf lists or delists a product. Existing claims are unaffected.
func (s *Service) SetOnShelf(ctx context.Context, id string, onShelf bool) (domain.Product, error) {
	var out domain.Product
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		p, err := tx.Products().Update(id, func(p *domain.Product) error {
			p.OnShelf = onShelf
			return nil
		})
		out = p
		return err
	})
	if err != nil {
		return domain.Product{}, err
	}
	return out, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]ProductStock, error) {
	var out []ProductStock
	err := s.store.View(ctx, func(v *store.View) error {
		products, err := v.Products().List()
		if err != nil {
			return err
		}
		tickets, err := v.MerchTickets().List()
		if err != nil {
			return err
		}
		out = make([]ProductStock, 0, len(products))
		for _, p := range products {
			ps := ProductStock{Product: p}
			if n, ok := domain.AvailableStock(p, tickets); ok {
				ps.Available = &n
			}
			out = append(out, ps)
		}
		return nil
	})
	return out, err
}
