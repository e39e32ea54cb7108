package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/venue-sync/internal/domain"
	"github.com/robertarktes/venue-sync/internal/store"
)

func (s *Service) PostMessage(ctx context.Context, from domain.ChatRole, text string) (domain.ChatMessage, error) {
	if from != domain.ChatFromGuest && from != domain.ChatFromStaff {
		return domain.ChatMessage{}, errors.Wrapf(domain.ErrInvalidInput, "chat role %q", from)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, errors.Wrap(domain.ErrInvalidInput, "empty message")
	}
	m := domain.ChatMessage{ID: uuid.NewString(), From: from, Text: text, SentAt: s.clock.Now()}
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.ChatMessages().Put(m); err != nil {
			return err
		}
		tx.Emit(domain.EventNewChatMessage)
		return nil
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return m, nil
}

func (s *Service) ListMessages(ctx context.Context) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.ChatMessages().List()
		return err
	})
	return out, err
}

// RecordOfflineSale logs a counter sale. It does not touch product stock.
func (s *Service) RecordOfflineSale(ctx context.Context, sale domain.OfflineSale) (domain.OfflineSale, error) {
	if sale.Quantity < 1 {
		return domain.OfflineSale{}, errors.Wrapf(domain.ErrInvalidInput, "quantity %d", sale.Quantity)
	}
	if sale.Amount < 0 {
		return domain.OfflineSale{}, errors.Wrapf(domain.ErrInvalidInput, "amount %.2f", sale.Amount)
	}
	sale.ID = uuid.NewString()
	sale.Store = s.opts.StoreLabel
	sale.SoldAt = s.clock.Now()
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		if sale.ProductID != "" {
			p, err := tx.Products().Get(sale.ProductID)
			if err != nil {
				return err
			}
			if sale.Item == "" {
				sale.Item = p.Name
			}
		}
		if strings.TrimSpace(sale.Item) == "" {
			return errors.Wrap(domain.ErrInvalidInput, "sale without item")
		}
		return tx.OfflineSales().Put(sale)
	})
	if err != nil {
		return domain.OfflineSale{}, err
	}
	return sale, nil
}

func (s *Service) ListOfflineSales(ctx context.Context) ([]domain.OfflineSale, error) {
	var out []domain.OfflineSale
	err := s.store.View(ctx, func(v *store.View) error {
		var err error
		out, err = v.OfflineSales().List()
		return err
	})
	return out, err
}
