package store

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/venue-sync/internal/domain"
)

// Reader reads one collection. Every call decodes the stored list, so callers
// always work on their own copy.
type Reader[T any] struct {
	src  source
	coll domain.Collection
	id   func(T) string
}

func (r Reader[T]) List() ([]T, error) {
	raw, err := r.src.raw(r.coll)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Get returns the item with the given id or domain.ErrNotFound.
func (r Reader[T]) Get(id string) (T, error) {
	var zero T
	items, err := r.List()
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if r.id(it) == id {
			return it, nil
		}
	}
	return zero, errors.Wrapf(domain.ErrNotFound, "%s %s", r.coll, id)
}

// Repo reads and writes one collection inside a transaction. Writes always
// replace the whole list.
type Repo[T any] struct {
	Reader[T]
	tx *Tx
}

func (r Repo[T]) Replace(items []T) error {
	if items == nil {
		items = []T{}
	}
	return r.tx.stage(r.coll, items)
}

// Put replaces the item with the same id, or appends it.
func (r Repo[T]) Put(item T) error {
	items, err := r.List()
	if err != nil {
		return err
	}
	id := r.id(item)
	for i := range items {
		if r.id(items[i]) == id {
			items[i] = item
			return r.Replace(items)
		}
	}
	return r.Replace(append(items, item))
}

// Update loads the item, applies fn and stages the result. Nothing is staged
// if fn fails.
func (r Repo[T]) Update(id string, fn func(*T) error) (T, error) {
	item, err := r.Get(id)
	if err != nil {
		return item, err
	}
	if err := fn(&item); err != nil {
		return item, err
	}
	return item, r.Put(item)
}

func decodeList[T any](raw string) ([]T, error) {
	if raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrap(err, "decode collection")
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
