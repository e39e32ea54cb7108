package redis

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robertarktes/venue-sync/internal/domain"
)

const kvPrefix = "venue:"

// KV is the shared store backend on redis. Commits use WATCH/MULTI so a key
// changed by another process since it was read aborts the commit.
type KV struct {
	client *redis.Client
}

func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

func (kv *KV) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = kvPrefix + k
	}
	vals, err := kv.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

func (kv *KV) CompareAndSwap(ctx context.Context, expect, writes map[string]string) error {
	watched := make([]string, 0, len(expect))
	for k := range expect {
		watched = append(watched, kvPrefix+k)
	}
	err := kv.client.Watch(ctx, func(tx *redis.Tx) error {
		for k, want := range expect {
			got, err := tx.Get(ctx, kvPrefix+k).Result()
			if err == redis.Nil {
				got = ""
			} else if err != nil {
				return err
			}
			if got != want {
				return domain.ErrSerializationFailure
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for k, v := range writes {
				pipe.Set(ctx, kvPrefix+k, v, 0)
			}
			return nil
		})
		return err
	}, watched...)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrSerializationFailure
	}
	return err
}
