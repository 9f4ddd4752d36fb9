package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"digital-store/internal/domain/payment"
	"digital-store/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const (
	keyOutcome = "webhook:outcome:%s:%s"
	// Gateways stop retrying well within two days.
	TTLOutcome = 48 * time.Hour
)

// OutcomeCache short-circuits redelivered webhooks. The payment event table
// stays the source of truth; a miss or a cache error just falls through to it.
type OutcomeCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewOutcomeCache(rdb redis.Cmdable) *OutcomeCache {
	return &OutcomeCache{rdb: rdb, ttl: TTLOutcome}
}

func OutcomeKey(gateway, eventID string) string {
	return fmt.Sprintf(keyOutcome, gateway, eventID)
}

func (c *OutcomeCache) Get(ctx context.Context, gateway, eventID string) (*payment.CachedOutcome, bool, error) {
	raw, err := c.rdb.Get(ctx, OutcomeKey(gateway, eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err, "get cached outcome")
	}
	var out payment.CachedOutcome
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, errs.Wrap(err, "decode cached outcome")
	}
	return &out, true, nil
}

func (c *OutcomeCache) Put(ctx context.Context, gateway, eventID string, outcome payment.CachedOutcome) error {
	if !outcome.Outcome.IsFinal() {
		return nil
	}
	raw, err := json.Marshal(outcome)
	if err != nil {
		return errs.Wrap(err, "encode cached outcome")
	}
	if err := c.rdb.Set(ctx, OutcomeKey(gateway, eventID), raw, c.ttl).Err(); err != nil {
		return errs.Wrap(err, "set cached outcome")
	}
	return nil
}

// NopCache is used when no redis address is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, string) (*payment.CachedOutcome, bool, error) {
	return nil, false, nil
}

func (NopCache) Put(context.Context, string, string, payment.CachedOutcome) error {
	return nil
}
