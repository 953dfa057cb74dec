// Package usage persists AI spend counters as a write-behind mirror of the
// in-memory ledger: per-model hour buckets for dashboards plus a per-day
// total read back into the usage report. The counters survive restarts; the
// guard's own ledger stays authoritative for admission.
package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sideline-ai/sideline/internal/db"
)

// hourTTL keeps hour buckets around one extra hour past the rolling window.
// dayTTL keeps the day bucket readable for a full day after it stops growing.
const (
	hourTTL = 2 * time.Hour
	dayTTL  = 48 * time.Hour
)

// store is the consumer interface for counter operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store implements guard.UsageStore on top of a KV store (INCRBY + EXPIRE NX).
type Store struct {
	store  store
	prefix string
}

// New creates a usage counter store. prefix namespaces the keys
// (e.g. "sideline:").
func New(s store, prefix string) *Store {
	return &Store{store: s, prefix: prefix}
}

// AddSpend adds costMillidollars to the model's hour bucket and to the day
// bucket, and bumps the model's hourly request counter. TTLs are set NX so
// repeats don't extend them.
func (s *Store) AddSpend(ctx context.Context, model string, at time.Time, costMillidollars int64) error {
	if err := s.incrWithTTL(ctx, s.spendKey(model, at), costMillidollars, hourTTL); err != nil {
		return err
	}
	if err := s.incrWithTTL(ctx, s.requestsKey(model, at), 1, hourTTL); err != nil {
		return err
	}
	return s.incrWithTTL(ctx, s.dayKey(at), costMillidollars, dayTTL)
}

// DaySpend returns the persisted spend (millidollars) across all models for
// the UTC calendar day containing at. Returns 0 for missing buckets.
func (s *Store) DaySpend(ctx context.Context, at time.Time) (int64, error) {
	return s.getCounter(ctx, s.dayKey(at))
}

func (s *Store) incrWithTTL(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("usage INCRBY %s: %w", key, err)
	}
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("usage EXPIRE %s: %w", key, err)
	}
	return nil
}

func (s *Store) getCounter(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("usage GET %s parse: %w", key, err)
	}
	return val, nil
}

func (s *Store) spendKey(model string, at time.Time) string {
	return fmt.Sprintf("%susage:%s:spend:%s", s.prefix, model, at.UTC().Format("2006-01-02T15"))
}

func (s *Store) requestsKey(model string, at time.Time) string {
	return fmt.Sprintf("%susage:%s:reqs:%s", s.prefix, model, at.UTC().Format("2006-01-02T15"))
}

func (s *Store) dayKey(at time.Time) string {
	return fmt.Sprintf("%susage:day:%s", s.prefix, at.UTC().Format("2006-01-02"))
}
