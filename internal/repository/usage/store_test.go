package usage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sideline-ai/sideline/internal/db"
)

type mockKV struct {
	mu      sync.Mutex
	data    map[string]int64
	ttls    map[string]time.Duration
	incErr  error
	getErr  error
	expires int
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return []byte(strconv.FormatInt(v, 10)), nil
}

func (m *mockKV) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return m.incErr
	}
	m.data[key] += val
	return nil
}

func (m *mockKV) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.ttls[key]; exists && nx {
		return nil
	}
	m.ttls[key] = ttl
	m.expires++
	return nil
}

func TestStore_AddSpend_AccumulatesBuckets(t *testing.T) {
	kv := newMockKV()
	s := New(kv, "sideline:")
	at := time.Date(2025, 9, 14, 13, 20, 0, 0, time.UTC)

	if err := s.AddSpend(context.Background(), "gpt-4o", at, 37); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if err := s.AddSpend(context.Background(), "gpt-4o", at.Add(10*time.Minute), 18); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	kv.mu.Lock()
	spend := kv.data["sideline:usage:gpt-4o:spend:2025-09-14T13"]
	reqs := kv.data["sideline:usage:gpt-4o:reqs:2025-09-14T13"]
	kv.mu.Unlock()
	if spend != 55 {
		t.Errorf("hour spend = %d, want 55", spend)
	}
	if reqs != 2 {
		t.Errorf("hour requests = %d, want 2", reqs)
	}

	day, err := s.DaySpend(context.Background(), at)
	if err != nil {
		t.Fatalf("DaySpend: %v", err)
	}
	if day != 55 {
		t.Errorf("day spend = %d, want 55", day)
	}
}

func TestStore_DayBucketSpansHoursAndModels(t *testing.T) {
	kv := newMockKV()
	s := New(kv, "sideline:")
	morning := time.Date(2025, 9, 14, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 9, 14, 21, 0, 0, 0, time.UTC)

	if err := s.AddSpend(context.Background(), "gpt-4o", morning, 100); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if err := s.AddSpend(context.Background(), "gpt-4-turbo", evening, 200); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	day, err := s.DaySpend(context.Background(), evening)
	if err != nil {
		t.Fatalf("DaySpend: %v", err)
	}
	if day != 300 {
		t.Errorf("day spend = %d, want 300", day)
	}
}

func TestStore_DayBucketsAreDisjoint(t *testing.T) {
	kv := newMockKV()
	s := New(kv, "sideline:")
	tonight := time.Date(2025, 9, 14, 23, 59, 0, 0, time.UTC)
	tomorrow := time.Date(2025, 9, 15, 0, 1, 0, 0, time.UTC)

	if err := s.AddSpend(context.Background(), "gpt-4o", tonight, 100); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}
	if err := s.AddSpend(context.Background(), "gpt-4o", tomorrow, 200); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	got, err := s.DaySpend(context.Background(), tonight)
	if err != nil {
		t.Fatalf("DaySpend: %v", err)
	}
	if got != 100 {
		t.Errorf("first day spend = %d, want 100", got)
	}
	got, err = s.DaySpend(context.Background(), tomorrow)
	if err != nil {
		t.Fatalf("DaySpend: %v", err)
	}
	if got != 200 {
		t.Errorf("second day spend = %d, want 200", got)
	}
}

func TestStore_TTLsPerBucketKind(t *testing.T) {
	kv := newMockKV()
	s := New(kv, "sideline:")
	at := time.Date(2025, 9, 14, 13, 20, 0, 0, time.UTC)

	if err := s.AddSpend(context.Background(), "gpt-4o", at, 37); err != nil {
		t.Fatalf("AddSpend: %v", err)
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()
	if got := kv.ttls["sideline:usage:gpt-4o:spend:2025-09-14T13"]; got != hourTTL {
		t.Errorf("hour bucket ttl = %v, want %v", got, hourTTL)
	}
	if got := kv.ttls["sideline:usage:day:2025-09-14"]; got != dayTTL {
		t.Errorf("day bucket ttl = %v, want %v", got, dayTTL)
	}
}

func TestStore_MissingBucketReadsZero(t *testing.T) {
	s := New(newMockKV(), "sideline:")

	day, err := s.DaySpend(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("DaySpend: %v", err)
	}
	if day != 0 {
		t.Errorf("day spend = %d, want 0 for missing bucket", day)
	}
}

func TestStore_IncrErrorPropagates(t *testing.T) {
	kv := newMockKV()
	kv.incErr = errors.New("connection refused")
	s := New(kv, "sideline:")

	if err := s.AddSpend(context.Background(), "gpt-4o", time.Now(), 10); err == nil {
		t.Fatal("expected error when INCRBY fails")
	}
}
