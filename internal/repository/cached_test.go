package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
)

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	counter map[string]int64
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, counter: map[string]int64{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = data
	return nil
}

func (c *fakeCache) Counter(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter[key], c.err
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.counter[key]++
	return c.counter[key], nil
}

type countingFinder struct {
	Finder[*model.Vehicle]
	calls int
}

func (f *countingFinder) Find(ctx context.Context, cond filter.Condition, page int) (pagination.Result[*model.Vehicle], error) {
	f.calls++
	return f.Finder.Find(ctx, cond, page)
}

func TestCachedFinderServesRepeatsFromCache(t *testing.T) {
	mem := newVehicleStore(t)
	seedN(t, mem, 12)
	inner := &countingFinder{Finder: NewExecutor[*model.Vehicle](mem)}
	cache := newFakeCache()
	finder := NewCachedFinder[*model.Vehicle](inner, cache, filter.ResourceVehicle, time.Minute)
	cond := filter.Empty(filter.ResourceVehicle)

	first, err := finder.Find(context.Background(), cond, 2)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	second, err := finder.Find(context.Background(), cond, 2)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if second.Total != 12 || len(second.Items) != 2 || !second.HasPrev || second.HasNext {
		t.Errorf("cached page = %+v", second)
	}
	if second.Items[0].ID != first.Items[0].ID || !second.Items[0].CreatedAt.Equal(first.Items[0].CreatedAt) {
		t.Error("cached items differ from stored items")
	}
}

func TestInvalidatingStoreBumpsGeneration(t *testing.T) {
	mem := newVehicleStore(t)
	cache := newFakeCache()
	store := NewInvalidatingStore[*model.Vehicle](mem, cache, filter.ResourceVehicle)
	inner := &countingFinder{Finder: NewExecutor[*model.Vehicle](store)}
	finder := NewCachedFinder[*model.Vehicle](inner, cache, filter.ResourceVehicle, time.Minute)
	cond := filter.Empty(filter.ResourceVehicle)

	if res, _ := finder.Find(context.Background(), cond, 1); res.Total != 0 {
		t.Fatalf("Total = %d, want 0", res.Total)
	}
	if err := store.Create(context.Background(), &model.Vehicle{CarID: "1", LicensePlate: "P1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := finder.Find(context.Background(), cond, 1)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total after create = %d, want 1", res.Total)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if cache.counter[GenerationKey(filter.ResourceVehicle)] != 1 {
		t.Error("expected generation to be bumped once")
	}
}

func TestCachedFinderFallsBackWhenCacheFails(t *testing.T) {
	mem := newVehicleStore(t)
	seedN(t, mem, 3)
	cache := newFakeCache()
	cache.err = errors.New("connection refused")
	finder := NewCachedFinder[*model.Vehicle](NewExecutor[*model.Vehicle](mem), cache, filter.ResourceVehicle, time.Minute)

	res, err := finder.Find(context.Background(), filter.Empty(filter.ResourceVehicle), 1)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
}

func TestPageKeyDependsOnConditionPageAndGeneration(t *testing.T) {
	a := mustCompile(t, filter.ResourceVehicle, map[string]string{"Brand": "x"})
	b := mustCompile(t, filter.ResourceVehicle, map[string]string{"Brand": "y"})

	keys := map[string]bool{
		PageKey(filter.ResourceVehicle, 0, a, 1): true,
		PageKey(filter.ResourceVehicle, 0, a, 2): true,
		PageKey(filter.ResourceVehicle, 1, a, 1): true,
		PageKey(filter.ResourceVehicle, 0, b, 1): true,
	}
	if len(keys) != 4 {
		t.Errorf("expected 4 distinct keys, got %d", len(keys))
	}
}
