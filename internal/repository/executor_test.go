package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
)

func seedN(t *testing.T, store Store[*model.Vehicle], n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		v := &model.Vehicle{CarID: fmt.Sprintf("%08d", i), LicensePlate: fmt.Sprintf("PL-%d", i)}
		if err := store.Create(context.Background(), v); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
}

func TestExecutorPages(t *testing.T) {
	store := newVehicleStore(t)
	seedN(t, store, 23)
	exec := NewExecutor[*model.Vehicle](store)
	cond := filter.Empty(filter.ResourceVehicle)

	tests := []struct {
		page     int
		wantLen  int
		wantPrev bool
		wantNext bool
	}{
		{1, 10, false, true},
		{2, 10, true, true},
		{3, 3, true, false},
		{4, 0, true, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			res, err := exec.Find(context.Background(), cond, tt.page)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if len(res.Items) != tt.wantLen {
				t.Errorf("len(Items) = %d, want %d", len(res.Items), tt.wantLen)
			}
			if res.Total != 23 {
				t.Errorf("Total = %d, want 23", res.Total)
			}
			if res.HasPrev != tt.wantPrev || res.HasNext != tt.wantNext {
				t.Errorf("HasPrev/HasNext = %v/%v, want %v/%v", res.HasPrev, res.HasNext, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestExecutorRejectsInvalidPage(t *testing.T) {
	exec := NewExecutor[*model.Vehicle](newVehicleStore(t))

	for _, page := range []int{0, -1, math.MaxInt/10 + 2, math.MaxInt} {
		_, err := exec.Find(context.Background(), filter.Empty(filter.ResourceVehicle), page)
		if !errors.Is(err, domainerrors.ErrInvalidPage) {
			t.Errorf("page %d: expected ErrInvalidPage, got %v", page, err)
		}
	}
}

// Walking every page of a listing yields each match exactly once.
func TestPropertyPagesPartitionMatches(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("pages are disjoint and cover all matches", prop.ForAll(
		func(n int) bool {
			store := newVehicleStore(t)
			seedN(t, store, n)
			exec := NewExecutor[*model.Vehicle](store)
			cond := filter.Empty(filter.ResourceVehicle)

			seen := make(map[string]bool)
			for page := 1; ; page++ {
				res, err := exec.Find(context.Background(), cond, page)
				if err != nil || res.Total != int64(n) {
					return false
				}
				for _, v := range res.Items {
					if seen[v.ID] {
						return false
					}
					seen[v.ID] = true
				}
				if !res.HasNext {
					break
				}
			}
			return len(seen) == n
		},
		gen.IntRange(0, 45),
	))

	properties.TestingRun(t)
}

var propertyParams = []struct {
	name   string
	values []string
}{
	{"Project", []string{"alpha", "beta"}},
	{"Brand", []string{"To", "Tesla", "a"}},
	{"PowerType", filter.PowerTypes},
	{"AutonomousVehicle", []string{"true", "false"}},
}

// Adding parameters to a search never widens its result set.
func TestPropertyMoreParamsNarrowResults(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	brands := []string{"Toyota", "Tesla", "Isuzu", "Mazda"}

	properties.Property("a superset of parameters matches a subset of entities", prop.ForAll(
		func(seed int64, fullMask, subMask uint8) bool {
			rng := rand.New(rand.NewSource(seed))
			store := newVehicleStore(t)
			for i := 0; i < 25; i++ {
				v := &model.Vehicle{
					CarID:             fmt.Sprintf("%08d", i),
					LicensePlate:      fmt.Sprintf("PL-%d", i),
					Project:           propertyParams[0].values[rng.Intn(2)],
					Brand:             brands[rng.Intn(len(brands))],
					PowerType:         filter.PowerTypes[rng.Intn(len(filter.PowerTypes))],
					AutonomousVehicle: rng.Intn(2) == 0,
				}
				if err := store.Create(context.Background(), v); err != nil {
					return false
				}
			}

			full := make(map[string]string)
			sub := make(map[string]string)
			for i, p := range propertyParams {
				if fullMask&(1<<i) == 0 {
					continue
				}
				value := p.values[rng.Intn(len(p.values))]
				full[p.name] = value
				if subMask&(1<<i) != 0 {
					sub[p.name] = value
				}
			}

			wide, err := matchIDs(store, sub)
			if err != nil {
				return false
			}
			narrow, err := matchIDs(store, full)
			if err != nil {
				return false
			}
			for id := range narrow {
				if !wide[id] {
					return false
				}
			}
			return len(narrow) <= len(wide)
		},
		gen.Int64(),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

func matchIDs(store Store[*model.Vehicle], params map[string]string) (map[string]bool, error) {
	cond, err := filter.Compile(filter.ResourceVehicle, params)
	if err != nil {
		return nil, err
	}
	items, _, err := store.Find(context.Background(), cond, 0, 100)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(items))
	for _, v := range items {
		ids[v.ID] = true
	}
	return ids, nil
}
