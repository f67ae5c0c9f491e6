package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
)

func newVehicleStore(t *testing.T) *MemoryStore[*model.Vehicle] {
	t.Helper()
	store := NewMemoryStore(func() *model.Vehicle { return &model.Vehicle{} }, "car_id", "license_plate")
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func seedVehicles(t *testing.T, store Store[*model.Vehicle], vehicles ...*model.Vehicle) {
	t.Helper()
	for _, v := range vehicles {
		if err := store.Create(context.Background(), v); err != nil {
			t.Fatalf("Create(%s) failed: %v", v.CarID, err)
		}
	}
}

func mustCompile(t *testing.T, resource string, params map[string]string) filter.Condition {
	t.Helper()
	cond, err := filter.Compile(resource, params)
	if err != nil {
		t.Fatalf("Compile(%v) failed: %v", params, err)
	}
	return cond
}

func TestMemoryStoreFindFiltersAndOrders(t *testing.T) {
	store := newVehicleStore(t)
	seedVehicles(t, store,
		&model.Vehicle{CarID: "10000001", LicensePlate: "A1", Brand: "Tesla", PowerType: "electric"},
		&model.Vehicle{CarID: "10000002", LicensePlate: "A2", Brand: "tesla model", PowerType: "fuel"},
		&model.Vehicle{CarID: "10000003", LicensePlate: "A3", Brand: "Volvo", PowerType: "electric"},
	)

	tests := []struct {
		name   string
		params map[string]string
		want   []string
	}{
		{"empty condition", map[string]string{}, []string{"10000001", "10000002", "10000003"}},
		{"substring is case insensitive", map[string]string{"Brand": "TESLA"}, []string{"10000001", "10000002"}},
		{"enum equality", map[string]string{"PowerType": "electric"}, []string{"10000001", "10000003"}},
		{"conjunction", map[string]string{"Brand": "tesla", "PowerType": "fuel"}, []string{"10000002"}},
		{"regex metacharacters are literal", map[string]string{"Brand": "tes.a"}, nil},
		{"no match", map[string]string{"Project": "nothing"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := store.Find(context.Background(), mustCompile(t, filter.ResourceVehicle, tt.params), 0, 10)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if total != int64(len(tt.want)) {
				t.Errorf("total = %d, want %d", total, len(tt.want))
			}
			if len(items) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(items), len(tt.want))
			}
			for i, v := range items {
				if v.CarID != tt.want[i] {
					t.Errorf("items[%d].CarID = %s, want %s", i, v.CarID, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryStoreTimestampRange(t *testing.T) {
	store := newVehicleStore(t)
	t1 := time.Unix(1000, 0).UTC()
	t2 := time.Unix(2000, 0).UTC()
	seedVehicles(t, store,
		&model.Vehicle{CarID: "1", LicensePlate: "P1", BuyTime: &t1},
		&model.Vehicle{CarID: "2", LicensePlate: "P2", BuyTime: &t2},
		&model.Vehicle{CarID: "3", LicensePlate: "P3"},
	)

	items, total, err := store.Find(context.Background(),
		mustCompile(t, filter.ResourceVehicle, map[string]string{"minBuyTime": "1500", "maxBuyTime": "2000"}), 0, 10)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if total != 1 || items[0].CarID != "2" {
		t.Errorf("expected only vehicle 2 in range, got total=%d", total)
	}
}

func TestMemoryStoreSkipBeyondTotal(t *testing.T) {
	store := newVehicleStore(t)
	seedVehicles(t, store, &model.Vehicle{CarID: "1", LicensePlate: "P1"})

	items, total, err := store.Find(context.Background(), filter.Empty(filter.ResourceVehicle), 10, 10)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if total != 1 || len(items) != 0 {
		t.Errorf("expected total 1 and no items, got total=%d items=%d", total, len(items))
	}
}

func TestMemoryStoreMalformedReference(t *testing.T) {
	store := NewMemoryStore(func() *model.Driver { return &model.Driver{} })
	cond := mustCompile(t, filter.ResourceDriver, map[string]string{"Vehicle": "not-a-uuid"})

	_, _, err := store.Find(context.Background(), cond, 0, 10)
	if !errors.Is(err, domainerrors.ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestMemoryStoreReferenceFilter(t *testing.T) {
	store := NewMemoryStore(func() *model.Driver { return &model.Driver{} })
	vehicleID := NewID()
	other := NewID()
	for _, ref := range []*string{&vehicleID, &other, nil} {
		if err := store.Create(context.Background(), &model.Driver{DriverID: NewID()[:8], VehicleID: ref}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	_, total, err := store.Find(context.Background(),
		mustCompile(t, filter.ResourceDriver, map[string]string{"Vehicle": vehicleID}), 0, 10)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := newVehicleStore(t)

	v := &model.Vehicle{CarID: "12345678", LicensePlate: "XY-1"}
	if err := store.Create(ctx, v); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v.ID == "" || v.CreatedAt.IsZero() {
		t.Fatal("expected Create to assign id and created_at")
	}

	dup := &model.Vehicle{CarID: "87654321", LicensePlate: "XY-1"}
	if err := store.Create(ctx, dup); !errors.Is(err, domainerrors.ErrStoreConflict) {
		t.Errorf("expected ErrStoreConflict for duplicate plate, got %v", err)
	}

	got, err := store.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Brand = "Nio"
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reloaded, _ := store.Get(ctx, v.ID)
	if reloaded.Brand != "Nio" {
		t.Errorf("Brand = %q, want Nio", reloaded.Brand)
	}
	if !reloaded.CreatedAt.Equal(v.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v != %v", reloaded.CreatedAt, v.CreatedAt)
	}
	if !reloaded.UpdatedAt.After(v.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}

	if err := store.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, v.ID); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, v.ID); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := store.Update(ctx, v); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating a deleted entity, got %v", err)
	}
}

func TestMemoryStoreDistinct(t *testing.T) {
	store := newVehicleStore(t)
	seedVehicles(t, store,
		&model.Vehicle{CarID: "1", LicensePlate: "P1", Project: "beta"},
		&model.Vehicle{CarID: "2", LicensePlate: "P2", Project: "alpha"},
		&model.Vehicle{CarID: "3", LicensePlate: "P3", Project: "beta"},
		&model.Vehicle{CarID: "4", LicensePlate: "P4"},
	)

	got, err := store.Distinct(context.Background(), "project")
	if err != nil {
		t.Fatalf("Distinct() error = %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Errorf("Distinct() = %v, want [alpha beta]", got)
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := newVehicleStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Find(ctx, filter.Empty(filter.ResourceVehicle), 0, 10)
	if !IsUnavailable(err) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestMemoryStoreUpdateFieldsKeepsOtherFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(func() *model.User { return &model.User{} }, "email", "username")

	u := &model.User{Email: "rina@example.com", Username: "rina", PasswordHash: "old-hash"}
	other := &model.User{Email: "budi@example.com", Username: "budi", PasswordHash: "x"}
	for _, e := range []*model.User{u, other} {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	fresh, _ := store.Get(ctx, u.ID)
	fresh.PasswordHash = "new-hash"
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	before, _ := store.Get(ctx, u.ID)

	seen := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	if err := store.UpdateFields(ctx, u.ID, map[string]any{"last_seen": seen}); err != nil {
		t.Fatalf("UpdateFields() error = %v", err)
	}

	got, _ := store.Get(ctx, u.ID)
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want new-hash", got.PasswordHash)
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}
	if !got.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("UpdatedAt moved from %v to %v", before.UpdatedAt, got.UpdatedAt)
	}

	err := store.UpdateFields(ctx, u.ID, map[string]any{"email": "budi@example.com"})
	if !errors.Is(err, domainerrors.ErrStoreConflict) {
		t.Errorf("expected ErrStoreConflict, got %v", err)
	}
	if err := store.UpdateFields(ctx, NewID(), map[string]any{"last_seen": seen}); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing id, got %v", err)
	}
}
