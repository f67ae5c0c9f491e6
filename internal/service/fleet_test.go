package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
)

func int64Ptr(v int64) *int64 { return &v }

func TestVehicleCreateGeneratesCarID(t *testing.T) {
	f := newFleetFixture()
	f.vehicles.codes = func() string { return "12345678" }

	v, err := f.vehicles.Create(context.Background(), confirmedCaller, dto.VehicleRequest{
		LicensePlate: "B 1234 XY",
		PowerType:    "electric",
		BuyTime:      int64Ptr(1_600_000_000),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v.CarID != "12345678" {
		t.Errorf("CarID = %q, want 12345678", v.CarID)
	}
	if v.URL != "/api/v1/vehicles/"+v.ID {
		t.Errorf("URL = %q", v.URL)
	}
	if v.BuyTime == nil || *v.BuyTime != 1_600_000_000 {
		t.Errorf("BuyTime = %v, want 1600000000", v.BuyTime)
	}
}

func TestVehicleCarIDCollisionRetries(t *testing.T) {
	f := newFleetFixture()
	codes := []string{"11111111", "11111111", "22222222"}
	f.vehicles.codes = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	ctx := context.Background()
	if _, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "A"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	v, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "B"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if v.CarID != "22222222" {
		t.Errorf("CarID = %q, want 22222222", v.CarID)
	}
}

func TestVehicleDuplicatePlate(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	first, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "DUP"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "DUP"})
	if !errors.Is(err, domainerrors.ErrStoreConflict) {
		t.Fatalf("Create() error = %v, want store conflict", err)
	}
	if got := domainerrors.GetErrorMessage(err); got != "License plate already registered." {
		t.Errorf("message = %q", got)
	}

	// Saving the same vehicle with its own plate is not a conflict.
	if _, err := f.vehicles.Update(ctx, confirmedCaller, first.ID, dto.VehicleRequest{LicensePlate: "DUP", Brand: "Volvo"}); err != nil {
		t.Errorf("Update() error = %v", err)
	}
}

func TestMutationsRequireConfirmedCaller(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()
	unconfirmed := dto.Caller{UserID: "u"}

	if _, err := f.vehicles.Create(ctx, unconfirmed, dto.VehicleRequest{LicensePlate: "X"}); !errors.Is(err, domainerrors.ErrUnconfirmed) {
		t.Errorf("Create() error = %v, want unconfirmed", err)
	}
	if _, err := f.drivers.Update(ctx, unconfirmed, "id", dto.DriverRequest{FirstName: "A"}); !errors.Is(err, domainerrors.ErrUnconfirmed) {
		t.Errorf("Update() error = %v, want unconfirmed", err)
	}
	if err := f.tasks.Delete(ctx, unconfirmed, "id"); !errors.Is(err, domainerrors.ErrUnconfirmed) {
		t.Errorf("Delete() error = %v, want unconfirmed", err)
	}
}

func TestVehicleListFilters(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	for _, req := range []dto.VehicleRequest{
		{LicensePlate: "P1", Brand: "Tesla Model 3", PowerType: "electric", Project: "alpha"},
		{LicensePlate: "P2", Brand: "Toyota", PowerType: "hybrid", Project: "beta"},
		{LicensePlate: "P3", Brand: "tesla Model Y", PowerType: "electric", Project: "alpha"},
	} {
		if _, err := f.vehicles.Create(ctx, confirmedCaller, req); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		params  map[string]string
		want    int64
		wantErr error
	}{
		{"no filter", map[string]string{}, 3, nil},
		{"brand substring", map[string]string{"Brand": "TESLA"}, 2, nil},
		{"enum", map[string]string{"PowerType": "hybrid"}, 1, nil},
		{"bad enum", map[string]string{"PowerType": "steam"}, 0, domainerrors.ErrBadEnum},
		{"unknown field", map[string]string{"Color": "red"}, 0, domainerrors.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.vehicles.List(ctx, tt.params, 1)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("List() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want {
				t.Errorf("Total = %d, want %d", res.Total, tt.want)
			}
		})
	}

	projects, err := f.vehicles.Projects(ctx)
	if err != nil {
		t.Fatalf("Projects() error = %v", err)
	}
	if len(projects) != 2 || projects[0] != "alpha" || projects[1] != "beta" {
		t.Errorf("Projects() = %v, want [alpha beta]", projects)
	}
}

func TestVehicleDropdownSpansBatches(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	for i := 0; i < dropdownBatch+5; i++ {
		if _, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: randomCode()}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	options, err := f.vehicles.Dropdown(ctx)
	if err != nil {
		t.Fatalf("Dropdown() error = %v", err)
	}
	if len(options) != dropdownBatch+5 {
		t.Errorf("len(Dropdown()) = %d, want %d", len(options), dropdownBatch+5)
	}
}

func TestVehiclePlateSentinelDoesNotConflict(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	if _, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "P-1"}); err != nil {
		t.Fatalf("Create(P-1) error = %v", err)
	}
	for _, plate := range []string{"NaN", "null"} {
		if _, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: plate}); err != nil {
			t.Errorf("Create(%s) error = %v, want nil", plate, err)
		}
	}
}

func TestDriverDropdown(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	created, err := f.drivers.Create(ctx, confirmedCaller, dto.DriverRequest{DriverID: "00000042", FirstName: "Ana", LastName: "Putri"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < dropdownBatch; i++ {
		if _, err := f.drivers.Create(ctx, confirmedCaller, dto.DriverRequest{FirstName: fmt.Sprintf("Driver %d", i)}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	options, err := f.drivers.Dropdown(ctx)
	if err != nil {
		t.Fatalf("Dropdown() error = %v", err)
	}
	if len(options) != dropdownBatch+1 {
		t.Fatalf("len(Dropdown()) = %d, want %d", len(options), dropdownBatch+1)
	}
	want := dto.DriverOption{ID: created.ID, DriverID: "00000042", FirstName: "Ana", LastName: "Putri"}
	var found bool
	for _, o := range options {
		if o.ID == created.ID {
			found = o == want
		}
	}
	if !found {
		t.Errorf("Dropdown() missing %+v", want)
	}
}

func TestDriverRejectsMissingVehicle(t *testing.T) {
	f := newFleetFixture()

	_, err := f.drivers.Create(context.Background(), confirmedCaller, dto.DriverRequest{
		FirstName: "Ana",
		Vehicle:   "0b7f7c8e-4f60-4c3e-9a55-2d8f7c4a1e11",
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("Create() error = %v, want invalid input", err)
	}
	if got := domainerrors.GetErrorMessage(err); got != "Vehicle not found." {
		t.Errorf("message = %q", got)
	}
}

func TestTaskLifecycle(t *testing.T) {
	f := newFleetFixture()
	ctx := context.Background()

	v, err := f.vehicles.Create(ctx, confirmedCaller, dto.VehicleRequest{LicensePlate: "T1"})
	if err != nil {
		t.Fatalf("Create vehicle error = %v", err)
	}
	d, err := f.drivers.Create(ctx, confirmedCaller, dto.DriverRequest{FirstName: "Budi", Vehicle: v.ID})
	if err != nil {
		t.Fatalf("Create driver error = %v", err)
	}

	task, err := f.tasks.Create(ctx, confirmedCaller, dto.AssignmentRequest{
		Car:       v.ID,
		Driver:    d.ID,
		StartTime: int64Ptr(1_700_000_000),
	})
	if err != nil {
		t.Fatalf("Create task error = %v", err)
	}
	if task.IsReturn {
		t.Error("Expected open task not to be returned")
	}

	// A partial update keeps the references.
	task, err = f.tasks.Update(ctx, confirmedCaller, task.ID, dto.AssignmentRequest{EndTime: int64Ptr(1_700_003_600)})
	if err != nil {
		t.Fatalf("Update task error = %v", err)
	}
	if !task.IsReturn {
		t.Error("Expected task with end_time to be returned")
	}
	if task.Car == nil || *task.Car != v.ID {
		t.Errorf("Car = %v, want %s", task.Car, v.ID)
	}

	res, err := f.tasks.List(ctx, map[string]string{"is_return": "1", "car": v.ID}, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}

	if err := f.tasks.Delete(ctx, confirmedCaller, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.tasks.Get(ctx, task.ID); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}
}

func TestTripRejectsInvertedWindow(t *testing.T) {
	f := newFleetFixture()

	_, err := f.trips.Create(context.Background(), confirmedCaller, dto.AssignmentRequest{
		StartTime: int64Ptr(1_700_003_600),
		EndTime:   int64Ptr(1_700_000_000),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Errorf("Create() error = %v, want invalid input", err)
	}
}

func TestListInvalidPage(t *testing.T) {
	f := newFleetFixture()

	if _, err := f.trips.List(context.Background(), nil, 0); !errors.Is(err, domainerrors.ErrInvalidPage) {
		t.Errorf("List(page 0) error = %v, want invalid page", err)
	}
}
