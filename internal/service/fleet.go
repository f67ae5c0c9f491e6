package service

import (
	"context"
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

const dropdownBatch = 100

type VehicleService struct {
	*ResourceService[*model.Vehicle, dto.VehicleRequest, dto.VehicleResponse]
	codes codeGenerator
}

func NewVehicleService(store repository.Store[*model.Vehicle], finder repository.Finder[*model.Vehicle]) *VehicleService {
	s := &VehicleService{codes: randomCode}
	s.ResourceService = &ResourceService[*model.Vehicle, dto.VehicleRequest, dto.VehicleResponse]{
		resource: filter.ResourceVehicle,
		store:    store,
		finder:   finder,
		hooks: resourceHooks[*model.Vehicle, dto.VehicleRequest, dto.VehicleResponse]{
			newT:    func() *model.Vehicle { return &model.Vehicle{} },
			apply:   s.apply,
			respond: dto.NewVehicleResponse,
		},
	}
	return s
}

func (s *VehicleService) apply(ctx context.Context, req dto.VehicleRequest, v *model.Vehicle) error {
	taken, err := exists(ctx, s.store, filter.ResourceVehicle, "LicensePlate", req.LicensePlate, v.ID)
	if err != nil {
		return err
	}
	if taken {
		return domainerrors.WithMessage(domainerrors.ErrStoreConflict, "License plate already registered.")
	}

	if req.CarID != "" && req.CarID != v.CarID {
		taken, err := exists(ctx, s.store, filter.ResourceVehicle, "CarId", req.CarID, v.ID)
		if err != nil {
			return err
		}
		if taken {
			return domainerrors.WithMessage(domainerrors.ErrStoreConflict, "CarId already registered.")
		}
	}

	req.Apply(v)
	if v.CarID == "" {
		code, err := uniqueCode(ctx, s.store, s.codes, filter.ResourceVehicle, "CarId")
		if err != nil {
			return err
		}
		v.CarID = code
	}
	return nil
}

// Dropdown lists every vehicle as an id, CarId and plate triple.
func (s *VehicleService) Dropdown(ctx context.Context) ([]dto.VehicleOption, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "VehicleService.Dropdown")

	options := []dto.VehicleOption{}
	err := scanAll(ctx, s.store, filter.ResourceVehicle, func(v *model.Vehicle) {
		options = append(options, dto.VehicleOption{ID: v.ID, CarID: v.CarID, LicensePlate: v.LicensePlate})
	})
	if err != nil {
		return nil, err
	}

	logger.DebugWithContext(ctx, "Vehicle dropdown built").
		Int("count", len(options)).
		Log()
	return options, nil
}

// scanAll walks every entity of store in batches of dropdownBatch.
func scanAll[T model.Entity](ctx context.Context, store repository.Store[T], resource string, fn func(T)) error {
	cond := filter.Empty(resource)
	for skip := 0; ; skip += dropdownBatch {
		items, total, err := store.Find(ctx, cond, skip, dropdownBatch)
		if err != nil {
			return err
		}
		for _, e := range items {
			fn(e)
		}
		if len(items) == 0 || int64(skip+len(items)) >= total {
			return nil
		}
	}
}

// Projects returns the distinct non-empty Project values.
func (s *VehicleService) Projects(ctx context.Context) ([]string, error) {
	projects, err := s.store.Distinct(ctx, "project")
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []string{}
	}
	return projects, nil
}

type DriverService struct {
	*ResourceService[*model.Driver, dto.DriverRequest, dto.DriverResponse]
	vehicles repository.Store[*model.Vehicle]
	codes    codeGenerator
}

func NewDriverService(store repository.Store[*model.Driver], finder repository.Finder[*model.Driver], vehicles repository.Store[*model.Vehicle]) *DriverService {
	s := &DriverService{vehicles: vehicles, codes: randomCode}
	s.ResourceService = &ResourceService[*model.Driver, dto.DriverRequest, dto.DriverResponse]{
		resource: filter.ResourceDriver,
		store:    store,
		finder:   finder,
		hooks: resourceHooks[*model.Driver, dto.DriverRequest, dto.DriverResponse]{
			newT:    func() *model.Driver { return &model.Driver{} },
			apply:   s.apply,
			respond: dto.NewDriverResponse,
		},
	}
	return s
}

// Dropdown lists every driver as an id, DriverId and name entry.
func (s *DriverService) Dropdown(ctx context.Context) ([]dto.DriverOption, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "DriverService.Dropdown")

	options := []dto.DriverOption{}
	err := scanAll(ctx, s.store, filter.ResourceDriver, func(d *model.Driver) {
		options = append(options, dto.DriverOption{ID: d.ID, DriverID: d.DriverID, FirstName: d.FirstName, LastName: d.LastName})
	})
	if err != nil {
		return nil, err
	}

	logger.DebugWithContext(ctx, "Driver dropdown built").
		Int("count", len(options)).
		Log()
	return options, nil
}

func (s *DriverService) apply(ctx context.Context, req dto.DriverRequest, d *model.Driver) error {
	if req.DriverID != "" && req.DriverID != d.DriverID {
		taken, err := exists(ctx, s.store, filter.ResourceDriver, "DriverId", req.DriverID, d.ID)
		if err != nil {
			return err
		}
		if taken {
			return domainerrors.WithMessage(domainerrors.ErrStoreConflict, "DriverId already registered.")
		}
	}
	if err := requireEntity(ctx, s.vehicles, dto.StringPtr(req.Vehicle), "Vehicle"); err != nil {
		return err
	}

	req.Apply(d)
	if d.DriverID == "" {
		code, err := uniqueCode(ctx, s.store, s.codes, filter.ResourceDriver, "DriverId")
		if err != nil {
			return err
		}
		d.DriverID = code
	}
	return nil
}

// assignmentRefs validates the vehicle, driver and time window shared by
// tasks and trips.
type assignmentRefs struct {
	vehicles repository.Store[*model.Vehicle]
	drivers  repository.Store[*model.Driver]
}

func (a assignmentRefs) check(ctx context.Context, req dto.AssignmentRequest) error {
	if err := requireEntity(ctx, a.vehicles, dto.StringPtr(req.Car), "Vehicle"); err != nil {
		return err
	}
	return requireEntity(ctx, a.drivers, dto.StringPtr(req.Driver), "Driver")
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domainerrors.WithMessage(domainerrors.ErrInvalidInput, "end_time must not be before start_time.")
	}
	return nil
}

type TaskService struct {
	*ResourceService[*model.Task, dto.AssignmentRequest, dto.TaskResponse]
	refs assignmentRefs
}

func NewTaskService(store repository.Store[*model.Task], finder repository.Finder[*model.Task], vehicles repository.Store[*model.Vehicle], drivers repository.Store[*model.Driver]) *TaskService {
	s := &TaskService{refs: assignmentRefs{vehicles: vehicles, drivers: drivers}}
	s.ResourceService = &ResourceService[*model.Task, dto.AssignmentRequest, dto.TaskResponse]{
		resource: filter.ResourceTask,
		store:    store,
		finder:   finder,
		hooks: resourceHooks[*model.Task, dto.AssignmentRequest, dto.TaskResponse]{
			newT:    func() *model.Task { return &model.Task{} },
			apply:   s.apply,
			respond: dto.NewTaskResponse,
		},
	}
	return s
}

func (s *TaskService) apply(ctx context.Context, req dto.AssignmentRequest, t *model.Task) error {
	if err := s.refs.check(ctx, req); err != nil {
		return err
	}
	req.ApplyTask(t)
	return checkWindow(t.StartTime, t.EndTime)
}

type TripService struct {
	*ResourceService[*model.Trip, dto.AssignmentRequest, dto.TripResponse]
	refs assignmentRefs
}

func NewTripService(store repository.Store[*model.Trip], finder repository.Finder[*model.Trip], vehicles repository.Store[*model.Vehicle], drivers repository.Store[*model.Driver]) *TripService {
	s := &TripService{refs: assignmentRefs{vehicles: vehicles, drivers: drivers}}
	s.ResourceService = &ResourceService[*model.Trip, dto.AssignmentRequest, dto.TripResponse]{
		resource: filter.ResourceTrip,
		store:    store,
		finder:   finder,
		hooks: resourceHooks[*model.Trip, dto.AssignmentRequest, dto.TripResponse]{
			newT:    func() *model.Trip { return &model.Trip{} },
			apply:   s.apply,
			respond: dto.NewTripResponse,
		},
	}
	return s
}

func (s *TripService) apply(ctx context.Context, req dto.AssignmentRequest, t *model.Trip) error {
	if err := s.refs.check(ctx, req); err != nil {
		return err
	}
	req.ApplyTrip(t)
	return checkWindow(t.StartTime, t.EndTime)
}
