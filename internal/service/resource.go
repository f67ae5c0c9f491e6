package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// resourceHooks adapt the generic CRUD flow to one resource.
type resourceHooks[T model.Entity, Req any, Resp any] struct {
	newT    func() T
	respond func(T) Resp

	// apply copies req onto entity and validates cross-entity rules.
	apply func(ctx context.Context, req Req, entity T) error
}

// ResourceService implements list, get and the mutations of one fleet
// resource. Mutations require a confirmed caller.
type ResourceService[T model.Entity, Req any, Resp any] struct {
	resource string
	store    repository.Store[T]
	finder   repository.Finder[T]
	hooks    resourceHooks[T, Req, Resp]
}

func (s *ResourceService[T, Req, Resp]) Resource() string { return s.resource }

// List compiles params and returns the requested page.
func (s *ResourceService[T, Req, Resp]) List(ctx context.Context, params map[string]string, page int) (pagination.Result[Resp], error) {
	ctx = ctxutil.WithFunction(ctx, "service", "List")

	cond, err := filter.Compile(s.resource, params)
	if err != nil {
		logger.InfoWithContext(ctx, "Rejected list parameters").
			String("resource", s.resource).
			Err(err).
			Log()
		return pagination.Result[Resp]{}, err
	}

	res, err := s.finder.Find(ctx, cond, page)
	if err != nil {
		return pagination.Result[Resp]{}, err
	}

	items := make([]Resp, 0, len(res.Items))
	for _, e := range res.Items {
		items = append(items, s.hooks.respond(e))
	}
	return pagination.NewResult(items, res.Total, res.Page, res.PageSize), nil
}

func (s *ResourceService[T, Req, Resp]) Get(ctx context.Context, id string) (*Resp, error) {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.hooks.respond(entity)
	return &resp, nil
}

func (s *ResourceService[T, Req, Resp]) Create(ctx context.Context, caller dto.Caller, req Req) (*Resp, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Create")

	if err := requireConfirmed(caller); err != nil {
		return nil, err
	}

	entity := s.hooks.newT()
	if err := s.hooks.apply(ctx, req, entity); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, entity); err != nil {
		logger.WarnWithContext(ctx, "Failed to create entity").
			String("resource", s.resource).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Entity created").
		String("resource", s.resource).
		String("id", entity.GetID()).
		Log()

	resp := s.hooks.respond(entity)
	return &resp, nil
}

func (s *ResourceService[T, Req, Resp]) Update(ctx context.Context, caller dto.Caller, id string, req Req) (*Resp, error) {
	ctx = ctxutil.WithFunction(ctx, "service", "Update")

	if err := requireConfirmed(caller); err != nil {
		return nil, err
	}

	entity, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.hooks.apply(ctx, req, entity); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, entity); err != nil {
		logger.WarnWithContext(ctx, "Failed to update entity").
			String("resource", s.resource).
			String("id", id).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Entity updated").
		String("resource", s.resource).
		String("id", id).
		Log()

	resp := s.hooks.respond(entity)
	return &resp, nil
}

func (s *ResourceService[T, Req, Resp]) Delete(ctx context.Context, caller dto.Caller, id string) error {
	ctx = ctxutil.WithFunction(ctx, "service", "Delete")

	if err := requireConfirmed(caller); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Entity deleted").
		String("resource", s.resource).
		String("id", id).
		Log()
	return nil
}

func requireConfirmed(caller dto.Caller) error {
	if !caller.Confirmed {
		return domainerrors.ErrUnconfirmed
	}
	return nil
}

func requireAdmin(caller dto.Caller) error {
	if !caller.Admin {
		return domainerrors.ErrForbidden
	}
	return nil
}

// codeGenerator returns random 8-digit codes.
type codeGenerator func() string

func randomCode() string {
	return fmt.Sprintf("%08d", 10000000+rand.IntN(90000000))
}

const maxCodeAttempts = 20

// uniqueCode draws codes until one is unused for param of resource.
func uniqueCode[T model.Entity](ctx context.Context, store repository.Store[T], gen codeGenerator, resource, param string) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := gen()
		taken, err := exists(ctx, store, resource, param, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", domainerrors.WrapError(domainerrors.ErrInternal,
		fmt.Errorf("no free %s after %d attempts", param, maxCodeAttempts))
}

// exists reports whether an entity other than excludeID has param = value.
func exists[T model.Entity](ctx context.Context, store repository.Store[T], resource, param, value string, excludeID ...string) (bool, error) {
	cond, err := filter.Compile(resource, map[string]string{param: value})
	if err != nil {
		return false, err
	}
	if cond.IsEmpty() {
		return false, nil
	}
	items, _, err := store.Find(ctx, cond, 0, 2)
	if err != nil {
		return false, err
	}
	for _, e := range items {
		if len(excludeID) == 0 || e.GetID() != excludeID[0] {
			return true, nil
		}
	}
	return false, nil
}

// requireEntity checks that a referenced entity exists.
func requireEntity[T model.Entity](ctx context.Context, store repository.Store[T], id *string, label string) error {
	if id == nil {
		return nil
	}
	if _, err := store.Get(ctx, *id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.WithMessage(domainerrors.ErrInvalidInput, "%s not found.", label)
		}
		return err
	}
	return nil
}
