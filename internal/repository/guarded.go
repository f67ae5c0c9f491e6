package repository

import (
	"context"
	"errors"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/pkg/circuit"
)

// GuardedStore runs every call of the wrapped store through a circuit
// breaker. While the breaker is open calls fail with STORE_UNAVAILABLE
// without reaching the backend.
type GuardedStore[T model.Entity] struct {
	inner   Store[T]
	breaker *circuit.Breaker
}

func NewGuardedStore[T model.Entity](inner Store[T], breaker *circuit.Breaker) *GuardedStore[T] {
	return &GuardedStore[T]{inner: inner, breaker: breaker}
}

// BreakerConfig returns cfg with the failure classifier used by store
// breakers: only unreachable-backend errors count.
func BreakerConfig(cfg circuit.Config) circuit.Config {
	cfg.IsFailure = countsAgainstBackend
	return cfg
}

func (s *GuardedStore[T]) run(ctx context.Context, fn func(ctx context.Context) error) error {
	err := s.breaker.ExecuteContext(ctx, fn)
	if errors.Is(err, circuit.ErrCircuitOpen) || errors.Is(err, circuit.ErrTooManyRequests) {
		return domainerrors.WrapError(domainerrors.ErrStoreUnavailable, err)
	}
	return err
}

func (s *GuardedStore[T]) Ping(ctx context.Context) error {
	p, ok := s.inner.(Pinger)
	if !ok {
		return nil
	}
	return s.run(ctx, p.Ping)
}

func (s *GuardedStore[T]) Find(ctx context.Context, cond filter.Condition, skip, limit int) ([]T, int64, error) {
	var (
		items []T
		total int64
	)
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		items, total, err = s.inner.Find(ctx, cond, skip, limit)
		return err
	})
	return items, total, err
}

func (s *GuardedStore[T]) Get(ctx context.Context, id string) (T, error) {
	var entity T
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		entity, err = s.inner.Get(ctx, id)
		return err
	})
	return entity, err
}

func (s *GuardedStore[T]) Create(ctx context.Context, entity T) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Create(ctx, entity)
	})
}

func (s *GuardedStore[T]) Update(ctx context.Context, entity T) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Update(ctx, entity)
	})
}

func (s *GuardedStore[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.UpdateFields(ctx, id, fields)
	})
}

func (s *GuardedStore[T]) Delete(ctx context.Context, id string) error {
	return s.run(ctx, func(ctx context.Context) error {
		return s.inner.Delete(ctx, id)
	})
}

func (s *GuardedStore[T]) Distinct(ctx context.Context, key string) ([]string, error) {
	var values []string
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		values, err = s.inner.Distinct(ctx, key)
		return err
	})
	return values, err
}
