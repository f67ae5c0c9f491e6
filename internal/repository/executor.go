package repository

import (
	"context"
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// Finder runs a compiled condition for one page.
type Finder[T model.Entity] interface {
	Find(ctx context.Context, cond filter.Condition, page int) (pagination.Result[T], error)
}

// Executor pages through a Store with the fixed page size.
type Executor[T model.Entity] struct {
	store    Store[T]
	pageSize int
}

func NewExecutor[T model.Entity](store Store[T]) *Executor[T] {
	return &Executor[T]{store: store, pageSize: constants.PageSize}
}

func (e *Executor[T]) PageSize() int { return e.pageSize }

func (e *Executor[T]) Find(ctx context.Context, cond filter.Condition, page int) (pagination.Result[T], error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "Executor.Find")

	if !pagination.ValidPage(page, e.pageSize) {
		return pagination.Result[T]{}, domainerrors.WithMessage(domainerrors.ErrInvalidPage,
			"page must be a positive integer, got %d", page)
	}

	start := time.Now()
	items, total, err := e.store.Find(ctx, cond, pagination.Offset(page, e.pageSize), e.pageSize)
	if err != nil {
		logger.WarnWithContext(ctx, "List query failed").
			String("resource", cond.Resource()).
			String("condition", cond.String()).
			Int("page", page).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return pagination.Result[T]{}, err
	}

	logger.DebugWithContext(ctx, "List query executed").
		String("resource", cond.Resource()).
		Int("page", page).
		Int64("total", total).
		Int("returned_count", len(items)).
		Duration(time.Since(start)).
		Log()

	return pagination.NewResult(items, total, page, e.pageSize), nil
}
