package repository

import (
	"context"
	"errors"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/google/uuid"
)

// Store persists one resource. Find returns matches in a stable
// (created_at, id) order so consecutive pages neither repeat nor skip
// entities when nothing is written in between.
type Store[T model.Entity] interface {
	Find(ctx context.Context, cond filter.Condition, skip, limit int) ([]T, int64, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	// UpdateFields sets only the named store keys of one entity and leaves
	// every other field, and updated_at, untouched.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Distinct(ctx context.Context, key string) ([]string, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// validateReferences rejects reference constraints that cannot name an
// entity. The compiler passes them through untouched.
func validateReferences(cond filter.Condition) error {
	for _, c := range cond.Constraints() {
		if c.Kind != filter.KindReference {
			continue
		}
		if _, err := uuid.Parse(c.Text()); err != nil {
			return domainerrors.WrapError(domainerrors.ErrInvalidReference, err)
		}
	}
	return nil
}

// validID reports whether id can name a stored entity.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// IsUnavailable reports whether err means the backend could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, domainerrors.ErrStoreUnavailable)
}

// countsAgainstBackend selects the errors that trip a store breaker.
func countsAgainstBackend(err error) bool {
	return IsUnavailable(err)
}

func ensureID(e model.Entity) {
	if e.GetID() == "" {
		e.SetID(NewID())
	}
}
