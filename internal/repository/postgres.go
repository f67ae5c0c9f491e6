package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const sqlOrder = "created_at ASC, id ASC"

// PostgresStore keeps one resource in its own table.
type PostgresStore[T model.Entity] struct {
	db   *gorm.DB
	newT func() T
	now  func() time.Time
}

func NewPostgresStore[T model.Entity](db *gorm.DB, newT func() T) *PostgresStore[T] {
	return &PostgresStore[T]{db: db, newT: newT, now: time.Now}
}

func (s *PostgresStore[T]) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ApplyCondition adds the WHERE clauses of cond to q. Keys come from the
// field registry, never from the client, so they are safe to inline.
func ApplyCondition(q *gorm.DB, cond filter.Condition) *gorm.DB {
	for _, c := range cond.Constraints() {
		switch c.Op {
		case filter.OpContains:
			q = q.Where(fmt.Sprintf(`%s ILIKE ? ESCAPE '\'`, c.Key), "%"+EscapeLike(c.Text())+"%")
		case filter.OpRange:
			if c.HasMin {
				q = q.Where(fmt.Sprintf("%s >= ?", c.Key), c.Min)
			}
			if c.HasMax {
				q = q.Where(fmt.Sprintf("%s <= ?", c.Key), c.Max)
			}
		default:
			q = q.Where(fmt.Sprintf("%s = ?", c.Key), c.Value)
		}
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *PostgresStore[T]) Find(ctx context.Context, cond filter.Condition, skip, limit int) ([]T, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "PostgresStore.Find")

	if err := validateReferences(cond); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	query := func() *gorm.DB {
		return ApplyCondition(s.db.WithContext(ctx).Model(s.newT()), cond)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count matches").
			String("resource", cond.Resource()).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, translatePostgresError(err)
	}

	items := make([]T, 0, limit)
	if total > int64(skip) {
		if err := query().Order(sqlOrder).Limit(limit).Offset(skip).Find(&items).Error; err != nil {
			logger.ErrorWithContext(ctx, "Failed to fetch page").
				String("resource", cond.Resource()).
				Int("offset", skip).
				Duration(time.Since(start)).
				Err(err).
				Log()
			return nil, 0, translatePostgresError(err)
		}
	}

	return items, total, nil
}

func (s *PostgresStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if !validID(id) {
		return zero, domainerrors.ErrNotFound
	}

	entity := s.newT()
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(entity).Error; err != nil {
		return zero, translatePostgresError(err)
	}
	return entity, nil
}

func (s *PostgresStore[T]) Create(ctx context.Context, entity T) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "PostgresStore.Create")

	ensureID(entity)
	entity.Stamp(s.now())

	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		logger.WarnWithContext(ctx, "Failed to create entity").
			String("table", entity.TableName()).
			Err(err).
			Log()
		return translatePostgresError(err)
	}
	return nil
}

func (s *PostgresStore[T]) Update(ctx context.Context, entity T) error {
	ctx = ctxutil.WithFunction(ctx, "repository", "PostgresStore.Update")

	if !validID(entity.GetID()) {
		return domainerrors.ErrNotFound
	}
	entity.Stamp(s.now())

	result := s.db.WithContext(ctx).
		Model(entity).
		Select("*").
		Omit("id", "created_at").
		Updates(entity)
	if result.Error != nil {
		logger.WarnWithContext(ctx, "Failed to update entity").
			String("table", entity.TableName()).
			String("id", entity.GetID()).
			Err(result.Error).
			Log()
		return translatePostgresError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *PostgresStore[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if !validID(id) {
		return domainerrors.ErrNotFound
	}

	result := s.db.WithContext(ctx).
		Model(s.newT()).
		Where("id = ?", id).
		UpdateColumns(fields)
	if result.Error != nil {
		return translatePostgresError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *PostgresStore[T]) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domainerrors.ErrNotFound
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(s.newT())
	if result.Error != nil {
		return translatePostgresError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *PostgresStore[T]) Distinct(ctx context.Context, key string) ([]string, error) {
	var values []string
	err := s.db.WithContext(ctx).
		Model(s.newT()).
		Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", key, key)).
		Distinct(key).
		Order(key).
		Pluck(key, &values).Error
	if err != nil {
		return nil, translatePostgresError(err)
	}
	return values, nil
}

func translatePostgresError(err error) error {
	if err == nil {
		return nil
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainerrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainerrors.WrapError(domainerrors.ErrStoreConflict, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.As(err, &connectErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err):
		return domainerrors.WrapError(domainerrors.ErrStoreUnavailable, err)
	default:
		return domainerrors.WrapError(domainerrors.ErrQueryFailed, err)
	}
}
