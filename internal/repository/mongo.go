package repository

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

var mongoSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// MongoStore keeps one resource in its own collection.
type MongoStore[T model.Entity] struct {
	coll    *mongo.Collection
	timeout time.Duration
	newT    func() T
	now     func() time.Time
}

func NewMongoStore[T model.Entity](coll *mongo.Collection, timeout time.Duration, newT func() T) *MongoStore[T] {
	return &MongoStore[T]{coll: coll, timeout: timeout, newT: newT, now: time.Now}
}

func (s *MongoStore[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MongoStore[T]) Ping(ctx context.Context) error {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.coll.Database().Client().Ping(opCtx, nil)
}

// MongoFilter translates cond into a query document. Substring literals
// are escaped so they never act as regex syntax.
func MongoFilter(cond filter.Condition) bson.M {
	out := bson.M{}
	for _, c := range cond.Constraints() {
		switch c.Op {
		case filter.OpContains:
			out[c.Key] = primitive.Regex{Pattern: regexp.QuoteMeta(c.Text()), Options: "i"}
		case filter.OpRange:
			bounds := bson.M{}
			if c.HasMin {
				bounds["$gte"] = c.Min
			}
			if c.HasMax {
				bounds["$lte"] = c.Max
			}
			out[c.Key] = bounds
		default:
			out[c.Key] = c.Value
		}
	}
	return out
}

func (s *MongoStore[T]) Find(ctx context.Context, cond filter.Condition, skip, limit int) ([]T, int64, error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "MongoStore.Find")

	if err := validateReferences(cond); err != nil {
		return nil, 0, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	query := MongoFilter(cond)

	total, err := s.coll.CountDocuments(opCtx, query)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to count matches").
			String("collection", s.coll.Name()).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, translateMongoError(err)
	}

	items := make([]T, 0, limit)
	if total <= int64(skip) {
		return items, total, nil
	}

	opts := options.Find().
		SetSort(mongoSort).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(opCtx, query, opts)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch page").
			String("collection", s.coll.Name()).
			Int("offset", skip).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, translateMongoError(err)
	}
	if err := cursor.All(opCtx, &items); err != nil {
		return nil, 0, translateMongoError(err)
	}

	return items, total, nil
}

func (s *MongoStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if !validID(id) {
		return zero, domainerrors.ErrNotFound
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	entity := s.newT()
	if err := s.coll.FindOne(opCtx, bson.M{"_id": id}).Decode(entity); err != nil {
		return zero, translateMongoError(err)
	}
	return entity, nil
}

func (s *MongoStore[T]) Create(ctx context.Context, entity T) error {
	ensureID(entity)
	entity.Stamp(s.now())

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.coll.InsertOne(opCtx, entity); err != nil {
		logger.WarnWithContext(ctx, "Failed to insert document").
			String("collection", s.coll.Name()).
			Err(err).
			Log()
		return translateMongoError(err)
	}
	return nil
}

func (s *MongoStore[T]) Update(ctx context.Context, entity T) error {
	if !validID(entity.GetID()) {
		return domainerrors.ErrNotFound
	}
	entity.Stamp(s.now())

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.coll.ReplaceOne(opCtx, bson.M{"_id": entity.GetID()}, entity)
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if !validID(id) {
		return domainerrors.ErrNotFound
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.coll.UpdateOne(opCtx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domainerrors.ErrNotFound
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.coll.DeleteOne(opCtx, bson.M{"_id": id})
	if err != nil {
		return translateMongoError(err)
	}
	if result.DeletedCount == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (s *MongoStore[T]) Distinct(ctx context.Context, key string) ([]string, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.coll.Distinct(opCtx, key, bson.M{key: bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, translateMongoError(err)
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out, nil
}

func translateMongoError(err error) error {
	if err == nil {
		return nil
	}

	var selectionErr topology.ServerSelectionError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domainerrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return domainerrors.WrapError(domainerrors.ErrStoreConflict, err)
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.Canceled),
		errors.As(err, &selectionErr):
		return domainerrors.WrapError(domainerrors.ErrStoreUnavailable, err)
	default:
		return domainerrors.WrapError(domainerrors.ErrQueryFailed, err)
	}
}
