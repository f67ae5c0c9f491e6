package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryRecord struct {
	id        string
	createdAt time.Time
	raw       []byte
	doc       bson.M
}

// MemoryStore keeps entities in process. Conditions are evaluated against
// the BSON form of each entity, so field keys match the document stores.
type MemoryStore[T model.Entity] struct {
	mu         sync.RWMutex
	records    map[string]memoryRecord
	newT       func() T
	uniqueKeys []string
	now        func() time.Time
}

// NewMemoryStore creates an empty store. uniqueKeys lists the document
// fields that must not repeat across entities.
func NewMemoryStore[T model.Entity](newT func() T, uniqueKeys ...string) *MemoryStore[T] {
	return &MemoryStore[T]{
		records:    make(map[string]memoryRecord),
		newT:       newT,
		uniqueKeys: uniqueKeys,
		now:        time.Now,
	}
}

func (s *MemoryStore[T]) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore[T]) Find(ctx context.Context, cond filter.Condition, skip, limit int) ([]T, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, domainerrors.WrapError(domainerrors.ErrStoreUnavailable, err)
	}
	if err := validateReferences(cond); err != nil {
		return nil, 0, err
	}

	matcher, err := newMatcher(cond)
	if err != nil {
		return nil, 0, domainerrors.WrapError(domainerrors.ErrQueryFailed, err)
	}

	s.mu.RLock()
	matched := make([]memoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		if matcher.matches(rec.doc) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].createdAt.Equal(matched[j].createdAt) {
			return matched[i].createdAt.Before(matched[j].createdAt)
		}
		return matched[i].id < matched[j].id
	})

	total := int64(len(matched))
	if skip >= len(matched) {
		return []T{}, total, nil
	}
	end := skip + limit
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]T, 0, end-skip)
	for _, rec := range matched[skip:end] {
		e, err := s.decode(rec)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (s *MemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return zero, domainerrors.ErrNotFound
	}
	return s.decode(rec)
}

func (s *MemoryStore[T]) Create(ctx context.Context, entity T) error {
	ensureID(entity)
	entity.Stamp(s.now())

	rec, err := encodeRecord(entity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.id]; exists {
		return domainerrors.WrapError(domainerrors.ErrStoreConflict, fmt.Errorf("duplicate id %s", rec.id))
	}
	if err := s.checkUnique(rec); err != nil {
		return err
	}
	s.records[rec.id] = rec
	return nil
}

func (s *MemoryStore[T]) Update(ctx context.Context, entity T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[entity.GetID()]; !ok {
		return domainerrors.ErrNotFound
	}

	entity.Stamp(s.now())
	rec, err := encodeRecord(entity)
	if err != nil {
		return err
	}

	if err := s.checkUnique(rec); err != nil {
		return err
	}
	s.records[rec.id] = rec
	return nil
}

func (s *MemoryStore[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return domainerrors.ErrNotFound
	}

	doc := make(bson.M, len(rec.doc)+len(fields))
	for k, v := range rec.doc {
		doc[k] = v
	}
	for k, v := range fields {
		doc[k] = v
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return domainerrors.WrapError(domainerrors.ErrInvalidInput, err)
	}
	entity, err := s.decode(memoryRecord{raw: raw})
	if err != nil {
		return err
	}
	updated, err := encodeRecord(entity)
	if err != nil {
		return err
	}

	if err := s.checkUnique(updated); err != nil {
		return err
	}
	s.records[id] = updated
	return nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return domainerrors.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore[T]) Distinct(ctx context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range s.records {
		if v, ok := rec.doc[key].(string); ok && v != "" {
			seen[v] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// checkUnique must hold the write lock.
func (s *MemoryStore[T]) checkUnique(rec memoryRecord) error {
	for _, key := range s.uniqueKeys {
		v, ok := rec.doc[key]
		if !ok || v == nil || v == "" {
			continue
		}
		for id, other := range s.records {
			if id != rec.id && other.doc[key] == v {
				return domainerrors.WrapError(domainerrors.ErrStoreConflict,
					fmt.Errorf("duplicate value for %s", key))
			}
		}
	}
	return nil
}

func (s *MemoryStore[T]) decode(rec memoryRecord) (T, error) {
	e := s.newT()
	if err := bson.Unmarshal(rec.raw, e); err != nil {
		var zero T
		return zero, domainerrors.WrapError(domainerrors.ErrQueryFailed, err)
	}
	return e, nil
}

func encodeRecord(entity model.Entity) (memoryRecord, error) {
	raw, err := bson.Marshal(entity)
	if err != nil {
		return memoryRecord{}, domainerrors.WrapError(domainerrors.ErrInvalidInput, err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return memoryRecord{}, domainerrors.WrapError(domainerrors.ErrInvalidInput, err)
	}

	var createdAt time.Time
	if dt, ok := doc["created_at"].(primitive.DateTime); ok {
		createdAt = dt.Time()
	}
	return memoryRecord{id: entity.GetID(), createdAt: createdAt, raw: raw, doc: doc}, nil
}

type matcher struct {
	constraints []filter.Constraint
	patterns    map[string]*regexp.Regexp
}

func newMatcher(cond filter.Condition) (*matcher, error) {
	m := &matcher{constraints: cond.Constraints(), patterns: make(map[string]*regexp.Regexp)}
	for _, c := range m.constraints {
		if c.Op != filter.OpContains {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(c.Text()))
		if err != nil {
			return nil, err
		}
		m.patterns[c.Key] = re
	}
	return m, nil
}

func (m *matcher) matches(doc bson.M) bool {
	for _, c := range m.constraints {
		if !m.matchOne(c, doc[c.Key]) {
			return false
		}
	}
	return true
}

func (m *matcher) matchOne(c filter.Constraint, v interface{}) bool {
	switch c.Op {
	case filter.OpContains:
		s, ok := v.(string)
		return ok && m.patterns[c.Key].MatchString(s)

	case filter.OpRange:
		dt, ok := v.(primitive.DateTime)
		if !ok {
			return false
		}
		t := dt.Time()
		if c.HasMin && t.Before(c.Min) {
			return false
		}
		if c.HasMax && t.After(c.Max) {
			return false
		}
		return true

	default:
		switch want := c.Value.(type) {
		case time.Time:
			dt, ok := v.(primitive.DateTime)
			return ok && dt.Time().Equal(want)
		case bool:
			b, ok := v.(bool)
			return ok && b == want
		case string:
			s, ok := v.(string)
			return ok && s == want
		}
		return false
	}
}
