package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/filter"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/pagination"
	ctxutil "github.com/Payphone-Digital/fleet-registry/pkg/context"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// PageCache is the subset of the redis client used for list caching.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

type cachedPage[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// CachedFinder serves list pages from the cache. Keys embed the
// resource generation, so a page written before a mutation is never read
// after it. Cache failures fall back to the wrapped finder.
type CachedFinder[T model.Entity] struct {
	inner    Finder[T]
	cache    PageCache
	resource string
	pageSize int
	ttl      time.Duration
	observe  func(resource, result string)
}

func NewCachedFinder[T model.Entity](inner Finder[T], cache PageCache, resource string, ttl time.Duration) *CachedFinder[T] {
	return &CachedFinder[T]{
		inner:    inner,
		cache:    cache,
		resource: resource,
		pageSize: constants.PageSize,
		ttl:      ttl,
		observe:  func(string, string) {},
	}
}

// WithObserver sets a callback told the result ("hit", "miss" or "error")
// of every cache lookup.
func (f *CachedFinder[T]) WithObserver(observe func(resource, result string)) *CachedFinder[T] {
	if observe != nil {
		f.observe = observe
	}
	return f
}

// GenerationKey is the counter bumped by every mutation of resource.
func GenerationKey(resource string) string {
	return constants.CacheKeyGeneration + resource
}

// PageKey names one cached page of cond at generation gen.
func PageKey(resource string, gen int64, cond filter.Condition, page int) string {
	sum := sha256.Sum256([]byte(cond.String() + "|" + strconv.Itoa(page)))
	return fmt.Sprintf("%s%s:v%d:%s", constants.CacheKeyPage, resource, gen, hex.EncodeToString(sum[:]))
}

func (f *CachedFinder[T]) Find(ctx context.Context, cond filter.Condition, page int) (pagination.Result[T], error) {
	ctx = ctxutil.WithFunction(ctx, "repository", "CachedFinder.Find")

	if page < constants.MinPage {
		return f.inner.Find(ctx, cond, page)
	}

	gen, err := f.cache.Counter(ctx, GenerationKey(f.resource))
	if err != nil {
		f.observe(f.resource, "error")
		logger.WarnWithContext(ctx, "Page cache unavailable, querying store").
			String("resource", f.resource).
			Err(err).
			Log()
		return f.inner.Find(ctx, cond, page)
	}

	key := PageKey(f.resource, gen, cond, page)
	if data, found, err := f.cache.Get(ctx, key); err != nil {
		f.observe(f.resource, "error")
		logger.WarnWithContext(ctx, "Failed to read cached page").
			String("key", key).
			Err(err).
			Log()
	} else if found {
		var cp cachedPage[T]
		if err := json.Unmarshal(data, &cp); err == nil {
			f.observe(f.resource, "hit")
			logger.DebugWithContext(ctx, "Page cache hit").
				String("key", key).
				Log()
			return pagination.NewResult(cp.Items, cp.Total, page, f.pageSize), nil
		}
	}

	f.observe(f.resource, "miss")
	result, err := f.inner.Find(ctx, cond, page)
	if err != nil {
		return result, err
	}

	data, err := json.Marshal(cachedPage[T]{Items: result.Items, Total: result.Total})
	if err == nil {
		err = f.cache.Set(ctx, key, data, f.ttl)
	}
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to cache page").
			String("key", key).
			Err(err).
			Log()
	}
	return result, nil
}

// InvalidatingStore bumps the resource generation after each successful
// mutation of the wrapped store.
type InvalidatingStore[T model.Entity] struct {
	Store[T]
	cache    PageCache
	resource string
}

func NewInvalidatingStore[T model.Entity](inner Store[T], cache PageCache, resource string) *InvalidatingStore[T] {
	return &InvalidatingStore[T]{Store: inner, cache: cache, resource: resource}
}

func (s *InvalidatingStore[T]) Ping(ctx context.Context) error {
	if p, ok := s.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InvalidatingStore[T]) Create(ctx context.Context, entity T) error {
	if err := s.Store.Create(ctx, entity); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *InvalidatingStore[T]) Update(ctx context.Context, entity T) error {
	if err := s.Store.Update(ctx, entity); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *InvalidatingStore[T]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if err := s.Store.UpdateFields(ctx, id, fields); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *InvalidatingStore[T]) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *InvalidatingStore[T]) bump(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, GenerationKey(s.resource)); err != nil {
		logger.ErrorWithContext(ctx, "Failed to invalidate page cache").
			String("resource", s.resource).
			Err(err).
			Log()
	}
}
