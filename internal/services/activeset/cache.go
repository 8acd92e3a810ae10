// Package activeset keeps a time-bounded set of nations that still exist.
package activeset

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultTTL how long a fetched set is served before it is refetched.
	DefaultTTL = 5 * time.Minute
	// DefaultRetryBackoff how long a failed fetch is remembered before the
	// source is tried again.
	DefaultRetryBackoff = 30 * time.Second
)

// ErrNoActiveSet is returned when the set could not be fetched and there is
// nothing cached to fall back on.
var ErrNoActiveSet = errors.New("active nation set unavailable")

type source interface {
	ActiveNames(ctx context.Context) ([]string, error)
}

// Set normalized active names as of FetchedAt.
type Set struct {
	names     map[string]struct{}
	FetchedAt time.Time
	// Stale reports that the set outlived its TTL and a refetch failed.
	Stale bool
}

// Contains reports whether name is in the set. name is normalized first.
func (s Set) Contains(name string) bool {
	_, ok := s.names[entity.NormalizeName(name)]
	return ok
}

// Len number of names in the set.
func (s Set) Len() int {
	return len(s.names)
}

// Cache lazily fetches the active set and serves it for the TTL. It is safe for
// concurrent use.
type Cache struct {
	source       source
	ttl          time.Duration
	retryBackoff time.Duration
	now          func() time.Time
	l            *zap.Logger

	mu       sync.Mutex
	current  *Set
	failedAt time.Time
	lastErr  error
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithRetryBackoff overrides DefaultRetryBackoff. Zero retries on every call.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Cache) {
		c.retryBackoff = d
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		c.l = l
	}
}

// NewCache returns an empty cache. No fetch happens until the set is first needed.
func NewCache(src source, opts ...Option) *Cache {
	c := &Cache{
		source:       src,
		ttl:          DefaultTTL,
		retryBackoff: DefaultRetryBackoff,
		now:          time.Now,
		l:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ActiveSet returns the cached set, refetching it once the TTL has passed. When
// the refetch fails the previous set is returned flagged stale. After a failure
// the source is not asked again until the retry backoff has passed.
func (c *Cache) ActiveSet(ctx context.Context) (Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.now().Sub(c.current.FetchedAt) < c.ttl {
		return *c.current, nil
	}

	if c.lastErr != nil && c.now().Sub(c.failedAt) < c.retryBackoff {
		return c.fallback(c.lastErr)
	}

	fresh, err := c.fetch(ctx)
	if err == nil {
		return fresh, nil
	}

	if c.current != nil {
		c.l.Warn("failed to refresh active nations, serving previous set",
			zap.Time("fetched_at", c.current.FetchedAt),
			zap.Int("names", c.current.Len()),
			zap.Duration("retry_in", c.retryBackoff),
			zap.Error(err),
		)
	}

	return c.fallback(err)
}

// fallback must be called with mu held.
func (c *Cache) fallback(err error) (Set, error) {
	if c.current == nil {
		return Set{}, errors.Wrap(ErrNoActiveSet, err.Error())
	}

	stale := *c.current
	stale.Stale = true

	return stale, nil
}

// Refresh fetches the set regardless of its age or a pending retry backoff. On
// failure the cached set is kept and the error is returned.
func (c *Cache) Refresh(ctx context.Context) (Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fetch(ctx)
}

// Clear drops the cached set and any remembered fetch failure.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.failedAt = time.Time{}
	c.lastErr = nil
}

// IsActive reports whether name is in the active set.
func (c *Cache) IsActive(ctx context.Context, name string) (bool, error) {
	set, err := c.ActiveSet(ctx)
	if err != nil {
		return false, err
	}
	return set.Contains(name), nil
}

// IsInactive reports whether name is missing from the active set.
func (c *Cache) IsInactive(ctx context.Context, name string) (bool, error) {
	active, err := c.IsActive(ctx, name)
	if err != nil {
		return false, err
	}
	return !active, nil
}

// fetch must be called with mu held.
func (c *Cache) fetch(ctx context.Context) (Set, error) {
	names, err := c.source.ActiveNames(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to fetch active nations")
		if ctx.Err() == nil {
			c.failedAt, c.lastErr = c.now(), err
		}
		return Set{}, err
	}
	c.failedAt, c.lastErr = time.Time{}, nil

	set := Set{
		names:     make(map[string]struct{}, len(names)),
		FetchedAt: c.now(),
	}
	for _, n := range names {
		if norm := entity.NormalizeName(n); norm != "" {
			set.names[norm] = struct{}{}
		}
	}
	c.current = &set

	c.l.Debug("active nations refreshed", zap.Int("names", set.Len()))

	return set, nil
}
