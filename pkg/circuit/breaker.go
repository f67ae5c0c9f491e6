// Package circuit guards calls to a backing service. After Threshold
// consecutive failures the breaker opens and calls fail fast until
// Timeout has passed; a few probe calls then decide whether it closes.
package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config defines circuit breaker configuration
type Config struct {
	Threshold        int           // consecutive failures before opening
	Timeout          time.Duration // open period before probing
	SuccessThreshold int           // probe successes needed to close
	MaxHalfOpen      int           // concurrent probes allowed

	// IsFailure decides which errors count against the backend. Nil
	// counts every non-nil error.
	IsFailure func(error) bool

	// OnStateChange is called with the breaker name after each transition,
	// outside the breaker lock.
	OnStateChange func(name string, from, to State)
}

func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 3,
		MaxHalfOpen:      3,
	}
}

type Breaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	lastFailure      time.Time
	config           Config
	logger           *zap.Logger
	name             string
	now              func() time.Time
}

func NewBreaker(name string, config Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Threshold <= 0 {
		config.Threshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.MaxHalfOpen <= 0 {
		config.MaxHalfOpen = 1
	}

	return &Breaker{
		state:  StateClosed,
		config: config,
		logger: logger,
		name:   name,
		now:    time.Now,
	}
}

func (b *Breaker) Name() string { return b.name }

// Execute runs fn unless the breaker is open and records its outcome.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	b.Record(err)
	return err
}

// ExecuteContext is Execute for context-aware calls. A call abandoned
// because its own context was cancelled is not held against the backend.
func (b *Breaker) ExecuteContext(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		b.release()
		return err
	}
	b.Record(err)
	return err
}

// Allow checks if a request should be allowed
func (b *Breaker) Allow() error {
	b.mu.Lock()

	var change func()
	defer func() {
		b.mu.Unlock()
		if change != nil {
			change()
		}
	}()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) < b.config.Timeout {
			return ErrCircuitOpen
		}
		change = b.transitionTo(StateHalfOpen)
		b.halfOpenRequests = 1
		return nil

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.MaxHalfOpen {
			return ErrTooManyRequests
		}
		b.halfOpenRequests++
		return nil

	default:
		return nil
	}
}

// Record records the result of a request
func (b *Breaker) Record(err error) {
	b.mu.Lock()

	var change func()
	if b.counts(err) {
		change = b.recordFailure()
	} else {
		change = b.recordSuccess()
	}
	b.mu.Unlock()

	if change != nil {
		change()
	}
}

func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenRequests > 0 {
		b.halfOpenRequests--
	}
}

func (b *Breaker) counts(err error) bool {
	if err == nil {
		return false
	}
	if b.config.IsFailure == nil {
		return true
	}
	return b.config.IsFailure(err)
}

// recordFailure must hold lock
func (b *Breaker) recordFailure() func() {
	b.failures++
	b.successes = 0
	b.lastFailure = b.now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.Threshold {
			return b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		return b.transitionTo(StateOpen)
	}
	return nil
}

// recordSuccess must hold lock
func (b *Breaker) recordSuccess() func() {
	b.failures = 0

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			return b.transitionTo(StateClosed)
		}
	}
	return nil
}

// transitionTo must hold lock. The returned func runs the state change
// hook and must be called after the lock is released.
func (b *Breaker) transitionTo(newState State) func() {
	oldState := b.state
	b.state = newState
	b.halfOpenRequests = 0
	if newState != StateHalfOpen {
		b.successes = 0
	}
	if newState == StateClosed {
		b.failures = 0
	}

	b.logger.Warn("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failures", b.failures),
	)

	hook := b.config.OnStateChange
	if hook == nil {
		return nil
	}
	name := b.name
	return func() { hook(name, oldState, newState) }
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Stats returns circuit breaker statistics
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"name":      b.name,
		"state":     b.state.String(),
		"failures":  b.failures,
		"threshold": b.config.Threshold,
		"timeout":   b.config.Timeout.String(),
	}
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	change := b.transitionTo(StateClosed)
	b.mu.Unlock()
	if change != nil {
		change()
	}
}

// BreakerRegistry hands out one breaker per backend name.
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	config   Config
	logger   *zap.Logger
}

func NewBreakerRegistry(config Config, logger *zap.Logger) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*Breaker),
		config:   config,
		logger:   logger,
	}
}

// GetOrCreate gets an existing breaker or creates a new one
func (r *BreakerRegistry) GetOrCreate(name string) *Breaker {
	r.mu.RLock()
	breaker, exists := r.breakers[name]
	r.mu.RUnlock()

	if exists {
		return breaker
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if breaker, exists = r.breakers[name]; exists {
		return breaker
	}

	breaker = NewBreaker(name, r.config, r.logger)
	r.breakers[name] = breaker
	return breaker
}

// Stats returns stats for all breakers
func (r *BreakerRegistry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{}, len(r.breakers))
	for name, breaker := range r.breakers {
		stats[name] = breaker.Stats()
	}
	return stats
}

// AnyOpen reports whether some breaker currently rejects calls.
func (r *BreakerRegistry) AnyOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, breaker := range r.breakers {
		if breaker.IsOpen() {
			return true
		}
	}
	return false
}
