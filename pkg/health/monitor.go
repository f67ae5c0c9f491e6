package health

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Status represents health check status
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Probe reports a dependency failure as an error.
type Probe func(ctx context.Context) error

// CheckResult represents the result of a health check
type CheckResult struct {
	Name         string
	Required     bool
	Status       Status
	Latency      time.Duration
	LastCheck    time.Time
	LastError    error
	CheckCount   int
	FailureCount int
}

// Report is the outcome of one round of checks. Healthy is false when any
// required dependency is unhealthy.
type Report struct {
	Healthy bool
	Results map[string]CheckResult
}

type check struct {
	name     string
	required bool
	probe    Probe
}

// Monitor runs dependency probes on demand and on an interval, and
// publishes the overall state through the standard gRPC health service.
type Monitor struct {
	mu       sync.RWMutex
	checks   []check
	results  map[string]*CheckResult
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	grpc     *grpchealth.Server
	cancel   context.CancelFunc
	running  bool
	now      func() time.Time
}

// NewMonitor creates a new health monitor
func NewMonitor(interval time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		results:  make(map[string]*CheckResult),
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
		grpc:     grpchealth.NewServer(),
		now:      time.Now,
	}
}

// Register adds a probe. A nil probe marks the dependency as disabled.
func (m *Monitor) Register(name string, required bool, probe Probe) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks = append(m.checks, check{name: name, required: required, probe: probe})

	m.logger.Info("Registered health check",
		zap.String("name", name),
		zap.Bool("required", required),
		zap.Bool("enabled", probe != nil),
	)
}

// Start runs CheckNow every interval until Stop.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running || m.interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	go m.runChecks(ctx)
}

// Stop stops the periodic checks and marks the service as not serving.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.running = false
		m.cancel()
	}
	m.grpc.Shutdown()
}

func (m *Monitor) runChecks(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow probes every dependency and returns the report.
func (m *Monitor) CheckNow(ctx context.Context) Report {
	m.mu.RLock()
	checks := append([]check(nil), m.checks...)
	m.mu.RUnlock()

	report := Report{Healthy: true, Results: make(map[string]CheckResult, len(checks))}
	for _, c := range checks {
		result := m.run(ctx, c)

		m.mu.Lock()
		if existing, ok := m.results[c.name]; ok {
			result.CheckCount = existing.CheckCount + 1
			result.FailureCount = existing.FailureCount
		} else {
			result.CheckCount = 1
		}
		if result.Status == StatusUnhealthy {
			result.FailureCount++
		}
		stored := result
		m.results[c.name] = &stored
		m.mu.Unlock()

		if result.Status == StatusUnhealthy {
			m.logger.Warn("Health check failed",
				zap.String("name", c.name),
				zap.Bool("required", c.required),
				zap.Duration("latency", result.Latency),
				zap.Error(result.LastError),
			)
			if c.required {
				report.Healthy = false
			}
		}
		report.Results[c.name] = result
	}

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if !report.Healthy {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	m.grpc.SetServingStatus("", status)

	return report
}

func (m *Monitor) run(ctx context.Context, c check) CheckResult {
	start := m.now()
	result := CheckResult{Name: c.name, Required: c.required, LastCheck: start}

	if c.probe == nil {
		result.Status = StatusDisabled
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := c.probe(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.LastError = err
	} else {
		result.Status = StatusHealthy
	}
	result.Latency = m.now().Sub(start)
	return result
}

// IsHealthy reports the last known state of a dependency. Untracked
// dependencies are assumed healthy.
func (m *Monitor) IsHealthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if result, ok := m.results[name]; ok {
		return result.Status != StatusUnhealthy
	}
	return true
}

// GetAllResults returns all health check results
func (m *Monitor) GetAllResults() map[string]CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]CheckResult, len(m.results))
	for name, result := range m.results {
		results[name] = *result
	}
	return results
}

// HealthServer is the gRPC health service fed by CheckNow.
func (m *Monitor) HealthServer() grpc_health_v1.HealthServer {
	return m.grpc
}

// ServeGRPC serves the health service on lis until the returned server
// is stopped.
func (m *Monitor) ServeGRPC(lis net.Listener) *grpc.Server {
	srv := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, m.grpc)

	go func() {
		if err := srv.Serve(lis); err != nil {
			m.logger.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	return srv
}
