package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Payphone-Digital/fleet-registry/config"
	"github.com/Payphone-Digital/fleet-registry/internal/constants"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
	"github.com/Payphone-Digital/fleet-registry/internal/service"
	"github.com/Payphone-Digital/fleet-registry/pkg/circuit"
	"github.com/Payphone-Digital/fleet-registry/pkg/database"
	"github.com/Payphone-Digital/fleet-registry/pkg/health"
	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
	"github.com/Payphone-Digital/fleet-registry/pkg/mail"
	"github.com/Payphone-Digital/fleet-registry/pkg/metrics"
	"github.com/Payphone-Digital/fleet-registry/pkg/redis"
)

var errBreakerOpen = errors.New("a store circuit breaker is open")

// backend is the connected storage every resource store is built on.
// Exactly one of pg and mongo is set unless the driver is memory.
type backend struct {
	driver string
	pg     *gorm.DB
	mongo  *database.MongoDB
}

func openBackend(cfg *config.Config) (*backend, error) {
	b := &backend{driver: cfg.Store.Driver}

	switch cfg.Store.Driver {
	case constants.StoreDriverPostgres:
		db, err := database.NewPostgresDB(database.PostgresConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.pg = db
	case constants.StoreDriverMongo:
		m, err := database.NewMongoDB(database.MongoConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		b.mongo = m
	case constants.StoreDriverMemory:
		logger.GetLogger().Warn("Using in-memory store, data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	logger.GetLogger().Info("Store backend ready", zap.String("driver", b.driver))
	return b, nil
}

// migrate creates the tables or collection indexes of every resource.
func (b *backend) migrate(ctx context.Context) error {
	switch {
	case b.pg != nil:
		return database.AutoMigrate(b.pg)
	case b.mongo != nil:
		return database.EnsureMongoIndexes(ctx, b.mongo)
	}
	return nil
}

func (b *backend) ping(ctx context.Context) error {
	switch {
	case b.pg != nil:
		return database.PingPostgres(ctx, b.pg)
	case b.mongo != nil:
		return b.mongo.Ping(ctx)
	}
	return nil
}

func (b *backend) close() {
	switch {
	case b.pg != nil:
		if err := database.CloseDB(b.pg); err != nil {
			logger.GetLogger().Error("Failed to close postgres", zap.Error(err))
		}
	case b.mongo != nil:
		if err := b.mongo.Close(); err != nil {
			logger.GetLogger().Error("Failed to close mongodb", zap.Error(err))
		}
	}
}

// openStore builds the store of one resource behind its own circuit
// breaker. uniqueKeys only matter to the memory store; the databases
// enforce uniqueness through their indexes.
func openStore[T model.Entity](b *backend, breakers *circuit.BreakerRegistry, newT func() T, uniqueKeys ...string) repository.Store[T] {
	name := newT().TableName()

	var inner repository.Store[T]
	switch {
	case b.pg != nil:
		inner = repository.NewPostgresStore(b.pg, newT)
	case b.mongo != nil:
		inner = repository.NewMongoStore(b.mongo.Collection(name), b.mongo.OperationTimeout(), newT)
	default:
		inner = repository.NewMemoryStore(newT, uniqueKeys...)
	}
	return repository.NewGuardedStore(inner, breakers.GetOrCreate(name))
}

// withPageCache layers the redis page cache over store. Without a cache
// the finder reads the store directly.
func withPageCache[T model.Entity](name string, store repository.Store[T], cache repository.PageCache, ttl time.Duration, observe func(resource, result string)) (repository.Store[T], repository.Finder[T]) {
	if cache == nil {
		return store, repository.NewExecutor(store)
	}
	inv := repository.NewInvalidatingStore(store, cache, name)
	finder := repository.NewCachedFinder[T](repository.NewExecutor[T](inv), cache, name, ttl).WithObserver(observe)
	return inv, finder
}

// services holds everything the commands share once storage is open.
type services struct {
	cfg      *config.Config
	backend  *backend
	redis    *redis.Client
	mailer   *mail.Dispatcher
	metrics  *metrics.Metrics
	breakers *circuit.BreakerRegistry

	vehicles *service.VehicleService
	drivers  *service.DriverService
	tasks    *service.TaskService
	trips    *service.TripService
	users    *service.UserService
	auth     *service.AuthService
}

func newServices(cfg *config.Config) (*services, error) {
	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	s := &services{cfg: cfg, backend: b, metrics: metrics.New()}

	var cache repository.PageCache
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg)
		if err != nil {
			// The cache is optional, lists fall back to the store.
			logger.GetLogger().Warn("Page cache disabled", zap.Error(err))
		} else {
			s.redis = client
			cache = client
		}
	}

	breakerCfg := circuit.DefaultConfig()
	breakerCfg.Threshold = cfg.Breaker.Threshold
	breakerCfg.Timeout = cfg.Breaker.Timeout
	breakers := circuit.NewBreakerRegistry(repository.BreakerConfig(breakerCfg), logger.GetLogger())
	s.breakers = breakers

	ttl, observe := cfg.Redis.CacheTTL, s.metrics.CacheObserver()
	vehicleStore, vehicleFinder := withPageCache(constants.RouteVehicles,
		openStore(b, breakers, func() *model.Vehicle { return &model.Vehicle{} }, "car_id", "license_plate"),
		cache, ttl, observe)
	driverStore, driverFinder := withPageCache(constants.RouteDrivers,
		openStore(b, breakers, func() *model.Driver { return &model.Driver{} }, "driver_id"),
		cache, ttl, observe)
	taskStore, taskFinder := withPageCache(constants.RouteTasks,
		openStore(b, breakers, func() *model.Task { return &model.Task{} }),
		cache, ttl, observe)
	tripStore, tripFinder := withPageCache(constants.RouteTrips,
		openStore(b, breakers, func() *model.Trip { return &model.Trip{} }),
		cache, ttl, observe)
	userStore := openStore(b, breakers, func() *model.User { return &model.User{} }, "email", "username")

	s.mailer = newMailer(cfg)
	s.mailer.OnDrop(s.metrics.MailDropped.Inc)

	tokens := service.NewTokenService(cfg.Token.Secret)

	s.vehicles = service.NewVehicleService(vehicleStore, vehicleFinder)
	s.drivers = service.NewDriverService(driverStore, driverFinder, vehicleStore)
	s.tasks = service.NewTaskService(taskStore, taskFinder, vehicleStore, driverStore)
	s.trips = service.NewTripService(tripStore, tripFinder, vehicleStore, driverStore)
	s.users = service.NewUserService(userStore, repository.NewExecutor(userStore), tokens, s.mailer, cfg.App.AdminEmail)
	s.auth = service.NewAuthService(userStore, tokens, s.mailer, cfg.App.AdminEmail).WithAuthTokenTTL(cfg.Token.TTL)

	return s, nil
}

// newMailer delivers through SMTP when mail is enabled and logs messages
// otherwise.
func newMailer(cfg *config.Config) *mail.Dispatcher {
	var sender mail.Sender = mail.LogSender{}
	if cfg.Mail.Enabled {
		smtp, err := mail.NewSMTPSender(cfg.Mail)
		if err != nil {
			logger.GetLogger().Warn("SMTP sender unavailable, logging mail instead", zap.Error(err))
		} else {
			sender = smtp
		}
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		// Templates are compiled in, a failure here is a programming error.
		logger.GetLogger().Fatal("Failed to parse mail templates", zap.Error(err))
	}

	return mail.NewDispatcher(sender, renderer, cfg.Mail.SubjectPrefix, cfg.Mail.Workers, cfg.Mail.QueueSize, map[string]any{
		"app":      cfg.App.Name,
		"base_url": cfg.App.BaseURL,
	})
}

// registerProbes adds the health checks served on /health and gRPC.
// A failing redis or an open store breaker only degrades the service.
func (s *services) registerProbes(m *health.Monitor) {
	m.Register("store", true, s.backend.ping)

	var redisProbe health.Probe
	if s.redis != nil {
		redisProbe = s.redis.Ping
	}
	m.Register("redis", false, redisProbe)
	m.Register("breakers", false, s.checkBreakers)
}

func (s *services) checkBreakers(context.Context) error {
	if s.breakers.AnyOpen() {
		return errBreakerOpen
	}
	return nil
}

// close releases resources in reverse order of creation. Queued mail is
// flushed before the store closes.
func (s *services) close(ctx context.Context) {
	if err := s.mailer.Close(ctx); err != nil {
		logger.GetLogger().Warn("Mail queue not drained", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.GetLogger().Error("Failed to close redis", zap.Error(err))
		}
	}
	s.backend.close()
}
