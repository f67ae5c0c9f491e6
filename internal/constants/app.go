package constants

// Application Information
const (
	AppName    = "Fleet Registry"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// API routing
const (
	APIBasePath = "/api/v1"

	RouteVehicles = "vehicles"
	RouteDrivers  = "drivers"
	RouteTasks    = "tasks"
	RouteTrips    = "trips"
	RouteUsers    = "users"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongodb"
	StoreDriverMemory   = "memory"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix     = "fleet:"
	CacheKeyPage       = CacheKeyPrefix + "page:"
	CacheKeyGeneration = CacheKeyPrefix + "gen:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
