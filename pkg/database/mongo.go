package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Payphone-Digital/fleet-registry/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI              string
	Database         string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
}

func MongoConfigFrom(cfg *config.Config) MongoConfig {
	return MongoConfig{
		URI:              cfg.Mongo.URI,
		Database:         cfg.Mongo.Database,
		ConnectTimeout:   cfg.Mongo.ConnectTimeout,
		OperationTimeout: cfg.Mongo.OperationTimeout,
	}
}

// MongoDB wraps a connected client bound to one database.
type MongoDB struct {
	client   *mongo.Client
	database string
	timeout  time.Duration
	mu       sync.RWMutex
	closed   bool
}

// NewMongoDB connects and pings the primary.
func NewMongoDB(cfg MongoConfig) (*MongoDB, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database is required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDB{
		client:   client,
		database: cfg.Database,
		timeout:  cfg.OperationTimeout,
	}, nil
}

func (m *MongoDB) Database() *mongo.Database {
	return m.client.Database(m.database)
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.Database().Collection(name)
}

// OperationTimeout bounds each store call that has no deadline of its own.
func (m *MongoDB) OperationTimeout() time.Duration {
	return m.timeout
}

func (m *MongoDB) Ping(ctx context.Context) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return fmt.Errorf("mongodb client is closed")
	}
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close mongodb connection: %w", err)
	}
	return nil
}
