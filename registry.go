package mongodoc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mongodoc/mongodoc/internal/config"
	"github.com/mongodoc/mongodoc/pkg/logger"
)

// registry holds the process-wide connection and the classes created against
// it. Initialization is expected once, at startup; the handle is read-only
// afterwards.
type registry struct {
	mu      sync.RWMutex
	db      Database
	client  *mongo.Client
	classes map[string]*CollectionClass
}

var defaultRegistry = &registry{classes: make(map[string]*CollectionClass)}

// connectFn is swapped out in tests to avoid a live server.
var connectFn = connectMongo

// InitDB establishes the process-wide connection. Must be called before any
// collection class is created, unless the MONGO_DB_CONNECTION_STRING and
// MONGO_DB_NAME environment variables are set, in which case the first factory
// call connects lazily. The first successful initialization wins; later calls
// are no-ops.
func InitDB(ctx context.Context, connectionString, databaseName string) error {
	return defaultRegistry.init(ctx, connectionString, databaseName, config.DefaultTimeout)
}

// UseDatabase installs an explicit database handle, bypassing InitDB and the
// environment fallback. Intended for callers that manage their own client, and
// for wiring NewMemoryDatabase in tests.
func UseDatabase(db Database) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.db = db
	defaultRegistry.client = nil
}

// Disconnect closes the client opened by InitDB or the environment fallback.
// A no-op when no such client exists.
func Disconnect(ctx context.Context) error {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	client := defaultRegistry.client
	defaultRegistry.db = nil
	defaultRegistry.client = nil
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Classes returns the collection classes created so far, keyed by class name.
func Classes() map[string]*CollectionClass {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	out := make(map[string]*CollectionClass, len(defaultRegistry.classes))
	for name, class := range defaultRegistry.classes {
		out[name] = class
	}
	return out
}

func (r *registry) init(ctx context.Context, connectionString, databaseName string, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return nil
	}
	client, err := connectFn(ctx, connectionString, timeout)
	if err != nil {
		return err
	}
	r.client = client
	r.db = WrapDatabase(client.Database(databaseName))
	logger.Infof("connected to database %q", databaseName)
	return nil
}

// database returns the active handle, resolving it from the environment on
// first use when InitDB was never called.
func (r *registry) database() (Database, error) {
	r.mu.RLock()
	db := r.db
	r.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	logger.Debugf("no explicit InitDB call; connecting from environment (database=%s)", cfg.Database)
	if err := r.init(context.Background(), cfg.ConnectionString, cfg.Database, cfg.Timeout); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db, nil
}

func (r *registry) register(class *CollectionClass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class.name] = class
}

// connectMongo opens a connection and pings it, bounded by timeout. Driver
// errors propagate unmodified inside the wrap.
func connectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
