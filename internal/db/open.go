package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Options selects and configures a FuelStore backend.
type Options struct {
	Backend    string
	MongoURI   string
	MongoDB    string
	SQLitePath string
}

// Open creates the FuelStore selected by opts.Backend.
func Open(ctx context.Context, opts Options) (FuelStore, error) {
	switch opts.Backend {
	case BackendMemory:
		log.Warn("Using in-memory fuel store; data is lost on restart")
		return NewMemoryStore(), nil
	case BackendMongo:
		client, err := ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return nil, err
		}
		store := NewMongoStore(client, opts.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close(context.Background())
			return nil, err
		}
		log.WithField("database", opts.MongoDB).Info("Connected to MongoDB fuel store")
		return store, nil
	case BackendSQLite:
		store, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", opts.SQLitePath).Info("Opened SQLite fuel store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %q", opts.Backend)
	}
}
