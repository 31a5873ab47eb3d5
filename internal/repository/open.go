package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vanshika/finadvisor/backend/internal/config"
	"github.com/vanshika/finadvisor/backend/internal/domain"
	"github.com/vanshika/finadvisor/backend/internal/graph"
)

// Store is the account store contract every backend satisfies.
type Store interface {
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByID(ctx context.Context, id string) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
	Ping(ctx context.Context) error
}

// CloseFunc releases the connections behind a Store.
type CloseFunc func(ctx context.Context) error

var (
	_ Store = (*MongoStore)(nil)
	_ Store = (*GraphStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Open connects the store selected by cfg.Store.Driver and prepares its
// schema: indexes for MongoDB, constraints for Neo4j and migrations for
// PostgreSQL.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, CloseFunc, error) {
	logger = logger.With("component", "store", "driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.DriverMongo:
		store, client, err := ConnectMongo(ctx, MongoOptions{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		logger.Info("connected to mongodb", "database", cfg.Mongo.Database)
		return store, client.Disconnect, nil

	case config.DriverNeo4j:
		client, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			return nil, nil, err
		}
		store := NewGraphStore(client)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		logger.Info("connected to neo4j", "database", cfg.Graph.Database)
		return store, client.Close, nil

	case config.DriverPostgres:
		db, err := OpenPostgres(PostgresOptions{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get underlying sql.DB: %w", err)
		}
		if err := RunMigrations(db, logger); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return NewPostgresStore(db), func(context.Context) error { return sqlDB.Close() }, nil

	case config.DriverMemory:
		logger.Warn("using in-memory account store; data is lost on restart")
		return NewMemoryStore(), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
