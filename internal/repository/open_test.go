package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/finadvisor/backend/internal/config"
)

func TestOpenMemoryStore(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Driver = config.DriverMemory

	store, closeFn, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, closeFn(context.Background()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Store.Driver = "cassandra"

	_, _, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cassandra")
}

func TestOpenRequiresConnectionSettings(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Defaults()
	cfg.Store.Driver = config.DriverPostgres
	cfg.Postgres.DSN = ""
	_, _, err := Open(context.Background(), cfg, logger)
	require.Error(t, err)

	cfg = config.Defaults()
	cfg.Store.Driver = config.DriverNeo4j
	cfg.Graph.URI = ""
	_, _, err = Open(context.Background(), cfg, logger)
	require.Error(t, err)
}
