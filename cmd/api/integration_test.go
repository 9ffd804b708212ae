//go:build integration
// +build integration

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/server"
	"github.com/gravadigital/eventhub-api/internal/services"
	"github.com/gravadigital/eventhub-api/internal/storage"
	"github.com/gravadigital/eventhub-api/internal/storage/postgres"
)

// Integration tests that require a real PostgreSQL database
// Run with: go test -tags=integration ./cmd/api

func testConfig() *config.Config {
	cfg := config.Load()
	if testDB := os.Getenv("TEST_DB_NAME"); testDB != "" {
		cfg.DB.Name = testDB
	}
	cfg.Storage.Backend = "postgres"
	cfg.Blob.Backend = "memory"
	return cfg
}

func TestDatabaseConnection(t *testing.T) {
	db, err := postgres.Connect(testConfig())
	require.NoError(t, err, "Should be able to connect to test database")
	defer postgres.Close(db)

	assert.NoError(t, postgres.HealthCheck(db), "Should be able to ping the database")
	assert.NoError(t, postgres.AutoMigrate(db), "Should be able to run migrations")
}

func TestBootAgainstPostgres(t *testing.T) {
	cfg := testConfig()
	ctx := context.Background()

	container, err := storage.NewFactory(storage.StorageTypePostgres).CreateContainer(ctx, cfg)
	require.NoError(t, err)
	defer container.Close(ctx)

	blobs, err := newBlobStore(ctx, cfg)
	require.NoError(t, err)

	srv, err := server.New(server.Dependencies{
		Config:   cfg,
		Services: services.New(container, blobs, services.DefaultOptions()),
		Verifier: identity.StaticVerifier{},
		Storage:  container,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
