package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/config"
)

func TestNewBlobStoreMemory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Blob.Backend = "memory"

	store, err := newBlobStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &blob.MemoryStore{}, store)
}

func TestNewBlobStoreRequiresEndpoint(t *testing.T) {
	cfg := &config.Config{}
	cfg.Blob.Backend = "minio"

	_, err := newBlobStore(context.Background(), cfg)
	assert.Error(t, err)
}
