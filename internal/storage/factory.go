package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/storage/memory"
	"github.com/gravadigital/eventhub-api/internal/storage/mongo"
	"github.com/gravadigital/eventhub-api/internal/storage/postgres"
	"github.com/gravadigital/eventhub-api/internal/storage/repository"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypePostgres StorageType = "postgres"
	StorageTypeMongo    StorageType = "mongo"
	StorageTypeMemory   StorageType = "memory"
)

// Factory provides a factory pattern for creating storage containers
type Factory struct {
	storageType StorageType
}

// NewFactory creates a new storage factory
func NewFactory(storageType StorageType) *Factory {
	return &Factory{
		storageType: storageType,
	}
}

// CreateContainer creates a storage container based on the configured type
func (f *Factory) CreateContainer(ctx context.Context, cfg *config.Config) (repository.Container, error) {
	log := logger.Repository("factory")
	log.Info("Creating storage container", "type", f.storageType)

	switch f.storageType {
	case StorageTypePostgres:
		c, err := postgres.NewContainer(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case StorageTypeMongo:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		c, err := mongo.Connect(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDB)
		if err != nil {
			return nil, err
		}
		return c, nil
	case StorageTypeMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.storageType)
	}
}

// GetSupportedTypes returns a list of supported storage types
func GetSupportedTypes() []StorageType {
	return []StorageType{
		StorageTypePostgres,
		StorageTypeMongo,
		StorageTypeMemory,
	}
}

// ValidateStorageType validates if a storage type is supported
func ValidateStorageType(storageType string) (StorageType, error) {
	st := StorageType(storageType)

	for _, supported := range GetSupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, GetSupportedTypes())
}

// DefaultFactory returns a factory configured with the default storage type
func DefaultFactory() *Factory {
	return NewFactory(StorageTypePostgres)
}
