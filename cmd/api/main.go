package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/eventhub-api/internal/blob"
	"github.com/gravadigital/eventhub-api/internal/config"
	"github.com/gravadigital/eventhub-api/internal/identity"
	"github.com/gravadigital/eventhub-api/internal/logger"
	"github.com/gravadigital/eventhub-api/internal/server"
	"github.com/gravadigital/eventhub-api/internal/services"
	"github.com/gravadigital/eventhub-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger.InitializeWithFormat(cfg.Log.Level, cfg.Log.Format)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.ValidateStorageType(cfg.Storage.Backend)
	if err != nil {
		return err
	}
	container, err := storage.NewFactory(backend).CreateContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	verifier, err := identity.NewJWTVerifier(identity.JWTConfig{
		Secret:     cfg.Auth.JWTSecret,
		PublicKeys: cfg.Auth.JWTPublicKeys,
		Issuer:     cfg.Auth.JWTIssuer,
		Audience:   cfg.Auth.JWTAudience,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	opts := services.DefaultOptions()
	opts.OpenSelfServiceRoles = cfg.Auth.OpenSelfServiceRoles
	opts.MaxAudioSize = cfg.Upload.MaxAudioSize
	opts.MaxFileSize = cfg.Upload.MaxFileSize

	srv, err := server.New(server.Dependencies{
		Config:   cfg,
		Services: services.New(container, blobs, opts),
		Verifier: verifier,
		Storage:  container,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.Blob.Backend == "memory" {
		logger.Blob().Warn("Using in-memory blob storage; uploads are lost on restart")
		return blob.NewMemoryStore(), nil
	}

	store, err := blob.NewMinioStore(blob.MinioConfig{
		Endpoint:  cfg.Blob.MinioEndpoint,
		AccessKey: cfg.Blob.MinioAccessKey,
		SecretKey: cfg.Blob.MinioSecretKey,
		Bucket:    cfg.Blob.MinioBucket,
		UseSSL:    cfg.Blob.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
