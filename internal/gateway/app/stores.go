package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	doccache "profily/internal/cache/document"
	"profily/internal/gateway/config"
	docrepo "profily/internal/gateway/repository/document"
)

// initDocumentStore builds the configured origin store and wraps it in the
// read-through cache. The returned close func releases the origin.
func initDocumentStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (docrepo.Store, func() error, error) {
	origin, closeFn, err := chooseDocumentStore(ctx, cfg.Profile, log)
	if err != nil {
		return nil, nil, err
	}
	if origin == nil {
		return nil, nil, fmt.Errorf("document origin store is nil")
	}
	if cfg.Profile.Store == config.StoreMemory {
		return origin, closeFn, nil
	}
	return doccache.NewCachedStore(origin, doccache.DefaultCacheConfig()), closeFn, nil
}

func chooseDocumentStore(ctx context.Context, cfg config.ProfileConfig, log logrus.FieldLogger) (docrepo.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store {
	case config.StoreMemory:
		log.Info("profile store: in-memory")
		return docrepo.NewMemoryStore(), noop, nil
	case config.StoreFile:
		log.WithField("path", cfg.StorePath).Info("profile store: file")
		return docrepo.NewFileStore(cfg.StorePath), noop, nil
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("postgres profile store requires DATABASE_URL")
		}
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := docrepo.OpenPostgres(pingCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open profile database: %w", err)
		}
		log.Info("profile store: postgres")
		return store, store.Close, nil
	case config.StoreS3:
		if !cfg.S3.CanUseS3() {
			return nil, nil, fmt.Errorf("s3 profile store requires endpoint, credentials and bucket")
		}
		store, err := docrepo.NewS3Store(docrepo.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize profile s3 store: %w", err)
		}
		log.WithFields(logrus.Fields{"bucket": cfg.S3.Bucket, "endpoint": cfg.S3.Endpoint}).Info("profile store: s3")
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown profile store %q", cfg.Store)
	}
}
