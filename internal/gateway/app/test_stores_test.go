package app

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doccache "profily/internal/cache/document"
	"profily/internal/gateway/config"
	docrepo "profily/internal/gateway/repository/document"
)

func TestInitDocumentStore(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()

	store, closeFn, err := initDocumentStore(ctx, &config.Config{Profile: config.ProfileConfig{Store: config.StoreMemory}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &docrepo.MemoryStore{}, store)
	require.NoError(t, closeFn())

	store, _, err = initDocumentStore(ctx, &config.Config{Profile: config.ProfileConfig{
		Store:     config.StoreFile,
		StorePath: t.TempDir(),
	}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &doccache.CachedStore{}, store)
}

func TestNewServicesExposesStoreCache(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := config.FromEnv()
	cfg.Profile.Store = config.StoreFile
	cfg.Profile.StorePath = t.TempDir()

	svc, err := NewServices(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer svc.Close()
	require.NotNil(t, svc.StoreCache)

	_, ok, err := svc.Profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, svc.StoreCache.Stats().NotFound)
}

func TestInitDocumentStoreRejectsIncompleteSettings(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()
	for _, p := range []config.ProfileConfig{
		{Store: config.StorePostgres},
		{Store: config.StoreS3, S3: config.S3Config{Endpoint: "s3.local"}},
		{Store: "cassandra"},
	} {
		_, _, err := initDocumentStore(ctx, &config.Config{Profile: p}, logger)
		assert.Error(t, err, "store %q", p.Store)
	}
}

func TestNewServices(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := config.FromEnv()
	cfg.Profile.Store = config.StoreMemory

	svc, err := NewServices(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, svc.Analyzer)
	assert.NotNil(t, svc.GitHub)
	assert.NoError(t, svc.Close())
}

func TestNewServicesWithDiskCache(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := config.FromEnv()
	cfg.Profile.Store = config.StoreMemory
	cfg.GitHub.DiskCacheDir = t.TempDir()

	svc, err := NewServices(context.Background(), cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, svc.diskCache)
	assert.NoError(t, svc.Close())
}
