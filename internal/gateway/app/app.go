package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"profily/internal/cache/disk"
	doccache "profily/internal/cache/document"
	memcache "profily/internal/cache/memory"
	"profily/internal/gateway/config"
	"profily/internal/gateway/handler"
	"profily/internal/gateway/logging"
	"profily/internal/gateway/repository/techprofile"
	"profily/internal/gateway/server"
	"profily/internal/githubapi"
	"profily/internal/techstack"
	"profily/internal/techstack/analyzer"
	"profily/internal/techstack/detect"
	"profily/internal/techstack/mapping"
)

const (
	profileCacheEntries = 4096
	diskCacheEntries    = 20000
)

// Services is the dependency graph shared by the HTTP gateway and the CLI.
type Services struct {
	GitHub   *githubapi.Client
	Profiles *techprofile.Repository
	Analyzer *analyzer.Analyzer
	Log      logrus.FieldLogger

	// StoreCache is nil when the profile store is not cached.
	StoreCache *doccache.CachedStore

	closeStore func() error
	diskCache  *disk.Store
}

// NewServices wires the gateway, the document store and the analyzer from cfg.
func NewServices(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Services, error) {
	opts := githubapi.Options{
		BaseURL:      cfg.GitHub.BaseURL,
		CacheTTL:     cfg.GitHub.CacheTTL,
		CacheSize:    cfg.GitHub.CacheSize,
		MaxFileBytes: cfg.GitHub.MaxFileBytes,
		Logger:       log.WithField("component", "github"),
	}
	var diskCache *disk.Store
	if cfg.GitHub.DiskCacheDir != "" {
		dc, err := disk.Open(disk.Config{
			Dir:        cfg.GitHub.DiskCacheDir,
			MaxEntries: diskCacheEntries,
			MaxBytes:   cfg.GitHub.DiskCacheMaxBytes,
			TTL:        cfg.GitHub.DiskCacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open github disk cache: %w", err)
		}
		log.WithField("dir", cfg.GitHub.DiskCacheDir).Info("github disk cache enabled")
		diskCache = dc
		opts.Persistent = dc
	}
	gh, err := githubapi.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init github client: %w", err)
	}

	store, closeStore, err := initDocumentStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	profiles := techprofile.New(store)
	storeCache, _ := store.(*doccache.CachedStore)

	mappings, err := mapping.Default()
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to load tech mappings: %w", err)
	}
	det, err := detect.New(mappings, log.WithField("component", "detect"))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to init detectors: %w", err)
	}

	cache := memcache.NewLRUTTL[string, *techstack.Profile](profileCacheEntries, 0, cfg.Profile.CacheTTL)
	a, err := analyzer.New(gh, profiles, cache, det, analyzer.Config{
		CacheTTL:    cfg.Profile.CacheTTL,
		Staleness:   cfg.Profile.Staleness,
		MaxRepos:    cfg.Profile.MaxRepos,
		Concurrency: cfg.Profile.Concurrency,
	}, log.WithField("component", "analyzer"))
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("failed to init analyzer: %w", err)
	}

	return &Services{
		GitHub:     gh,
		Profiles:   profiles,
		Analyzer:   a,
		Log:        log,
		StoreCache: storeCache,
		closeStore: closeStore,
		diskCache:  diskCache,
	}, nil
}

func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	err := s.diskCache.Flush()
	if s.closeStore != nil {
		if cerr := s.closeStore(); err == nil {
			err = cerr
		}
	}
	return err
}

type App struct {
	server   *server.Server
	services *Services
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.Init(cfg.Log)

	// Dependencies
	svc, err := NewServices(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	techStackHandler := handler.NewTechStackHandler(svc.Analyzer, log.WithField("component", "http"))
	gitHubHandler := handler.NewGitHubHandler(svc.GitHub, log.WithField("component", "http"))
	var storeStats handler.StoreStats
	if svc.StoreCache != nil {
		storeStats = svc.StoreCache
	}
	healthHandler := handler.NewHealthHandler(storeStats)

	// Routing & Server
	mux := server.NewMux(techStackHandler, gitHubHandler, healthHandler)
	srv := server.New(cfg.Port, mux, log)

	return &App{
		server:   srv,
		services: svc,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.services.Close(); err == nil {
		err = cerr
	}
	return err
}
