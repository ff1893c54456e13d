// Package analyzer coordinates tech-stack profiles: it serves them from the
// in-process cache or the document store while they are fresh and runs a
// bounded, concurrent analysis of the user's repositories otherwise.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"profily/internal/githubapi"
	"profily/internal/techstack"
	"profily/internal/techstack/detect"
)

// Gateway is the subset of the GitHub data gateway the analyzer consumes.
type Gateway interface {
	ListRepositories(ctx context.Context, token string) ([]githubapi.Repository, error)
	RepositoryLanguages(ctx context.Context, token, owner, repo string) ([]githubapi.LanguageStat, error)
	RepoFileTree(ctx context.Context, token, owner, repo string) ([]string, error)
	FileContent(ctx context.Context, token, owner, repo, path string) (string, bool, error)
}

// ProfileStore persists one profile per user.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*techstack.Profile, bool, error)
	Upsert(ctx context.Context, p *techstack.Profile) (*techstack.Profile, error)
	Delete(ctx context.Context, userID string) error
}

// Cache is the in-process profile cache.
type Cache interface {
	Get(key string) (*techstack.Profile, bool)
	SetTTL(key string, value *techstack.Profile, sizeBytes int, ttl time.Duration)
	Delete(key string)
}

// Source reports which tier produced a profile.
type Source string

const (
	SourceCache         Source = "cache"
	SourceDatabase      Source = "database"
	SourceFreshAnalysis Source = "fresh_analysis"
	SourceForcedRefresh Source = "forced_refresh"
)

const (
	DefaultCacheTTL    = 6 * time.Hour
	DefaultStaleness   = 24 * time.Hour
	DefaultMaxRepos    = 100
	DefaultConcurrency = 5
)

type Config struct {
	CacheTTL        time.Duration
	Staleness       time.Duration
	MaxRepos        int
	Concurrency     int
	MaxTechnologies int
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:        DefaultCacheTTL,
		Staleness:       DefaultStaleness,
		MaxRepos:        DefaultMaxRepos,
		Concurrency:     DefaultConcurrency,
		MaxTechnologies: techstack.MaxTechnologies,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.Staleness <= 0 {
		c.Staleness = def.Staleness
	}
	if c.MaxRepos <= 0 {
		c.MaxRepos = def.MaxRepos
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.MaxTechnologies <= 0 {
		c.MaxTechnologies = def.MaxTechnologies
	}
	return c
}

type Analyzer struct {
	gh    Gateway
	store ProfileStore
	cache Cache
	det   *detect.Detector
	cfg   Config
	log   logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func New(gh Gateway, store ProfileStore, cache Cache, det *detect.Detector, cfg Config, log logrus.FieldLogger) (*Analyzer, error) {
	if gh == nil {
		return nil, fmt.Errorf("github gateway is required")
	}
	if store == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("profile cache is required")
	}
	if det == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Analyzer{
		gh:    gh,
		store: store,
		cache: cache,
		det:   det,
		cfg:   cfg.withDefaults(),
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// CacheKey is the in-process cache key of a user's profile.
func CacheKey(userID string) string {
	return "techStack_" + strings.TrimSpace(userID)
}

// GetProfile returns the user's profile from the first tier that has a fresh
// copy: the cache, then the store when younger than the staleness threshold,
// then a new analysis. Returned profiles are shared and must not be mutated.
func (a *Analyzer) GetProfile(ctx context.Context, userID, token string) (*techstack.Profile, Source, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, "", fmt.Errorf("user_id is required")
	}
	log := a.log.WithField("user_id", userID)
	key := CacheKey(userID)

	if p, ok := a.cache.Get(key); ok {
		log.WithField("source", SourceCache).Debug("tech stack served from cache")
		return p, SourceCache, nil
	}

	stored, ok, err := a.store.Get(ctx, userID)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		log.WithError(err).Warn("stored profile unreadable; analyzing")
	case ok && a.now().Sub(stored.AnalyzedAt) < a.cfg.Staleness:
		a.cache.SetTTL(key, stored, 0, a.cfg.CacheTTL)
		log.WithFields(logrus.Fields{
			"source":      SourceDatabase,
			"analyzed_at": stored.AnalyzedAt,
		}).Debug("tech stack served from store")
		return stored, SourceDatabase, nil
	case ok:
		log.WithField("analyzed_at", stored.AnalyzedAt).Info("stored profile is stale; analyzing")
	}

	p, err := a.analyzeAndPersist(ctx, userID, token)
	if err != nil {
		return nil, "", err
	}
	return p, SourceFreshAnalysis, nil
}

// RefreshProfile drops the cached profile and always runs a new analysis.
func (a *Analyzer) RefreshProfile(ctx context.Context, userID, token string) (*techstack.Profile, Source, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, "", fmt.Errorf("user_id is required")
	}
	a.cache.Delete(CacheKey(userID))
	a.log.WithField("user_id", userID).Info("forced tech stack refresh")

	p, err := a.analyzeAndPersist(ctx, userID, token)
	if err != nil {
		return nil, "", err
	}
	return p, SourceForcedRefresh, nil
}

// DeleteProfile forgets the user's profile in both the cache and the store.
// The next GetProfile runs a fresh analysis.
func (a *Analyzer) DeleteProfile(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	a.cache.Delete(CacheKey(userID))
	if err := a.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	a.log.WithField("user_id", userID).Info("tech stack profile deleted")
	return nil
}

func (a *Analyzer) analyzeAndPersist(ctx context.Context, userID, token string) (*techstack.Profile, error) {
	log := a.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"analysis_id": a.newID(),
	})
	started := a.now()

	detections, repoCount, err := a.analyze(ctx, token, log)
	if err != nil {
		log.WithError(err).Error("tech stack analysis failed")
		return nil, err
	}

	profile := a.buildProfile(userID, detections, repoCount, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	saved, err := a.store.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("persist profile: %w", err)
	}
	a.cache.SetTTL(CacheKey(userID), saved, 0, a.cfg.CacheTTL)

	log.WithFields(logrus.Fields{
		"repos":        repoCount,
		"technologies": saved.Categorized.Len(),
		"elapsed":      a.now().Sub(started).String(),
	}).Info("tech stack analysis complete")
	return saved, nil
}

func (a *Analyzer) buildProfile(userID string, detections []techstack.Detection, repoCount int, log logrus.FieldLogger) *techstack.Profile {
	summary := techstack.SummarizeSignals(detections)
	logRawDetections(log, detections)

	raw := techstack.Untag(detections)
	ranked := techstack.AggregateN(raw, a.cfg.MaxTechnologies)
	log.WithFields(logrus.Fields{
		"raw":    len(raw),
		"unique": len(ranked),
	}).Infof("dedup: %d raw -> %d unique", len(raw), len(ranked))

	profile := techstack.NewProfile(userID, a.now())
	profile.Categorized = techstack.Categorize(ranked)
	profile.AnalyzedRepoCount = repoCount
	profile.SignalSummary = summary
	logFinalStack(log, profile.Categorized)
	return profile
}

func logRawDetections(log logrus.FieldLogger, detections []techstack.Detection) {
	bySignal := make(map[techstack.Signal][]string, len(techstack.Signals))
	for _, d := range detections {
		bySignal[d.Signal] = append(bySignal[d.Signal], d.Name)
	}
	for _, s := range techstack.Signals {
		log.WithFields(logrus.Fields{
			"signal": s,
			"count":  len(bySignal[s]),
		}).Debugf("raw detections: %s", strings.Join(bySignal[s], ", "))
	}
}

func logFinalStack(log logrus.FieldLogger, stack techstack.CategorizedTechStack) {
	for _, c := range techstack.Categories {
		bucket := stack.Bucket(c)
		names := make([]string, 0, len(bucket))
		for _, t := range bucket {
			names = append(names, t.Name)
		}
		log.WithFields(logrus.Fields{
			"category": c,
			"count":    len(bucket),
		}).Debugf("final: %s", strings.Join(names, ", "))
	}
}
