// Package githubapi is the GitHub data gateway used by the profiler: repository
// listing, language bytes, recursive file trees and file contents, with a
// short-lived per-token response cache.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-github/v66/github"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRateLimited marks primary or secondary rate-limit rejections.
	ErrRateLimited = errors.New("github: rate limited")
	// ErrNotFound marks a missing repository, tree or file.
	ErrNotFound = errors.New("github: not found")
	// ErrNoToken is returned when a call is made without an access token.
	ErrNoToken = errors.New("github: access token is required")
)

const (
	DefaultCacheTTL     = 10 * time.Minute
	DefaultCacheSize    = 4096
	DefaultMaxFileBytes = 1 << 20
	defaultPerPage      = 100
	maxClients          = 256
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL      string
	CacheTTL     time.Duration
	CacheSize    int
	MaxFileBytes int
	HTTPClient   *http.Client
	Logger       logrus.FieldLogger
	// Persistent is an optional second-level cache for file trees and file
	// contents, consulted after the in-memory cache.
	Persistent BlobCache
}

// BlobCache persists encoded responses across process restarts.
type BlobCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Client talks to the GitHub REST API on behalf of many users. It is safe for
// concurrent use.
type Client struct {
	base         *github.Client
	cache        *expirable.LRU[string, any]
	clients      *expirable.LRU[uint64, *github.Client]
	persistent   BlobCache
	maxFileBytes int
	log          logrus.FieldLogger
	now          func() time.Time
}

func New(opts Options) (*Client, error) {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	base := github.NewClient(opts.HTTPClient)
	if strings.TrimSpace(opts.BaseURL) != "" {
		raw := strings.TrimSpace(opts.BaseURL)
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("github: base url: %w", err)
		}
		base.BaseURL = u
	}

	return &Client{
		base:         base,
		cache:        expirable.NewLRU[string, any](opts.CacheSize, nil, opts.CacheTTL),
		clients:      expirable.NewLRU[uint64, *github.Client](maxClients, nil, time.Hour),
		persistent:   opts.Persistent,
		maxFileBytes: opts.MaxFileBytes,
		log:          opts.Logger,
		now:          time.Now,
	}, nil
}

func tokenKey(token string) uint64 {
	return xxhash.Sum64String(token)
}

func (c *Client) forToken(token string) (*github.Client, uint64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, 0, ErrNoToken
	}
	key := tokenKey(token)
	if gh, ok := c.clients.Get(key); ok {
		return gh, key, nil
	}
	gh := c.base.WithAuthToken(token)
	c.clients.Add(key, gh)
	return gh, key, nil
}

func cacheKey(kind string, token uint64, parts ...string) string {
	return fmt.Sprintf("%s:%016x:%s", kind, token, strings.Join(parts, "/"))
}

func cached[T any](c *Client, key string) (T, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// loadPersistent decodes a persisted response. Failures are a miss.
func loadPersistent[T any](ctx context.Context, c *Client, key string) (T, bool) {
	var zero T
	if c.persistent == nil {
		return zero, false
	}
	raw, ok, err := c.persistent.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).Debug("persistent cache read failed")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

func (c *Client) storePersistent(ctx context.Context, key string, v any) {
	if c.persistent == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err == nil {
		err = c.persistent.Set(ctx, key, raw)
	}
	if err != nil {
		c.log.WithError(err).Debug("persistent cache write failed")
	}
}

// translate maps go-github errors onto the package sentinels.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var rle *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &abuse) {
		return fmt.Errorf("%w: %s: %w", ErrRateLimited, op, err)
	}
	var resp *github.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		switch resp.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, op)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: %w", ErrRateLimited, op, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sortLanguageStats(stats []LanguageStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Bytes != stats[j].Bytes {
			return stats[i].Bytes > stats[j].Bytes
		}
		return stats[i].Name < stats[j].Name
	})
}
