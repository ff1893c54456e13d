package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	Log     LogConfig
	GitHub  GitHubConfig
	Profile ProfileConfig
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type GitHubConfig struct {
	BaseURL      string
	CacheTTL     time.Duration
	CacheSize    int
	MaxFileBytes int
	// DiskCacheDir enables the on-disk tree and content cache when set.
	DiskCacheDir      string
	DiskCacheTTL      time.Duration
	DiskCacheMaxBytes int64
}

type ProfileConfig struct {
	Store       string
	StorePath   string
	DatabaseURL string
	S3          S3Config

	CacheTTL    time.Duration
	Staleness   time.Duration
	MaxRepos    int
	Concurrency int
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough settings are present to build an S3 store.
func (c S3Config) CanUseS3() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	cfg := FromEnv()
	if strings.TrimSpace(os.Getenv("PORT")) == "" {
		cfg.Port = *port
	}
	return cfg, nil
}

// FromEnv reads every setting from the environment without touching flags.
func FromEnv() *Config {
	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	return &Config{
		Port:    resolvePort(os.Getenv("PORT")),
		Env:     env,
		Log:     loadLogConfig(),
		GitHub:  loadGitHubConfig(),
		Profile: loadProfileConfig(env),
	}
}

func resolvePort(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ":8081"
	}
	if strings.HasPrefix(raw, ":") {
		return raw
	}
	return ":" + raw
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		Format: firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "text"),
		Output: firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_OUTPUT")), "stdout"),
	}
}

func loadGitHubConfig() GitHubConfig {
	return GitHubConfig{
		BaseURL:      strings.TrimSpace(os.Getenv("GITHUB_API_URL")),
		CacheTTL:     envDuration("GITHUB_CACHE_TTL", 10*time.Minute),
		CacheSize:    envInt("GITHUB_CACHE_SIZE", 4096),
		MaxFileBytes: envInt("GITHUB_MAX_FILE_BYTES", 1<<20),

		DiskCacheDir:      strings.TrimSpace(os.Getenv("GITHUB_DISK_CACHE_DIR")),
		DiskCacheTTL:      envDuration("GITHUB_DISK_CACHE_TTL", time.Hour),
		DiskCacheMaxBytes: int64(envInt("GITHUB_DISK_CACHE_MAX_BYTES", 256<<20)),
	}
}

func loadProfileConfig(env string) ProfileConfig {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg := ProfileConfig{
		StorePath:   firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_STORE_PATH")), "tmp/profiles"),
		DatabaseURL: dsn,
		S3:          loadS3Config(env),
		CacheTTL:    envDuration("TECHSTACK_CACHE_TTL", 6*time.Hour),
		Staleness:   envDuration("TECHSTACK_STALENESS", 24*time.Hour),
		MaxRepos:    envInt("TECHSTACK_MAX_REPOS", 100),
		Concurrency: envInt("TECHSTACK_CONCURRENCY", 5),
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(os.Getenv("PROFILE_STORE")))
	if cfg.Store == "" {
		switch {
		case dsn != "":
			cfg.Store = StorePostgres
		case cfg.S3.CanUseS3():
			cfg.Store = StoreS3
		default:
			cfg.Store = StoreMemory
		}
	}
	return cfg
}

func loadS3Config(env string) S3Config {
	return S3Config{
		Endpoint:  resolveS3Endpoint(env),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("PROFILE_S3_BUCKET")), "profily-profiles"),
		UseSSL:    resolveS3UseSSL(env),
	}
}

func resolveS3Endpoint(env string) string {
	endpoint := strings.TrimSpace(os.Getenv("PROFILE_S3_ENDPOINT"))
	if endpoint == "" && strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("PROFILE_MINIO_ENDPOINT"))
	}
	return endpoint
}

func resolveS3UseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("PROFILE_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
