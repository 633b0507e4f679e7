package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds runtime configuration for the CLI and the server.
type Config struct {
	// Server
	ListenAddr     string
	AllowOrigins   []string
	ExtractTimeout time.Duration

	// Storage
	DatabaseURL string
	RedisURL    string
	DraftTTL    time.Duration

	// Fetching
	UserAgent    string
	FetchTimeout time.Duration
	MaxBodyBytes int64

	// Extraction
	StrategiesFile string
	Placeholders   map[string]string

	// Page cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxBytes    int64
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool
	BypassCache      bool

	// Behavior
	Verbose  bool
	JSONLogs bool
}

// Flag defaults. ApplyFileConfig treats a field still at its default as
// unset so the file may override it.
const (
	DefaultListenAddr     = ":8080"
	DefaultExtractTimeout = 30 * time.Second
	DefaultFetchTimeout   = 15 * time.Second
)

// ValidateConfig reports configuration that cannot work.
func ValidateConfig(cfg Config) error {
	var errs []error
	if cfg.FetchTimeout < 0 {
		errs = append(errs, errors.New("fetch timeout must not be negative"))
	}
	if cfg.ExtractTimeout < 0 {
		errs = append(errs, errors.New("extract timeout must not be negative"))
	}
	if cfg.FetchTimeout > 0 && cfg.ExtractTimeout > 0 && cfg.ExtractTimeout < cfg.FetchTimeout {
		errs = append(errs, fmt.Errorf("extract timeout %s is shorter than fetch timeout %s", cfg.ExtractTimeout, cfg.FetchTimeout))
	}
	if cfg.MaxBodyBytes < 0 || cfg.CacheMaxBytes < 0 || cfg.CacheMaxEntries < 0 {
		errs = append(errs, errors.New("size limits must not be negative"))
	}
	if cfg.DraftTTL < 0 || cfg.CacheMaxAge < 0 {
		errs = append(errs, errors.New("cache ages must not be negative"))
	}
	if u := strings.TrimSpace(cfg.DatabaseURL); u != "" && !strings.HasPrefix(u, "postgres://") && !strings.HasPrefix(u, "postgresql://") {
		errs = append(errs, errors.New("database url must use the postgres:// scheme"))
	}
	if u := strings.TrimSpace(cfg.RedisURL); u != "" && !strings.HasPrefix(u, "redis://") && !strings.HasPrefix(u, "rediss://") {
		errs = append(errs, errors.New("redis url must use the redis:// or rediss:// scheme"))
	}
	return errors.Join(errs...)
}

// SplitList parses a comma-separated flag or env value.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
