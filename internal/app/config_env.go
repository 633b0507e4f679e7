package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	if cfg.ListenAddr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			cfg.ListenAddr = ":" + port
		}
	}
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.UserAgent, "FETCH_USER_AGENT")
	setString(&cfg.StrategiesFile, "STRATEGIES_FILE")
	setString(&cfg.CacheDir, "CACHE_DIR")

	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = SplitList(os.Getenv("ALLOW_ORIGINS"))
	}

	setDuration := func(dst *time.Duration, key string) {
		if *dst != 0 {
			return
		}
		if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
			*dst = d
		}
	}
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDuration(&cfg.ExtractTimeout, "EXTRACT_TIMEOUT")
	setDuration(&cfg.DraftTTL, "DRAFT_TTL")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	setInt64 := func(dst *int64, key string) {
		if *dst != 0 {
			return
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64); err == nil && n > 0 {
			*dst = n
		}
	}
	setInt64(&cfg.MaxBodyBytes, "FETCH_MAX_BODY_BYTES")
	setInt64(&cfg.CacheMaxBytes, "CACHE_MAX_BYTES")
	if cfg.CacheMaxEntries == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CACHE_MAX_ENTRIES"))); err == nil && n > 0 {
			cfg.CacheMaxEntries = n
		}
	}

	setBool := func(dst *bool, key string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.JSONLogs, "LOG_JSON")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.BypassCache, "CACHE_BYPASS")
}
