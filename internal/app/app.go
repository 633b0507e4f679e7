// Package app wires configuration into the extraction pipeline, storage and
// HTTP server shared by the jobscrape binaries.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/cache"
	"github.com/hyperifyio/jobscrape/internal/fetch"
	"github.com/hyperifyio/jobscrape/internal/infer"
	"github.com/hyperifyio/jobscrape/internal/posting"
	"github.com/hyperifyio/jobscrape/internal/scrape"
	"github.com/hyperifyio/jobscrape/internal/server"
	"github.com/hyperifyio/jobscrape/internal/sites"
	"github.com/hyperifyio/jobscrape/internal/store"
)

// App owns the long-lived collaborators built from a Config.
type App struct {
	cfg       Config
	extractor *scrape.Extractor
	store     store.Store
	drafts    *cache.DraftCache
	pool      *pgxpool.Pool
	redis     *redis.Client
}

// Output is what the CLI prints for one extraction.
type Output struct {
	Draft        posting.Draft     `json:"draft"`
	Suggestions  infer.Labels      `json:"suggestions"`
	Attempts     []posting.Attempt `json:"attempts,omitempty"`
	Site         sites.ID          `json:"site"`
	Organization string            `json:"organization,omitempty"`
}

// New builds the extractor and, when configured, connects Postgres and
// Redis. Without a database URL postings are kept in memory.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ex, err := newExtractor(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, extractor: ex}

	if cfg.DatabaseURL != "" {
		pool, err := store.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		a.store = pg
		log.Info().Msg("using postgres posting store")
	} else {
		a.store = store.NewMemory()
		log.Info().Msg("no database configured; postings are kept in memory")
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		a.drafts = &cache.DraftCache{Client: rdb, TTL: cfg.DraftTTL}
	}
	return a, nil
}

func newExtractor(cfg Config) (*scrape.Extractor, error) {
	table := sites.Default()
	if cfg.StrategiesFile != "" {
		t, err := sites.LoadFile(cfg.StrategiesFile)
		if err != nil {
			return nil, err
		}
		table = t
		log.Info().Str("path", cfg.StrategiesFile).Msg("loaded strategy table")
	}

	placeholders := make(map[posting.Field]string, len(cfg.Placeholders))
	for name, v := range cfg.Placeholders {
		f := posting.Field(name)
		if !f.Valid() {
			return nil, fmt.Errorf("placeholder for unknown field %q", name)
		}
		placeholders[f] = v
	}

	client := &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       1,
		PerRequestTimeout: cfg.FetchTimeout,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		BypassCache:       cfg.BypassCache,
	}
	if cfg.CacheDir != "" {
		prepareCacheDir(cfg)
		client.Cache = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	return &scrape.Extractor{Fetcher: client, Table: table, Placeholders: placeholders}, nil
}

// prepareCacheDir applies the invalidation settings; failures only warn.
func prepareCacheDir(cfg Config) {
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged expired pages")
		}
	}
	if cfg.CacheMaxBytes > 0 || cfg.CacheMaxEntries > 0 {
		if n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxBytes, cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("evicted pages over limit")
		}
	}
}

// Extract fetches and extracts one URL.
func (a *App) Extract(ctx context.Context, url string) (*Output, error) {
	res, err := a.extractor.ExtractDetailed(ctx, url)
	if err != nil {
		return nil, err
	}
	return newOutput(res), nil
}

// ExtractFile extracts from a saved HTML file; url classifies the site and
// becomes the draft's source URL.
func (a *App) ExtractFile(ctx context.Context, url, path string) (*Output, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	res, err := a.extractor.ExtractHTML(ctx, url, b)
	if err != nil {
		return nil, err
	}
	return newOutput(res), nil
}

func newOutput(res *scrape.Result) *Output {
	return &Output{
		Draft:        res.Draft,
		Suggestions:  infer.All(res.Draft, res.Organization),
		Attempts:     res.Attempts,
		Site:         res.Site,
		Organization: res.Organization,
	}
}

// Server returns the HTTP server wired to this App.
func (a *App) Server() *server.Server {
	timeout := a.cfg.ExtractTimeout
	if timeout == 0 {
		timeout = DefaultExtractTimeout
	}
	return &server.Server{
		Extractor:      a.extractor,
		Store:          a.store,
		Drafts:         a.drafts,
		ExtractTimeout: timeout,
		AllowOrigins:   a.cfg.AllowOrigins,
	}
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
