package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath   string
		envFile      string
		listenAddr   string
		databaseURL  string
		redisURL     string
		allowOrigins string
		cacheDir     string
		extractTO    time.Duration
		fetchTO      time.Duration
		verbose      bool
		jsonLogs     bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("JOBSCRAPE_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&envFile, "env", ".env", "Dotenv file to load before reading the environment")
	flag.StringVar(&listenAddr, "listen", app.DefaultListenAddr, "HTTP listen address")
	flag.StringVar(&databaseURL, "db.url", "", "Postgres URL; empty keeps postings in memory")
	flag.StringVar(&redisURL, "redis.url", "", "Redis URL for the draft cache; empty disables it")
	flag.StringVar(&allowOrigins, "cors.origins", "", "Comma-separated CORS origins; empty allows all")
	flag.StringVar(&cacheDir, "cache.dir", "", "Page cache directory; empty disables the cache")
	flag.DurationVar(&extractTO, "extract.timeout", app.DefaultExtractTimeout, "Deadline for one extraction request")
	flag.DurationVar(&fetchTO, "fetch.timeout", app.DefaultFetchTimeout, "Deadline for one page fetch")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of console output")
	flag.Parse()

	app.SetupLogging(verbose, jsonLogs)
	if err := app.LoadEnvFiles(envFile); err != nil {
		log.Fatal().Err(err).Str("path", envFile).Msg("load env file")
	}

	cfg := app.Config{
		ListenAddr:     listenAddr,
		DatabaseURL:    databaseURL,
		RedisURL:       redisURL,
		AllowOrigins:   app.SplitList(allowOrigins),
		CacheDir:       cacheDir,
		ExtractTimeout: extractTO,
		FetchTimeout:   fetchTO,
		Verbose:        verbose,
		JSONLogs:       jsonLogs,
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config")
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)
	if cfg.Verbose != verbose || cfg.JSONLogs != jsonLogs {
		app.SetupLogging(cfg.Verbose, cfg.JSONLogs)
	}
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// serve runs the HTTP server until ctx is done, then drains in-flight
// requests.
func serve(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.Server()
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.ExtractTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", app.BuildVersion).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("stopped")
	return nil
}
