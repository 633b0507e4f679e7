package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/jobscrape/internal/app"
	"github.com/hyperifyio/jobscrape/internal/scrape"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitFetch    = 3
	exitParse    = 4
	exitCanceled = 130
)

type options struct {
	url     string
	file    string
	compact bool
}

func main() {
	var (
		opts         options
		configPath   string
		envFile      string
		strategies   string
		placeholders string
		cacheDir     string
		cacheMaxAge  string
		cacheClear   bool
		cacheStrict  bool
		cacheBypass  bool
		userAgent    string
		verbose      bool
		jsonLogs     bool
		showVersion  bool
	)
	flag.StringVar(&opts.url, "url", "", "Job posting URL to extract")
	flag.StringVar(&opts.file, "file", "", "Extract from a saved HTML file instead of fetching; -url still names the source")
	flag.BoolVar(&opts.compact, "compact", false, "Print compact JSON")
	flag.StringVar(&configPath, "config", os.Getenv("JOBSCRAPE_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&envFile, "env", ".env", "Dotenv file to load before reading the environment")
	flag.StringVar(&strategies, "strategies", "", "Path to a strategy table overriding the built-in one")
	flag.StringVar(&placeholders, "placeholders", "", "Comma-separated field=value defaults for fields nothing was found for")
	flag.StringVar(&cacheDir, "cache.dir", "", "Page cache directory; empty disables the cache")
	flag.StringVar(&cacheMaxAge, "cache.maxAge", "", "Purge cached pages older than this (e.g. 24h)")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear the page cache before the run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&cacheBypass, "cache.bypass", false, "Ignore cached pages; responses are still written")
	flag.StringVar(&userAgent, "fetch.ua", "", "User-Agent for page fetches")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of console output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("jobscrape %s (%s)\n", app.BuildVersion, app.BuildCommit)
		return
	}
	if opts.url == "" && flag.NArg() > 0 {
		opts.url = flag.Arg(0)
	}
	app.SetupLogging(verbose, jsonLogs)

	if err := app.LoadEnvFiles(envFile); err != nil {
		log.Error().Err(err).Str("path", envFile).Msg("load env file")
		os.Exit(exitUsage)
	}

	cfg := app.Config{
		StrategiesFile:   strategies,
		CacheDir:         cacheDir,
		CacheClear:       cacheClear,
		CacheStrictPerms: cacheStrict,
		BypassCache:      cacheBypass,
		UserAgent:        userAgent,
		Verbose:          verbose,
		JSONLogs:         jsonLogs,
	}
	if cacheMaxAge != "" {
		d, err := parseDuration(cacheMaxAge)
		if err != nil {
			log.Error().Err(err).Msg("invalid -cache.maxAge")
			os.Exit(exitUsage)
		}
		cfg.CacheMaxAge = d
	}
	ph, err := parsePlaceholders(placeholders)
	if err != nil {
		log.Error().Err(err).Msg("invalid -placeholders")
		os.Exit(exitUsage)
	}
	cfg.Placeholders = ph

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(exitUsage)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)
	if cfg.Verbose != verbose || cfg.JSONLogs != jsonLogs {
		app.SetupLogging(cfg.Verbose, cfg.JSONLogs)
	}
	// The CLI never stores postings.
	cfg.DatabaseURL = ""
	cfg.RedisURL = ""

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		code := exitCode(err)
		log.Error().Err(err).Int("exit", code).Msg("extraction failed")
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg app.Config, opts options, stdout io.Writer) error {
	if strings.TrimSpace(opts.url) == "" {
		return fmt.Errorf("%w: -url is required", scrape.ErrInvalidURL)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	var out *app.Output
	if opts.file != "" {
		out, err = a.ExtractFile(ctx, opts.url, opts.file)
	} else {
		out, err = a.Extract(ctx, opts.url)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func exitCode(err error) int {
	var fe *scrape.FetchError
	var pe *scrape.ParseError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, scrape.ErrInvalidURL):
		return exitUsage
	case errors.Is(err, context.Canceled):
		return exitCanceled
	case errors.As(err, &fe):
		return exitFetch
	case errors.As(err, &pe):
		return exitParse
	}
	return exitFailure
}

// parsePlaceholders reads "field=value,field=value".
func parsePlaceholders(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range app.SplitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("placeholder %q: want field=value", pair)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
