package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("FOO", "")
	t.Setenv("BAR", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nFOO=alpha\nBAR=\"beta\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("FOO"); got != "alpha" {
		t.Fatalf("FOO=%q, want alpha", got)
	}
	if got := os.Getenv("BAR"); got != "beta" {
		t.Fatalf("BAR=%q, want beta", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvToConfig_FromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/jobs")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("FETCH_TIMEOUT", "10s")
	t.Setenv("CACHE_MAX_ENTRIES", "500")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_STRICT_PERMS", "yes")

	var cfg Config
	ApplyEnvToConfig(&cfg)
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr=%q, want :9090 from PORT", cfg.ListenAddr)
	}
	if cfg.DatabaseURL != "postgres://u:p@db/jobs" || cfg.RedisURL != "redis://cache:6379/0" {
		t.Fatalf("urls not read: %+v", cfg)
	}
	if cfg.FetchTimeout != 10*time.Second || cfg.CacheMaxEntries != 500 || !cfg.CacheStrictPerms {
		t.Fatalf("typed values not read: %+v", cfg)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "https://b.example" {
		t.Fatalf("AllowOrigins=%v", cfg.AllowOrigins)
	}
}

func TestApplyEnvToConfig_ExplicitWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/jobs")
	t.Setenv("FETCH_TIMEOUT", "1s")
	cfg := Config{DatabaseURL: "postgres://flag/jobs", FetchTimeout: 5 * time.Second}
	ApplyEnvToConfig(&cfg)
	if cfg.DatabaseURL != "postgres://flag/jobs" || cfg.FetchTimeout != 5*time.Second {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
}
