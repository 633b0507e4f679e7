package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Server struct {
		Listen         string        `yaml:"listen" json:"listen"`
		AllowOrigins   []string      `yaml:"allowOrigins" json:"allowOrigins"`
		ExtractTimeout time.Duration `yaml:"extractTimeout" json:"extractTimeout"`
	} `yaml:"server" json:"server"`

	Database struct {
		URL string `yaml:"url" json:"url"`
	} `yaml:"database" json:"database"`

	Redis struct {
		URL      string        `yaml:"url" json:"url"`
		DraftTTL time.Duration `yaml:"draftTTL" json:"draftTTL"`
	} `yaml:"redis" json:"redis"`

	Fetch struct {
		UserAgent    string        `yaml:"userAgent" json:"userAgent"`
		Timeout      time.Duration `yaml:"timeout" json:"timeout"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes" json:"maxBodyBytes"`
	} `yaml:"fetch" json:"fetch"`

	Extract struct {
		Strategies   string            `yaml:"strategies" json:"strategies"`
		Placeholders map[string]string `yaml:"placeholders" json:"placeholders"`
	} `yaml:"extract" json:"extract"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		MaxEntries  int           `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Verbose  bool `yaml:"verbose" json:"verbose"`
	JSONLogs bool `yaml:"jsonLogs" json:"jsonLogs"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields that are unset
// or still at their flag default, so explicit flags win over the file.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.ListenAddr == "" || cfg.ListenAddr == DefaultListenAddr) && fc.Server.Listen != "" {
		cfg.ListenAddr = fc.Server.Listen
	}
	if len(cfg.AllowOrigins) == 0 && len(fc.Server.AllowOrigins) > 0 {
		cfg.AllowOrigins = fc.Server.AllowOrigins
	}
	if (cfg.ExtractTimeout == 0 || cfg.ExtractTimeout == DefaultExtractTimeout) && fc.Server.ExtractTimeout > 0 {
		cfg.ExtractTimeout = fc.Server.ExtractTimeout
	}

	if cfg.DatabaseURL == "" && fc.Database.URL != "" {
		cfg.DatabaseURL = fc.Database.URL
	}
	if cfg.RedisURL == "" && fc.Redis.URL != "" {
		cfg.RedisURL = fc.Redis.URL
	}
	if cfg.DraftTTL == 0 && fc.Redis.DraftTTL > 0 {
		cfg.DraftTTL = fc.Redis.DraftTTL
	}

	if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == DefaultFetchTimeout) && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if cfg.MaxBodyBytes == 0 && fc.Fetch.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Fetch.MaxBodyBytes
	}

	if cfg.StrategiesFile == "" && fc.Extract.Strategies != "" {
		cfg.StrategiesFile = fc.Extract.Strategies
	}
	if len(fc.Extract.Placeholders) > 0 {
		if cfg.Placeholders == nil {
			cfg.Placeholders = make(map[string]string, len(fc.Extract.Placeholders))
		}
		for k, v := range fc.Extract.Placeholders {
			if _, ok := cfg.Placeholders[k]; !ok {
				cfg.Placeholders[k] = v
			}
		}
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.JSONLogs && fc.JSONLogs {
		cfg.JSONLogs = true
	}
}
