// Package config loads the client configuration from an optional YAML file
// and MIRROR_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/dataspace/mirror/pkg/constants"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
	Index  IndexConfig  `yaml:"index"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	URL     string        `yaml:"url"     env:"MIRROR_SERVER_URL"     env-default:"http://localhost:8080/api"`
	Timeout time.Duration `yaml:"timeout" env:"MIRROR_SERVER_TIMEOUT" env-default:"30s"`
}

// CacheConfig selects where downloaded file content is kept. An empty Dir
// keeps content in memory only.
type CacheConfig struct {
	Dir string        `yaml:"dir" env:"MIRROR_CACHE_DIR"`
	TTL time.Duration `yaml:"ttl" env:"MIRROR_CACHE_TTL" env-default:"0s"`
}

// IndexConfig overrides the search tokenisation. Empty patterns select the
// index defaults.
type IndexConfig struct {
	BreakPattern string `yaml:"break_pattern" env:"MIRROR_INDEX_BREAK_PATTERN"`
	TokenPattern string `yaml:"token_pattern" env:"MIRROR_INDEX_TOKEN_PATTERN"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"MIRROR_LOG_LEVEL" env-default:"info"`
	// Path switches logging to a JSON file.
	Path string `yaml:"path" env:"MIRROR_LOG_PATH"`
}

// Load reads path, when given, and then the environment. Environment values
// win over the file; env-default tags fill the rest.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != constants.HTTPScheme && u.Scheme != constants.HTTPSecureScheme {
		return fmt.Errorf("server.url must be http or https (got %q)", c.Server.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url has no host (got %q)", c.Server.URL)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must be >= 0 (got %v)", c.Server.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0 (got %v)", c.Cache.TTL)
	}

	for name, pattern := range map[string]string{
		"index.break_pattern": c.Index.BreakPattern,
		"index.token_pattern": c.Index.TokenPattern,
	} {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}

	return nil
}

// ServerURL is the parsed server address. Validate must have passed.
func (c *Config) ServerURL() *url.URL {
	u, _ := url.Parse(c.Server.URL)
	return u
}
