// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "MLSSCOUT_CONFIG"

// Config holds application configuration
type Config struct {
	APIBaseURL  string        // MLSListings API root
	SiteBaseURL string        // Prefix for relative detail-page paths
	HTTPTimeout time.Duration // Per-request timeout for the API client
	LogLevel    string

	Database   DatabaseConfig
	Boundaries map[string]BoundaryConfig
}

// DatabaseConfig holds connection settings for the optional Oracle sink.
type DatabaseConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
}

// BoundaryConfig declares how to answer containment for one named boundary.
// Exactly one of Command or Shapefile must be set.
type BoundaryConfig struct {
	Command []string `yaml:"command"`
	Dir     string   `yaml:"dir"`

	Shapefile  string `yaml:"shapefile"`
	Field      string `yaml:"field"`
	Value      string `yaml:"value"`
	Projection string `yaml:"projection"`
}

type fileConfig struct {
	APIBaseURL  string                    `yaml:"apiBaseUrl"`
	SiteBaseURL string                    `yaml:"siteBaseUrl"`
	Boundaries  map[string]BoundaryConfig `yaml:"boundaries"`
}

// Load reads .env, the environment and then the optional YAML file at path.
// An empty path falls back to $MLSSCOUT_CONFIG; no file at all is fine.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:  getEnv("MLS_API_URL", "http://api.mlslistings.com"),
		SiteBaseURL: getEnv("MLS_SITE_URL", "https://www.mlslistings.com"),
		HTTPTimeout: getEnvAsDuration("MLS_HTTP_TIMEOUT", 30*time.Second),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "1521"),
			Service:        getEnv("DB_SERVICE", "XE"),
			Username:       getEnv("DB_USERNAME", ""),
			Password:       getEnv("DB_PASSWORD", ""),
			WalletLocation: getEnv("DB_WALLET_LOCATION", ""),
		},
		Boundaries: defaultBoundaries(),
	}

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: cannot parse %s: %w", path, err)
	}

	if fc.APIBaseURL != "" {
		c.APIBaseURL = fc.APIBaseURL
	}
	if fc.SiteBaseURL != "" {
		c.SiteBaseURL = fc.SiteBaseURL
	}

	// Relative paths in the file are relative to the file itself.
	base := filepath.Dir(path)
	for name, b := range fc.Boundaries {
		if b.Shapefile != "" && !filepath.IsAbs(b.Shapefile) {
			b.Shapefile = filepath.Join(base, b.Shapefile)
		}
		if len(b.Command) > 0 && b.Dir == "" {
			b.Dir = base
		}
		c.Boundaries[strings.ToLower(name)] = b
	}
	return nil
}

// Validate checks that every boundary is usable.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: API base URL is empty")
	}
	for name, b := range c.Boundaries {
		hasCmd, hasShp := len(b.Command) > 0, b.Shapefile != ""
		if hasCmd == hasShp {
			return fmt.Errorf("config: boundary %q needs exactly one of command or shapefile", name)
		}
		if b.Field != "" && !hasShp {
			return fmt.Errorf("config: boundary %q: field filter requires a shapefile", name)
		}
	}
	return nil
}

// defaultBoundaries are the two attendance-area scripts the CLI's -H and -W
// flags refer to.
func defaultBoundaries() map[string]BoundaryConfig {
	return map[string]BoundaryConfig{
		"homestead": {Command: []string{"node", "homestead.js"}},
		"wilcox":    {Command: []string{"node", "wilcox.js"}},
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
