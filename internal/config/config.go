// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/metadata/tmdb"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	TMDB    TMDBConfig
	Tagging TaggingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	BasePath     string // default: ~/AgeTags
	DatabasePath string // {base}/agetags.db
	CachePath    string // {base}/cache
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 60s, runs are synchronous)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	// APIKey may be empty; operations needing TMDB then fail with MISSING_CREDENTIALS.
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// TaggingConfig controls the age-tag task.
type TaggingConfig struct {
	CountryPriority string // comma-separated region codes (default: FR,US)
	HomeRegion      string // default: first entry of CountryPriority
	EnableWrite     bool   // false means dry run
	TagPrefix       string
	Concurrency     int
}

// Priority returns the effective region priority list.
func (t TaggingConfig) Priority() []string {
	return agerules.ParsePriority(t.CountryPriority, t.HomeRegion)
}

// LoadConfig loads configuration from the process command line.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("agetags", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for the database and cache (default: ~/AgeTags)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// TMDB flags
	tmdbAPIKey := fs.String("tmdb-api-key", "", "TMDB API key")
	tmdbBaseURL := fs.String("tmdb-base-url", "", "TMDB API base URL")
	tmdbCacheTTL := fs.String("tmdb-cache-ttl", "", "How long fetched certifications are cached (default: 24h)")

	// Tagging flags
	countryPriority := fs.String("country-priority", "", "Comma-separated region priority (default: FR,US)")
	homeRegion := fs.String("home-region", "", "Region always tried first (default: first of country priority)")
	enableWrite := fs.String("enable-write", "", "Write tags instead of a dry run (default: false)")
	tagPrefix := fs.String("tag-prefix", "", "Prefix of age tags (default: age-)")
	concurrency := fs.String("tag-concurrency", "", "Titles resolved in parallel (default: 4)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		TMDB: TMDBConfig{
			APIKey:  getConfigValue(*tmdbAPIKey, "TMDB_API_KEY", ""),
			BaseURL: getConfigValue(*tmdbBaseURL, "TMDB_BASE_URL", tmdb.DefaultBaseURL),
		},
		Tagging: TaggingConfig{
			CountryPriority: getConfigValue(*countryPriority, "COUNTRY_PRIORITY", "FR,US"),
			HomeRegion:      getConfigValue(*homeRegion, "HOME_REGION", ""),
			EnableWrite:     getBoolConfigValue(*enableWrite, "ENABLE_WRITE", false),
			TagPrefix:       getConfigValue(*tagPrefix, "TAG_PREFIX", "age-"),
			Concurrency:     getIntConfigValue(*concurrency, "TAG_CONCURRENCY", 4),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.TMDB.CacheTTL, err = getDurationConfigValue(*tmdbCacheTTL, "TMDB_CACHE_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid tmdb cache ttl: %w", err)
	}

	cfg.applyHomeRegionDefault()

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.TMDB.CacheTTL <= 0 {
		return fmt.Errorf("invalid tmdb cache ttl: %s (must be positive)", c.TMDB.CacheTTL)
	}

	if c.Tagging.Concurrency < 1 {
		return fmt.Errorf("invalid tag concurrency: %d (must be at least 1)", c.Tagging.Concurrency)
	}

	if strings.TrimSpace(c.Tagging.TagPrefix) == "" {
		return errors.New("tag prefix cannot be empty")
	}

	// An empty TMDB API key is allowed; it is reported when a run needs it.

	return nil
}

// applyHomeRegionDefault uses the first priority entry when no home region is set.
func (c *Config) applyHomeRegionDefault() {
	if strings.TrimSpace(c.Tagging.HomeRegion) != "" {
		c.Tagging.HomeRegion = strings.ToUpper(strings.TrimSpace(c.Tagging.HomeRegion))
		return
	}
	if regions := agerules.ParsePriority(c.Tagging.CountryPriority, ""); len(regions) > 0 {
		c.Tagging.HomeRegion = regions[0]
	}
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~, makes the path absolute and derives the database and cache paths.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "AgeTags")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	c.Data.DatabasePath = filepath.Join(expanded, "agetags.db")
	c.Data.CachePath = filepath.Join(expanded, "cache")
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
