// Package config provides configuration for the highlight agent. Values come
// from an optional YAML file and are overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort           = 8788
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".highlight"
	DefaultServiceURL     = "http://localhost:5001"
	DefaultServiceTimeout = 600 // seconds
	DefaultMaxChunkSize   = 200
	DefaultTopK           = 5
	DefaultRedisChannel   = "highlight.events"

	// Environment variable names
	EnvConfigFile      = "HIGHLIGHT_CONFIG"
	EnvPort            = "HIGHLIGHT_PORT"
	EnvLogLevel        = "HIGHLIGHT_LOG_LEVEL"
	EnvDataDir         = "HIGHLIGHT_DATA_DIR"
	EnvServiceURL      = "HIGHLIGHT_SERVICE_URL"
	EnvServiceTimeout  = "HIGHLIGHT_SERVICE_TIMEOUT"
	EnvMaxChunkSize    = "HIGHLIGHT_MAX_CHUNK_SIZE"
	EnvTopK            = "HIGHLIGHT_TOP_K"
	EnvRequireSegments = "HIGHLIGHT_REQUIRE_SEGMENTS"
	EnvStrictOrder     = "HIGHLIGHT_STRICT_ORDER"
	EnvValidateTiming  = "HIGHLIGHT_VALIDATE_TIMING"
	EnvRedisAddr       = "HIGHLIGHT_REDIS_ADDR"
	EnvRedisChannel    = "HIGHLIGHT_REDIS_CHANNEL"
	EnvHeadless        = "HIGHLIGHT_HEADLESS"

	// Database filename
	DBFilename = "highlight.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	ExportDir() string
	ServiceURL() string
	ServiceTimeout() time.Duration
	MaxChunkSize() int
	TopK() int
	RequireSegments() bool
	StrictOrder() bool
	ValidateTiming() bool
	RedisAddr() string
	RedisChannel() string
	Headless() bool
}

// fileConfig mirrors the YAML file. Pointer fields distinguish "unset" from
// zero values.
type fileConfig struct {
	Port            *int    `yaml:"port"`
	LogLevel        *string `yaml:"log_level"`
	DataDir         *string `yaml:"data_dir"`
	ServiceURL      *string `yaml:"service_url"`
	ServiceTimeout  *int    `yaml:"service_timeout"`
	MaxChunkSize    *int    `yaml:"max_chunk_size"`
	TopK            *int    `yaml:"top_k"`
	RequireSegments *bool   `yaml:"require_segments"`
	StrictOrder     *bool   `yaml:"strict_order"`
	ValidateTiming  *bool   `yaml:"validate_timing"`
	Redis           struct {
		Addr    *string `yaml:"addr"`
		Channel *string `yaml:"channel"`
	} `yaml:"redis"`
	Headless *bool `yaml:"headless"`
}

// EnvConfig holds resolved configuration values
type EnvConfig struct {
	port            int
	logLevel        string
	dataDir         string
	serviceURL      string
	serviceTimeout  int
	maxChunkSize    int
	topK            int
	requireSegments bool
	strictOrder     bool
	validateTiming  bool
	redisAddr       string
	redisChannel    string
	headless        bool
}

// New creates a new EnvConfig from defaults, the optional YAML file named by
// HIGHLIGHT_CONFIG, and environment variable overrides, in that order.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		serviceURL:     DefaultServiceURL,
		serviceTimeout: DefaultServiceTimeout,
		maxChunkSize:   DefaultMaxChunkSize,
		topK:           DefaultTopK,
		redisChannel:   DefaultRedisChannel,
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&c.port, fc.Port)
	setIf(&c.logLevel, fc.LogLevel)
	setIf(&c.dataDir, fc.DataDir)
	setIf(&c.serviceURL, fc.ServiceURL)
	setIf(&c.serviceTimeout, fc.ServiceTimeout)
	setIf(&c.maxChunkSize, fc.MaxChunkSize)
	setIf(&c.topK, fc.TopK)
	setIf(&c.requireSegments, fc.RequireSegments)
	setIf(&c.strictOrder, fc.StrictOrder)
	setIf(&c.validateTiming, fc.ValidateTiming)
	setIf(&c.redisAddr, fc.Redis.Addr)
	setIf(&c.redisChannel, fc.Redis.Channel)
	setIf(&c.headless, fc.Headless)
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (c *EnvConfig) loadEnv() error {
	ints := []struct {
		env string
		dst *int
	}{
		{EnvPort, &c.port},
		{EnvServiceTimeout, &c.serviceTimeout},
		{EnvMaxChunkSize, &c.maxChunkSize},
		{EnvTopK, &c.topK},
	}
	for _, v := range ints {
		if s := os.Getenv(v.env); s != "" {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("invalid %s: %w", v.env, err)
			}
			*v.dst = n
		}
	}

	bools := []struct {
		env string
		dst *bool
	}{
		{EnvRequireSegments, &c.requireSegments},
		{EnvStrictOrder, &c.strictOrder},
		{EnvValidateTiming, &c.validateTiming},
		{EnvHeadless, &c.headless},
	}
	for _, v := range bools {
		if s := os.Getenv(v.env); s != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("invalid %s: %w", v.env, err)
			}
			*v.dst = b
		}
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}
	if u := os.Getenv(EnvServiceURL); u != "" {
		c.serviceURL = u
	}
	if a := os.Getenv(EnvRedisAddr); a != "" {
		c.redisAddr = a
	}
	if ch := os.Getenv(EnvRedisChannel); ch != "" {
		c.redisChannel = ch
	}
	return nil
}

func (c *EnvConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	if c.serviceTimeout < 1 {
		return fmt.Errorf("invalid service timeout %d: must be at least 1 second", c.serviceTimeout)
	}
	if c.maxChunkSize < 1 {
		return fmt.Errorf("invalid max chunk size %d: must be positive", c.maxChunkSize)
	}
	if c.topK < 1 {
		return fmt.Errorf("invalid top_k %d: must be positive", c.topK)
	}
	if !strings.HasPrefix(c.serviceURL, "http://") && !strings.HasPrefix(c.serviceURL, "https://") {
		return fmt.Errorf("invalid service URL %q: must be http or https", c.serviceURL)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir returns the directory rendered videos are downloaded into
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

// ExportDir returns the default directory for EDL exports
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// ServiceURL returns the media service base URL
func (c *EnvConfig) ServiceURL() string {
	return strings.TrimRight(c.serviceURL, "/")
}

func (c *EnvConfig) ServiceTimeout() time.Duration {
	return time.Duration(c.serviceTimeout) * time.Second
}

func (c *EnvConfig) MaxChunkSize() int {
	return c.maxChunkSize
}

func (c *EnvConfig) TopK() int {
	return c.topK
}

// RequireSegments reports whether a fetch in which every video failed
// should fail instead of advancing with no segments.
func (c *EnvConfig) RequireSegments() bool {
	return c.requireSegments
}

func (c *EnvConfig) StrictOrder() bool {
	return c.strictOrder
}

func (c *EnvConfig) ValidateTiming() bool {
	return c.validateTiming
}

// RedisAddr returns the Redis address; empty disables event publishing
func (c *EnvConfig) RedisAddr() string {
	return c.redisAddr
}

func (c *EnvConfig) RedisChannel() string {
	return c.redisChannel
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
