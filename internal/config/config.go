// Package config loads attune settings from <home>/config.yaml, the process
// environment (optionally seeded from a .env file) and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/harrison/attune/internal/logger"
	"github.com/harrison/attune/internal/session"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// ListenAddr is the host:port the API binds to
	ListenAddr string `yaml:"listen_addr"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AllowedOrigins feeds the CORS middleware; "*" allows any origin
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig selects the session store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// URL is a file path for sqlite or a postgres:// URL.
	// Empty with sqlite means <home>/sessions.db.
	URL string `yaml:"url"`
}

// Config represents attune configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogToFile makes serve also write a run log under LogDir
	LogToFile bool `yaml:"log_to_file"`

	// LogDir is the directory for run logs. Empty means <home>/logs.
	LogDir string `yaml:"log_dir"`

	// Questionnaire is a builtin variant name or a path to a YAML definition
	Questionnaire string `yaml:"questionnaire"`

	// PDFFont is a TrueType font for PDF reports. Empty searches common
	// system locations for DejaVu Sans.
	PDFFont string `yaml:"pdf_font"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "info",
		Questionnaire: "reference",
		Server: ServerConfig{
			ListenAddr:      ":5000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: session.DriverSQLite,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("30s") and are parsed separately.
	type yamlServer struct {
		ListenAddr      string   `yaml:"listen_addr"`
		ReadTimeout     string   `yaml:"read_timeout"`
		WriteTimeout    string   `yaml:"write_timeout"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	}
	type yamlConfig struct {
		LogLevel      string         `yaml:"log_level"`
		LogToFile     *bool          `yaml:"log_to_file"`
		LogDir        string         `yaml:"log_dir"`
		Questionnaire string         `yaml:"questionnaire"`
		PDFFont       string         `yaml:"pdf_font"`
		Server        yamlServer     `yaml:"server"`
		Database      DatabaseConfig `yaml:"database"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogToFile != nil {
		cfg.LogToFile = *yamlCfg.LogToFile
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Questionnaire != "" {
		cfg.Questionnaire = yamlCfg.Questionnaire
	}
	if yamlCfg.PDFFont != "" {
		cfg.PDFFont = yamlCfg.PDFFont
	}

	if yamlCfg.Server.ListenAddr != "" {
		cfg.Server.ListenAddr = yamlCfg.Server.ListenAddr
	}
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"server.read_timeout", yamlCfg.Server.ReadTimeout, &cfg.Server.ReadTimeout},
		{"server.write_timeout", yamlCfg.Server.WriteTimeout, &cfg.Server.WriteTimeout},
		{"server.shutdown_timeout", yamlCfg.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format %q: %w", d.name, d.value, err)
		}
		*d.dst = parsed
	}
	if yamlCfg.Server.AllowedOrigins != nil {
		cfg.Server.AllowedOrigins = yamlCfg.Server.AllowedOrigins
	}

	if yamlCfg.Database.Driver != "" {
		cfg.Database.Driver = yamlCfg.Database.Driver
	}
	if yamlCfg.Database.URL != "" {
		cfg.Database.URL = yamlCfg.Database.URL
	}

	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvListenAddr     = "ATTUNE_LISTEN_ADDR"
	EnvPort           = "PORT"
	EnvDatabaseDriver = "ATTUNE_DATABASE_DRIVER"
	EnvDatabaseURL    = "ATTUNE_DATABASE_URL"
	EnvDatabaseURLAlt = "DATABASE_URL"
	EnvLogLevel       = "ATTUNE_LOG_LEVEL"
	EnvQuestionnaire  = "ATTUNE_QUESTIONNAIRE"
	EnvAllowedOrigins = "ATTUNE_ALLOWED_ORIGINS"
	EnvPDFFont        = "ATTUNE_PDF_FONT"
)

// ApplyEnv overlays environment variables read through lookup. PORT is used
// only when ATTUNE_LISTEN_ADDR is unset, and DATABASE_URL only when
// ATTUNE_DATABASE_URL is unset.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) string {
		v, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := get(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	} else if port := get(EnvPort); port != "" {
		c.Server.ListenAddr = ":" + port
	}
	if v := get(EnvDatabaseDriver); v != "" {
		c.Database.Driver = v
	}
	if v := get(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	} else if v := get(EnvDatabaseURLAlt); v != "" {
		c.Database.URL = v
	}
	if v := get(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := get(EnvQuestionnaire); v != "" {
		c.Questionnaire = v
	}
	if v := get(EnvPDFFont); v != "" {
		c.PDFFont = v
	}
	if v := get(EnvAllowedOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.AllowedOrigins = origins
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration for home: defaults, then <home>/config.yaml,
// then .env and the environment. Callers merge flags and then call
// ResolvePaths.
func Load(home string) (*Config, error) {
	cfg, err := LoadConfig(ConfigPath(home))
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ResolvePaths fills the sqlite database path and log directory from home
// when they are unset.
func (c *Config) ResolvePaths(home string) {
	if c.Database.URL == "" && isSQLite(c.Database.Driver) {
		c.Database.URL = DefaultSQLitePath(home)
	}
	if c.LogDir == "" {
		c.LogDir = DefaultLogDir(home)
	}
}

func isSQLite(driver string) bool {
	d := strings.ToLower(driver)
	return d == session.DriverSQLite || d == "sqlite3"
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(listenAddr, dbDriver, dbURL, logLevel, questionnaire *string) {
	if listenAddr != nil {
		c.Server.ListenAddr = *listenAddr
	}
	if dbDriver != nil {
		c.Database.Driver = *dbDriver
	}
	if dbURL != nil {
		c.Database.URL = *dbURL
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if questionnaire != nil {
		c.Questionnaire = *questionnaire
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: %s", c.LogLevel, strings.Join(logger.Levels, ", "))
	}
	if !session.IsValidDriver(c.Database.Driver) {
		return fmt.Errorf("invalid database.driver %q, must be one of: %s", c.Database.Driver, strings.Join(session.Drivers, ", "))
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url cannot be empty for driver %q", c.Database.Driver)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be >= 0, got %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be >= 0, got %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be >= 0, got %v", c.Server.ShutdownTimeout)
	}
	if c.Questionnaire == "" {
		return fmt.Errorf("questionnaire cannot be empty")
	}
	return nil
}
