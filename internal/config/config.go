package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"keeling-pipeline/pkg/database"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig
const EnvPrefix = "KEELING"

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig contains the source URLs and on-disk layout of the pipeline
type PipelineConfig struct {
	MonthlyURL          string        `yaml:"monthly_url" split_words:"true" default:"https://scrippsco2.ucsd.edu/assets/data/atmospheric/stations/in_situ_co2/monthly/monthly_in_situ_co2_mlo.csv"`
	HistoricalURL       string        `yaml:"historical_url" split_words:"true" default:"https://scrippsco2.ucsd.edu/assets/data/atmospheric/merged_ice_core_mlo_spo/merged_ice_core_yearly.csv"`
	DataDir             string        `yaml:"data_dir" split_words:"true" default:"."`
	FetchTimeout        time.Duration `yaml:"fetch_timeout" split_words:"true" default:"30s"`
	DecompositionPeriod int           `yaml:"decomposition_period" split_words:"true" default:"12"`
	IngestBatchSize     int           `yaml:"ingest_batch_size" split_words:"true" default:"500"`
}

// Path resolves a pipeline file name against the data directory
func (p PipelineConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `yaml:"host" split_words:"true" default:"localhost"`
	Port            int           `yaml:"port" split_words:"true" default:"5432"`
	User            string        `yaml:"user" split_words:"true" default:"keeling"`
	Password        string        `yaml:"password" split_words:"true" default:"keeling"`
	Database        string        `yaml:"database" split_words:"true" default:"keeling"`
	SSLMode         string        `yaml:"ssl_mode" split_words:"true" default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true" default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true" default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" split_words:"true" default:"5m"`
	PoolInterval    time.Duration `yaml:"pool_interval" split_words:"true" default:"30s"`
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// Postgres converts the settings into a connection pool configuration
func (d DatabaseConfig) Postgres() *database.Config {
	return &database.Config{
		DSN:             d.DSN(),
		Host:            d.Host,
		Database:        d.Database,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
		PoolInterval:    d.PoolInterval,
	}
}

// Stores the API server can read from
const (
	StorePostgres = "postgres"
	StoreFiles    = "files"
)

// ServerConfig contains HTTP server configuration.
// Store "files" serves the pipeline's CSV outputs from memory instead of Postgres.
type ServerConfig struct {
	Store           string        `yaml:"store" split_words:"true" default:"postgres"`
	Host            string        `yaml:"host" split_words:"true" default:"0.0.0.0"`
	Port            int           `yaml:"port" split_words:"true" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" split_words:"true" default:"info"`
}

// LoadConfig reads the environment (KEELING_*), then overlays the YAML file named by
// KEELING_CONFIG_FILE (default keeling.yaml) when it exists, then validates.
func LoadConfig() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultConfigFile
	}

	if err := cfg.overlayFile(configFile); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// overlayFile decodes the YAML file on top of the current values.
// Keys absent from the file keep their env or default value.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for values no component can work with
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.MonthlyURL == "" {
		problems = append(problems, "pipeline.monthly_url is required")
	}
	if c.Pipeline.DataDir == "" {
		problems = append(problems, "pipeline.data_dir is required")
	}
	if c.Pipeline.FetchTimeout <= 0 {
		problems = append(problems, "pipeline.fetch_timeout must be positive")
	}
	if c.Pipeline.DecompositionPeriod < 2 {
		problems = append(problems, "pipeline.decomposition_period must be at least 2")
	}
	if c.Pipeline.IngestBatchSize <= 0 {
		problems = append(problems, "pipeline.ingest_batch_size must be positive")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, fmt.Sprintf("database.port %d out of range", c.Database.Port))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	switch c.Server.Store {
	case "", StorePostgres, StoreFiles:
	default:
		problems = append(problems, fmt.Sprintf("server.store %q is not one of %s, %s", c.Server.Store, StorePostgres, StoreFiles))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
