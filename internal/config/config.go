// Package config provides unified configuration loading for verdant.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/verdant/internal/constants"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/store"
)

// FileName is the config file looked up under ~/.verdant.
const FileName = "config.yaml"

// VerdantConfig contains all verdant configuration settings.
type VerdantConfig struct {
	// Simulation tunes the garden engine.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Storage selects where gardens are persisted.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Backup configures backup location and retention.
	Backup BackupConfig `json:"backup" yaml:"backup"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig tunes the garden engine.
type SimulationConfig struct {
	GridWidth      int           `json:"grid_width" yaml:"grid_width" env:"VERDANT_GRID_WIDTH"`
	GridHeight     int           `json:"grid_height" yaml:"grid_height" env:"VERDANT_GRID_HEIGHT"`
	SeasonDuration time.Duration `json:"season_duration" yaml:"season_duration" env:"VERDANT_SEASON_DURATION"`

	// SeasonPolicy is "multi" (roll every crossed boundary) or "single".
	SeasonPolicy string `json:"season_policy" yaml:"season_policy" env:"VERDANT_SEASON_POLICY"`

	MaxMemories int `json:"max_memories" yaml:"max_memories" env:"VERDANT_MAX_MEMORIES"`

	// Seed fixes the random source when non-zero. Zero seeds from entropy.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" env:"VERDANT_SEED"`
}

// StorageConfig selects the garden store backend.
type StorageConfig struct {
	// Driver is one of memory, file, sqlite, s3.
	Driver string `json:"driver" yaml:"driver" env:"VERDANT_STORAGE_DRIVER"`

	// Root is the project directory holding .verdant/. Empty means the working directory.
	Root string `json:"root,omitempty" yaml:"root,omitempty" env:"VERDANT_ROOT"`

	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config configures the S3 backend. Keys support ${VAR} syntax.
type S3Config struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty" env:"VERDANT_S3_BUCKET"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty" env:"VERDANT_S3_REGION"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"VERDANT_S3_ENDPOINT"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty" env:"VERDANT_S3_PREFIX"`
	PathStyle       bool   `json:"path_style,omitempty" yaml:"path_style,omitempty" env:"VERDANT_S3_PATH_STYLE"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" env:"VERDANT_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" env:"VERDANT_S3_SECRET_ACCESS_KEY"`
}

// RedactedSecret returns the secret key with most characters masked.
// Returns "" for empty keys and "(set)" for keys shorter than 12 chars.
func (c S3Config) RedactedSecret() string {
	if c.SecretAccessKey == "" {
		return ""
	}
	if len(c.SecretAccessKey) < 12 {
		return "(set)"
	}
	return c.SecretAccessKey[:4] + "..." + c.SecretAccessKey[len(c.SecretAccessKey)-4:]
}

// String implements fmt.Stringer to prevent accidental secret logging.
func (c S3Config) String() string {
	return fmt.Sprintf("S3Config{Bucket:%s, Region:%s, Endpoint:%s, Prefix:%s, PathStyle:%t, AccessKeyID:%s, SecretAccessKey:%s}",
		c.Bucket, c.Region, c.Endpoint, c.Prefix, c.PathStyle, c.AccessKeyID, c.RedactedSecret())
}

// Redacted returns a copy with the secret key masked, safe for display.
func (c *VerdantConfig) Redacted() VerdantConfig {
	out := *c
	out.Storage.S3.SecretAccessKey = c.Storage.S3.RedactedSecret()
	return out
}

// BackupConfig configures backups and their retention.
type BackupConfig struct {
	// Dir overrides the default ~/.verdant/backups.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" env:"VERDANT_BACKUP_DIR"`

	// Compress writes V2 (gzip + checksum) backups when true.
	Compress bool `json:"compress" yaml:"compress" env:"VERDANT_BACKUP_COMPRESS"`

	Retention RetentionConfig `json:"retention" yaml:"retention"`
}

// RetentionConfig limits how many backups are kept. Zero values disable a limit.
type RetentionConfig struct {
	MaxCount int           `json:"max_count" yaml:"max_count" env:"VERDANT_BACKUP_MAX_COUNT"`
	MaxAge   time.Duration `json:"max_age,omitempty" yaml:"max_age,omitempty" env:"VERDANT_BACKUP_MAX_AGE"`
	MaxBytes int64         `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty" env:"VERDANT_BACKUP_MAX_BYTES"`
}

// LoggingConfig configures verdant's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to .verdant/decisions.jsonl.
	Level string `json:"level" yaml:"level" env:"VERDANT_LOG_LEVEL"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format" env:"VERDANT_LOG_FORMAT"`
}

// Default returns a VerdantConfig with sensible defaults.
func Default() *VerdantConfig {
	return &VerdantConfig{
		Simulation: SimulationConfig{
			GridWidth:      constants.DefaultGridWidth,
			GridHeight:     constants.DefaultGridHeight,
			SeasonDuration: constants.SeasonDuration,
			SeasonPolicy:   constants.SeasonPolicyMulti,
			MaxMemories:    constants.MaxMemories,
		},
		Storage: StorageConfig{
			Driver: store.DriverFile,
		},
		Backup: BackupConfig{
			Compress: true,
			Retention: RetentionConfig{
				MaxCount: 10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.verdant/config.yaml -> environment variables
func Load() (*VerdantConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, store.DirName, FileName)
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*VerdantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Storage.S3.AccessKeyID = expandEnvVars(config.Storage.S3.AccessKeyID)
	config.Storage.S3.SecretAccessKey = expandEnvVars(config.Storage.S3.SecretAccessKey)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *VerdantConfig) Validate() error {
	if c.Simulation.GridWidth <= 0 || c.Simulation.GridHeight <= 0 {
		return fmt.Errorf("grid must be positive, got %dx%d", c.Simulation.GridWidth, c.Simulation.GridHeight)
	}
	if c.Simulation.SeasonDuration <= 0 {
		return fmt.Errorf("season_duration must be positive, got %v", c.Simulation.SeasonDuration)
	}
	switch c.Simulation.SeasonPolicy {
	case constants.SeasonPolicyMulti, constants.SeasonPolicySingle:
	default:
		return fmt.Errorf("invalid season_policy: %s (valid: multi, single)", c.Simulation.SeasonPolicy)
	}
	if c.Simulation.MaxMemories < 0 {
		return fmt.Errorf("max_memories must be non-negative, got %d", c.Simulation.MaxMemories)
	}

	switch c.Storage.Driver {
	case store.DriverMemory, store.DriverFile, store.DriverSQLite:
	case store.DriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (valid: memory, file, sqlite, s3)", c.Storage.Driver)
	}

	r := c.Backup.Retention
	if r.MaxCount < 0 || r.MaxAge < 0 || r.MaxBytes < 0 {
		return fmt.Errorf("backup retention limits must be non-negative")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error, or empty for default)", c.Logging.Level)
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	return nil
}

// GardenConfig maps the simulation settings onto the service config.
func (c *VerdantConfig) GardenConfig() garden.Config {
	return garden.Config{
		GridWidth:      c.Simulation.GridWidth,
		GridHeight:     c.Simulation.GridHeight,
		SeasonDuration: c.Simulation.SeasonDuration,
		SeasonPolicy:   c.Simulation.SeasonPolicy,
		MaxMemories:    c.Simulation.MaxMemories,
	}
}

// StoreOptions maps the storage settings onto store.Open options.
// root overrides Storage.Root when non-empty.
func (c *VerdantConfig) StoreOptions(root string) store.Options {
	if root == "" {
		root = c.Storage.Root
	}
	s3 := c.Storage.S3
	return store.Options{
		Driver: c.Storage.Driver,
		Root:   root,
		S3: store.S3Config{
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			Prefix:          s3.Prefix,
			PathStyle:       s3.PathStyle,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
		},
	}
}

// applyEnvOverrides applies VERDANT_* environment variable overrides to the config.
// Unset variables leave file and default values in place.
func applyEnvOverrides(config *VerdantConfig) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
