// Package config loads BuildFront runtime settings from defaults, an optional
// YAML file, a .env file and BUILDFRONT_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends understood by Validate.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

const envPrefix = "BUILDFRONT_"

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// StorageConfig selects where the store persists its state.
type StorageConfig struct {
	Backend        string `yaml:"backend"`
	Path           string `yaml:"path"` // directory for the file backend
	RedisAddr      string `yaml:"redis_addr"`
	RedisPassword  string `yaml:"redis_password"`
	RedisDB        int    `yaml:"redis_db"`
	DSN            string `yaml:"dsn"` // sqlite file or postgres connection string
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
}

// WriteTimeout converts WriteTimeoutMs to a duration.
func (s StorageConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// BackupConfig schedules snapshot exports. An empty schedule disables them.
type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Retain   int    `yaml:"retain"`
}

// RateLimitConfig bounds public form submissions per client.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// Config represents the combined runtime settings.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Seed      bool            `yaml:"seed"`
	Logging   LoggingConfig   `yaml:"logging"`
	Backup    BackupConfig    `yaml:"backup"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Listen: "127.0.0.1:4173"},
		Storage: StorageConfig{
			Backend:        BackendFile,
			Path:           "data",
			RedisAddr:      "127.0.0.1:6379",
			WriteTimeoutMs: 5000,
		},
		Seed: true,
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Backup: BackupConfig{
			Dir:    "data/backups",
			Retain: 7,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 10,
			Burst:     5,
		},
	}
}

// Load layers path (optional YAML), envFile (optional, ".env" when empty) and
// the process environment over Defaults, then validates the result.
func Load(path, envFile string) (Config, error) {
	cfg := Defaults()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(name string, dst *int) error {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}

	setString("LISTEN", &cfg.Server.Listen)
	setString("STORAGE", &cfg.Storage.Backend)
	setString("STATE_PATH", &cfg.Storage.Path)
	setString("REDIS_ADDR", &cfg.Storage.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.Storage.RedisPassword)
	setString("DSN", &cfg.Storage.DSN)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FILE", &cfg.Logging.File)
	setString("BACKUP_SCHEDULE", &cfg.Backup.Schedule)
	setString("BACKUP_DIR", &cfg.Backup.Dir)

	for name, dst := range map[string]*int{
		"REDIS_DB":             &cfg.Storage.RedisDB,
		"WRITE_TIMEOUT_MS":     &cfg.Storage.WriteTimeoutMs,
		"BACKUP_RETAIN":        &cfg.Backup.Retain,
		"RATELIMIT_PER_MINUTE": &cfg.RateLimit.PerMinute,
		"RATELIMIT_BURST":      &cfg.RateLimit.Burst,
	} {
		if err := setInt(name, dst); err != nil {
			return err
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "SEED"); ok && strings.TrimSpace(v) != "" {
		seed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		cfg.Seed = seed
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return errors.New("config: server.listen is required")
	}
	switch backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend)); backend {
	case BackendFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("config: storage.path is required for the file backend")
		}
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Storage.RedisAddr) == "" {
			return errors.New("config: storage.redis_addr is required for the redis backend")
		}
	case BackendSQLite, BackendPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("config: storage.dsn is required for the %s backend", backend)
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Backup.Schedule != "" && strings.TrimSpace(c.Backup.Dir) == "" {
		return errors.New("config: backup.dir is required when backup.schedule is set")
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("config: ratelimit values must not be negative")
	}
	return nil
}
