package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/toposeed/internal/storage"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config holds the seeding configuration
type Config struct {
	DataDir       string
	Backend       string // "sqlite", "redis" or "file" (default: "sqlite")
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // Redis key namespace
	BatchSize     int    // Per-request item limit of the store
	MaxAttempts   int    // Attempts per batch before a write is fatal
	Parallelism   int    // Concurrent batch writers
	StoreTimeout  time.Duration
	BackoffBase   time.Duration
	TopologyDir   string // Optional directory of YAML topology definitions
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		DataDir:      "./data",
		Backend:      BackendSQLite,
		RedisAddr:    "localhost:6379",
		KeyPrefix:    "toposeed",
		BatchSize:    25,
		MaxAttempts:  5,
		Parallelism:  4,
		StoreTimeout: 10 * time.Second,
		BackoffBase:  50 * time.Millisecond,
	}
}

// GetFlags returns the store and seeding flags shared by every command.
// Flags take priority over TOPOSEED_* environment variables, which take
// priority over values loaded from a .env file.
func GetFlags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Directory holding the SQLite store",
			DefaultValue: d.DataDir,
			EnvVars:      []string{"TOPOSEED_DATA_DIR"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:         "backend",
			Usage:        "Store backend (sqlite, redis, file)",
			DefaultValue: d.Backend,
			EnvVars:      []string{"TOPOSEED_BACKEND"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:         "redis-addr",
			Usage:        "Redis address for the redis backend",
			DefaultValue: d.RedisAddr,
			EnvVars:      []string{"TOPOSEED_REDIS_ADDR"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{"TOPOSEED_REDIS_PASSWORD"},
			Global:  true,
		},
		&cli.IntFlag{
			Name:         "redis-db",
			Usage:        "Redis database number",
			DefaultValue: d.RedisDB,
			EnvVars:      []string{"TOPOSEED_REDIS_DB"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:         "key-prefix",
			Usage:        "Redis key namespace",
			DefaultValue: d.KeyPrefix,
			EnvVars:      []string{"TOPOSEED_KEY_PREFIX"},
			Global:       true,
		},
		&cli.IntFlag{
			Name:         "batch-size",
			Usage:        "Records per store batch request",
			DefaultValue: d.BatchSize,
			EnvVars:      []string{"TOPOSEED_BATCH_SIZE"},
			Global:       true,
		},
		&cli.IntFlag{
			Name:         "max-attempts",
			Usage:        "Attempts per batch before the write fails",
			DefaultValue: d.MaxAttempts,
			EnvVars:      []string{"TOPOSEED_MAX_ATTEMPTS"},
			Global:       true,
		},
		&cli.IntFlag{
			Name:         "parallelism",
			Usage:        "Concurrent batch writers",
			DefaultValue: d.Parallelism,
			EnvVars:      []string{"TOPOSEED_PARALLELISM"},
			Global:       true,
		},
		&cli.IntFlag{
			Name:         "store-timeout",
			Usage:        "Timeout in seconds for a single store request",
			DefaultValue: int(d.StoreTimeout / time.Second),
			EnvVars:      []string{"TOPOSEED_STORE_TIMEOUT"},
			Global:       true,
		},
		&cli.IntFlag{
			Name:         "backoff-ms",
			Usage:        "Base retry backoff in milliseconds",
			DefaultValue: int(d.BackoffBase / time.Millisecond),
			EnvVars:      []string{"TOPOSEED_BACKOFF_MS"},
			Global:       true,
		},
		&cli.StringFlag{
			Name:    "topology-dir",
			Usage:   "Directory of YAML topology definitions to register",
			EnvVars: []string{"TOPOSEED_TOPOLOGY_DIR"},
			Global:  true,
		},
	}
}

// Load resolves the configuration from the command's flags
func Load(cmd *cli.Command) *Config {
	cfg := &Config{
		DataDir:       cmd.GetString("data-dir"),
		Backend:       cmd.GetString("backend"),
		RedisAddr:     cmd.GetString("redis-addr"),
		RedisPassword: cmd.GetString("redis-password"),
		RedisDB:       cmd.GetInt("redis-db"),
		KeyPrefix:     cmd.GetString("key-prefix"),
		BatchSize:     cmd.GetInt("batch-size"),
		MaxAttempts:   cmd.GetInt("max-attempts"),
		Parallelism:   cmd.GetInt("parallelism"),
		StoreTimeout:  time.Duration(cmd.GetInt("store-timeout")) * time.Second,
		BackoffBase:   time.Duration(cmd.GetInt("backoff-ms")) * time.Millisecond,
		TopologyDir:   cmd.GetString("topology-dir"),
	}
	cfg.Normalize()
	return cfg
}

// Normalize replaces empty or out-of-range values with defaults
func (c *Config) Normalize() {
	d := Default()

	c.DataDir = coalesce(c.DataDir, d.DataDir)
	c.RedisAddr = coalesce(c.RedisAddr, d.RedisAddr)
	c.KeyPrefix = coalesce(c.KeyPrefix, d.KeyPrefix)

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend != BackendSQLite && c.Backend != BackendRedis && c.Backend != BackendFile {
		c.Backend = BackendSQLite
	}

	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchSize > storage.MaxBatchItems {
		c.BatchSize = storage.MaxBatchItems
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Parallelism <= 0 {
		c.Parallelism = d.Parallelism
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = d.StoreTimeout
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = d.BackoffBase
	}
}

// String returns a short description of where data is written
func (c *Config) String() string {
	switch c.Backend {
	case BackendRedis:
		return fmt.Sprintf("redis (%s db=%d prefix=%s)", c.RedisAddr, c.RedisDB, c.KeyPrefix)
	case BackendFile:
		return fmt.Sprintf("file (%s)", c.DataDir)
	}
	return fmt.Sprintf("sqlite (%s)", c.DataDir)
}

// StoreOptions returns the options for storage.Open
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend: c.Backend,
		DataDir: c.DataDir,
		Redis: storage.RedisConfig{
			Addr:      c.RedisAddr,
			Password:  c.RedisPassword,
			DB:        c.RedisDB,
			KeyPrefix: c.KeyPrefix,
		},
	}
}

// ParseSeed parses a --seed flag value. An empty value returns nil, meaning
// the topology's default seed.
func ParseSeed(value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", value, err)
	}
	return &n, nil
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
