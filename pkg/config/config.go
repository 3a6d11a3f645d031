// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Kafka, Redis, Postgres, Store, Lookup, Indexer, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Schema   SchemaConfig   `yaml:"schema"`
	Store    StoreConfig    `yaml:"store"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SchemaConfig points at the record schema definition file.
type SchemaConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig selects and configures the index store backend.
type StoreConfig struct {
	// Backend is one of "memory", "bolt", "postgres".
	Backend string `yaml:"backend"`
	// DataDir holds the bolt database file when Backend is "bolt".
	DataDir string `yaml:"dataDir"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	RecordIngest  string `yaml:"recordIngest"`
	IndexComplete string `yaml:"indexComplete"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LookupConfig configures the code-to-label lookup collaborator.
type LookupConfig struct {
	// Backend is one of "static", "redis".
	Backend string `yaml:"backend"`
	// TablesPath points at the YAML file holding static lookup tables.
	TablesPath string `yaml:"tablesPath"`
	// KeyPrefix namespaces lookup hashes in Redis.
	KeyPrefix string `yaml:"keyPrefix"`
	// CacheSize bounds the in-process LRU in front of Redis.
	CacheSize int `yaml:"cacheSize"`
}

// IndexerConfig controls the indexing engine.
type IndexerConfig struct {
	// StemLanguage selects the snowball language for the stem analyzer.
	StemLanguage string `yaml:"stemLanguage"`
	// BatchWorkers bounds document-level parallelism in IndexBatch.
	BatchWorkers int `yaml:"batchWorkers"`
	// RetryAttempts bounds consumer-level retries of a failed commit.
	RetryAttempts int `yaml:"retryAttempts"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Schema: SchemaConfig{
			Path: "configs/schema.yaml",
		},
		Store: StoreConfig{
			Backend: "bolt",
			DataDir: "data/index",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "recindex",
			User:            "recindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "recindex-group",
			Topics: KafkaTopics{
				RecordIngest:  "record-ingest",
				IndexComplete: "index.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Lookup: LookupConfig{
			Backend:   "static",
			KeyPrefix: "lookup",
			CacheSize: 4096,
		},
		Indexer: IndexerConfig{
			StemLanguage:  "french",
			BatchWorkers:  4,
			RetryAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "memory", "bolt", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	switch cfg.Lookup.Backend {
	case "static", "redis":
	default:
		return fmt.Errorf("unknown lookup backend %q", cfg.Lookup.Backend)
	}
	if cfg.Indexer.BatchWorkers < 1 {
		return fmt.Errorf("indexer.batchWorkers must be at least 1, got %d", cfg.Indexer.BatchWorkers)
	}
	return nil
}

// applyEnvOverrides reads RI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RI_SCHEMA_PATH"); v != "" {
		cfg.Schema.Path = v
	}
	if v := os.Getenv("RI_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("RI_STORE_DATA_DIR"); v != "" {
		cfg.Store.DataDir = v
	}
	if v := os.Getenv("RI_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("RI_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("RI_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RI_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RI_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RI_KAFKA_CONSUMER_GROUP"); v != "" {
		cfg.Kafka.ConsumerGroup = v
	}
	if v := os.Getenv("RI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RI_LOOKUP_BACKEND"); v != "" {
		cfg.Lookup.Backend = v
	}
	if v := os.Getenv("RI_LOOKUP_TABLES_PATH"); v != "" {
		cfg.Lookup.TablesPath = v
	}
	if v := os.Getenv("RI_INDEXER_STEM_LANGUAGE"); v != "" {
		cfg.Indexer.StemLanguage = v
	}
	if v := os.Getenv("RI_INDEXER_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.BatchWorkers = n
		}
	}
	if v := os.Getenv("RI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RI_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
