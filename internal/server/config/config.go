// Package config handles configuration for the server component,
// including defaults, a config file overlay (JSON, YAML or TOML) and
// command-line flags.
package config

import (
	"fmt"
	"os"
	"time"
)

// Object store backends.
const (
	ObjectStoreS3     = "s3"
	ObjectStoreMemory = "memory"
)

// Config holds runtime settings for the tuidosync server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses of the two transports; an empty
//     GRPCAddr disables gRPC.
//   - DatabaseDriver / DatabaseDSN: identity store ("postgres" or "sqlite").
//   - SecretKey: key for hashing API tokens at rest. Changing it invalidates
//     every issued token.
//   - ObjectStore: "s3" or "memory".
//   - S3*: S3-compatible backend settings; PresignExpiry > 0 makes uploads
//     report a presigned download URL.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	DatabaseDriver string
	DatabaseDSN    string
	SecretKey      string
	ObjectStore    string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3Prefix       string
	PresignExpiry  time.Duration
	LogLevel       string
	LogFile        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	MaxUploadBytes int64
}

// LoadDefaults populates Config with development defaults: SQLite on local
// disk and an in-memory object store.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "data/tuidosync.db"
	c.SecretKey = "secretKey"
	c.ObjectStore = ObjectStoreMemory
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "tuidosync"
	c.S3Region = "us-east-1"
	c.S3Endpoint = "http://127.0.0.1:9000/"
	c.S3Prefix = "sync-data"
	c.PresignExpiry = time.Hour
	c.LogLevel = "info"
	c.LogMaxSizeMB = 100
	c.LogMaxBackups = 3
	c.MaxUploadBytes = 10 << 20
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("secret key must not be empty")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	switch c.ObjectStore {
	case ObjectStoreS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket must not be empty")
		}
	case ObjectStoreMemory:
	default:
		return fmt.Errorf("unknown object store %q", c.ObjectStore)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	return nil
}

// Load builds a Config by applying defaults, then overlaying values from
// the optional config file named by -c/-config and finally from flags in
// args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
