package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/tuidosync/internal/flagx"
	"github.com/dmitrijs2005/tuidosync/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk form of Config. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted. Absent or zero fields
// leave the current value untouched.
type FileConfig struct {
	HTTPAddr       string         `json:"http_addr" yaml:"http_addr" toml:"http_addr"`
	GRPCAddr       string         `json:"grpc_addr" yaml:"grpc_addr" toml:"grpc_addr"`
	DatabaseDriver string         `json:"database_driver" yaml:"database_driver" toml:"database_driver"`
	DatabaseDSN    string         `json:"database_dsn" yaml:"database_dsn" toml:"database_dsn"`
	SecretKey      string         `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	ObjectStore    string         `json:"object_store" yaml:"object_store" toml:"object_store"`
	S3AccessKey    string         `json:"s3_access_key" yaml:"s3_access_key" toml:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key" yaml:"s3_secret_key" toml:"s3_secret_key"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Region       string         `json:"s3_region" yaml:"s3_region" toml:"s3_region"`
	S3Endpoint     string         `json:"s3_endpoint" yaml:"s3_endpoint" toml:"s3_endpoint"`
	S3Prefix       string         `json:"s3_prefix" yaml:"s3_prefix" toml:"s3_prefix"`
	PresignExpiry  timex.Duration `json:"presign_expiry" yaml:"presign_expiry" toml:"presign_expiry"`
	LogLevel       string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile        string         `json:"log_file" yaml:"log_file" toml:"log_file"`
	LogMaxSizeMB   int            `json:"log_max_size_mb" yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxBackups  int            `json:"log_max_backups" yaml:"log_max_backups" toml:"log_max_backups"`
	MaxUploadBytes int64          `json:"max_upload_bytes" yaml:"max_upload_bytes" toml:"max_upload_bytes"`
}

// parseFile overlays the file named by -c/-config in args, if any.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFrom(args)
	if path == "" {
		return nil
	}
	return cfg.ApplyFile(path)
}

// ApplyFile overlays the non-zero settings of a config file. The format
// follows the extension: .json, .yaml/.yml or .toml.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	if err := decodeFile(path, data, fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(c)
	return nil
}

func decodeFile(path string, data []byte, fc *FileConfig) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.Unmarshal(data, fc)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, fc)
	case ".toml":
		return toml.Unmarshal(data, fc)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCAddr, fc.GRPCAddr)
	setString(&cfg.DatabaseDriver, fc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)
	setString(&cfg.SecretKey, fc.SecretKey)
	setString(&cfg.ObjectStore, fc.ObjectStore)
	setString(&cfg.S3AccessKey, fc.S3AccessKey)
	setString(&cfg.S3SecretKey, fc.S3SecretKey)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3Endpoint, fc.S3Endpoint)
	setString(&cfg.S3Prefix, fc.S3Prefix)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFile, fc.LogFile)

	if fc.PresignExpiry.Duration != 0 {
		cfg.PresignExpiry = fc.PresignExpiry.Duration
	}
	if fc.LogMaxSizeMB != 0 {
		cfg.LogMaxSizeMB = fc.LogMaxSizeMB
	}
	if fc.LogMaxBackups != 0 {
		cfg.LogMaxBackups = fc.LogMaxBackups
	}
	if fc.MaxUploadBytes != 0 {
		cfg.MaxUploadBytes = fc.MaxUploadBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
