// Package config loads settings for the tuidosync client.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file (ApplyFile), JSON or YAML by extension.
//  3. Command-line flags bound by the cli package.
//
// File schema (durations accept "30s" or integer nanoseconds):
//
//	{
//	  "server_url": "https://sync.example.com/api",
//	  "grpc_addr": "sync.example.com:50051",
//	  "transport": "http",
//	  "api_token": "3f9c...",
//	  "data_file": "~/.tuido/data.json",
//	  "timeout": "30s"
//	}
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/timex"
	"gopkg.in/yaml.v3"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

type Config struct {
	ServerURL string
	GRPCAddr  string
	Transport string
	APIToken  string
	DataFile  string
	Timeout   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api"
	c.GRPCAddr = "127.0.0.1:50051"
	c.Transport = TransportHTTP
	c.DataFile = "data.json"
	c.Timeout = 30 * time.Second
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportHTTP:
		if c.ServerURL == "" {
			errs = append(errs, errors.New("server url is required"))
		}
	case TransportGRPC:
		if c.GRPCAddr == "" {
			errs = append(errs, errors.New("grpc address is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.APIToken == "" {
		errs = append(errs, errors.New("api token is required"))
	}
	if c.DataFile == "" {
		errs = append(errs, errors.New("data file is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	return errors.Join(errs...)
}

type fileConfig struct {
	ServerURL string         `json:"server_url" yaml:"server_url"`
	GRPCAddr  string         `json:"grpc_addr" yaml:"grpc_addr"`
	Transport string         `json:"transport" yaml:"transport"`
	APIToken  string         `json:"api_token" yaml:"api_token"`
	DataFile  string         `json:"data_file" yaml:"data_file"`
	Timeout   timex.Duration `json:"timeout" yaml:"timeout"`
}

// ApplyFile overlays the non-empty settings found in path.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.ServerURL != "" {
		c.ServerURL = fc.ServerURL
	}
	if fc.GRPCAddr != "" {
		c.GRPCAddr = fc.GRPCAddr
	}
	if fc.Transport != "" {
		c.Transport = fc.Transport
	}
	if fc.APIToken != "" {
		c.APIToken = fc.APIToken
	}
	if fc.DataFile != "" {
		c.DataFile = fc.DataFile
	}
	if fc.Timeout.Duration > 0 {
		c.Timeout = fc.Timeout.Duration
	}
	return nil
}
