// Package config loads the markcat CLI configuration.
//
// Configuration is stored under os.UserConfigDir()/markcat/:
//
//	~/Library/Application Support/markcat/   (macOS)
//	~/.config/markcat/                       (Linux)
//	%AppData%/markcat/                       (Windows)
//
// The directory can be overridden with MARKCAT_CONFIG_DIR. It holds a single
// config.yaml:
//
//	buffer_size: 64KiB
//	charset: utf-8
//	decompress: auto
//	s3:
//	  region: us-east-1
//	  endpoint: http://localhost:9000
//	  access_key: minio
//	  secret_key: minio123
//	  path_style: true
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "markcat"

	// configFile is the file name of the configuration.
	configFile = "config.yaml"

	// EnvDir overrides the configuration directory.
	EnvDir = "MARKCAT_CONFIG_DIR"
)

// Config holds the CLI configuration.
type Config struct {
	// Dir is the root configuration directory.
	Dir string `yaml:"-"`

	// BufferSize is the default stream buffer size, e.g. "8KiB" or "65536".
	BufferSize string `yaml:"buffer_size,omitempty"`

	// Charset is the default charset for decoding lines.
	Charset string `yaml:"charset,omitempty"`

	// Decompress is the default codec: auto, none, gzip or zstd.
	Decompress string `yaml:"decompress,omitempty"`

	S3 S3 `yaml:"s3,omitempty"`
}

// S3 configures the client used for s3:// URIs.
type S3 struct {
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// Enabled reports whether any S3 setting is present.
func (s S3) Enabled() bool {
	return s.Region != "" || s.Endpoint != "" || s.AccessKey != ""
}

// Load loads the configuration from MARKCAT_CONFIG_DIR or the default
// location.
func Load() (*Config, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return LoadFrom(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom loads the configuration from a specific directory. A missing
// config file yields an empty configuration.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}

	data, err := os.ReadFile(cfg.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", cfg.Path(), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

// Path returns the config file path.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, configFile)
}

// Save writes the configuration to its config file.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.Path(), data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", c.Path(), err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.S3.SecretKey != "" {
		out.S3.SecretKey = "********"
	}
	return &out
}
