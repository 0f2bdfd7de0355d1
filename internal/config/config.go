package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/strand-ui/strand/internal/errors"
)

const (
	// FileName is the name of the configuration file.
	FileName = "strand.json"

	// DefaultPort is the default development server port.
	DefaultPort = 8420

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"
)

// Config represents the complete strand.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Client contains client connection settings.
	Client ClientConfig `json:"client,omitempty"`

	// Dev contains development server settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Uploads contains upload staging settings.
	Uploads UploadsConfig `json:"uploads,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ClientConfig contains client connection settings.
type ClientConfig struct {
	// ServerURL is the WebSocket endpoint to connect to.
	ServerURL string `json:"serverUrl,omitempty"`

	// PingInterval is the keepalive interval (e.g. "30s").
	PingInterval string `json:"pingInterval,omitempty"`

	// ReadTimeout bounds each connection read (e.g. "60s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds each connection write (e.g. "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// MaxBatchQueue is the inbound batch queue capacity.
	MaxBatchQueue int `json:"maxBatchQueue,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// RootID is the root component identity announced to clients.
	RootID string `json:"rootId,omitempty"`

	// AllowAnyOrigin disables the WebSocket origin check.
	AllowAnyOrigin bool `json:"allowAnyOrigin,omitempty"`
}

// UploadsConfig contains upload staging settings.
type UploadsConfig struct {
	// Dir is the staging directory. Empty disables the upload endpoint.
	Dir string `json:"dir,omitempty"`

	// MaxFileSize is the maximum upload size in bytes.
	MaxFileSize int64 `json:"maxFileSize,omitempty"`

	// AllowedTypes restricts uploads to these MIME types.
	AllowedTypes []string `json:"allowedTypes,omitempty"`

	// Expiry is how long staged files live before sweeping (e.g. "1h").
	Expiry string `json:"expiry,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "strand").
	Namespace string `json:"namespace,omitempty"`
}

// New returns a Config with defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads strand.json from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E160").
				WithDetail("No strand.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'strand init' or create strand.json manually")
		}
		return nil, errors.New("E160").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E160").
			WithDetail("Failed to parse strand.json: " + err.Error()).
			WithSuggestion("Check that strand.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Find walks up from dir looking for strand.json.
func Find(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.New("E160").Wrap(err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, errors.New("E160").
				WithDetail("No strand.json found in this directory or any parent").
				WithSuggestion("Run 'strand init' to create one")
		}
		dir = parent
	}
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E160").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E160").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string { return c.configPath }

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.RootID == "" {
		c.Dev.RootID = "root"
	}
	if c.Client.PingInterval == "" {
		c.Client.PingInterval = "30s"
	}
	if c.Client.ReadTimeout == "" {
		c.Client.ReadTimeout = "60s"
	}
	if c.Client.WriteTimeout == "" {
		c.Client.WriteTimeout = "10s"
	}
	if c.Client.MaxBatchQueue == 0 {
		c.Client.MaxBatchQueue = 64
	}
	if c.Uploads.MaxFileSize == 0 {
		c.Uploads.MaxFileSize = 10 << 20
	}
	if c.Uploads.Expiry == "" {
		c.Uploads.Expiry = "1h"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "strand"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E161").
			WithDetail("dev.port must be between 0 and 65535")
	}
	for _, field := range []struct{ name, value string }{
		{"client.pingInterval", c.Client.PingInterval},
		{"client.readTimeout", c.Client.ReadTimeout},
		{"client.writeTimeout", c.Client.WriteTimeout},
		{"uploads.expiry", c.Uploads.Expiry},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			return errors.New("E161").
				WithDetail(field.name + " is not a valid duration: " + field.value)
		}
	}
	if c.Uploads.MaxFileSize < 0 {
		return errors.New("E161").
			WithDetail("uploads.maxFileSize must not be negative")
	}
	return nil
}

// DevAddress returns the listen address for the dev server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// Duration parses one of the duration-valued fields. Call Validate first;
// invalid values fall back to def.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
