// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transports accepted by server.transport.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MCP     MCPConfig     `yaml:"mcp"`
	AWS     AWSConfig     `yaml:"aws"`
	Journal JournalConfig `yaml:"journal"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains transport configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	Transport    string        `yaml:"transport"` // "http" (default) or "stdio"
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// MCPConfig contains the identity reported by initialize and the error mode
type MCPConfig struct {
	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`
	// DescriptiveErrors switches protocol errors from the compatibility
	// codes to standard JSON-RPC codes with explanatory messages.
	DescriptiveErrors bool `yaml:"descriptive_errors"`
}

// AWSConfig contains the defaults handed to every toolset
type AWSConfig struct {
	Region     string   `yaml:"region"`
	Profile    string   `yaml:"profile"`
	S3Endpoint string   `yaml:"s3_endpoint"` // e.g. "http://localhost:9000" for MinIO
	Toolsets   []string `yaml:"toolsets"`    // default ["s3", "sts"]
}

// JournalConfig contains tool call journal configuration
type JournalConfig struct {
	Type     string `yaml:"type"` // "none", "memory" (default), "sqlite", "postgres" or "redis"
	DSN      string `yaml:"dsn"`
	Capacity int    `yaml:"capacity"`
}

// Enabled reports whether tool calls are journaled.
func (c JournalConfig) Enabled() bool {
	return c.Type != "" && c.Type != "none"
}

// Params returns the provider parameters for the configured backend.
func (c JournalConfig) Params() map[string]string {
	params := map[string]string{}
	if c.DSN != "" {
		params["dsn"] = c.DSN
	}
	if c.Capacity > 0 {
		params["capacity"] = strconv.Itoa(c.Capacity)
	}
	return params
}

// EventsConfig contains tool call event publishing configuration
type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"` // empty disables publishing
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Enabled reports whether tool call events are published.
func (c EventsConfig) Enabled() bool {
	return c.NATSURL != ""
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "json" (default) or "text"
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Load from environment variables (override file config)
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Timeout:   60 * time.Second,
			Transport: TransportHTTP,
		},
		Journal: JournalConfig{Type: "memory"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
	applyDefaults(cfg)
	return cfg
}

// FromEnv returns the default configuration with environment overrides.
func FromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid server.transport %q: must be %q or %q", c.Server.Transport, TransportHTTP, TransportStdio)
	}
	if c.Server.Transport == TransportHTTP && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("invalid server.max_body_bytes %d", c.Server.MaxBodyBytes)
	}
	if c.Journal.Capacity < 0 {
		return fmt.Errorf("invalid journal.capacity %d", c.Journal.Capacity)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		cfg.AWS.Profile = v
	}
	if v := os.Getenv("AWS_S3_ENDPOINT"); v != "" {
		cfg.AWS.S3Endpoint = v
	}

	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = strings.ToLower(v)
	}
	if v := os.Getenv("MCP_DESCRIPTIVE_ERRORS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MCP_DESCRIPTIVE_ERRORS %q: %w", v, err)
		}
		cfg.MCP.DescriptiveErrors = b
	}

	// Journal env overrides
	if v := os.Getenv("JOURNAL_TYPE"); v != "" {
		cfg.Journal.Type = v
	}
	if v := os.Getenv("JOURNAL_DSN"); v != "" {
		cfg.Journal.DSN = v
	}

	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Events.NATSURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportHTTP
	}
	if cfg.MCP.ServerName == "" {
		cfg.MCP.ServerName = "aws-mcp-gw"
	}
	if cfg.MCP.ServerVersion == "" {
		cfg.MCP.ServerVersion = "1.0.0"
	}
	if len(cfg.AWS.Toolsets) == 0 {
		cfg.AWS.Toolsets = []string{"s3", "sts"}
	}
	if cfg.Journal.Type == "" {
		cfg.Journal.Type = "memory"
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "mcp.tool_calls"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
