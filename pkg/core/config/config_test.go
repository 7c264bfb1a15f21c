// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AWS_REGION", "AWS_PROFILE", "AWS_S3_ENDPOINT",
		"MCP_TRANSPORT", "MCP_DESCRIPTIVE_ERRORS",
		"JOURNAL_TYPE", "JOURNAL_DSN", "NATS_URL", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 || cfg.Server.Transport != TransportHTTP || cfg.Server.Timeout != 60*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.MCP.ServerName != "aws-mcp-gw" || cfg.MCP.ServerVersion != "1.0.0" || cfg.MCP.DescriptiveErrors {
		t.Errorf("mcp = %+v", cfg.MCP)
	}
	if !reflect.DeepEqual(cfg.AWS.Toolsets, []string{"s3", "sts"}) {
		t.Errorf("toolsets = %v", cfg.AWS.Toolsets)
	}
	if cfg.Journal.Type != "memory" || !cfg.Journal.Enabled() {
		t.Errorf("journal = %+v", cfg.Journal)
	}
	if cfg.Events.Enabled() || cfg.Events.SubjectPrefix != "mcp.tool_calls" {
		t.Errorf("events = %+v", cfg.Events)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9090
  transport: stdio
  max_body_bytes: 1024
mcp:
  descriptive_errors: true
aws:
  region: eu-west-1
  s3_endpoint: http://localhost:9000
  toolsets: [s3]
journal:
  type: sqlite
  dsn: /tmp/calls.db
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Transport != TransportStdio || cfg.Server.MaxBodyBytes != 1024 {
		t.Errorf("server = %+v", cfg.Server)
	}
	// Unset keys keep their defaults.
	if cfg.Server.Host != "0.0.0.0" || cfg.MCP.ServerName != "aws-mcp-gw" || cfg.Logging.Format != "json" {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if !cfg.MCP.DescriptiveErrors {
		t.Error("descriptive_errors not loaded")
	}
	if cfg.AWS.Region != "eu-west-1" || cfg.AWS.S3Endpoint != "http://localhost:9000" || !reflect.DeepEqual(cfg.AWS.Toolsets, []string{"s3"}) {
		t.Errorf("aws = %+v", cfg.AWS)
	}
	if got := cfg.Journal.Params(); !reflect.DeepEqual(got, map[string]string{"dsn": "/tmp/calls.db"}) {
		t.Errorf("journal params = %v", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("AWS_PROFILE", "dev")
	t.Setenv("MCP_TRANSPORT", "STDIO")
	t.Setenv("MCP_DESCRIPTIVE_ERRORS", "true")
	t.Setenv("JOURNAL_TYPE", "none")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "aws:\n  region: eu-west-1\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AWS.Region != "us-west-2" || cfg.AWS.Profile != "dev" {
		t.Errorf("aws = %+v", cfg.AWS)
	}
	if cfg.Server.Transport != TransportStdio || !cfg.MCP.DescriptiveErrors {
		t.Errorf("transport = %q descriptive = %v", cfg.Server.Transport, cfg.MCP.DescriptiveErrors)
	}
	if cfg.Journal.Enabled() {
		t.Error("journal should be disabled")
	}
	if !cfg.Events.Enabled() || cfg.Events.NATSURL != "nats://localhost:4222" {
		t.Errorf("events = %+v", cfg.Events)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "server: [1"},
		{name: "bad transport", body: "server:\n  transport: grpc\n"},
		{name: "bad port", body: "server:\n  port: 70000\n"},
		{name: "negative capacity", body: "journal:\n  capacity: -1\n"},
		{name: "bad bool env", body: "{}", env: map[string]string{"MCP_DESCRIPTIVE_ERRORS": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JOURNAL_TYPE", "postgres")
	t.Setenv("JOURNAL_DSN", "postgres://localhost/calls")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Journal.Type != "postgres" || cfg.Journal.Params()["dsn"] != "postgres://localhost/calls" {
		t.Errorf("journal = %+v", cfg.Journal)
	}
}
