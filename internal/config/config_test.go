package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfigFile, EnvPort, EnvLogLevel, EnvDataDir, EnvServiceURL, EnvServiceTimeout,
		EnvMaxChunkSize, EnvTopK, EnvRequireSegments, EnvStrictOrder, EnvValidateTiming,
		EnvRedisAddr, EnvRedisChannel, EnvHeadless,
	} {
		t.Setenv(k, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.ServiceURL() != DefaultServiceURL {
		t.Errorf("ServiceURL = %q", cfg.ServiceURL())
	}
	if cfg.ServiceTimeout() != 600*time.Second {
		t.Errorf("ServiceTimeout = %v", cfg.ServiceTimeout())
	}
	if cfg.MaxChunkSize() != 200 || cfg.TopK() != 5 {
		t.Errorf("MaxChunkSize/TopK = %d/%d", cfg.MaxChunkSize(), cfg.TopK())
	}
	if cfg.RequireSegments() || cfg.StrictOrder() || cfg.ValidateTiming() || cfg.Headless() {
		t.Error("optional behaviours should default to off")
	}
	if cfg.RedisAddr() != "" || cfg.RedisChannel() != DefaultRedisChannel {
		t.Errorf("redis = %q/%q", cfg.RedisAddr(), cfg.RedisChannel())
	}
}

func TestNew_FromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvServiceURL, "https://media.internal:8443/")
	t.Setenv(EnvTopK, "8")
	t.Setenv(EnvStrictOrder, "true")
	t.Setenv(EnvRedisAddr, "localhost:6379")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 || cfg.TopK() != 8 || !cfg.StrictOrder() {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ServiceURL() != "https://media.internal:8443" {
		t.Errorf("ServiceURL = %q, want trailing slash trimmed", cfg.ServiceURL())
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if cfg.CacheDir() != filepath.Join(dir, "cache") || cfg.ExportDir() != filepath.Join(dir, "exports") {
		t.Errorf("dirs = %q, %q", cfg.CacheDir(), cfg.ExportDir())
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr())
	}
}

func TestNew_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "highlight.yaml")
	content := `
port: 9200
service_url: http://render-box:5001
max_chunk_size: 150
require_segments: true
validate_timing: true
redis:
  addr: redis:6379
  channel: studio
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvPort, "9300")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9300 {
		t.Errorf("Port = %d, env should win over file", cfg.Port())
	}
	if cfg.ServiceURL() != "http://render-box:5001" || cfg.MaxChunkSize() != 150 {
		t.Errorf("file values not applied: %q %d", cfg.ServiceURL(), cfg.MaxChunkSize())
	}
	if !cfg.RequireSegments() || !cfg.ValidateTiming() {
		t.Error("file booleans not applied")
	}
	if cfg.RedisAddr() != "redis:6379" || cfg.RedisChannel() != "studio" {
		t.Errorf("redis = %q/%q", cfg.RedisAddr(), cfg.RedisChannel())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"zero top k", EnvTopK, "0"},
		{"bad bool", EnvHeadless, "maybe"},
		{"bad scheme", EnvServiceURL, "ftp://x"},
		{"zero timeout", EnvServiceTimeout, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestNew_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := New(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
