package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	if dir, _ := cacheDir(); dir != filepath.Join("/tmp/xdg-cache", appName) {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q", dir)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", appName); dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	if dir, _ := configDir(); dir != filepath.Join("/tmp/xdg-config", appName) {
		t.Errorf("configDir() with XDG_CONFIG_HOME = %q", dir)
	}
}

func TestDefaultPolicyPath(t *testing.T) {
	dir := isolate(t)
	if got := defaultPolicyPath(); got != "" {
		t.Errorf("defaultPolicyPath() without a file = %q, want empty", got)
	}
	path := writeFile(t, dir, filepath.Join("config", appName, policyFile), "{}\n")
	if got := defaultPolicyPath(); got != path {
		t.Errorf("defaultPolicyPath() = %q, want %q", got, path)
	}
}

func TestRedisConfig(t *testing.T) {
	tests := []struct {
		in       string
		wantURL  string
		wantAddr string
	}{
		{"localhost:6379", "", "localhost:6379"},
		{"redis://cache:6379/2", "redis://cache:6379/2", ""},
		{"rediss://user:pw@cache:6380", "rediss://user:pw@cache:6380", ""},
	}
	for _, tt := range tests {
		cfg := redisConfig(tt.in)
		if cfg.URL != tt.wantURL || (tt.wantAddr != "" && cfg.Addr != tt.wantAddr) {
			t.Errorf("redisConfig(%q) = URL %q, Addr %q", tt.in, cfg.URL, cfg.Addr)
		}
	}
}

func TestReadInput(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "snapshot.data", chainSnapshot)

	in, err := readInput(path, "yaml")
	if err != nil {
		t.Fatalf("readInput with explicit format: %v", err)
	}
	if in.Format != "yaml" || in.Source != path || len(in.Data) == 0 {
		t.Errorf("input = %+v", in)
	}
	if _, err := readInput(path, ""); err == nil {
		t.Error("expected error for unknown extension without a format")
	}
}
