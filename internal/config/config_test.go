package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "stdio" || cfg.CacheTTLSeconds != 300 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileLayerOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.json")
	if err := os.WriteFile(path, []byte(`{"transport":"http","listen_addr":":9090"}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "http" || cfg.ListenAddr != ":9090" {
		t.Fatalf("file layer did not apply: %+v", cfg)
	}
	if cfg.CacheTTLSeconds != 300 {
		t.Fatalf("default should survive untouched fields: %+v", cfg)
	}
}

func TestLoadEnvLayerOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.json")
	_ = os.WriteFile(path, []byte(`{"transport":"http"}`), 0o644)

	t.Setenv("GATEWAY_TRANSPORT", "stdio")
	t.Setenv("GATEWAY_CACHE_TTL_SECONDS", "42")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("env layer should win over file layer, got %q", cfg.Transport)
	}
	if cfg.CacheTTLSeconds != 42 {
		t.Fatalf("env CacheTTLSeconds not applied, got %d", cfg.CacheTTLSeconds)
	}
}

func TestLoadFlagLayerOverridesEverything(t *testing.T) {
	t.Setenv("GATEWAY_TRANSPORT", "stdio")
	cfg, err := Load("", &Config{Transport: "http", ListenAddr: ":1111"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "http" || cfg.ListenAddr != ":1111" {
		t.Fatalf("flag layer should win, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "gateway.json")
	cfg := Default()
	cfg.ProjectPath = "/tmp/proj"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ProjectPath != "/tmp/proj" {
		t.Fatalf("ProjectPath not preserved: %+v", loaded)
	}
}
