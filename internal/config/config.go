// Package config implements the CLI & Config Loader (A1): a Config struct
// merged defaults-then-file-then-env-then-flags, grounded on loom's
// config.LoadConfig/mergeCfg layering but generalized from loom's manual
// field-by-field mergeCfg to a single dario.cat/mergo.Merge call per layer.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"
)

// LanguageServerOverride lets a project substitute the command/args used to
// launch a given language's LSP server, in the shape loom's
// config/mcp.go used for externally-spawned MCP servers (Command, Args,
// Env, TimeoutSec), repurposed here for C3's per-language process spawn.
type LanguageServerOverride struct {
	Command    string   `json:"command"`
	Args       []string `json:"args,omitempty"`
	Env        []string `json:"env,omitempty"`
	TimeoutSec int      `json:"timeout_sec,omitempty"`
}

// Config is the layered configuration driving the gateway process.
type Config struct {
	Transport       string                             `json:"transport"`
	ListenAddr      string                             `json:"listen_addr"`
	ProjectPath     string                             `json:"project_path"`
	LogLevel        string                             `json:"log_level"`
	CacheTTLSeconds int                                `json:"cache_ttl_seconds"`
	MaxBodyBytes    int64                              `json:"max_body_bytes"`
	MaxFileSize     int64                              `json:"max_file_size"`
	EnableShell     bool                               `json:"enable_shell"`
	LanguageServers map[string]LanguageServerOverride `json:"language_servers,omitempty"`
}

// Default returns a Config with the gateway's built-in defaults, the
// bottom of the precedence stack.
func Default() *Config {
	return &Config{
		Transport:       "stdio",
		ListenAddr:      ":8765",
		LogLevel:        "info",
		CacheTTLSeconds: 300,
		MaxBodyBytes:    10 << 20,
		MaxFileSize:     10 << 20,
		EnableShell:     false,
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// configPath (e.g. gateway.json) if it exists, then GATEWAY_* environment
// variables, then explicit CLI overrides, each layer merged over the last
// with mergo.Merge(..., mergo.WithOverride).
func Load(configPath string, overrides *Config) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		fileCfg, err := loadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", configPath, err)
		}
		if fileCfg != nil {
			if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
				return nil, fmt.Errorf("config: merging file layer: %w", err)
			}
		}
	}

	envCfg := loadFromEnv()
	if err := mergo.Merge(cfg, envCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("config: merging env layer: %w", err)
	}

	if overrides != nil {
		if err := mergo.Merge(cfg, overrides, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: merging flag layer: %w", err)
		}
	}

	return cfg, nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromEnv reads GATEWAY_* environment variables, leaving every field
// at its zero value when unset so mergo.WithOverride only touches fields
// actually present in the environment.
func loadFromEnv() *Config {
	cfg := &Config{}
	if v, ok := os.LookupEnv("GATEWAY_TRANSPORT"); ok {
		cfg.Transport = v
	}
	if v, ok := os.LookupEnv("GATEWAY_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("GATEWAY_PROJECT_PATH"); ok {
		cfg.ProjectPath = v
	}
	if v, ok := os.LookupEnv("GATEWAY_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("GATEWAY_CACHE_TTL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CacheTTLSeconds = n
		}
	}
	if v, ok := os.LookupEnv("GATEWAY_MAX_BODY_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxBodyBytes = n
		}
	}
	if v, ok := os.LookupEnv("GATEWAY_MAX_FILE_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxFileSize = n
		}
	}
	if v, ok := os.LookupEnv("GATEWAY_ENABLE_SHELL"); ok {
		cfg.EnableShell = strings.EqualFold(v, "true") || v == "1"
	}
	return cfg
}

// Save writes cfg as indented JSON to path, creating parent directories as
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
