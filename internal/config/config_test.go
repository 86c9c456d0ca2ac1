package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigSuccess(t *testing.T) {
	tmpDir := t.TempDir()

	cfgContent := `host: "localhost"
port: 8080
backend:
  base_url: "https://backend.example.com"
embedding:
  model: "text-embed-3"
  dimensions: 128
llm:
  provider: "anthropic"
  anthropic:
    api_key: "key"
    model: "claude"
`
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Host != "localhost" || cfg.Port != 8080 {
		t.Errorf("unexpected host/port: %v:%v", cfg.Host, cfg.Port)
	}
	if cfg.Backend.BaseURL != "https://backend.example.com" {
		t.Errorf("unexpected backend base_url: %v", cfg.Backend.BaseURL)
	}
	if cfg.Embedding.Dimensions != 128 {
		t.Errorf("unexpected embedding dimensions: %v", cfg.Embedding.Dimensions)
	}
	// Defaults should still apply to unset fields.
	if cfg.VectorStore.Backend != "memory" {
		t.Errorf("expected default vector store backend, got %v", cfg.VectorStore.Backend)
	}
	if cfg.Memory.WindowSize != 20 {
		t.Errorf("expected default memory window size, got %v", cfg.Memory.WindowSize)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "bad.*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString("not: [invalid yaml"); err != nil {
		t.Fatalf("failed to write bad yaml: %v", err)
	}
	tmpFile.Close()

	_, err = LoadConfig(tmpFile.Name())
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}
