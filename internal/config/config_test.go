package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_MODELS", "")
	t.Setenv("PACE_DELAY", "")

	cfg := FromEnv()

	if len(cfg.Models) != 2 || cfg.Models[0] != "google/gemma-3-27b-it:free" {
		t.Errorf("unexpected default models: %v", cfg.Models)
	}
	if cfg.PaceDelay != time.Second {
		t.Errorf("expected 1s pace delay, got %v", cfg.PaceDelay)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("expected max tokens 1024, got %d", cfg.MaxTokens)
	}
	if cfg.OpenRouterURL != DefaultOpenRouterURL {
		t.Errorf("unexpected url: %s", cfg.OpenRouterURL)
	}
}

func TestFromEnvModelList(t *testing.T) {
	t.Setenv("OPENROUTER_MODELS", " a/one , ,b/two ")

	cfg := FromEnv()

	if len(cfg.Models) != 2 || cfg.Models[0] != "a/one" || cfg.Models[1] != "b/two" {
		t.Errorf("unexpected models: %v", cfg.Models)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := &Config{Models: []string{"m"}, MaxTokens: 10, UploadDir: "uploads"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without API key")
	}

	cfg.OpenRouterAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Models = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without models")
	}
}

func TestMergeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: "9090"
models:
  - first/model
  - second/model
pace_delay: 250ms
archive_enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := &Config{Port: "8080", Models: []string{"env/model"}, PaceDelay: time.Second, UploadDir: "uploads"}
	if err := cfg.MergeFile(path); err != nil {
		t.Fatalf("MergeFile returned error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.Models) != 2 || cfg.Models[1] != "second/model" {
		t.Errorf("unexpected models: %v", cfg.Models)
	}
	if cfg.PaceDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.PaceDelay)
	}
	if !cfg.ArchiveEnabled {
		t.Error("expected archive to be enabled")
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("upload dir should be kept, got %s", cfg.UploadDir)
	}
}

func TestMergeFileMissing(t *testing.T) {
	cfg := &Config{}
	if err := cfg.MergeFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "from-env")
	t.Setenv("CONFIG_FILE", "")

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	if err := os.WriteFile(path, []byte("max_tokens: 2048\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenRouterAPIKey != "from-env" || cfg.MaxTokens != 2048 {
		t.Errorf("unexpected config: key=%q max_tokens=%d", cfg.OpenRouterAPIKey, cfg.MaxTokens)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	// godotenv never overrides variables that are set, even to "".
	for _, key := range []string{"OPENROUTER_API_KEY", "CONFIG_FILE", "PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENROUTER_API_KEY=dotenv-key\nPORT=7070\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenRouterAPIKey != "dotenv-key" || cfg.Port != "7070" {
		t.Errorf("unexpected config: key=%q port=%q", cfg.OpenRouterAPIKey, cfg.Port)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}
