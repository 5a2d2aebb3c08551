package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	_ = os.Unsetenv("PANTA_JWT_SECRET")
	_ = os.Unsetenv("PANTA_CONFIG_FILE")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PANTA_JWT_SECRET is missing")
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PANTA_JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("PANTA_DB_DRIVER", "postgres")
	t.Setenv("PANTA_COMPLETION_TIMEOUT_SECONDS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected PORT override, got %q", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected postgres driver, got %q", cfg.DBDriver)
	}
	if cfg.CompletionTimeoutSeconds != 45 {
		t.Fatalf("expected completion timeout 45, got %d", cfg.CompletionTimeoutSeconds)
	}
	if cfg.JWTAlgorithm != "HS256" {
		t.Fatalf("expected default algorithm HS256, got %q", cfg.JWTAlgorithm)
	}
}

func TestLoadEnvOverridesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panta.yaml")
	content := "port: \"7070\"\njwt_secret: from-file\nprovider_model: gpt-4o-mini\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("PANTA_CONFIG_FILE", path)
	t.Setenv("PORT", "6060")
	_ = os.Unsetenv("PANTA_JWT_SECRET")
	_ = os.Unsetenv("PANTA_PROVIDER_MODEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "6060" {
		t.Fatalf("expected env PORT to override file, got %q", cfg.Port)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("expected file jwt_secret, got %q", cfg.JWTSecret)
	}
	if cfg.ProviderModel != "gpt-4o-mini" {
		t.Fatalf("expected file provider_model, got %q", cfg.ProviderModel)
	}
}
