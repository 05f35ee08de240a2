package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"adala.org/internal/auth"
	"adala.org/internal/locale"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.GRPCAddr != ":9090" {
		t.Fatalf("unexpected addresses: %+v", cfg.Server)
	}
	if cfg.Review.PageSize != 10 || cfg.Review.ConfidenceThreshold != 70 {
		t.Fatalf("unexpected review defaults: %+v", cfg.Review)
	}
	if cfg.Auth.TokenTTL != 8*time.Hour || cfg.Server.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected defaults: ttl=%v body=%d", cfg.Auth.TokenTTL, cfg.Server.MaxBodyBytes)
	}
	if cfg.DefaultLang() != locale.English {
		t.Fatalf("default lang = %s", cfg.DefaultLang())
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adala.yaml")
	content := []byte(`
server:
  addr: ":7000"
review:
  page_size: 25
locale:
  default: ar
auth:
  token_ttl: 30m
  users:
    - name: admin
      display_name: أحمد محمد
      role: Admin
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ADALA_SERVER_ADDR", ":7100")
	t.Setenv("ADALA_AUTH_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7100" {
		t.Fatalf("env should override file, got %s", cfg.Server.Addr)
	}
	if cfg.Auth.Secret != "from-env" || cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected auth: %+v", cfg.Auth)
	}
	if cfg.Review.PageSize != 25 || cfg.DefaultLang() != locale.Arabic {
		t.Fatalf("file values not applied: %+v %s", cfg.Review, cfg.Locale.Default)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Role != auth.RoleAdmin || cfg.Auth.Users[0].PasswordHash == "" {
		t.Fatalf("users not decoded: %+v", cfg.Auth.Users)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("ADALA_REVIEW_CONFIDENCE_THRESHOLD", "140")
	t.Setenv("ADALA_LOCALE_DEFAULT", "fr")
	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"confidence_threshold", "locale.default"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
