package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

const (
	validAccessSecret  = "access-secret-0123456789abcdefghij"
	validRefreshSecret = "refresh-secret-0123456789abcdefghi"
)

func TestLoad_RequiresBothSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")

	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error when secrets are missing")
	}
}

func TestLoad_RejectsShortSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "short")
	t.Setenv("REFRESH_TOKEN_SECRET", validRefreshSecret)

	if _, err := Load(context.Background()); err == nil || !strings.Contains(err.Error(), "ACCESS_TOKEN_SECRET") {
		t.Fatalf("expected access secret error, got %v", err)
	}
}

func TestLoad_RejectsIdenticalSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", validAccessSecret)
	t.Setenv("REFRESH_TOKEN_SECRET", validAccessSecret)

	if _, err := Load(context.Background()); err == nil {
		t.Fatalf("expected error for identical secrets")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", validAccessSecret)
	t.Setenv("REFRESH_TOKEN_SECRET", validRefreshSecret)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Port)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access TTL: %v", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 168*time.Hour {
		t.Fatalf("unexpected refresh TTL: %v", cfg.Auth.RefreshTTL)
	}
	if cfg.Production() {
		t.Fatalf("development must not count as production")
	}
}

func TestProduction(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", validAccessSecret)
	t.Setenv("REFRESH_TOKEN_SECRET", validRefreshSecret)
	t.Setenv("ENV", "production")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Production() {
		t.Fatalf("expected production mode")
	}
}
