package config

import (
	"testing"
	"time"
)

// DATABASE_URL未設定時にLoadがエラーを返すことを検証
func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is not set, got nil")
	}
}

// 必須項目のみ設定した場合にデフォルト値が適用されることを検証
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/meibo?sslmode=disable")
	t.Setenv("USER_COUNT_TTL", "")
	t.Setenv("SEARCH_CHUNK_SIZE", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.UserCountTTL != 10*time.Minute {
		t.Errorf("UserCountTTL = %v, want %v", cfg.UserCountTTL, 10*time.Minute)
	}
	if cfg.SearchChunkSize != 1000 {
		t.Errorf("SearchChunkSize = %d, want 1000", cfg.SearchChunkSize)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want 120", cfg.RateLimitGeneral)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should default to false")
	}
}

// 環境変数による上書きが反映されることを検証
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/meibo?sslmode=disable")
	t.Setenv("USER_COUNT_TTL", "30s")
	t.Setenv("SEARCH_CHUNK_SIZE", "500")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.UserCountTTL != 30*time.Second {
		t.Errorf("UserCountTTL = %v, want 30s", cfg.UserCountTTL)
	}
	if cfg.SearchChunkSize != 500 {
		t.Errorf("SearchChunkSize = %d, want 500", cfg.SearchChunkSize)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, want true")
	}
}

// 不正なDuration値がデフォルトにフォールバックすることを検証
func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/meibo?sslmode=disable")
	t.Setenv("USER_COUNT_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.UserCountTTL != 10*time.Minute {
		t.Errorf("UserCountTTL = %v, want fallback 10m", cfg.UserCountTTL)
	}
}
