package config

import (
	"testing"
	"time"

	"github.com/matchpulse/match-sync/internal/platform/logging"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FEED_API_KEY", "feed-key")
	t.Setenv("CRON_SECRET", "cron-secret")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %v", cfg.LogLevel)
	}
	if cfg.DBURL != "" {
		t.Fatalf("expected empty DBURL by default, got %q", cfg.DBURL)
	}
	if !cfg.SyncEnabled {
		t.Fatalf("expected SyncEnabled=true by default")
	}
	if cfg.SyncFetchLimit != 100 {
		t.Fatalf("unexpected SyncFetchLimit: %d", cfg.SyncFetchLimit)
	}
	if cfg.FeedMaxAttempts != 3 {
		t.Fatalf("unexpected FeedMaxAttempts: %d", cfg.FeedMaxAttempts)
	}
	if cfg.FeedBackoffBase != 2*time.Second {
		t.Fatalf("unexpected FeedBackoffBase: %s", cfg.FeedBackoffBase)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_SyncRequiresFeedKeyAndCronSecret(t *testing.T) {
	t.Run("missing feed key", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("FEED_API_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when SYNC_ENABLED=true without FEED_API_KEY")
		}
	})

	t.Run("missing cron secret", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("CRON_SECRET", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when SYNC_ENABLED=true without CRON_SECRET")
		}
	})

	t.Run("sync disabled needs neither", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("SYNC_ENABLED", "false")
		t.Setenv("FEED_API_KEY", "")
		t.Setenv("CRON_SECRET", "")
		if _, err := Load(); err != nil {
			t.Fatalf("load config: %v", err)
		}
	})
}

func TestLoad_FeedCircuitParsing(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FEED_CIRCUIT_ENABLED", "true")
	t.Setenv("FEED_CIRCUIT_FAILURE_COUNT", "7")
	t.Setenv("FEED_CIRCUIT_OPEN_TIMEOUT", "30s")
	t.Setenv("FEED_CIRCUIT_HALF_OPEN_MAX_REQ", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.FeedCircuitFailureCount != 7 {
		t.Fatalf("unexpected FeedCircuitFailureCount: %d", cfg.FeedCircuitFailureCount)
	}
	if cfg.FeedCircuitOpenTimeout != 30*time.Second {
		t.Fatalf("unexpected FeedCircuitOpenTimeout: %s", cfg.FeedCircuitOpenTimeout)
	}
	if cfg.FeedCircuitHalfOpenMaxReq != 3 {
		t.Fatalf("unexpected FeedCircuitHalfOpenMaxReq: %d", cfg.FeedCircuitHalfOpenMaxReq)
	}
}

func TestLoad_InvalidDurationsRejected(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FEED_BACKOFF_BASE", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid FEED_BACKOFF_BASE")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresAddressWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_CORSSplitting(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins must be trimmed: %v", cfg.CORSAllowedOrigins)
	}
}
