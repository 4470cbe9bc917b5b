package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_AlertingRequiresWebhookWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("ALERTING_ENABLED", "true")
	t.Setenv("ALERTING_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when ALERTING_ENABLED=true without ALERTING_WEBHOOK_URL")
	}
}

func TestLoad_AlertingConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("ALERTING_ENABLED", "true")
	t.Setenv("ALERTING_WEBHOOK_URL", "https://hooks.example.com/services/T0/B0/x")
	t.Setenv("ALERTING_TOKEN", "token-123")
	t.Setenv("ALERTING_TIMEOUT", "4s")
	t.Setenv("ALERTING_MIN_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.AlertingEnabled {
		t.Fatalf("expected AlertingEnabled=true")
	}
	if cfg.AlertingWebhookURL != "https://hooks.example.com/services/T0/B0/x" {
		t.Fatalf("unexpected AlertingWebhookURL: %q", cfg.AlertingWebhookURL)
	}
	if cfg.AlertingToken != "token-123" {
		t.Fatalf("unexpected AlertingToken")
	}
	if cfg.AlertingTimeout != 4*time.Second {
		t.Fatalf("unexpected AlertingTimeout: %s", cfg.AlertingTimeout)
	}
	if cfg.AlertingMinLevel.String() != "warn" {
		t.Fatalf("unexpected AlertingMinLevel: %s", cfg.AlertingMinLevel.String())
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("UPTRACE_ENABLED", "false")
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "valuation-engine-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "valuation-engine-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://a.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
		if cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected second CORS origin: %s", cfg.CORSAllowedOrigins[1])
		}
	})
}

func TestLoad_DBDisablePreparedBinaryResultParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default true", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.DBDisablePreparedBinary {
			t.Fatalf("expected DBDisablePreparedBinary=true by default")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "not-bool")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid DB_DISABLE_PREPARED_BINARY_RESULT")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 60*time.Second {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_JobIntervalDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.JobIdentitySyncInterval != 6*time.Hour {
		t.Fatalf("unexpected default identity sync interval: %s", cfg.JobIdentitySyncInterval)
	}
	if cfg.JobRebuildInterval != 24*time.Hour {
		t.Fatalf("unexpected default rebuild interval: %s", cfg.JobRebuildInterval)
	}
	if cfg.JobSweepInterval != time.Hour {
		t.Fatalf("unexpected default sweep interval: %s", cfg.JobSweepInterval)
	}
}

func TestLoad_SleeperConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("SLEEPER_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SleeperEnabled {
			t.Fatalf("expected SleeperEnabled=false by default")
		}
		if cfg.SleeperBaseURL != "https://api.sleeper.app/v1" {
			t.Fatalf("unexpected default sleeper base url: %q", cfg.SleeperBaseURL)
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("SLEEPER_ENABLED", "true")
		t.Setenv("SLEEPER_TIMEOUT", "15s")
		t.Setenv("SLEEPER_MAX_RETRIES", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SleeperEnabled {
			t.Fatalf("expected SleeperEnabled=true")
		}
		if cfg.SleeperTimeout != 15*time.Second {
			t.Fatalf("unexpected sleeper timeout: %s", cfg.SleeperTimeout)
		}
		if cfg.SleeperMaxRetries != 2 {
			t.Fatalf("unexpected sleeper retries: %d", cfg.SleeperMaxRetries)
		}
	})

	t.Run("invalid retries", func(t *testing.T) {
		t.Setenv("SLEEPER_ENABLED", "true")
		t.Setenv("SLEEPER_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative SLEEPER_MAX_RETRIES")
		}
	})
}

func TestLoad_RankingsConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("disabled by default", func(t *testing.T) {
		t.Setenv("RANKINGS_ENABLED", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RankingsEnabled {
			t.Fatalf("expected RankingsEnabled=false by default")
		}
		if cfg.RankingsSource != "fantasycalc" {
			t.Fatalf("unexpected default rankings source: %q", cfg.RankingsSource)
		}
	})

	t.Run("enabled with valid values", func(t *testing.T) {
		t.Setenv("RANKINGS_ENABLED", "true")
		t.Setenv("RANKINGS_BASE_URL", "https://rankings.example.com/api")
		t.Setenv("RANKINGS_TOKEN", "token")
		t.Setenv("RANKINGS_SOURCE", "ktc")
		t.Setenv("RANKINGS_TIMEOUT", "10s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.RankingsEnabled {
			t.Fatalf("expected RankingsEnabled=true")
		}
		if cfg.RankingsBaseURL != "https://rankings.example.com/api" {
			t.Fatalf("unexpected rankings base url: %q", cfg.RankingsBaseURL)
		}
		if cfg.RankingsSource != "ktc" {
			t.Fatalf("unexpected rankings source: %q", cfg.RankingsSource)
		}
		if cfg.RankingsTimeout != 10*time.Second {
			t.Fatalf("unexpected rankings timeout: %s", cfg.RankingsTimeout)
		}
	})
}
