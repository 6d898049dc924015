package config

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() *Config {
	return &Config{
		Env:                       "test",
		HTTPPort:                  "8080",
		DatabaseURL:               "postgres://localhost/shelfly",
		JWTIssuer:                 "shelfly",
		JWTAudience:               "shelfly-api",
		JWTAccessSecret:           strings.Repeat("a", 32),
		JWTRefreshSecret:          strings.Repeat("b", 32),
		JWTAccessTTL:              15 * time.Minute,
		JWTRefreshTTL:             168 * time.Hour,
		RefreshTokenPepper:        strings.Repeat("p", 16),
		StateSigningSecret:        strings.Repeat("s", 16),
		GoogleClientID:            "client-id",
		GoogleClientSecret:        "client-secret",
		AuthRateLimitPerMin:       30,
		APIRateLimitPerMin:        120,
		OTELExporterOTLPEndpoint:  "localhost:4317",
		OTELMetricsExportInterval: 10 * time.Second,
		OTELTraceSamplingRatio:    1.0,
		OTELLogLevel:              "info",
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := validTestConfig()
	cfg.DatabaseURL = ""
	cfg.JWTAccessSecret = "short"
	cfg.GoogleClientID = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_ACCESS_SECRET", "GOOGLE_OAUTH_CLIENT_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error mentioning %s, got %v", want, err)
		}
	}
}

func TestValidateRejectsSharedJWTSecrets(t *testing.T) {
	cfg := validTestConfig()
	cfg.JWTRefreshSecret = cfg.JWTAccessSecret
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected shared-secret rejection, got %v", err)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shelfly")
	t.Setenv("JWT_ACCESS_SECRET", strings.Repeat("a", 32))
	t.Setenv("JWT_REFRESH_SECRET", strings.Repeat("b", 32))
	t.Setenv("REFRESH_TOKEN_PEPPER", strings.Repeat("p", 16))
	t.Setenv("OAUTH_STATE_SECRET", strings.Repeat("s", 16))
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("RATE_LIMIT_REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "localhost:6380")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTAccessTTL != 5*time.Minute {
		t.Fatalf("expected 5m access TTL, got %v", cfg.JWTAccessTTL)
	}
	if !cfg.RateLimitRedisEnabled || cfg.RedisAddr != "localhost:6380" {
		t.Fatalf("expected redis rate limit config, got %+v", cfg)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %s", cfg.HTTPPort)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shelfly")
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_ACCESS_TTL") {
		t.Fatalf("expected JWT_ACCESS_TTL parse error, got %v", err)
	}
}
