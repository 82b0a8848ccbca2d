package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("SECRET_KEY", strings.Repeat("k", 32))
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("OBJECT_STORAGE", "")
	t.Setenv("SESSION_TTL", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected 12h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.StorageDriver != StorageDriverFile || cfg.DataFile != "data.json" {
		t.Fatalf("unexpected storage defaults: %s %s", cfg.StorageDriver, cfg.DataFile)
	}
	if !cfg.AllowPlaintextPassword {
		t.Fatal("plaintext fallback defaults to enabled")
	}
	if cfg.IsDevelopment() {
		t.Fatal("production profile reported as development")
	}
}

func TestLoadRejectsShortSecretOutsideDevelopment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRET_KEY", "short")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "validate config:") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if classifyConfigLoadError(err) != "validation" {
		t.Fatalf("expected validation class for %v", err)
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TTL", "twelve hours")

	_, err := Load()
	if err == nil || !strings.HasPrefix(err.Error(), "parse SESSION_TTL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidateStorageDrivers(t *testing.T) {
	base := Config{
		AppEnv:         "development",
		AdminUsername:  "admin",
		AdminPassword:  "pw",
		SecretKey:      "dev",
		SessionTTL:     time.Hour,
		ObjectStorage:  ObjectStorageLocal,
		LocalUploadDir: "uploads",
	}
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "file ok", mutate: func(c *Config) { c.StorageDriver = StorageDriverFile; c.DataFile = "data.json" }},
		{name: "sqlite needs dsn", mutate: func(c *Config) { c.StorageDriver = StorageDriverSQLite }, wantErr: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "mongo" }, wantErr: "not supported"},
		{name: "gcs needs bucket", mutate: func(c *Config) {
			c.StorageDriver = StorageDriverFile
			c.DataFile = "data.json"
			c.ObjectStorage = ObjectStorageGCS
		}, wantErr: "GCP_BUCKET_NAME"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
