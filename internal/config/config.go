package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DataFile      string
	StorageDriver string
	DatabaseURL   string

	AdminUsername          string
	AdminPassword          string
	AllowPlaintextPassword bool
	SecretKey              string
	JWTIssuer              string
	JWTAudience            string
	SessionTTL             time.Duration
	CookieSecure           bool

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	NegativeCacheTTL time.Duration

	LoginRateLimitRPM int
	APIRateLimitRPM   int

	ObjectStorage         string
	GCPBucketName         string
	GoogleCredentialsFile string
	LocalUploadDir        string
	PublicBaseURL         string

	LogLevel  string
	LogFormat string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration
	OTELHTTPEnabled           bool

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

const (
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"

	ObjectStorageGCS   = "gcs"
	ObjectStorageLocal = "local"
)

// Load reads the process environment, after merging an optional .env file
// (existing variables win), and validates the result.
func Load() (*Config, error) {
	dotenv := godotenv.Load()

	cfg, err := load()
	if err == nil {
		if verr := cfg.Validate(); verr != nil {
			err = fmt.Errorf("validate config: %w", verr)
		}
	}
	recordConfigLoad(context.Background(), loadEventFor(cfg, dotenv == nil, err))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		AppEnv:   getenv("APP_ENV", "development"),
		HTTPAddr: getenv("HTTP_ADDR", ":8000"),

		DataFile:      getenv("DATA_FILE", "data.json"),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverFile)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		AdminUsername:          os.Getenv("ADMIN_USERNAME"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		AllowPlaintextPassword: p.bool("ADMIN_PASSWORD_ALLOW_PLAINTEXT", true),
		SecretKey:              os.Getenv("SECRET_KEY"),
		JWTIssuer:              getenv("JWT_ISSUER", "directory-admin"),
		JWTAudience:            getenv("JWT_AUDIENCE", "directory-admin"),
		SessionTTL:             p.duration("SESSION_TTL", 12*time.Hour),
		CookieSecure:           p.bool("COOKIE_SECURE", false),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          p.int("REDIS_DB", 0),
		NegativeCacheTTL: p.duration("NEGATIVE_CACHE_TTL", 30*time.Second),

		LoginRateLimitRPM: p.int("LOGIN_RATE_LIMIT_RPM", 10),
		APIRateLimitRPM:   p.int("API_RATE_LIMIT_RPM", 600),

		ObjectStorage:         strings.ToLower(getenv("OBJECT_STORAGE", ObjectStorageLocal)),
		GCPBucketName:         os.Getenv("GCP_BUCKET_NAME"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		LocalUploadDir:        getenv("LOCAL_UPLOAD_DIR", "uploads"),
		PublicBaseURL:         strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8000"), "/"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "")),

		OTELServiceName:           getenv("OTEL_SERVICE_NAME", "directory-admin"),
		OTELEnvironment:           getenv("OTEL_ENVIRONMENT", getenv("APP_ENV", "development")),
		OTELExporterOTLPEndpoint:  getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  p.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELMetricsEnabled:        p.bool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:        p.bool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:           p.bool("OTEL_LOGS_ENABLED", false),
		OTELMetricsExportInterval: p.duration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second),
		OTELHTTPEnabled:           p.bool("OTEL_HTTP_ENABLED", false),

		ShutdownTimeout:              p.duration("SHUTDOWN_TIMEOUT", 20*time.Second),
		ShutdownHTTPDrainTimeout:     p.duration("SHUTDOWN_HTTP_DRAIN_TIMEOUT", 10*time.Second),
		ShutdownObservabilityTimeout: p.duration("SHUTDOWN_OBSERVABILITY_TIMEOUT", 5*time.Second),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development") || strings.EqualFold(c.AppEnv, "dev")
}

func (c *Config) Validate() error {
	var errs []error
	if c.AdminUsername == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME is required"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	} else if !c.IsDevelopment() && len(c.SecretKey) < 32 {
		errs = append(errs, errors.New("SECRET_KEY must be at least 32 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	switch c.StorageDriver {
	case StorageDriverFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("DATA_FILE is required for the file storage driver"))
		}
	case StorageDriverSQLite, StorageDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the %s storage driver", c.StorageDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not supported", c.StorageDriver))
	}
	switch c.ObjectStorage {
	case ObjectStorageGCS:
		if c.GCPBucketName == "" {
			errs = append(errs, errors.New("GCP_BUCKET_NAME is required for gcs object storage"))
		}
	case ObjectStorageLocal:
		if c.LocalUploadDir == "" {
			errs = append(errs, errors.New("LOCAL_UPLOAD_DIR is required for local object storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("OBJECT_STORAGE %q is not supported", c.ObjectStorage))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first parse failure so load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) int(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}
