// Package config handles configuration for the server: defaults, an optional
// JSON or YAML file, a .env file, environment variables and command-line
// flags, applied in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// Config holds runtime settings for the ComplianceBinder server.
type Config struct {
	Env            string
	HTTPAddr       string
	GRPCHealthAddr string
	DatabaseURL    string

	// SecretKey signs access tokens (HS256).
	SecretKey       string
	AccessTokenTTL  time.Duration
	BcryptCost      int
	EphemeralSecret bool

	StorageBackend      string
	UploadDir           string
	S3RootUser          string
	S3RootPassword      string
	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	S3Prefix            string
	MaxUploadSizeBytes  int64
	AllowedContentTypes []string

	AllowedOrigins []string

	AuditSinks    []string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuditStream   string
	KafkaBrokers  []string
	KafkaTopic    string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	LogLevel  string
	LogFormat string
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	SinkLog   = "log"
	SinkDB    = "db"
	SinkRedis = "redis"
	SinkKafka = "kafka"

	minBcryptCost = 4
	maxBcryptCost = 31
)

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Env = "development"
	c.HTTPAddr = ":8000"
	c.GRPCHealthAddr = ":50051"
	c.DatabaseURL = "sqlite://./compliancebinder.db"
	c.AccessTokenTTL = 10080 * time.Minute
	c.BcryptCost = 10
	c.StorageBackend = StorageLocal
	c.UploadDir = "./uploads"
	c.S3Region = "us-east-1"
	c.MaxUploadSizeBytes = 10 * 1024 * 1024
	c.AllowedContentTypes = []string{"application/pdf", "image/png", "image/jpeg"}
	c.AuditSinks = []string{SinkLog}
	c.AuditStream = "compliancebinder:audit"
	c.KafkaTopic = "compliancebinder.audit"
	c.LoginRateLimit = 10
	c.LoginRateWindow = time.Minute
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// IsDevelopment reports whether insecure conveniences are allowed.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "test":
		return true
	}
	return false
}

// Validate checks the assembled configuration. Outside development a missing
// secret is fatal; in development a random one is generated and
// EphemeralSecret is set so the caller can warn about it.
func (c *Config) Validate() error {
	v := &common.ValidationError{}

	if c.SecretKey == "" {
		if !c.IsDevelopment() {
			v.Add("SECRET_KEY", "required outside development")
		} else {
			key, err := common.MakeRandHexString(32)
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			c.SecretKey = key
			c.EphemeralSecret = true
		}
	}

	if c.HTTPAddr == "" {
		v.Add("HTTP_ADDR", "required")
	}
	if c.DatabaseURL == "" {
		v.Add("DATABASE_URL", "required")
	}
	if c.AccessTokenTTL <= 0 {
		v.Add("ACCESS_TOKEN_EXPIRE_MINUTES", "must be positive")
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > maxBcryptCost {
		v.Add("BCRYPT_COST", fmt.Sprintf("must be between %d and %d", minBcryptCost, maxBcryptCost))
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.UploadDir == "" {
			v.Add("UPLOAD_DIR", "required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			v.Add("S3_BUCKET", "required for s3 storage")
		}
	default:
		v.Add("STORAGE_BACKEND", "must be local or s3")
	}

	if c.MaxUploadSizeBytes <= 0 {
		v.Add("MAX_UPLOAD_SIZE_BYTES", "must be positive")
	}
	if len(c.AllowedContentTypes) == 0 {
		v.Add("ALLOWED_CONTENT_TYPES", "at least one content type is required")
	}

	for _, s := range c.AuditSinks {
		switch s {
		case SinkLog, SinkDB:
		case SinkRedis:
			if c.RedisAddr == "" {
				v.Add("REDIS_ADDR", "required for the redis audit sink")
			}
		case SinkKafka:
			if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
				v.Add("KAFKA_BROKERS", "brokers and topic required for the kafka audit sink")
			}
		default:
			v.Add("AUDIT_SINKS", fmt.Sprintf("unknown sink %q", s))
		}
	}

	if c.LoginRateLimit < 0 {
		v.Add("LOGIN_RATE_LIMIT", "must not be negative")
	}
	if c.LoginRateLimit > 0 && c.LoginRateWindow <= 0 {
		v.Add("LOGIN_RATE_WINDOW", "must be positive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		v.Add("LOG_FORMAT", "must be json or text")
	}

	return v.OrNil()
}

// Load builds a Config from defaults, the file named by -c/-config, ./.env,
// the process environment and flags, then validates it.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv, ".env")
}

func load(args []string, lookup func(string) (string, bool), dotenvPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}

	env, err := newEnvSource(lookup, dotenvPath)
	if err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, env); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
