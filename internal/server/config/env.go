package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envSource resolves a variable from the process environment first and the
// .env file second.
type envSource struct {
	lookup func(string) (string, bool)
	dotenv map[string]string
}

func newEnvSource(lookup func(string) (string, bool), dotenvPath string) (*envSource, error) {
	src := &envSource{lookup: lookup, dotenv: map[string]string{}}
	if dotenvPath == "" {
		return src, nil
	}

	m, err := godotenv.Read(dotenvPath)
	switch {
	case err == nil:
		src.dotenv = m
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", dotenvPath, err)
	}
	return src, nil
}

func (e *envSource) get(name string) (string, bool) {
	if v, ok := e.lookup(name); ok {
		return v, true
	}
	v, ok := e.dotenv[name]
	return v, ok
}

type envBinding struct {
	name string
	set  func(string) error
}

func envBindings(c *Config) []envBinding {
	return []envBinding{
		{"ENV", str(&c.Env)},
		{"HTTP_ADDR", str(&c.HTTPAddr)},
		{"GRPC_HEALTH_ADDR", str(&c.GRPCHealthAddr)},
		{"DATABASE_URL", str(&c.DatabaseURL)},
		{"SECRET_KEY", str(&c.SecretKey)},
		{"ACCESS_TOKEN_EXPIRE_MINUTES", minutes(&c.AccessTokenTTL)},
		{"BCRYPT_COST", integer(&c.BcryptCost)},
		{"STORAGE_BACKEND", str(&c.StorageBackend)},
		{"UPLOAD_DIR", str(&c.UploadDir)},
		{"S3_ROOT_USER", str(&c.S3RootUser)},
		{"S3_ROOT_PASSWORD", str(&c.S3RootPassword)},
		{"S3_BUCKET", str(&c.S3Bucket)},
		{"S3_REGION", str(&c.S3Region)},
		{"S3_BASE_ENDPOINT", str(&c.S3BaseEndpoint)},
		{"S3_PREFIX", str(&c.S3Prefix)},
		{"MAX_UPLOAD_SIZE_BYTES", int64Val(&c.MaxUploadSizeBytes)},
		{"ALLOWED_CONTENT_TYPES", list(&c.AllowedContentTypes)},
		{"ALLOWED_ORIGINS", list(&c.AllowedOrigins)},
		{"AUDIT_SINKS", list(&c.AuditSinks)},
		{"REDIS_ADDR", str(&c.RedisAddr)},
		{"REDIS_PASSWORD", str(&c.RedisPassword)},
		{"REDIS_DB", integer(&c.RedisDB)},
		{"AUDIT_STREAM", str(&c.AuditStream)},
		{"KAFKA_BROKERS", list(&c.KafkaBrokers)},
		{"KAFKA_TOPIC", str(&c.KafkaTopic)},
		{"LOGIN_RATE_LIMIT", integer(&c.LoginRateLimit)},
		{"LOGIN_RATE_WINDOW", duration(&c.LoginRateWindow)},
		{"LOG_LEVEL", str(&c.LogLevel)},
		{"LOG_FORMAT", str(&c.LogFormat)},
	}
}

func parseEnv(c *Config, env *envSource) error {
	for _, b := range envBindings(c) {
		v, ok := env.get(b.name)
		if !ok {
			continue
		}
		if err := b.set(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("env %s: %w", b.name, err)
		}
	}
	return nil
}

func str(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func integer(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func int64Val(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func minutes(dst *time.Duration) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = time.Duration(n) * time.Minute
		return nil
	}
}

// duration accepts "90s"-style strings or a bare number of seconds.
func duration(dst *time.Duration) func(string) error {
	return func(v string) error {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * time.Second
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// list splits a comma separated value, dropping empty items.
func list(dst *[]string) func(string) error {
	return func(v string) error {
		out := []string{}
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*dst = out
		return nil
	}
}
