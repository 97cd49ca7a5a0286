package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/compliancebinder/internal/flagx"
	"github.com/dmitrijs2005/compliancebinder/internal/timex"
)

// fileConfig is the on-disk shape of a config file. Durations accept both
// "90s" strings and integer nanoseconds. Zero values leave the current
// setting untouched.
type fileConfig struct {
	Env                 string         `json:"env" yaml:"env"`
	HTTPAddr            string         `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr      string         `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	DatabaseURL         string         `json:"database_url" yaml:"database_url"`
	SecretKey           string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenTTL      timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	BcryptCost          int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	StorageBackend      string         `json:"storage_backend" yaml:"storage_backend"`
	UploadDir           string         `json:"upload_dir" yaml:"upload_dir"`
	S3RootUser          string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix            string         `json:"s3_prefix" yaml:"s3_prefix"`
	MaxUploadSizeBytes  int64          `json:"max_upload_size_bytes" yaml:"max_upload_size_bytes"`
	AllowedContentTypes []string       `json:"allowed_content_types" yaml:"allowed_content_types"`
	AllowedOrigins      []string       `json:"allowed_origins" yaml:"allowed_origins"`
	AuditSinks          []string       `json:"audit_sinks" yaml:"audit_sinks"`
	RedisAddr           string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword       string         `json:"redis_password" yaml:"redis_password"`
	RedisDB             int            `json:"redis_db" yaml:"redis_db"`
	AuditStream         string         `json:"audit_stream" yaml:"audit_stream"`
	KafkaBrokers        []string       `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic          string         `json:"kafka_topic" yaml:"kafka_topic"`
	LoginRateLimit      *int           `json:"login_rate_limit" yaml:"login_rate_limit"`
	LoginRateWindow     timex.Duration `json:"login_rate_window" yaml:"login_rate_window"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	LogFormat           string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays the file named by -c/-config, if any. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(c *Config) {
	setStr(&c.Env, fc.Env)
	setStr(&c.HTTPAddr, fc.HTTPAddr)
	setStr(&c.GRPCHealthAddr, fc.GRPCHealthAddr)
	setStr(&c.DatabaseURL, fc.DatabaseURL)
	setStr(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenTTL.Duration != 0 {
		c.AccessTokenTTL = fc.AccessTokenTTL.Duration
	}
	if fc.BcryptCost != 0 {
		c.BcryptCost = fc.BcryptCost
	}
	setStr(&c.StorageBackend, fc.StorageBackend)
	setStr(&c.UploadDir, fc.UploadDir)
	setStr(&c.S3RootUser, fc.S3RootUser)
	setStr(&c.S3RootPassword, fc.S3RootPassword)
	setStr(&c.S3Bucket, fc.S3Bucket)
	setStr(&c.S3Region, fc.S3Region)
	setStr(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setStr(&c.S3Prefix, fc.S3Prefix)
	if fc.MaxUploadSizeBytes != 0 {
		c.MaxUploadSizeBytes = fc.MaxUploadSizeBytes
	}
	setList(&c.AllowedContentTypes, fc.AllowedContentTypes)
	setList(&c.AllowedOrigins, fc.AllowedOrigins)
	setList(&c.AuditSinks, fc.AuditSinks)
	setStr(&c.RedisAddr, fc.RedisAddr)
	setStr(&c.RedisPassword, fc.RedisPassword)
	if fc.RedisDB != 0 {
		c.RedisDB = fc.RedisDB
	}
	setStr(&c.AuditStream, fc.AuditStream)
	setList(&c.KafkaBrokers, fc.KafkaBrokers)
	setStr(&c.KafkaTopic, fc.KafkaTopic)
	if fc.LoginRateLimit != nil {
		c.LoginRateLimit = *fc.LoginRateLimit
	}
	if fc.LoginRateWindow.Duration != 0 {
		c.LoginRateWindow = fc.LoginRateWindow.Duration
	}
	setStr(&c.LogLevel, fc.LogLevel)
	setStr(&c.LogFormat, fc.LogFormat)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}
