package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces every environment variable read by the app.
// SHOP_DB_DSN maps to db.dsn, SHOP_PAYMENTS_SECRET_KEY to payments.secret_key.
const EnvPrefix = "SHOP_"

const devSecret = "dev-secret-change-me-0123456789"

type Config struct {
	App       AppConfig       `koanf:"app"`
	DB        DBConfig        `koanf:"db"`
	Log       LogConfig       `koanf:"log"`
	Session   SessionConfig   `koanf:"session"`
	Storage   StorageConfig   `koanf:"storage"`
	Payments  PaymentsConfig  `koanf:"payments"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	Mail      MailConfig      `koanf:"mail"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Reviews   ReviewsConfig   `koanf:"reviews"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

type AppConfig struct {
	Env      string `koanf:"env" validate:"oneof=development production test"`
	Addr     string `koanf:"addr" validate:"required"`
	BaseURL  string `koanf:"base_url" validate:"required,url"`
	Timezone string `koanf:"timezone" validate:"required"`
	Secret   string `koanf:"secret" validate:"required,min=16"`
	SiteName string `koanf:"site_name" validate:"required"`
}

func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// Location resolves Timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DBConfig struct {
	Driver      string `koanf:"driver" validate:"oneof=mysql sqlite"`
	DSN         string `koanf:"dsn" validate:"required"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type SessionConfig struct {
	CookieName string        `koanf:"cookie_name" validate:"required"`
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	Secure     bool          `koanf:"secure"`
}

type StorageConfig struct {
	Driver          string        `koanf:"driver" validate:"oneof=local s3"`
	LocalDir        string        `koanf:"local_dir"`
	LocalURLPrefix  string        `koanf:"local_url_prefix"`
	S3Region        string        `koanf:"s3_region" validate:"required_if=Driver s3"`
	S3Bucket        string        `koanf:"s3_bucket" validate:"required_if=Driver s3"`
	S3Prefix        string        `koanf:"s3_prefix"`
	S3PublicBaseURL string        `koanf:"s3_public_base_url"`
	PresignTTL      time.Duration `koanf:"presign_ttl"`
}

type PaymentsConfig struct {
	Provider   string        `koanf:"provider" validate:"oneof=toss mock"`
	ClientKey  string        `koanf:"client_key" validate:"required_if=Provider toss"`
	SecretKey  string        `koanf:"secret_key" validate:"required_if=Provider toss"`
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries uint64        `koanf:"max_retries"`
}

type OAuthConfig struct {
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GoogleRedirectURL  string `koanf:"google_redirect_url"`
}

func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

type MailConfig struct {
	Driver          string   `koanf:"driver" validate:"oneof=smtp mailtrap log"`
	From            string   `koanf:"from" validate:"required,email"`
	FromName        string   `koanf:"from_name"`
	AdminRecipients []string `koanf:"admin_recipients" validate:"dive,email"`
	MailtrapURL     string   `koanf:"mailtrap_url" validate:"required_if=Driver mailtrap"`
	MailtrapToken   string   `koanf:"mailtrap_token" validate:"required_if=Driver mailtrap"`
}

type SMTPConfig struct {
	Host          string `koanf:"host"`
	Port          string `koanf:"port"`
	User          string `koanf:"user"`
	Pass          string `koanf:"pass"`
	TLSMode       string `koanf:"tls_mode" validate:"oneof=none starttls tls"`
	SkipVerifyTLS bool   `koanf:"skip_verify_tls"`
}

type RateLimitConfig struct {
	AuthLimit     int64         `koanf:"auth_limit" validate:"gt=0"`
	AuthPeriod    time.Duration `koanf:"auth_period" validate:"gt=0"`
	ReviewLimit   int64         `koanf:"review_limit" validate:"gt=0"`
	ReviewPeriod  time.Duration `koanf:"review_period" validate:"gt=0"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	Prefix        string        `koanf:"prefix"`
}

type ReviewsConfig struct {
	AutoApprove  bool  `koanf:"auto_approve"`
	MaxFiles     int   `koanf:"max_files" validate:"gte=0"`
	MaxFileBytes int64 `koanf:"max_file_bytes" validate:"gt=0"`
}

type JobsConfig struct {
	Enabled           bool   `koanf:"enabled"`
	SessionPurge      string `koanf:"session_purge"`
	LowStockDigest    string `koanf:"low_stock_digest"`
	LowStockThreshold int    `koanf:"low_stock_threshold" validate:"gte=0"`
}

// Default returns the development configuration every source overrides.
func Default() Config {
	return Config{
		App: AppConfig{
			Env:      "development",
			Addr:     ":8080",
			BaseURL:  "http://localhost:8080",
			Timezone: "Asia/Seoul",
			Secret:   devSecret,
			SiteName: "VibeShop",
		},
		DB:  DBConfig{Driver: "mysql", DSN: "root:root@tcp(127.0.0.1:3306)/vibeshop?parseTime=true&charset=utf8mb4&loc=UTC"},
		Log: LogConfig{Level: "info", Format: "json"},
		Session: SessionConfig{
			CookieName: "vs_session",
			TTL:        30 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			Driver:         "local",
			LocalDir:       "./storage/uploads",
			LocalURLPrefix: "/uploads",
			S3Prefix:       "uploads",
			PresignTTL:     15 * time.Minute,
		},
		Payments: PaymentsConfig{
			Provider:   "mock",
			BaseURL:    "https://api.tosspayments.com",
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		},
		Mail: MailConfig{
			Driver:   "log",
			From:     "no-reply@vibeshop.local",
			FromName: "VibeShop",
		},
		SMTP: SMTPConfig{Host: "127.0.0.1", Port: "1025", TLSMode: "none"},
		RateLimit: RateLimitConfig{
			AuthLimit:    20,
			AuthPeriod:   time.Minute,
			ReviewLimit:  5,
			ReviewPeriod: time.Minute,
			Prefix:       "vibeshop:ratelimit:",
		},
		Reviews: ReviewsConfig{MaxFiles: 5, MaxFileBytes: 5 << 20},
		Jobs: JobsConfig{
			Enabled:           true,
			SessionPurge:      "@hourly",
			LowStockDigest:    "0 9 * * *",
			LowStockThreshold: 10,
		},
	}
}

// Load merges defaults with SHOP_* environment variables. environ defaults
// to os.Environ.
func Load(environ func() []string) (*Config, error) {
	if environ == nil {
		environ = os.Environ
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnvKey turns SHOP_SECTION_SOME_KEY into section.some_key.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return "", nil
	}
	return section + "." + rest, value
}

var ErrInsecureSecret = errors.New("config: app.secret must be changed in production")

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.App.IsProduction() && cfg.App.Secret == devSecret {
		return ErrInsecureSecret
	}
	return nil
}
