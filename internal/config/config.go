// Package config loads the service configuration from an optional YAML file
// with environment overrides. Everything is passed into constructors
// explicitly; nothing here is read again after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort string     `yaml:"http_port"`
	Auth     AuthConfig `yaml:"auth"`
	Store    Store      `yaml:"store"`
	Media    Media      `yaml:"media"`
	Rate     Rate       `yaml:"rate_limit"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

type Store struct {
	// Driver is "dynamodb" or "memory".
	Driver          string `yaml:"driver"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Tables          Tables `yaml:"tables"`
}

type Tables struct {
	Users         string `yaml:"users"`
	Emails        string `yaml:"emails"`
	Properties    string `yaml:"properties"`
	Appointments  string `yaml:"appointments"`
	RefreshTokens string `yaml:"refresh_tokens"`
}

type Media struct {
	// Driver is "s3" or "static".
	Driver          string        `yaml:"driver"`
	Bucket          string        `yaml:"bucket"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	PathStyle       bool          `yaml:"path_style"`
	BaseURL         string        `yaml:"base_url"`
	URLTTL          time.Duration `yaml:"url_ttl"`
}

type Rate struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads path (skipped if empty or missing), then applies environment
// overrides and defaults. JWT secret has no default on purpose.
func Load(path string) (*Config, error) {
	cfg := &Config{
		HTTPPort: "8080",
		Auth: AuthConfig{
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Store: Store{
			Driver: "dynamodb",
			Tables: Tables{
				Users:         "Users",
				Emails:        "UserEmails",
				Properties:    "Properties",
				Appointments:  "Appointments",
				RefreshTokens: "RefreshTokens",
			},
		},
		Media: Media{Driver: "s3", URLTTL: 30 * time.Minute},
		Rate:  Rate{RPS: 5, Burst: 10},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	overrideString(&cfg.HTTPPort, "PORT")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Store.Driver, "STORE_DRIVER")
	overrideString(&cfg.Store.Region, "AWS_REGION")
	overrideString(&cfg.Store.Endpoint, "DYNAMODB_ENDPOINT")
	overrideString(&cfg.Store.AccessKeyID, "AWS_ACCESS_KEY_ID")
	overrideString(&cfg.Store.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	overrideString(&cfg.Store.Tables.Users, "USERS_TABLE")
	overrideString(&cfg.Store.Tables.Emails, "EMAILS_TABLE")
	overrideString(&cfg.Store.Tables.Properties, "PROPERTIES_TABLE")
	overrideString(&cfg.Store.Tables.Appointments, "APPOINTMENTS_TABLE")
	overrideString(&cfg.Store.Tables.RefreshTokens, "REFRESH_TOKENS_TABLE")
	overrideString(&cfg.Media.Driver, "MEDIA_DRIVER")
	overrideString(&cfg.Media.Bucket, "S3_BUCKET_NAME")
	overrideString(&cfg.Media.Region, "AWS_REGION")
	overrideString(&cfg.Media.Endpoint, "S3_ENDPOINT")
	overrideString(&cfg.Media.AccessKeyID, "AWS_ACCESS_KEY_ID")
	overrideString(&cfg.Media.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	overrideString(&cfg.Media.BaseURL, "S3_BASE_URL")
	overrideDuration(&cfg.Media.URLTTL, "MEDIA_URL_TTL")

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.Store.Driver {
	case "dynamodb", "memory":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	switch cfg.Media.Driver {
	case "s3":
		if cfg.Media.Bucket == "" {
			return nil, fmt.Errorf("media bucket required for s3 driver")
		}
	case "static":
		if cfg.Media.BaseURL == "" {
			return nil, fmt.Errorf("media base_url required for static driver")
		}
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Media.Driver)
	}
	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	// bare number of seconds, as the original deployment used
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}
