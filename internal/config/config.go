// Package config loads the API configuration from an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	Redis   RedisConfig   `yaml:"redis"`
	Storage StorageConfig `yaml:"storage"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver"` // mongo or memory
	MongoURI string `yaml:"mongo_uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// RedisConfig enables the cross-instance event relay and the creation
// rate limit when Address is set.
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	Channel         string `yaml:"channel"`
	CreateRateLimit int    `yaml:"create_rate_limit"` // per user per 24h, 0 disables
}

// StorageConfig enables report image uploads when Endpoint is set.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Env:      "production",
		Port:     "8080",
		LogLevel: "info",
		Store: StoreConfig{
			Driver:   "mongo",
			MongoURI: "mongodb://localhost:27017",
			Database: "reliefnet",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
		},
		CORS: CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
		Redis: RedisConfig{
			Channel:         "reliefnet:events",
			CreateRateLimit: 50,
		},
		Storage: StorageConfig{Bucket: "reliefnet-images"},
	}
}

// Load builds the configuration. path may be empty; a missing .env file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("APP_ENV", &c.Env)
	str("API_PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_DRIVER", &c.Store.Driver)
	str("MONGO_URI", &c.Store.MongoURI)
	str("MONGO_DATABASE", &c.Store.Database)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("REDIS_ADDRESS", &c.Redis.Address)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("REDIS_CHANNEL", &c.Redis.Channel)
	str("MINIO_ENDPOINT", &c.Storage.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Storage.AccessKey)
	str("MINIO_SECRET_KEY", &c.Storage.SecretKey)
	str("MINIO_BUCKET", &c.Storage.Bucket)
	str("MINIO_PUBLIC_URL", &c.Storage.PublicURL)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowOrigins = origins
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	for key, dst := range map[string]*int{
		"BCRYPT_COST":       &c.Auth.BcryptCost,
		"REPORT_RATE_LIMIT": &c.Redis.CreateRateLimit,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		c.Storage.UseSSL = b
	}
	return nil
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not configured"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	switch c.Store.Driver {
	case "memory":
	case "mongo":
		if c.Store.MongoURI == "" || c.Store.Database == "" {
			errs = append(errs, errors.New("mongo store needs MONGO_URI and MONGO_DATABASE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required with MINIO_ENDPOINT"))
	}
	return errors.Join(errs...)
}

// Development is true when stack traces may be returned to clients.
func (c *Config) Development() bool {
	return c.Env == "development"
}
