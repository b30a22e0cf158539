// Package config loads the server configuration from the environment
// (optionally preceded by a YAML file) and validates it.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	DB      DBConfig      `yaml:"db"`
	Cache   CacheConfig   `yaml:"cache"`
	Redis   RedisConfig   `yaml:"redis"`
	Paging  PagingConfig  `yaml:"paging"`
	Vote    VoteConfig    `yaml:"vote"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT" env-default:"8080"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type DBConfig struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DSN          string `yaml:"dsn" env:"DATABASE_URL" env-default:"host=localhost user=postgres password=postgres dbname=movierama port=5432 sslmode=disable"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
}

// CacheConfig 页面缓存配置。列表区域和用户资料区域的 TTL 分开配置
type CacheConfig struct {
	Backend    string        `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`
	Size       int           `yaml:"size" env:"CACHE_SIZE" env-default:"500"`
	ListTTL    time.Duration `yaml:"list_ttl" env:"CACHE_LIST_TTL" env-default:"10m"`
	ProfileTTL time.Duration `yaml:"profile_ttl" env:"CACHE_PROFILE_TTL" env-default:"30m"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type PagingConfig struct {
	DefaultSize int `yaml:"default_size" env:"PAGE_DEFAULT_SIZE" env-default:"10"`
	MaxSize     int `yaml:"max_size" env:"PAGE_MAX_SIZE" env-default:"100"`
}

// VoteConfig bounds the ledger's retry loop on concurrent first votes.
type VoteConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"VOTE_MAX_ATTEMPTS" env-default:"3"`
	Backoff     time.Duration `yaml:"backoff" env:"VOTE_BACKOFF" env-default:"10ms"`
}

type SessionConfig struct {
	Name   string `yaml:"name" env:"SESSION_NAME" env-default:"movierama_session"`
	Secret string `yaml:"secret" env:"SESSION_SECRET" env-default:"secret_key_change_me"`
}

// AuthConfig: TrustHeader lets an upstream gateway pass the authenticated
// user id in X-User-ID. Only enable it behind such a gateway.
type AuthConfig struct {
	TrustHeader bool `yaml:"trust_header" env:"AUTH_TRUST_HEADER" env-default:"false"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Development bool   `yaml:"development" env:"LOG_DEV" env-default:"false"`
}

// Load reads path (if non-empty) and then the environment. An empty path
// falls back to CONFIG_PATH; with neither set only the environment is used.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.Errors{
		"http":   c.HTTP.Validate(),
		"db":     c.DB.Validate(),
		"cache":  c.Cache.Validate(),
		"paging": c.Paging.Validate(),
		"vote":   c.Vote.Validate(),
	}.Filter()
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (c *DBConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverPostgres, DriverSQLite)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(CacheMemory, CacheRedis)),
		validation.Field(&c.Size, validation.Required, validation.Min(1)),
		validation.Field(&c.ListTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ProfileTTL, validation.Required, validation.Min(time.Second)),
	)
}

func (c *PagingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxSize, validation.Required, validation.Min(c.DefaultSize)),
	)
}

func (c *VoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.Backoff, validation.Min(time.Duration(0))),
	)
}
