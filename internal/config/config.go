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

const (
	DriverBadger   = "badger"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	EnvProduction = "production"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Env            string   `yaml:"env"`
		StaticDir      string   `yaml:"staticDir"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		AuthRateLimit  int      `yaml:"authRateLimit"` // requests per minute per IP on /api/auth, 0 disables
	} `yaml:"server"`
	Auth struct {
		AccessSecret  string `yaml:"accessSecret"`
		RefreshSecret string `yaml:"refreshSecret"`
	} `yaml:"auth"`
	Storage struct {
		Driver     string `yaml:"driver"`
		BadgerPath string `yaml:"badgerPath"`
	} `yaml:"storage"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Stats struct {
		TTL string `yaml:"ttl"`
	} `yaml:"stats"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads .env (if present), then the YAML file at path (if present), then
// applies environment overrides and defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Server.Port, "PORT")
	str(&c.Server.Env, "APP_ENV", "NODE_ENV")
	str(&c.Server.StaticDir, "STATIC_DIR")
	str(&c.Auth.AccessSecret, "ACCESS_TOKEN_SECRET")
	str(&c.Auth.RefreshSecret, "REFRESH_TOKEN_SECRET")
	str(&c.Storage.Driver, "STORAGE_DRIVER")
	str(&c.Storage.BadgerPath, "BADGER_PATH")
	str(&c.Postgres.URL, "DATABASE_URL")
	str(&c.Redis.Addr, "REDIS_ADDR")
	str(&c.Redis.Password, "REDIS_PASSWORD")
	str(&c.Stats.TTL, "STATS_TTL")
	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Format, "LOG_FORMAT")

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("AUTH_RATE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.AuthRateLimit = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5001"
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "frontend/dist"
	}
	if c.Storage.Driver == "" {
		if c.Postgres.URL != "" {
			c.Storage.Driver = DriverPostgres
		} else {
			c.Storage.Driver = DriverBadger
		}
	}
	if c.Storage.BadgerPath == "" {
		c.Storage.BadgerPath = "data/badger"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports configuration that would make the server unsafe or unusable.
func (c Config) Validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	switch c.Storage.Driver {
	case DriverBadger, DriverMemory:
	case DriverPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("postgres driver selected but no postgres url configured")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Production reports whether cookies must be Secure and static assets served.
func (c Config) Production() bool {
	return strings.EqualFold(c.Server.Env, EnvProduction)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
