package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Remote   RemoteConfig   `yaml:"remote"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAccessTTL time.Duration `yaml:"jwt_access_ttl"`
}

// RemoteConfig carries product knobs that ops may retune without a deploy.
type RemoteConfig struct {
	Limits     LimitsConfig    `yaml:"limits"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Boost      BoostConfig     `yaml:"boost"`
	Gate       GateConfig      `yaml:"gate"`
	Defaults   DefaultsConfig  `yaml:"defaults"`
}

// LimitsConfig overrides the built-in per-tier daily limits. Zero means forbidden,
// -1 means unlimited; leave a field unset to keep the rules default.
type LimitsConfig struct {
	BronzeViewsPerDay *int `yaml:"bronze_views_per_day"`
	BronzeLikesPerDay *int `yaml:"bronze_likes_per_day"`
	SilverViewsPerDay *int `yaml:"silver_views_per_day"`
	SilverLikesPerDay *int `yaml:"silver_likes_per_day"`
	GoldViewsPerDay   *int `yaml:"gold_views_per_day"`
	GoldLikesPerDay   *int `yaml:"gold_likes_per_day"`
}

type RateLimitConfig struct {
	LikesPerMinute    int `yaml:"likes_per_minute"`
	LikesPer10Seconds int `yaml:"likes_per_10sec"`
}

type BoostConfig struct {
	Duration time.Duration `yaml:"duration"`
}

type GateConfig struct {
	ConflictRetries int `yaml:"conflict_retries"`
}

type DefaultsConfig struct {
	Timezone string `yaml:"timezone"`
	PlanTier string `yaml:"plan_tier"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Postgres: PostgresConfig{
			DSN: "",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			JWTAccessTTL: 15 * time.Minute,
		},
		Remote: RemoteConfig{
			RateLimits: RateLimitConfig{
				LikesPerMinute:    45,
				LikesPer10Seconds: 12,
			},
			Boost: BoostConfig{
				Duration: 60 * time.Minute,
			},
			Gate: GateConfig{
				ConflictRetries: 3,
			},
			Defaults: DefaultsConfig{
				Timezone: "America/Sao_Paulo",
				PlanTier: "bronze",
			},
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if err := overrideDuration("JWT_ACCESS_TTL", &cfg.Auth.JWTAccessTTL); err != nil {
		return err
	}

	if err := overrideDuration("BOOST_DURATION", &cfg.Remote.Boost.Duration); err != nil {
		return err
	}
	if err := overrideInt("GATE_CONFLICT_RETRIES", &cfg.Remote.Gate.ConflictRetries); err != nil {
		return err
	}
	if v := os.Getenv("DEFAULT_TIMEZONE"); v != "" {
		cfg.Remote.Defaults.Timezone = v
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}
