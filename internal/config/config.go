// Package config loads service settings from defaults, an optional YAML file
// and ADALA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"adala.org/internal/auth"
	"adala.org/internal/locale"
)

// EnvPrefix prefixes environment overrides: server.addr is ADALA_SERVER_ADDR.
const EnvPrefix = "ADALA"

type Server struct {
	Addr              string        `mapstructure:"addr"`
	GRPCAddr          string        `mapstructure:"grpc_addr"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type Rate struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

type Database struct {
	// DSN selects the Postgres stores; empty keeps everything in memory.
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type Auth struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Users    []auth.User   `mapstructure:"users"`
}

type Log struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

type Review struct {
	PageSize            int `mapstructure:"page_size"`
	ConfidenceThreshold int `mapstructure:"confidence_threshold"`
}

type Seed struct {
	// Path of a YAML fixture file loaded into empty stores at startup.
	Path string `mapstructure:"path"`
}

type Locale struct {
	Default string `mapstructure:"default"`
}

// Config is the complete service configuration.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Rate     Rate     `mapstructure:"rate"`
	Database Database `mapstructure:"database"`
	Auth     Auth     `mapstructure:"auth"`
	Log      Log      `mapstructure:"log"`
	Review   Review   `mapstructure:"review"`
	Seed     Seed     `mapstructure:"seed"`
	Locale   Locale   `mapstructure:"locale"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.read_header_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("rate.per_second", 50)
	v.SetDefault("rate.burst", 100)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "adala-review")
	v.SetDefault("auth.token_ttl", "8h")

	v.SetDefault("log.env", "production")
	v.SetDefault("log.level", "info")

	v.SetDefault("review.page_size", 10)
	v.SetDefault("review.confidence_threshold", 70)

	v.SetDefault("seed.path", "")
	v.SetDefault("locale.default", "en")
}

// Load reads configuration. path may be empty to use defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Rate.PerSecond <= 0 || c.Rate.Burst <= 0 {
		errs = append(errs, errors.New("rate.per_second and rate.burst must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Review.PageSize <= 0 {
		errs = append(errs, errors.New("review.page_size must be positive"))
	}
	if c.Review.ConfidenceThreshold < 0 || c.Review.ConfidenceThreshold > 100 {
		errs = append(errs, errors.New("review.confidence_threshold must be within 0-100"))
	}
	if _, ok := locale.ParseLang(c.Locale.Default); !ok {
		errs = append(errs, fmt.Errorf("locale.default %q is not supported", c.Locale.Default))
	}
	for _, u := range c.Auth.Users {
		if _, ok := auth.ParseRole(string(u.Role)); !ok {
			errs = append(errs, fmt.Errorf("auth.users: unknown role %q for %s", u.Role, u.Name))
		}
	}
	return errors.Join(errs...)
}

// DefaultLang is the parsed locale.default.
func (c Config) DefaultLang() locale.Lang {
	l, ok := locale.ParseLang(c.Locale.Default)
	if !ok {
		return locale.English
	}
	return l
}
