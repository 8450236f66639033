package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vancomm/concentration/internal/concentration"
)

const EnvPrefix = "CONCENTRATION"

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     uint16 `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DbName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DbName, p.SSLMode,
	)
}

// URL is the form golang-migrate expects.
func (p PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, url.QueryEscape(p.Password), p.Host, p.Port, p.DbName, p.SSLMode,
	)
}

type JwtConfig struct {
	TokenLifetime  time.Duration `mapstructure:"token_lifetime"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
}

type GameConfig struct {
	Pairs       int           `mapstructure:"pairs"`
	RevealDelay time.Duration `mapstructure:"reveal_delay"`
	RecordsPath string        `mapstructure:"records_path"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type Config struct {
	Mode     string         `mapstructure:"mode"`
	Addr     string         `mapstructure:"addr"`
	Domain   string         `mapstructure:"domain"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Jwt      JwtConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("domain", "localhost")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "concentration")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "concentration")
	v.SetDefault("postgres.ssl_mode", "disable")

	v.SetDefault("jwt.token_lifetime", 24*time.Hour)
	v.SetDefault("jwt.private_key_path", "./secrets/jwt-private-key.pem")
	v.SetDefault("jwt.public_key_path", "./secrets/jwt-public-key.pem")

	v.SetDefault("game.pairs", concentration.MaxPairs)
	v.SetDefault("game.reveal_delay", 500*time.Millisecond)
	v.SetDefault("game.records_path", "concentration.db")

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// Load reads the config file at path (any format viper knows) on top of the
// defaults. Every key can be overridden from the environment, e.g.
// CONCENTRATION_POSTGRES_HOST. An empty path loads defaults and environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Mode != "production" && c.Mode != "development" {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Game.Pairs < 1 || c.Game.Pairs > concentration.MaxPairs {
		errs = append(errs, fmt.Errorf(
			"game.pairs must be between 1 and %d, got %d",
			concentration.MaxPairs, c.Game.Pairs,
		))
	}
	if c.Game.RevealDelay <= 0 {
		errs = append(errs, errors.New("game.reveal_delay must be positive"))
	}
	if c.Jwt.TokenLifetime <= 0 {
		errs = append(errs, errors.New("jwt.token_lifetime must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":                 c.Mode,
		"addr":                 c.Addr,
		"domain":               c.Domain,
		"pg_host":              c.Postgres.Host,
		"pg_port":              c.Postgres.Port,
		"pg_user":              c.Postgres.User,
		"pg_db_name":           c.Postgres.DbName,
		"jwt_token_lifetime":   c.Jwt.TokenLifetime.String(),
		"jwt_private_key_path": c.Jwt.PrivateKeyPath,
		"jwt_public_key_path":  c.Jwt.PublicKeyPath,
		"game_pairs":           c.Game.Pairs,
		"game_reveal_delay":    c.Game.RevealDelay.String(),
		"game_records_path":    c.Game.RecordsPath,
		"log_file":             c.Log.File,
	}
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

func (c Config) HttpCookieSameSite() http.SameSite {
	if c.Development() {
		return http.SameSiteNoneMode
	} else {
		return http.SameSiteStrictMode
	}
}
