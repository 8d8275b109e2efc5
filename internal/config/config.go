package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/relational"
)

// Config holds CLI configuration.
type Config struct {
	Dialect  string         `mapstructure:"dialect"`
	Catalog  string         `mapstructure:"catalog"`
	Strict   bool           `mapstructure:"strict"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig selects the relational executor.
type DatabaseConfig struct {
	Backend        string `mapstructure:"backend"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	SQLiteDriver   string `mapstructure:"sqlite_driver"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	PostgresSchema string `mapstructure:"postgres_schema"`
	Table          string `mapstructure:"table"`
}

// Load reads configuration from an optional YAML file and the environment.
// Env var overrides use prefix AUDIENCE_, e.g. AUDIENCE_DATABASE_BACKEND.
// An empty path falls back to $AUDIENCE_CONFIG, then ./audience.yaml if present.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("dialect", "postgres")
	v.SetDefault("catalog", "")
	v.SetDefault("strict", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.backend", "sqlite")
	v.SetDefault("database.sqlite_path", "audience.db")
	v.SetDefault("database.sqlite_driver", "sqlite")
	v.SetDefault("database.postgres_dsn", "")
	v.SetDefault("database.postgres_schema", "audience")
	v.SetDefault("database.table", "contacts")

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("AUDIENCE_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("audience")
	}

	v.SetEnvPrefix("AUDIENCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, ok := relational.DialectByName(c.Dialect); !ok {
		return Config{}, fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	return c, nil
}

// Registry returns the configured catalog, or the built-in one.
func (c Config) Registry() (*field.Registry, error) {
	if c.Catalog == "" {
		return field.Default(), nil
	}
	f, err := os.Open(c.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return field.Load(f)
}

// RelationalDialect resolves the configured dialect.
func (c Config) RelationalDialect() relational.Dialect {
	d, ok := relational.DialectByName(c.Dialect)
	if !ok {
		return relational.Postgres
	}
	return d
}
