package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/relix/pkg/database"
	"github.com/Lumos-Labs-HQ/relix/pkg/database/common"
	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/seeder"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const FileName = "relix.config"

type Config struct {
	Database     Database  `json:"database" mapstructure:"database"`
	RulesPath    string    `json:"rules_path" mapstructure:"rules_path"`
	IgnoreTables []string  `json:"ignore_tables" mapstructure:"ignore_tables"`
	Defaults     Defaults  `json:"defaults" mapstructure:"defaults"`
	Factories    Factories `json:"factories" mapstructure:"factories"`
	Codegen      Codegen   `json:"codegen" mapstructure:"codegen"`
}

type Database struct {
	Provider string            `json:"provider" mapstructure:"provider"`
	URLEnv   string            `json:"url_env" mapstructure:"url_env"`
	Host     string            `json:"host,omitempty" mapstructure:"host"`
	Port     int               `json:"port,omitempty" mapstructure:"port"`
	Socket   string            `json:"socket,omitempty" mapstructure:"socket"`
	User     string            `json:"user,omitempty" mapstructure:"user"`
	Password string            `json:"password,omitempty" mapstructure:"password"`
	Name     string            `json:"name,omitempty" mapstructure:"name"`
	Path     string            `json:"path,omitempty" mapstructure:"path"`
	Options  map[string]string `json:"options,omitempty" mapstructure:"options"`
}

type Defaults struct {
	Count     int `json:"count" mapstructure:"count"`
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`
}

type Factories struct {
	Prefer bool `json:"prefer" mapstructure:"prefer"`
}

type Codegen struct {
	Out     string `json:"out" mapstructure:"out"`
	Package string `json:"package" mapstructure:"package"`
}

func DefaultConfig() *Config {
	return &Config{
		Database: Database{
			Provider: "postgresql",
			URLEnv:   "DATABASE_URL",
		},
		RulesPath:    rules.DefaultPath,
		IgnoreTables: append([]string{}, seeder.DefaultIgnoreTables...),
		Defaults: Defaults{
			Count:     seeder.DefaultCount,
			ChunkSize: seeder.DefaultChunkSize,
		},
		Factories: Factories{Prefer: true},
		Codegen: Codegen{
			Out:     "db/seeds",
			Package: "seeds",
		},
	}
}

// Load reads the global viper instance populated by the CLI.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// mapstructure reuses existing slices instead of replacing them
	cfg.IgnoreTables = nil

	// keys missing from the file keep their defaults
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if !v.IsSet("ignore_tables") {
		cfg.IgnoreTables = append([]string{}, seeder.DefaultIgnoreTables...)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.RulesPath == "" {
		cfg.RulesPath = rules.DefaultPath
	}
	if cfg.Codegen.Out == "" {
		cfg.Codegen.Out = "db/seeds"
	}
	if cfg.Codegen.Package == "" {
		cfg.Codegen.Package = "seeds"
	}
	cfg.IgnoreTables = rules.NormalizeTableList(cfg.IgnoreTables)

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if raw, ok := os.LookupEnv("RELIX_IGNORE_TABLES"); ok {
		c.IgnoreTables = cast.ToStringSlice(strings.ReplaceAll(raw, ",", " "))
	}
	if raw := os.Getenv("RELIX_DEFAULT_COUNT"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return errs.Configuration("RELIX_DEFAULT_COUNT must be a number, got %q", raw)
		}
		c.Defaults.Count = n
	}
	if raw := os.Getenv("RELIX_CHUNK_SIZE"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return errs.Configuration("RELIX_CHUNK_SIZE must be a number, got %q", raw)
		}
		c.Defaults.ChunkSize = n
	}
	if raw := os.Getenv("RELIX_RULES_PATH"); raw != "" {
		c.RulesPath = raw
	}
	return nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// ConnectionParams prefers the URL from the environment and falls back to
// the discrete database fields.
func (c *Config) ConnectionParams() common.ConnectionParams {
	params := common.ConnectionParams{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Socket:   c.Database.Socket,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		Path:     c.Database.Path,
		Options:  c.Database.Options,
	}
	if url, err := c.GetDatabaseURL(); err == nil {
		params.URL = url
	}
	return params
}

func (c *Config) Dialect() (string, error) {
	return database.NormalizeDialect(c.Database.Provider)
}

func (c *Config) Validate() error {
	if _, err := c.Dialect(); err != nil {
		return err
	}
	if c.Defaults.Count < 0 {
		return errs.Configuration("defaults.count cannot be negative")
	}
	if c.Defaults.ChunkSize <= 0 {
		return errs.Configuration("defaults.chunk_size must be positive")
	}
	if c.RulesPath == "" {
		return errs.Configuration("rules_path cannot be empty")
	}
	return nil
}
