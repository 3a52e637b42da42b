// Package config loads runtime settings from an optional YAML file, a .env
// file and OPTGREEKS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// OPTGREEKS_PRICING_RATE or OPTGREEKS_SERVER_ADDR.
const EnvPrefix = "OPTGREEKS"

// Config is the top-level settings tree.
type Config struct {
	Verbosity int           `mapstructure:"verbosity" validate:"min=0,max=3"`
	Log       LogConfig     `mapstructure:"log"`
	Pricing   PricingConfig `mapstructure:"pricing"`
	Server    ServerConfig  `mapstructure:"server"`
	Data      DataConfig    `mapstructure:"data"`
	Report    ReportConfig  `mapstructure:"report"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups"  validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
	Compress   bool   `mapstructure:"compress"`
}

// PricingConfig holds market defaults used when a request omits them.
type PricingConfig struct {
	Rate     float64 `mapstructure:"rate"     validate:"gte=-1,lte=1"`
	Dividend float64 `mapstructure:"dividend" validate:"gte=-1,lte=1"`
	Workers  int     `mapstructure:"workers"  validate:"min=1,max=256"`
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// DataConfig selects and configures the market data provider.
type DataConfig struct {
	Provider      string  `mapstructure:"provider"        validate:"oneof=synthetic csv polygon"`
	CSVDir        string  `mapstructure:"csv_dir"         validate:"required_if=Provider csv"`
	Secondary     string  `mapstructure:"secondary"       validate:"omitempty,oneof=synthetic polygon"`
	PolygonAPIKey string  `mapstructure:"polygon_api_key" validate:"required_if=Provider polygon"`
	SyntheticVol  float64 `mapstructure:"synthetic_vol"   validate:"gt=0"`
	Seed          int64   `mapstructure:"seed"`
}

// ReportConfig sets where report files are written.
type ReportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbosity", 1)

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", false)

	v.SetDefault("pricing.rate", 0.05)
	v.SetDefault("pricing.dividend", 0.0)
	v.SetDefault("pricing.workers", 8)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("data.provider", "synthetic")
	v.SetDefault("data.csv_dir", "")
	v.SetDefault("data.secondary", "")
	v.SetDefault("data.polygon_api_key", "")
	v.SetDefault("data.synthetic_vol", 0.2)
	v.SetDefault("data.seed", 1)

	v.SetDefault("report.dir", "reports")
}

// Load reads configFile (skipped when empty) after loading envFiles into the
// process environment. Missing env files are ignored; with no envFiles the
// default is ".env". POLYGON_API_KEY is honoured as an alias for
// OPTGREEKS_DATA_POLYGON_API_KEY.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("data.polygon_api_key", EnvPrefix+"_DATA_POLYGON_API_KEY", "POLYGON_API_KEY"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
