package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"IndexHistory/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. INDEXHISTORY_OUTPUT_DIR.
const EnvPrefix = "INDEXHISTORY"

// CronParser accepts six-field expressions with seconds and descriptors like @daily.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds all application configuration.
type Config struct {
	Provider struct {
		Symbol  string        `yaml:"symbol" envconfig:"SYMBOL"`
		BaseURL string        `yaml:"base_url" envconfig:"BASE_URL"`
		Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
		Proxy   string        `yaml:"proxy" envconfig:"PROXY"`
	} `yaml:"provider" envconfig:"PROVIDER"`
	Range struct {
		Start string `yaml:"start" envconfig:"START"`
		End   string `yaml:"end" envconfig:"END"` // empty means today
	} `yaml:"range" envconfig:"RANGE"`
	Output struct {
		Dir      string `yaml:"dir" envconfig:"DIR"`
		BaseName string `yaml:"base_name" envconfig:"BASE_NAME"`
		Verify   bool   `yaml:"verify" envconfig:"VERIFY"`
	} `yaml:"output" envconfig:"OUTPUT"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database" envconfig:"DATABASE"`
	Schedule struct {
		Cron string `yaml:"cron" envconfig:"CRON"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`
	Log struct {
		Level string `yaml:"level" envconfig:"LEVEL"`
	} `yaml:"log" envconfig:"LOG"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if cfg.Provider.Proxy == "" {
		cfg.Provider.Proxy = os.Getenv("HTTPS_PROXY")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Symbol == "" {
		c.Provider.Symbol = "^GSPC"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	if c.Range.Start == "" {
		c.Range.Start = "1950-01-01"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data"
	}
	if c.Output.BaseName == "" {
		c.Output.BaseName = "sp500_ohlcv_1950_to_present"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Dates returns the parsed date range. End is zero when not configured.
func (c *Config) Dates() (start, end time.Time, err error) {
	start, err = time.Parse(model.DateLayout, c.Range.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("range.start: %w", err)
	}
	if c.Range.End != "" {
		end, err = time.Parse(model.DateLayout, c.Range.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("range.end: %w", err)
		}
	}
	return start, end, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	start, end, err := c.Dates()
	if err != nil {
		return err
	}
	if !end.IsZero() && end.Before(start) {
		return fmt.Errorf("range.end %s is before range.start %s", c.Range.End, c.Range.Start)
	}
	if c.Provider.Symbol == "" {
		return fmt.Errorf("provider.symbol is required")
	}
	if c.Provider.Timeout < 0 {
		return fmt.Errorf("provider.timeout must not be negative")
	}
	if c.Output.BaseName == "" || strings.ContainsAny(c.Output.BaseName, `/\`) {
		return fmt.Errorf("output.base_name must be a plain file name, got %q", c.Output.BaseName)
	}
	if c.Schedule.Cron != "" {
		if _, err := CronParser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
