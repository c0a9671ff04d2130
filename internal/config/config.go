package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
	TemplatesDir string        `mapstructure:"templates_dir"`
}

// UpstreamConfig points at the external data API and chart image host.
type UpstreamConfig struct {
	CatalogURL           string        `mapstructure:"catalog_url" validate:"required,url"`
	TrendURL             string        `mapstructure:"trend_url" validate:"required,url"`
	ChartHost            string        `mapstructure:"chart_host" validate:"required,url"`
	Timeout              time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRequestsPerSecond float64       `mapstructure:"max_requests_per_second" validate:"gte=0"`
}

// DashboardConfig holds page defaults.
type DashboardConfig struct {
	Variant       string        `mapstructure:"variant" validate:"oneof=standard extended"`
	DefaultSymbol string        `mapstructure:"default_symbol" validate:"required"`
	Timezone      string        `mapstructure:"timezone"`
	ChartWait     time.Duration `mapstructure:"chart_wait" validate:"gte=0"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// Support environment variable overrides
	v.SetEnvPrefix("CHARTDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("upstream.catalog_url", d.Upstream.CatalogURL)
	v.SetDefault("upstream.trend_url", d.Upstream.TrendURL)
	v.SetDefault("upstream.chart_host", d.Upstream.ChartHost)
	v.SetDefault("upstream.timeout", d.Upstream.Timeout)
	v.SetDefault("dashboard.variant", d.Dashboard.Variant)
	v.SetDefault("dashboard.default_symbol", d.Dashboard.DefaultSymbol)
	v.SetDefault("dashboard.timezone", d.Dashboard.Timezone)
	v.SetDefault("dashboard.chart_wait", d.Dashboard.ChartWait)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			SessionTTL: 30 * time.Minute,
		},
		Upstream: UpstreamConfig{
			CatalogURL: "https://nextjs-fastapi-henna.vercel.app/api/py/db",
			TrendURL:   "https://nextjs-fastapi-henna.vercel.app/api/py/ma5time",
			ChartHost:  "https://server1501.cloud",
			Timeout:    10 * time.Second,
		},
		Dashboard: DashboardConfig{
			Variant:       "standard",
			DefaultSymbol: "XAUUSD",
			Timezone:      "UTC",
			ChartWait:     3 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

var validate = validator.New()

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if _, err := c.Location(); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown timezone %q: %w", c.Dashboard.Timezone, err))
	}

	return nil
}

// Location resolves the display timezone, defaulting to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Dashboard.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Dashboard.Timezone)
}
