package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AGRISTAT_DATA_PATH
const EnvPrefix = "AGRISTAT"

// Config is the complete application configuration
type Config struct {
	Data   DataConfig   `mapstructure:"data" yaml:"data"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Charts ChartsConfig `mapstructure:"charts" yaml:"charts"`
}

type DataConfig struct {
	Path          string   `mapstructure:"path" yaml:"path"`
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`
}

type ServerConfig struct {
	Addr            string   `mapstructure:"addr" yaml:"addr"`
	RateLimitRPS    float64  `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	ShutdownSeconds int      `mapstructure:"shutdown_seconds" yaml:"shutdown_seconds"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SeriesColor pins a series to a display color. Series is a column name
// or a measurement kind: AREA, PRODUCTION or YIELD.
// A list is used instead of a map because config keys are case-folded.
type SeriesColor struct {
	Series string `mapstructure:"series" yaml:"series"`
	Color  string `mapstructure:"color" yaml:"color"`
}

type ChartsConfig struct {
	ColorMap []SeriesColor `mapstructure:"color_map" yaml:"color_map"`
	Width    int           `mapstructure:"width" yaml:"width"`
	Height   int           `mapstructure:"height" yaml:"height"`
}

// ColorMapping returns the series colors keyed by series name
func (c ChartsConfig) ColorMapping() map[string]string {
	out := make(map[string]string, len(c.ColorMap))
	for _, sc := range c.ColorMap {
		out[sc.Series] = sc.Color
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.path", "agridata.csv")
	v.SetDefault("data.missing_values", []string{"", "NA", "N/A", "-", "null", "NULL"})

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.shutdown_seconds", 10)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("charts.color_map", []map[string]string{
		{"series": "AREA", "color": "#1f77b4"},
		{"series": "PRODUCTION", "color": "#ff7f0e"},
	})
	v.SetDefault("charts.width", 1024)
	v.SetDefault("charts.height", 512)
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always decode
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. With an empty cfgFile,
// ./agristat.yaml is read when present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("agristat")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return errors.New("config: data.path is empty")
	}
	if c.Charts.Width <= 0 || c.Charts.Height <= 0 {
		return fmt.Errorf("config: chart size %dx%d is not positive", c.Charts.Width, c.Charts.Height)
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("config: server.rate_limit_rps is negative")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories
func Save(c *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
