// Package config loads SDK settings from an optional TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "APISERVICE"

// Config holds SDK settings. Environment variables override file values.
type Config struct {
	BaseURL   string        `toml:"base_url"   envconfig:"BASE_URL"`
	SecretEnv string        `toml:"secret_env" envconfig:"SECRET_ENV"`
	Timeout   time.Duration `toml:"timeout"    envconfig:"TIMEOUT"`
	LogLevel  string        `toml:"log_level"  envconfig:"LOG_LEVEL"`
	LogPretty bool          `toml:"log_pretty" envconfig:"LOG_PRETTY"`

	// RetryMax enables the retry interceptor when positive.
	RetryMax int `toml:"retry_max" envconfig:"RETRY_MAX"`
	// Metrics enables the prometheus interceptor.
	Metrics bool `toml:"metrics" envconfig:"METRICS"`
	// LogHTTP logs every request and response at debug level.
	LogHTTP bool `toml:"log_http" envconfig:"LOG_HTTP"`

	// BreakerThreshold opens a circuit after that many consecutive 5xx or
	// transport failures. Zero disables the breaker.
	BreakerThreshold uint32        `toml:"breaker_threshold" envconfig:"BREAKER_THRESHOLD"`
	BreakerCooldown  time.Duration `toml:"breaker_cooldown"  envconfig:"BREAKER_COOLDOWN"`
}

// Defaults returns the settings used when neither file nor environment set a value.
func Defaults() Config {
	return Config{
		BaseURL:   "https://api.themoviedb.org/3",
		SecretEnv: "TMDB_API_KEY_AUTH",
		LogLevel:  "info",
		LogPretty: true,

		BreakerCooldown: 30 * time.Second,
	}
}

// Load starts from Defaults, reads path (if non-empty and present) and then
// applies the environment.
func Load(path string) (Config, error) {
	c := Defaults()
	if path != "" {
		if err := loadFile(path, &c); err != nil {
			return Config{}, err
		}
	}
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, c.Validate()
}

func loadFile(path string, c *Config) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.SecretEnv == "" {
		return errors.New("config: secret_env must not be empty")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must be >= 0")
	}
	if c.RetryMax < 0 {
		return errors.New("config: retry_max must be >= 0")
	}
	if c.BreakerThreshold > 0 && c.BreakerCooldown <= 0 {
		return errors.New("config: breaker_cooldown must be > 0 when the breaker is enabled")
	}
	return nil
}
