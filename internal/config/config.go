package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CRMDESK_"

// Config represents the application configuration
type Config struct {
	Env string `koanf:"env"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	Storage struct {
		Driver      string `koanf:"driver"`
		Path        string `koanf:"path"`
		Key         string `koanf:"key"`
		SettingsKey string `koanf:"settings_key"`
		RedisURL    string `koanf:"redis_url"`
	} `koanf:"storage"`

	Customers struct {
		Path string `koanf:"path"`
	} `koanf:"customers"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// LoadConfig builds the configuration from defaults, an optional TOML file
// and CRMDESK_* environment variables, in that order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"env":                  "development",
		"log.level":            "info",
		"log.format":           "console",
		"storage.driver":       "bolt",
		"storage.key":          "crm-messages",
		"storage.settings_key": "userSettings",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./crmdesk.toml", "$HOME/.crmdesk.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// CRMDESK_STORAGE_REDIS_URL -> storage.redis_url
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func Validate(config *Config) error {
	switch config.Storage.Driver {
	case "bolt", "file", "sqlite", "memory":
	case "redis":
		if config.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", config.Storage.Driver)
	}

	if config.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	if config.Storage.SettingsKey == "" {
		return fmt.Errorf("storage.settings_key is required")
	}
	if config.Storage.SettingsKey == config.Storage.Key {
		return fmt.Errorf("storage.settings_key must differ from storage.key")
	}

	switch config.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", config.Log.Format)
	}

	return nil
}

// InitConfig writes a sample configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# crmdesk configuration

env = "development"

[log]
level = "info"
format = "console"

[storage]
# bolt | file | sqlite | redis | memory
driver = "bolt"
path = ""
key = "crm-messages"
settings_key = "userSettings"
redis_url = ""

[customers]
# YAML customer directory; empty uses the built-in one
path = ""
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}
