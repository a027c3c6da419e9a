package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Provider settings and seed records are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Providers ProvidersConfig `yaml:"providers"`
	Display   DisplayConfig   `yaml:"display"`
	Seed      []SeedEntity    `yaml:"seed"`
}

// ProvidersConfig overrides the fallback image services.
type ProvidersConfig struct {
	Keyword           string `yaml:"keyword,omitempty"`
	Category          string `yaml:"category,omitempty"`
	Placeholder       string `yaml:"placeholder,omitempty"`
	Width             int    `yaml:"width,omitempty"`
	Height            int    `yaml:"height,omitempty"`
	VerifyPlaceholder *bool  `yaml:"verify_placeholder,omitempty"`
}

// DisplayConfig overrides the display retry policy.
type DisplayConfig struct {
	RetryBudget    int           `yaml:"retry_budget,omitempty"`
	PollInterval   time.Duration `yaml:"poll_interval,omitempty"`
	PreloadTimeout time.Duration `yaml:"preload_timeout,omitempty"`
}

// SeedEntity is a development record inserted when the database is empty.
type SeedEntity struct {
	Kind        string   `yaml:"kind"` // place, hotel or restaurant
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type,omitempty"`
	Location    string   `yaml:"location,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Images      []string `yaml:"images,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	path := getEnv("CONFIG_FILE", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	for i := range cfg.Seed {
		if cfg.Seed[i].Kind == "" {
			cfg.Seed[i].Kind = "place"
		}
	}

	return &cfg, nil
}

// Apply copies the values set in the file over c.
func (y *YAMLConfig) Apply(c *Config) {
	if y == nil {
		return
	}
	if y.Providers.Keyword != "" {
		c.KeywordProviderURL = y.Providers.Keyword
	}
	if y.Providers.Category != "" {
		c.CategoryProviderURL = y.Providers.Category
	}
	if y.Providers.Placeholder != "" {
		c.PlaceholderProviderURL = y.Providers.Placeholder
	}
	if y.Providers.VerifyPlaceholder != nil {
		c.VerifyPlaceholder = *y.Providers.VerifyPlaceholder
	}
	if y.Display.RetryBudget > 0 {
		c.RetryBudget = y.Display.RetryBudget
	}
	if y.Display.PollInterval > 0 {
		c.PollInterval = y.Display.PollInterval
	}
	if y.Display.PreloadTimeout > 0 {
		c.PreloadTimeout = y.Display.PreloadTimeout
	}
}

// ImageSize returns the configured provider image size, or zeros for the defaults.
func (y *YAMLConfig) ImageSize() (width, height int) {
	if y == nil {
		return 0, 0
	}
	return y.Providers.Width, y.Providers.Height
}

// SeedEntities returns the seed records, or nil when no file was loaded.
func (y *YAMLConfig) SeedEntities() []SeedEntity {
	if y == nil {
		return nil
	}
	return y.Seed
}
