// Package config loads runtime configuration from a YAML file and the
// environment. Environment variables use the AGENTPIPE prefix with
// underscores for nesting, e.g. AGENTPIPE_JIRA_TOKEN overrides jira.token.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for a pipeline deployment. Agent
// sections left empty disable the corresponding agent.
type Config struct {
	Log         Log         `mapstructure:"log"`
	Model       Model       `mapstructure:"model"`
	Jira        Jira        `mapstructure:"jira"`
	Bitbucket   Bitbucket   `mapstructure:"bitbucket"`
	ObjectStore ObjectStore `mapstructure:"objectstore"`
	Database    Database    `mapstructure:"database"`
}

// Log configures structured logging output.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Model selects and configures the planning backend.
type Model struct {
	// Provider is one of "anthropic", "openai" or "mock".
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// Jira configures the Jira agent.
type Jira struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Token    string `mapstructure:"token"`
}

// Bitbucket configures the Bitbucket agent.
type Bitbucket struct {
	Workspace   string `mapstructure:"workspace"`
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
}

// ObjectStore configures the S3 compatible object store agent.
type ObjectStore struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	DefaultBucket   string `mapstructure:"default_bucket"`
}

// Database configures the MySQL agent.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Load reads configuration from the given file (optional) merged with
// AGENTPIPE_* environment variables. A missing file is only an error when
// its path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("model.provider", "anthropic")
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("model.max_tokens", 2048)

	v.SetEnvPrefix("AGENTPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("agentpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.agentpipe")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
