package config

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-replay/internal/logger"
	"github.com/sevigo/pr-replay/internal/state"
)

// Config holds the application's configuration values.
type Config struct {
	GitHubToken string
	StateDir    string
	Log         logger.Config
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and resolves the session state directory. It uses
// the Viper library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stderr")
	viper.SetDefault("STATE_DIR", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	stateDir := viper.GetString("STATE_DIR")
	if stateDir == "" {
		dir, err := state.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state directory: %w", err)
		}
		stateDir = dir
	}

	return &Config{
		GitHubToken: viper.GetString("GITHUB_TOKEN"),
		StateDir:    stateDir,
		Log: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
			File:   viper.GetString("LOG_FILE"),
		},
	}, nil
}
