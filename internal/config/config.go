// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Interstat InterstatConfig `mapstructure:"interstat"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Board     BoardConfig     `mapstructure:"board"`
	Server    ServerConfig    `mapstructure:"server"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// InterstatConfig holds scoreboard API configuration
type InterstatConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// PipelineConfig holds feature-engineering and scheduling configuration
type PipelineConfig struct {
	WindowSize  int    `mapstructure:"window_size"`
	MinGames    int    `mapstructure:"min_games"`
	RestDefault int    `mapstructure:"rest_default"`
	RestMax     int    `mapstructure:"rest_max"`
	DailyDir    string `mapstructure:"daily_dir"`
	ModelsDir   string `mapstructure:"models_dir"`
	TrainingOut string `mapstructure:"training_out"`
	Schedule    string `mapstructure:"schedule"`
}

// StorageConfig holds the canonical game-log database configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// BoardConfig holds the predictions store configuration. Driver "sqlite"
// keeps everything local; "postgres" targets the shared table the web
// board reads.
type BoardConfig struct {
	Driver      string `mapstructure:"driver"`
	DBPath      string `mapstructure:"db_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// ServerConfig holds the read-only board server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("CBB_PREDS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("interstat.base_url", "https://interst.at")
	v.SetDefault("interstat.timeout", "15s")
	v.SetDefault("interstat.max_retries", 3)
	v.SetDefault("interstat.retry_delay_base", "1s")

	v.SetDefault("pipeline.window_size", 5)
	v.SetDefault("pipeline.min_games", 3)
	v.SetDefault("pipeline.rest_default", 7)
	v.SetDefault("pipeline.rest_max", 14)
	v.SetDefault("pipeline.daily_dir", "./data/daily")
	v.SetDefault("pipeline.models_dir", "./models")
	v.SetDefault("pipeline.training_out", "./data/training_games.csv")
	v.SetDefault("pipeline.schedule", "5 9 * * *")

	v.SetDefault("storage.db_path", "./data/games.db")

	v.SetDefault("board.driver", "sqlite")
	v.SetDefault("board.db_path", "./data/board.db")
	v.SetDefault("board.postgres_dsn", "")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Interstat.BaseURL == "" {
		return fmt.Errorf("interstat.base_url is required")
	}
	if c.Interstat.Timeout < time.Second {
		return fmt.Errorf("interstat.timeout must be at least 1 second")
	}
	if c.Interstat.MaxRetries < 1 {
		return fmt.Errorf("interstat.max_retries must be at least 1")
	}

	if c.Pipeline.WindowSize < 1 {
		return fmt.Errorf("pipeline.window_size must be at least 1")
	}
	if c.Pipeline.MinGames < 0 {
		return fmt.Errorf("pipeline.min_games must not be negative")
	}
	if c.Pipeline.RestDefault < 0 {
		return fmt.Errorf("pipeline.rest_default must not be negative")
	}
	if c.Pipeline.RestMax < c.Pipeline.RestDefault {
		return fmt.Errorf("pipeline.rest_max must be at least pipeline.rest_default")
	}
	if c.Pipeline.DailyDir == "" {
		return fmt.Errorf("pipeline.daily_dir is required")
	}
	if c.Pipeline.Schedule == "" {
		return fmt.Errorf("pipeline.schedule is required")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	switch c.Board.Driver {
	case "sqlite":
		if c.Board.DBPath == "" {
			return fmt.Errorf("board.db_path is required when board.driver is sqlite")
		}
	case "postgres":
		if c.Board.PostgresDSN == "" {
			return fmt.Errorf("board.postgres_dsn is required when board.driver is postgres")
		}
	default:
		return fmt.Errorf("board.driver must be one of: sqlite, postgres")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
