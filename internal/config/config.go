// Package config provides configuration loading, validation, and defaults
// for the activity bot. It reads config.yaml with a BOT_* environment
// overlay and validates the result with struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Linker    LinkerConfig    `mapstructure:"linker"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the chat command surface settings. BotInfo is filled
// at startup, not from the file.
type TelegramConfig struct {
	Token   string       `mapstructure:"token"    validate:"required"`
	AdminID int64        `mapstructure:"admin_id" validate:"required,gt=0"`
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite path.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HTTPConfig holds the web surface listen address.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// IngestConfig bounds the history sweep.
type IngestConfig struct {
	Channels     []string `mapstructure:"channels"`
	LookbackDays int      `mapstructure:"lookback_days" validate:"min=1"`
}

// LinkerConfig holds the primary connection descriptor and the credential
// sets for the external account-mapping sources. Incomplete credential sets
// are skipped at run time, not rejected here.
type LinkerConfig struct {
	Host        string             `mapstructure:"host"`
	Port        int                `mapstructure:"port"`
	Path        string             `mapstructure:"path"`
	Credentials []CredentialConfig `mapstructure:"credentials"`
}

// CredentialConfig is one username/password pair.
type CredentialConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ScoringConfig selects the scoring policy and flag variants.
type ScoringConfig struct {
	Policy                   string `mapstructure:"policy" validate:"omitempty,oneof=canonical legacy"`
	CorrectedInteractionFlag bool   `mapstructure:"corrected_interaction_flag"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LoadConfig reads the YAML file at path (optional), overlays BOT_*
// environment variables, applies defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env and defaults still apply. With an
		// explicit config file viper reports a plain path error, not its
		// ConfigFileNotFoundError.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("database.path", "storage.db")
	v.SetDefault("http.addr", ":8000")

	v.SetDefault("ingest.lookback_days", 30)

	v.SetDefault("linker.port", 22)

	v.SetDefault("scoring.policy", "canonical")
	v.SetDefault("scoring.corrected_interaction_flag", false)
}
