package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/username/prematch/internal/timetable"
)

const (
	DefaultTimezone  = "America/New_York"
	DefaultLimit     = 64
	DefaultRenewCron = "0 */6 * * *"
)

// Config represents application configuration
type Config struct {
	Calendar CalendarConfig `mapstructure:"calendar"`
	Store    StoreConfig    `mapstructure:"store"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
}

// CalendarConfig represents calendar configuration
type CalendarConfig struct {
	Timezone string `mapstructure:"timezone"`
	// Imported on startup when the store holds no definition yet.
	DefinitionFile string `mapstructure:"definition_file"`
	ScheduleFile   string `mapstructure:"schedule_file"`
}

// StoreConfig represents persistence configuration
type StoreConfig struct {
	Type       string `mapstructure:"type" validate:"omitempty,oneof=file sqlite composite"`
	Path       string `mapstructure:"path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// NotifyConfig represents notification configuration
type NotifyConfig struct {
	BriefingTime string `mapstructure:"briefing_time"` // H:MM, school timezone
	Limit        int    `mapstructure:"limit" validate:"gte=0,lte=512"`
	RenewCron    string `mapstructure:"renew_cron"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Load loads configuration from file. Without an explicit path a missing
// config file is not an error and defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("calendar.timezone", DefaultTimezone)
	v.SetDefault("calendar.definition_file", "")
	v.SetDefault("calendar.schedule_file", "")
	v.SetDefault("store.type", "file")
	v.SetDefault("store.path", "prematch-state.json")
	v.SetDefault("store.sqlite_path", "prematch.db")
	v.SetDefault("notify.briefing_time", "6:45")
	v.SetDefault("notify.limit", DefaultLimit)
	v.SetDefault("notify.renew_cron", DefaultRenewCron)
	v.SetDefault("daemon.log_file", "")
	v.SetDefault("daemon.log_level", "info")

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.prematch")
		v.AddConfigPath("/etc/prematch")
	}

	// PREMATCH_NOTIFY_BRIEFING_TIME overrides notify.briefing_time
	v.SetEnvPrefix("prematch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}

	switch c.Store.Type {
	case "", "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for file store")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for sqlite store")
		}
	case "composite":
		if c.Store.Path == "" || c.Store.SQLitePath == "" {
			return fmt.Errorf("store.path and store.sqlite_path are required for composite store")
		}
	}

	if c.Notify.BriefingTime != "" {
		if _, err := timetable.ParseTime(c.Notify.BriefingTime); err != nil {
			return fmt.Errorf("notify.briefing_time: %w", err)
		}
	}
	if c.Notify.RenewCron != "" {
		if _, err := cron.ParseStandard(c.Notify.RenewCron); err != nil {
			return fmt.Errorf("notify.renew_cron: %w", err)
		}
	}

	return nil
}

// GetLocation returns the school timezone. Default: America/New_York
func (c *CalendarConfig) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.LoadLocation(DefaultTimezone)
	}
	return time.LoadLocation(c.Timezone)
}

func (c *StoreConfig) GetType() string {
	if c.Type == "" {
		return "file"
	}
	return c.Type
}

// GetLimit returns how many notifications may be pending at once
func (c *NotifyConfig) GetLimit() int {
	if c.Limit <= 0 {
		return DefaultLimit
	}
	return c.Limit
}

func (c *NotifyConfig) GetRenewCron() string {
	if c.RenewCron == "" {
		return DefaultRenewCron
	}
	return c.RenewCron
}

// GetLogLevel returns the zap level for log_level. Default: info
func (c *DaemonConfig) GetLogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// ExpandEnvVars expands environment variables in config paths
func (c *Config) ExpandEnvVars() {
	c.Calendar.DefinitionFile = os.ExpandEnv(c.Calendar.DefinitionFile)
	c.Calendar.ScheduleFile = os.ExpandEnv(c.Calendar.ScheduleFile)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Store.SQLitePath = os.ExpandEnv(c.Store.SQLitePath)
	c.Daemon.LogFile = os.ExpandEnv(c.Daemon.LogFile)
}
