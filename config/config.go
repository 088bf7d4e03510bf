// Package config loads service configuration.
//
// Precedence: environment (TIMECLOCK_*) > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Facility FacilityConfig `mapstructure:"facility"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig points at the SQLite file. ":memory:" is accepted.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// FacilityConfig fixes the single timezone all punches are read in.
type FacilityConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// ScheduleConfig describes the weekly report window. The window opens at
// StartHour on Weekday and closes at EndHour, wrapping past midnight when
// EndHour <= StartHour.
type ScheduleConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Weekday       string        `mapstructure:"weekday"`
	StartHour     int           `mapstructure:"start_hour"`
	EndHour       int           `mapstructure:"end_hour"`
}

// ReportConfig controls the artifacts written per run.
type ReportConfig struct {
	Dir     string `mapstructure:"dir"`
	XLSX    bool   `mapstructure:"xlsx"`
	Punches bool   `mapstructure:"punches"`
}

// LogConfig configures zap and the optional rotating file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// ParsedWeekday returns Weekday as a time.Weekday.
func (s ScheduleConfig) ParsedWeekday() (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s.Weekday))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s.Weekday)
	}
	return wd, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8282)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:8282"})

	v.SetDefault("db.path", "TimeReport.db")

	v.SetDefault("facility.timezone", "America/Chicago")

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.check_interval", "15m")
	v.SetDefault("schedule.weekday", "monday")
	v.SetDefault("schedule.start_hour", 23)
	v.SetDefault("schedule.end_hour", 3)

	v.SetDefault("report.dir", "TimeCardReports")
	v.SetDefault("report.xlsx", false)
	v.SetDefault("report.punches", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// Load reads configuration from path (or ./config.yaml, ./config/config.yaml
// when empty), the environment and defaults.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TIMECLOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("config: db.path is required")
	}
	if _, err := time.LoadLocation(c.Facility.Timezone); err != nil {
		return fmt.Errorf("config: facility.timezone: %w", err)
	}
	if _, err := c.Schedule.ParsedWeekday(); err != nil {
		return fmt.Errorf("config: schedule.weekday: %w", err)
	}
	if c.Schedule.StartHour < 0 || c.Schedule.StartHour > 23 || c.Schedule.EndHour < 0 || c.Schedule.EndHour > 23 {
		return fmt.Errorf("config: schedule hours must be in 0-23, got %d-%d", c.Schedule.StartHour, c.Schedule.EndHour)
	}
	if c.Schedule.CheckInterval <= 0 {
		return fmt.Errorf("config: schedule.check_interval must be positive, got %s", c.Schedule.CheckInterval)
	}
	if c.Report.Dir == "" {
		return errors.New("config: report.dir is required")
	}
	return nil
}
