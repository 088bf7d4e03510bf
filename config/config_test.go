package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 8282, cfg.Server.Port)
	assert.Equal(t, "TimeReport.db", cfg.Database.Path)
	assert.Equal(t, "America/Chicago", cfg.Facility.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.CheckInterval)
	assert.Equal(t, 23, cfg.Schedule.StartHour)
	assert.Equal(t, 3, cfg.Schedule.EndHour)
	assert.Equal(t, "TimeCardReports", cfg.Report.Dir)
	assert.True(t, cfg.Report.Punches)

	wd, err := cfg.Schedule.ParsedWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
}

func TestLoad_FileAndEnv(t *testing.T) {
	// GIVEN: A config file and an env override
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "timeclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /var/lib/timeclock/TimeReport.db
schedule:
  weekday: Tuesday
  check_interval: 5m
report:
  xlsx: true
`), 0o644))
	t.Setenv("TIMECLOCK_SERVER_PORT", "9100")

	// WHEN: Loading
	cfg, err := Load(path)

	// THEN: Env beats file beats defaults
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/var/lib/timeclock/TimeReport.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Schedule.CheckInterval)
	assert.True(t, cfg.Report.XLSX)
	wd, err := cfg.Schedule.ParsedWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, wd)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8282},
			Database: DatabaseConfig{Path: ":memory:"},
			Facility: FacilityConfig{Timezone: "America/Chicago"},
			Schedule: ScheduleConfig{CheckInterval: time.Minute, Weekday: "monday", StartHour: 23, EndHour: 3},
			Report:   ReportConfig{Dir: "out"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"db path", func(c *Config) { c.Database.Path = "" }},
		{"timezone", func(c *Config) { c.Facility.Timezone = "Nowhere/Land" }},
		{"weekday", func(c *Config) { c.Schedule.Weekday = "funday" }},
		{"hour", func(c *Config) { c.Schedule.EndHour = 24 }},
		{"interval", func(c *Config) { c.Schedule.CheckInterval = 0 }},
		{"report dir", func(c *Config) { c.Report.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
}
