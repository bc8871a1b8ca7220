package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StorageConfig controls where state is persisted.
type StorageConfig struct {
	// Path is the SQLite database file. ":memory:" keeps state in-process.
	Path string `mapstructure:"path" yaml:"path"`
}

// SchedulerConfig holds the recurring timer intervals.
type SchedulerConfig struct {
	// TickIntervalSec drives live elapsed-time updates.
	TickIntervalSec int `mapstructure:"tick_interval_sec" yaml:"tick_interval_sec"`

	// ScanIntervalSec drives deadline scans and automation rules.
	ScanIntervalSec int `mapstructure:"scan_interval_sec" yaml:"scan_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme is "light", "dark" or empty to follow the terminal background.
	Theme        string `mapstructure:"theme" yaml:"theme"`
	ScoreFlashMs int    `mapstructure:"score_flash_ms" yaml:"score_flash_ms"`
}

// LogConfig controls the debug log destination.
type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/tasktrack, or the working directory when the
// home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "tasktrack")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tasktrack/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Storage: StorageConfig{
			Path: filepath.Join(dir, "tasktrack.db"),
		},
		Scheduler: SchedulerConfig{
			TickIntervalSec: 1,
			ScanIntervalSec: 60,
		},
		Display: DisplayConfig{
			ScoreFlashMs: 2000,
		},
		Log: LogConfig{
			File: filepath.Join(dir, "debug.log"),
		},
	}
}

// newViper returns a viper instance with defaults and TASKTRACK_* env
// overrides registered.
func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("scheduler.tick_interval_sec", def.Scheduler.TickIntervalSec)
	v.SetDefault("scheduler.scan_interval_sec", def.Scheduler.ScanIntervalSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.score_flash_ms", def.Display.ScoreFlashMs)
	v.SetDefault("log.file", def.Log.File)

	v.SetEnvPrefix("TASKTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults, still subject to env overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Scheduler.TickIntervalSec <= 0 {
		cfg.Scheduler.TickIntervalSec = 1
	}
	if cfg.Scheduler.ScanIntervalSec <= 0 {
		cfg.Scheduler.ScanIntervalSec = 60
	}
	if cfg.Display.ScoreFlashMs <= 0 {
		cfg.Display.ScoreFlashMs = 2000
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("scheduler", cfg.Scheduler)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
