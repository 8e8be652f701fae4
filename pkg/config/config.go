// Package config provides configuration management for the bb5enum enumerator.
package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Driver DriverConfig `mapstructure:"driver"`
	IO     IOConfig     `mapstructure:"io"`
	Log    LogConfig    `mapstructure:"log"`
	Pprof  PprofConfig  `mapstructure:"pprof"`
}

// DriverConfig holds parallel-driver configuration.
type DriverConfig struct {
	// WorkerCount is the number of worker goroutines. 0 means one per
	// logical CPU (runtime.NumCPU()); physical cores are not detected.
	WorkerCount int `mapstructure:"worker_count"`
	// StatsInterval is the period, in seconds, between stats printouts.
	StatsInterval int `mapstructure:"stats_interval"`
	// PollIntervalMillis is the sleep-poll backoff, in milliseconds, used by an
	// idle worker waiting on the global task queue.
	PollIntervalMillis int `mapstructure:"poll_interval_millis"`
}

// IOConfig holds the on-disk file locations.
type IOConfig struct {
	ResumeFile string `mapstructure:"resume_file"`
	LogFile    string `mapstructure:"log_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PprofConfig holds self-profiling configuration.
type PprofConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from the specified file path, falling back to
// defaults and environment variables (BB5ENUM_*) when no file is present.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bb5enum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file, defaults + env vars only
		} else if os.IsNotExist(err) {
			// explicit path doesn't exist, defaults + env vars only
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("BB5ENUM")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Driver.WorkerCount == 0 {
		cfg.Driver.WorkerCount = runtime.NumCPU()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Driver.WorkerCount == 0 {
		cfg.Driver.WorkerCount = runtime.NumCPU()
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("driver.worker_count", 0)
	v.SetDefault("driver.stats_interval", 1)
	v.SetDefault("driver.poll_interval_millis", 100)

	v.SetDefault("io.resume_file", "resume")
	v.SetDefault("io.log_file", "log")

	v.SetDefault("log.level", "info")

	v.SetDefault("pprof.enabled", false)
	v.SetDefault("pprof.output_dir", "./pprof")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Driver.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Driver.StatsInterval < 1 {
		return fmt.Errorf("stats interval must be at least 1 second")
	}
	if c.Driver.PollIntervalMillis < 1 {
		return fmt.Errorf("poll interval must be at least 1 millisecond")
	}
	if c.IO.ResumeFile == "" {
		return fmt.Errorf("resume file path is required")
	}
	if c.IO.LogFile == "" {
		return fmt.Errorf("log file path is required")
	}
	return nil
}
