package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Container ContainerConfig `mapstructure:"container"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Export    ExportConfig    `mapstructure:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ContainerConfig contains container provisioning configuration
type ContainerConfig struct {
	DefaultName  string `mapstructure:"default_name"`
	Image        string `mapstructure:"image"`
	FallbackUser string `mapstructure:"fallback_user"`
	WaitAttempts int    `mapstructure:"wait_attempts"`
	WaitInterval int    `mapstructure:"wait_interval_seconds"`
}

// PathsConfig contains path-related configuration
type PathsConfig struct {
	DataDir string `mapstructure:"data_dir"`
	DBFile  string `mapstructure:"db_file"`
	LogFile string `mapstructure:"log_file"`
}

// ExportConfig contains desktop export configuration
type ExportConfig struct {
	AppsDir string `mapstructure:"apps_dir"`
	BinDir  string `mapstructure:"bin_dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".config", "pacbox"))
	}
	viper.AddConfigPath(".")

	setDefaults()

	// Environment variable overrides
	viper.SetEnvPrefix("PACBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found - use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.DataDir = expandPath(cfg.Paths.DataDir)
	cfg.Paths.DBFile = expandPath(cfg.Paths.DBFile)
	cfg.Paths.LogFile = expandPath(cfg.Paths.LogFile)
	cfg.Export.AppsDir = expandPath(cfg.Export.AppsDir)
	cfg.Export.BinDir = expandPath(cfg.Export.BinDir)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}
	if homeDir == "" {
		homeDir = "."
	}

	viper.SetDefault("container.default_name", "archbox")
	viper.SetDefault("container.image", "docker.io/library/archlinux:latest")
	viper.SetDefault("container.fallback_user", "deck")
	viper.SetDefault("container.wait_attempts", 60)
	viper.SetDefault("container.wait_interval_seconds", 2)

	viper.SetDefault("paths.data_dir", filepath.Join(homeDir, ".local", "share", "pacbox"))
	viper.SetDefault("paths.db_file", filepath.Join(homeDir, ".local", "share", "pacbox", "containers.db"))
	viper.SetDefault("paths.log_file", filepath.Join(homeDir, ".local", "share", "pacbox", "pacbox.log"))

	viper.SetDefault("export.apps_dir", filepath.Join(homeDir, ".local", "share", "applications"))
	viper.SetDefault("export.bin_dir", filepath.Join(homeDir, ".local", "bin"))

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.color", "auto")
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}
