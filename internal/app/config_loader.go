package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// ConfigLoader loads configuration and keeps the viper handle around
// so callers can watch the file for changes.
type ConfigLoader struct {
	v *viper.Viper
}

// NewConfigLoader creates a new config loader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{v: viper.New()}
}

// Load loads configuration from file and environment
func (l *ConfigLoader) Load(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	l.v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		l.v.SetConfigName("config")
		l.v.AddConfigPath("./configs")
		l.v.AddConfigPath("$HOME/.media-grab")
		l.v.AddConfigPath("/etc/media-grab")
	}

	// Read environment variables
	l.v.SetEnvPrefix("MEDIAGRAB")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	// Try to read config file
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Watch re-reads the config file whenever it changes and hands the
// freshly unmarshalled config to onChange. Unparseable edits are
// reported through onError and the previous config stays active.
func (l *ConfigLoader) Watch(onChange func(*domain.Config), onError func(error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		config := domain.DefaultConfig()
		if err := l.v.Unmarshal(config); err != nil {
			onError(fmt.Errorf("failed to unmarshal config: %w", err))
			return
		}
		config = expandPaths(config)
		if err := validateConfig(config); err != nil {
			onError(fmt.Errorf("invalid configuration: %w", err))
			return
		}
		onChange(config)
	})
	l.v.WatchConfig()
}

// LoadConfig loads configuration without keeping a watch handle.
func LoadConfig(configPath string) (*domain.Config, error) {
	return NewConfigLoader().Load(configPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Ytdlp.TempDir = expandPath(config.Ytdlp.TempDir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Expand environment variables
	path = os.ExpandEnv(path)

	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.MaxFilesize < 1 {
		return fmt.Errorf("max filesize must be positive")
	}

	if config.Download.MaxDownloads < 1 {
		return fmt.Errorf("max downloads must be at least 1")
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
