package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	Ytdlp    YtdlpConfig    `mapstructure:"ytdlp"`
	Cobalt   CobaltConfig   `mapstructure:"cobalt"`
	URLRules []URLRule      `mapstructure:"url_rules"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains request-level download defaults
type DownloadConfig struct {
	// MaxFilesize is the default byte budget for one acquired file.
	MaxFilesize int64 `mapstructure:"max_filesize"`

	// MaxDownloads caps how many items are processed from one URL
	// (playlists, multi-image posts and the like).
	MaxDownloads int64 `mapstructure:"max_downloads"`

	// OutputDir is where the API persists acquired media.
	OutputDir string `mapstructure:"output_dir"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// YtdlpConfig contains configuration for the local extractor backend
type YtdlpConfig struct {
	Binary  string `mapstructure:"binary"`
	TempDir string `mapstructure:"temp_dir"`
}

// CobaltConfig contains configuration for the remote API backend.
// The backend is optional; an empty BaseURL disables it.
type CobaltConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// URLRule is one URL-rewrite rule: the first pattern whose substitution
// changes the URL (and still parses as an absolute URL) wins.
type URLRule struct {
	Patterns    []string `mapstructure:"patterns"`
	Replacement string   `mapstructure:"replacement"`
}

// HistoryConfig contains download-history persistence configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			MaxFilesize:    10 << 20,
			MaxDownloads:   10,
			OutputDir:      "$HOME/Downloads/media-grab",
			RequestTimeout: 10 * time.Minute,
		},
		Ytdlp: YtdlpConfig{
			Binary:  "yt-dlp",
			TempDir: "",
		},
		Cobalt: CobaltConfig{
			BaseURL: "",
			APIKey:  "",
		},
		URLRules: nil,
		History: HistoryConfig{
			DatabasePath: "$HOME/Downloads/media-grab/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
