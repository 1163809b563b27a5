// Package config provides configuration management for blocksage.
package config

import (
	"time"
)

// Config file discovery settings.
var (
	// ConfigFileNames are the base names searched for config files.
	ConfigFileNames = []string{"blocksage", ".blocksage"}
	// ConfigFileExtensions are the supported config file extensions.
	ConfigFileExtensions = []string{"yaml", "yml"}
)

// Default configuration values.
const (
	// DefaultBaseURL is the fixed LedgerMind API endpoint.
	DefaultBaseURL = "https://api.ledgermind.io"
	// DefaultKnowledgeBox is the knowledge box used when a query does not name one.
	DefaultKnowledgeBox = "public-knowledge-box"
	// DefaultHistorySize is the number of recent search results kept for resources.
	DefaultHistorySize = 5
	// DefaultTimeout is the HTTP client timeout for upstream calls.
	DefaultTimeout = 30 * time.Second
)

// Config is the root configuration for blocksage.
type Config struct {
	// Upstream configures the LedgerMind API client.
	Upstream UpstreamConfig `mapstructure:"upstream" json:"upstream"`
	// Server configures the MCP server.
	Server ServerConfig `mapstructure:"server" json:"server"`
	// Output configures logging and output settings.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// UpstreamConfig configures the LedgerMind API client.
type UpstreamConfig struct {
	// BaseURL is the API endpoint. Fixed to the provider's domain by default.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// APIKey is the LedgerMind API key. Required; supports ${VAR} expansion.
	APIKey string `mapstructure:"api_key" json:"-"`
	// KnowledgeBox is the default knowledge box for search and agent queries.
	KnowledgeBox string `mapstructure:"knowledge_box" json:"knowledge_box"`
	// Timeout is the HTTP client timeout. There is no per-request override;
	// upstream calls run to completion or to this client-level deadline.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name advertised during the MCP handshake.
	Name string `mapstructure:"name" json:"name"`
	// HistorySize bounds the recent-results cache exposed as resources.
	HistorySize int `mapstructure:"history_size" json:"history_size"`
}

// OutputConfig configures logging and output settings.
type OutputConfig struct {
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	// Format is the output format (text, json).
	Format string `mapstructure:"format" json:"format"`
	// Color enables colored terminal output.
	Color bool `mapstructure:"color" json:"color"`
	// Verbose enables verbose output.
	Verbose bool `mapstructure:"verbose" json:"verbose"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:      DefaultBaseURL,
			KnowledgeBox: DefaultKnowledgeBox,
			Timeout:      DefaultTimeout,
		},
		Server: ServerConfig{
			Name:        "blocksage",
			HistorySize: DefaultHistorySize,
		},
		Output: OutputConfig{
			LogLevel: "info",
			Format:   "text",
			Color:    true,
		},
	}
}
