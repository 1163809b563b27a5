package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	bserrors "github.com/blocksage/blocksage/internal/errors"
)

// Pre-compiled regex patterns for environment variable expansion.
var (
	// envVarPattern matches ${VAR} or ${VAR:-default} syntax
	envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)
	// simpleEnvVarPattern matches $VAR syntax
	simpleEnvVarPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("BLOCKSAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		searchPaths: []string{"."},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// Load loads the configuration.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	l.setDefaults()

	// Pick up provider credentials from the environment when the config
	// file doesn't name any. BLOCKSAGE_UPSTREAM_API_KEY wins via
	// AutomaticEnv; LEDGERMIND_API_KEY is the provider's conventional name.
	l.detectAPIKey()

	if err := l.loadConfigFile(); err != nil {
		return nil, bserrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, bserrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	// Expand environment variables in sensitive fields
	cfg.Upstream.APIKey = expandEnvVar(cfg.Upstream.APIKey)
	cfg.Upstream.BaseURL = expandEnvVar(cfg.Upstream.BaseURL)

	return cfg, nil
}

// setDefaults sets default values using Viper.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("upstream.base_url", defaults.Upstream.BaseURL)
	l.v.SetDefault("upstream.knowledge_box", defaults.Upstream.KnowledgeBox)
	l.v.SetDefault("upstream.timeout", defaults.Upstream.Timeout)

	l.v.SetDefault("server.name", defaults.Server.Name)
	l.v.SetDefault("server.history_size", defaults.Server.HistorySize)

	l.v.SetDefault("output.log_level", defaults.Output.LogLevel)
	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.color", defaults.Output.Color)
	l.v.SetDefault("output.verbose", defaults.Output.Verbose)
}

// detectAPIKey defaults the API key from well-known environment variables.
func (l *Loader) detectAPIKey() {
	if os.Getenv("BLOCKSAGE_API_KEY") != "" {
		l.v.SetDefault("upstream.api_key", "${BLOCKSAGE_API_KEY}")
		return
	}
	if os.Getenv("LEDGERMIND_API_KEY") != "" {
		l.v.SetDefault("upstream.api_key", "${LEDGERMIND_API_KEY}")
	}
}

// loadConfigFile loads the configuration file.
func (l *Loader) loadConfigFile() error {
	// If explicit path provided, use it
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", l.configPath, err)
		}
		return nil
	}

	// Search for config file in paths
	for _, searchPath := range l.searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					l.v.SetConfigFile(configFile)
					if err := l.v.ReadInConfig(); err != nil {
						return fmt.Errorf("reading config file %s: %w", configFile, err)
					}
					return nil
				}
			}
		}
	}

	// No config file found - this is OK, we use defaults
	return nil
}

// expandEnvVar expands environment variables in a string.
// Supports both ${VAR} and $VAR syntax, plus ${VAR:-default}.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultValue := ""
		if len(submatch) > 2 {
			defaultValue = submatch[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})

	result = simpleEnvVarPattern.ReplaceAllStringFunc(result, func(match string) string {
		varName := match[1:]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	return result
}

// GetConfigPath returns the path to the loaded config file, if any.
func (l *Loader) GetConfigPath() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// LoadFromDirectory loads configuration from a directory.
func LoadFromDirectory(dir string) (*Config, error) {
	return NewLoader().WithSearchPaths(dir).Load()
}
