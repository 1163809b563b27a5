package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration and returns an error when it cannot be
// used. Values that only warrant a warning are replaced with safe fallbacks.
// The API key is the one required secret: its absence is startup-fatal.
func Validate(cfg *Config) error {
	v := ValidateAll(cfg)
	if v.HasErrors() {
		return v
	}
	return nil
}

// ValidateAll runs all checks and returns the collected errors and warnings,
// applying fallbacks for warning-level findings. Callers that want to log
// warnings (e.g. the serve command) use this instead of Validate.
func ValidateAll(cfg *Config) *ValidationError {
	v := &ValidationError{}

	validateUpstream(cfg, v)
	validateServer(cfg, v)
	validateOutput(cfg, v)

	return v
}

func validateUpstream(cfg *Config, v *ValidationError) {
	if cfg.Upstream.APIKey == "" {
		v.Addf("upstream.api_key is required: set BLOCKSAGE_API_KEY (or LEDGERMIND_API_KEY) in the environment")
	}

	if cfg.Upstream.BaseURL == "" {
		v.Addf("upstream.base_url must not be empty")
	} else if u, err := url.Parse(cfg.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		v.Addf("upstream.base_url %q is not a valid URL", cfg.Upstream.BaseURL)
	}

	if cfg.Upstream.KnowledgeBox == "" {
		v.Warnf("upstream.knowledge_box is empty, falling back to %q", DefaultKnowledgeBox)
		cfg.Upstream.KnowledgeBox = DefaultKnowledgeBox
	}

	if cfg.Upstream.Timeout < 0 {
		v.Warnf("upstream.timeout is negative, falling back to %s", DefaultTimeout)
		cfg.Upstream.Timeout = DefaultTimeout
	}
}

func validateServer(cfg *Config, v *ValidationError) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "blocksage"
	}

	if cfg.Server.HistorySize < 1 {
		v.Warnf("server.history_size must be at least 1, falling back to %d", DefaultHistorySize)
		cfg.Server.HistorySize = DefaultHistorySize
	}
}

func validateOutput(cfg *Config, v *ValidationError) {
	levels := []string{"debug", "info", "warn", "error"}
	if cfg.Output.LogLevel != "" && !slices.Contains(levels, cfg.Output.LogLevel) {
		v.Warnf("output.log_level %q is not one of %v, falling back to info", cfg.Output.LogLevel, levels)
		cfg.Output.LogLevel = "info"
	}

	formats := []string{"text", "json"}
	if cfg.Output.Format != "" && !slices.Contains(formats, cfg.Output.Format) {
		v.Warnf("output.format %q is not one of %v, falling back to text", cfg.Output.Format, formats)
		cfg.Output.Format = "text"
	}
}
