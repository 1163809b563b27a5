package cli

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/blocksage/blocksage/internal/config"
)

func TestApplyGlobalFlags(t *testing.T) {
	restore := func() {
		verbose = false
		outputJSON = false
		noColor = false
		logLevel = ""
		cfg = nil
	}
	t.Cleanup(restore)

	t.Run("flags override config", func(t *testing.T) {
		restore()
		cfg = config.DefaultConfig()
		verbose = true
		outputJSON = true
		logLevel = "debug"

		applyGlobalFlags()

		assert.True(t, cfg.Output.Verbose)
		assert.Equal(t, "json", cfg.Output.Format)
		assert.Equal(t, "debug", cfg.Output.LogLevel)
	})

	t.Run("unset flags leave config alone", func(t *testing.T) {
		restore()
		cfg = config.DefaultConfig()
		cfg.Output.LogLevel = "warn"

		applyGlobalFlags()

		assert.False(t, cfg.Output.Verbose)
		assert.Equal(t, "warn", cfg.Output.LogLevel)
	})
}

func TestConfigureLogger(t *testing.T) {
	t.Cleanup(func() {
		cfg = nil
		logger.SetLevel(log.InfoLevel)
	})

	tests := []struct {
		name     string
		logLevel string
		verbose  bool
		want     log.Level
	}{
		{"debug", "debug", false, log.DebugLevel},
		{"info", "info", false, log.InfoLevel},
		{"warn", "warn", false, log.WarnLevel},
		{"error", "error", false, log.ErrorLevel},
		{"unknown falls back to info", "loud", false, log.InfoLevel},
		{"verbose wins", "warn", true, log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = config.DefaultConfig()
			cfg.Output.LogLevel = tt.logLevel
			cfg.Output.Verbose = tt.verbose

			configureLogger()

			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
