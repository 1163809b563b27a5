package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromDirectory(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Upstream.BaseURL)
	assert.Equal(t, DefaultKnowledgeBox, cfg.Upstream.KnowledgeBox)
	assert.Equal(t, DefaultTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, "blocksage", cfg.Server.Name)
	assert.Equal(t, DefaultHistorySize, cfg.Server.HistorySize)
	assert.Equal(t, "info", cfg.Output.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocksage.yaml")
	content := `
upstream:
  api_key: test-key
  knowledge_box: crypto-research
server:
  history_size: 3
output:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Upstream.APIKey)
	assert.Equal(t, "crypto-research", cfg.Upstream.KnowledgeBox)
	assert.Equal(t, 3, cfg.Server.HistorySize)
	assert.Equal(t, "debug", cfg.Output.LogLevel)
	// Values not in the file keep their defaults.
	assert.Equal(t, DefaultBaseURL, cfg.Upstream.BaseURL)
}

func TestLoadDiscoversConfigInSearchPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".blocksage.yml")
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  api_key: found\n"), 0o600))

	cfg, err := LoadFromDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.Upstream.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Run("BLOCKSAGE_API_KEY", func(t *testing.T) {
		t.Setenv("BLOCKSAGE_API_KEY", "env-key")

		cfg, err := LoadFromDirectory(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Upstream.APIKey)
	})

	t.Run("LEDGERMIND_API_KEY fallback", func(t *testing.T) {
		t.Setenv("LEDGERMIND_API_KEY", "provider-key")

		cfg, err := LoadFromDirectory(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "provider-key", cfg.Upstream.APIKey)
	})
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("BS_TEST_SECRET", "s3cret")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "${BS_TEST_SECRET}", "s3cret"},
		{"braced with default used", "${BS_TEST_UNSET:-fallback}", "fallback"},
		{"braced with default ignored", "${BS_TEST_SECRET:-fallback}", "s3cret"},
		{"simple", "$BS_TEST_SECRET", "s3cret"},
		{"unset simple left alone", "$BS_TEST_UNSET", "$BS_TEST_UNSET"},
		{"empty", "", ""},
		{"plain text", "no vars here", "no vars here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVar(tt.input))
		})
	}
}

func TestLoadExpandsAPIKey(t *testing.T) {
	t.Setenv("BS_TEST_KEY", "expanded")

	dir := t.TempDir()
	path := filepath.Join(dir, "blocksage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  api_key: ${BS_TEST_KEY}\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded", cfg.Upstream.APIKey)
}

func TestTimeoutParsing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocksage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("upstream:\n  timeout: 5s\n"), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
}
