package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocksage/blocksage/internal/config"
)

type stubPinger struct {
	response json.RawMessage
	err      error
}

func (p *stubPinger) Ping(_ context.Context) (json.RawMessage, error) {
	return p.response, p.err
}

func healthyConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Upstream.APIKey = "test-key"
	return cfg
}

func componentByName(t *testing.T, report *HealthReport, name string) ComponentHealth {
	t.Helper()
	for _, c := range report.Components {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("component %q not in report", name)
	return ComponentHealth{}
}

func TestHealthReportHealthy(t *testing.T) {
	report := buildHealthReport(context.Background(), healthyConfig(),
		&stubPinger{response: json.RawMessage(`{"status":"ok"}`)})

	assert.Equal(t, HealthStatusHealthy, report.Status)

	upstream := componentByName(t, report, "ledgermind")
	assert.Equal(t, HealthStatusHealthy, upstream.Status)

	cfgHealth := componentByName(t, report, "config")
	assert.Equal(t, HealthStatusHealthy, cfgHealth.Status)
}

func TestHealthReportMissingAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()

	report := buildHealthReport(context.Background(), cfg, nil)

	assert.Equal(t, HealthStatusUnhealthy, report.Status)

	cfgHealth := componentByName(t, report, "config")
	assert.Equal(t, HealthStatusUnhealthy, cfgHealth.Status)
	assert.Contains(t, cfgHealth.Message, "api_key")

	upstream := componentByName(t, report, "ledgermind")
	assert.Equal(t, HealthStatusUnhealthy, upstream.Status)
}

func TestHealthReportUpstreamDown(t *testing.T) {
	report := buildHealthReport(context.Background(), healthyConfig(),
		&stubPinger{err: assert.AnError})

	assert.Equal(t, HealthStatusUnhealthy, report.Status)

	upstream := componentByName(t, report, "ledgermind")
	assert.Equal(t, HealthStatusUnhealthy, upstream.Status)
}

func TestHealthReportConfigWarningDegrades(t *testing.T) {
	cfg := healthyConfig()
	cfg.Server.HistorySize = 0

	report := buildHealthReport(context.Background(), cfg,
		&stubPinger{response: json.RawMessage(`{}`)})

	assert.Equal(t, HealthStatusDegraded, report.Status)

	cfgHealth := componentByName(t, report, "config")
	assert.Equal(t, HealthStatusDegraded, cfgHealth.Status)
}

func TestHealthReportEnvironment(t *testing.T) {
	report := buildHealthReport(context.Background(), healthyConfig(),
		&stubPinger{response: json.RawMessage(`{}`)})

	require.Contains(t, report.Environment, "go_version")
	require.Contains(t, report.Environment, "os")
	require.Contains(t, report.Environment, "arch")
}
