package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/blocksage/blocksage/internal/config"
	"github.com/blocksage/blocksage/internal/upstream"
)

// HealthStatus represents the overall health status.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusDegraded indicates some non-critical checks failed.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusUnhealthy indicates critical checks failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Latency time.Duration     `json:"latency_ms,omitempty"`
}

// HealthReport contains the full health check results.
type HealthReport struct {
	Status      HealthStatus      `json:"status"`
	Version     string            `json:"version"`
	Timestamp   time.Time         `json:"timestamp"`
	Components  []ComponentHealth `json:"components"`
	Environment map[string]string `json:"environment,omitempty"`
}

// pinger is the slice of the upstream client the health check needs.
type pinger interface {
	Ping(ctx context.Context) (json.RawMessage, error)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the LedgerMind service",
	Long: `Perform health checks on blocksage and its upstream dependency.

This command verifies:
  - Configuration validity (API key present, base URL well-formed)
  - LedgerMind API reachability and response latency

Exit codes:
  0 - All checks passed (healthy)
  1 - Some non-critical checks failed (degraded)
  2 - Critical checks failed (unhealthy)`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var client pinger
	if cfg.Upstream.APIKey != "" {
		c, err := upstream.New(cfg.Upstream,
			upstream.WithUserAgent("blocksage/"+versionInfo.Version))
		if err == nil {
			client = c
		}
	}

	report := buildHealthReport(ctx, cfg, client)

	if outputJSON || cfg.Output.Format == "json" {
		return outputHealthJSON(report)
	}
	return outputHealthText(report)
}

// buildHealthReport runs all checks and aggregates the overall status.
// A nil client marks the upstream check unhealthy without a network call.
func buildHealthReport(ctx context.Context, cfg *config.Config, client pinger) *HealthReport {
	report := &HealthReport{
		Status:      HealthStatusHealthy,
		Version:     versionInfo.Version,
		Timestamp:   time.Now().UTC(),
		Components:  make([]ComponentHealth, 0),
		Environment: make(map[string]string),
	}

	report.Environment["go_version"] = runtime.Version()
	report.Environment["os"] = runtime.GOOS
	report.Environment["arch"] = runtime.GOARCH

	checks := []struct {
		check    func() ComponentHealth
		critical bool
	}{
		{func() ComponentHealth { return checkConfig(cfg) }, true},
		{func() ComponentHealth { return checkUpstream(ctx, cfg, client) }, true},
	}

	for _, c := range checks {
		health := c.check()
		report.Components = append(report.Components, health)

		switch {
		case health.Status == HealthStatusUnhealthy && c.critical:
			report.Status = HealthStatusUnhealthy
		case health.Status == HealthStatusUnhealthy && report.Status == HealthStatusHealthy:
			report.Status = HealthStatusDegraded
		case health.Status == HealthStatusDegraded && report.Status == HealthStatusHealthy:
			report.Status = HealthStatusDegraded
		}
	}

	return report
}

func checkConfig(cfg *config.Config) ComponentHealth {
	health := ComponentHealth{
		Name:    "config",
		Details: make(map[string]string),
	}

	health.Details["base_url"] = cfg.Upstream.BaseURL
	health.Details["knowledge_box"] = cfg.Upstream.KnowledgeBox

	validation := config.ValidateAll(cfg)
	if validation.HasErrors() {
		health.Status = HealthStatusUnhealthy
		health.Message = validation.Errors[0]
		return health
	}

	if validation.HasWarnings() {
		health.Status = HealthStatusDegraded
		health.Message = validation.Warnings[0]
		return health
	}

	health.Status = HealthStatusHealthy
	health.Message = "configuration is valid"
	return health
}

func checkUpstream(ctx context.Context, cfg *config.Config, client pinger) ComponentHealth {
	health := ComponentHealth{
		Name:    "ledgermind",
		Details: make(map[string]string),
	}

	health.Details["base_url"] = cfg.Upstream.BaseURL

	if client == nil {
		health.Status = HealthStatusUnhealthy
		health.Message = "upstream client unavailable (missing API key?)"
		return health
	}

	start := time.Now()
	_, err := client.Ping(ctx)
	health.Latency = time.Since(start)

	if err != nil {
		health.Status = HealthStatusUnhealthy
		health.Message = err.Error()
		return health
	}

	health.Status = HealthStatusHealthy
	health.Message = "LedgerMind API is reachable"
	return health
}

func outputHealthJSON(report *HealthReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}

	return exitWithHealthStatus(report.Status)
}

func outputHealthText(report *HealthReport) error {
	statusIcon := "?"
	switch report.Status {
	case HealthStatusHealthy:
		statusIcon = styles.Success.Render("healthy")
	case HealthStatusDegraded:
		statusIcon = styles.Warning.Render("degraded")
	case HealthStatusUnhealthy:
		statusIcon = styles.Error.Render("unhealthy")
	}

	fmt.Printf("Health Status: %s\n", statusIcon)
	fmt.Printf("Version: %s\n", report.Version)
	fmt.Printf("Timestamp: %s\n\n", report.Timestamp.Format(time.RFC3339))

	fmt.Println("Components:")
	for _, c := range report.Components {
		icon := "?"
		switch c.Status {
		case HealthStatusHealthy:
			icon = styles.Success.Render("[OK]")
		case HealthStatusDegraded:
			icon = styles.Warning.Render("[WARN]")
		case HealthStatusUnhealthy:
			icon = styles.Error.Render("[FAIL]")
		}

		latencyStr := ""
		if c.Latency > 0 {
			latencyStr = fmt.Sprintf(" (%dms)", c.Latency.Milliseconds())
		}

		fmt.Printf("  %s %s: %s%s\n", icon, c.Name, c.Message, latencyStr)

		if verbose && len(c.Details) > 0 {
			for k, v := range c.Details {
				fmt.Printf("      %s: %s\n", k, v)
			}
		}
	}

	if verbose && len(report.Environment) > 0 {
		fmt.Println("\nEnvironment:")
		for k, v := range report.Environment {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	return exitWithHealthStatus(report.Status)
}

func exitWithHealthStatus(status HealthStatus) error {
	switch status {
	case HealthStatusHealthy:
		return nil
	case HealthStatusDegraded:
		os.Exit(1)
	case HealthStatusUnhealthy:
		os.Exit(2)
	}
	return nil
}
