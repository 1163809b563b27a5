package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blocksage/blocksage/internal/config"
	"github.com/blocksage/blocksage/internal/mcp"
	"github.com/blocksage/blocksage/internal/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server for AI agent communication.

The server speaks newline-delimited JSON-RPC over stdin/stdout, so it
is meant to be launched by an MCP client rather than run interactively.
All logging goes to stderr.

Tools available via MCP:
  - ping:   Check connectivity to the LedgerMind service
  - search: Search a knowledge box for blockchain documentation
  - agent:  Ask the conversational blockchain agent

Resources available:
  - blocksage://searches/<index>: Recent results, 0 = most recent

An API key is required. Set it via BLOCKSAGE_API_KEY, LEDGERMIND_API_KEY,
or upstream.api_key in the config file.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Stdout carries the protocol; structured logs go to stderr.
	level := slog.LevelInfo
	if cfg.Output.LogLevel == "debug" || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	serveLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	validation := config.ValidateAll(cfg)
	for _, warning := range validation.Warnings {
		serveLogger.Warn("config warning", "warning", warning)
	}
	if validation.HasErrors() {
		return fmt.Errorf("invalid configuration: %w", validation)
	}

	client, err := upstream.New(cfg.Upstream,
		upstream.WithUserAgent("blocksage/"+versionInfo.Version))
	if err != nil {
		return fmt.Errorf("failed to create upstream client: %w", err)
	}

	server, err := mcp.NewServer(versionInfo.Version, client,
		mcp.WithLogger(serveLogger),
		mcp.WithServerName(cfg.Server.Name),
		mcp.WithHistorySize(cfg.Server.HistorySize),
	)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	serveLogger.Info("starting MCP server",
		"version", versionInfo.Version,
		"transport", "stdio",
		"upstream", cfg.Upstream.BaseURL,
		"historySize", cfg.Server.HistorySize,
	)

	return server.ServeStdio(ctx)
}
