package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/blocksage/blocksage/internal/errors"
)

// resourceURIPrefix addresses recorded results by position, 0 being the
// most recent.
const resourceURIPrefix = "blocksage://searches/"

// Upstream is the LedgerMind client surface the server dispatches to.
type Upstream interface {
	Ping(ctx context.Context) (json.RawMessage, error)
	KnowledgeQuery(ctx context.Context, query, knowledgeBoxID string) (json.RawMessage, error)
	AgentQuery(ctx context.Context, prompt, address, chainID, knowledgeBoxID string) (json.RawMessage, error)
}

// Server implements the MCP server for blocksage. It exposes the three
// upstream operations as tools and the recent-results history as
// read-only resources.
type Server struct {
	name     string
	version  string
	logger   *slog.Logger
	upstream Upstream
	history  *SearchHistory

	tools     []Tool
	toolFuncs map[string]ToolHandler
}

// ToolHandler handles a tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (*CallToolResult, error)

// ServerOption configures the MCP server.
type ServerOption func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithServerName sets the name reported during initialize.
func WithServerName(name string) ServerOption {
	return func(s *Server) {
		s.name = name
	}
}

// WithHistory sets a custom search history.
func WithHistory(history *SearchHistory) ServerOption {
	return func(s *Server) {
		s.history = history
	}
}

// WithHistorySize bounds the search history to the given capacity.
func WithHistorySize(capacity int) ServerOption {
	return func(s *Server) {
		s.history = NewSearchHistory(capacity)
	}
}

// NewServer creates a new MCP server dispatching to the given upstream.
func NewServer(version string, upstream Upstream, opts ...ServerOption) (*Server, error) {
	if upstream == nil {
		return nil, errors.Internal("mcp.NewServer", "upstream client is required")
	}

	s := &Server{
		name:     "blocksage",
		version:  version,
		logger:   slog.Default(),
		upstream: upstream,
		history:  NewSearchHistory(DefaultHistorySize),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// History exposes the recent-results history. Used by tests.
func (s *Server) History() *SearchHistory {
	return s.history
}

// ServeStdio starts the MCP server on stdio transport.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve starts the MCP server with custom reader/writer.
func (s *Server) Serve(ctx context.Context, reader io.Reader, writer io.Writer) error {
	transport := NewStdioTransport(reader, writer)
	loop := NewMessageLoop(transport, s, s.logger)

	s.logger.Info("MCP server started", "name", s.name, "version", s.version)
	return loop.Run(ctx)
}

// HandleRequest implements MessageHandler.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	s.logger.Debug("handling request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response needed
		return nil
	case "ping":
		return NewResponse(req.ID, map[string]any{})
	case "tools/list":
		return NewResponse(req.ID, ListToolsResult{Tools: s.tools})
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "resources/list":
		return s.handleListResources(req)
	case "resources/read":
		return s.handleReadResource(req)
	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
		}
	}

	s.logger.Info("client connected",
		"client", params.ClientInfo.Name,
		"clientVersion", params.ClientInfo.Version,
		"protocolVersion", params.ProtocolVersion)

	result := InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: ServerCapabilities{
			Tools:     &ToolsCapability{},
			Resources: &ResourcesCapability{},
		},
		ServerInfo: Implementation{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: `blocksage exposes the LedgerMind blockchain-knowledge API.

Use these tools:
- ping: Check that the upstream service is reachable
- search: Search a knowledge box for blockchain documentation
- agent: Ask the conversational blockchain agent

Resources provide read-only access to recent results:
- blocksage://searches/<index>: Recorded result, 0 = most recent`,
	}

	return NewResponse(req.ID, result)
}

func (s *Server) registerTools() {
	s.tools = []Tool{
		{
			Name:        "ping",
			Description: "Check connectivity to the LedgerMind service",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "search",
			Description: "Search a LedgerMind knowledge box for blockchain documentation",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query":      {Type: "string", Description: "Search query text"},
					"kb":         {Type: "string", Description: "Knowledge box identifier", Default: "public-knowledge-box"},
					"numResults": {Type: "number", Description: "Maximum number of results (reserved)"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "agent",
			Description: "Ask the LedgerMind conversational blockchain agent",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"prompt":  {Type: "string", Description: "Question for the agent"},
					"address": {Type: "string", Description: "Blockchain address to scope the question to"},
					"chainId": {Type: "string", Description: "Chain identifier"},
					"kbId":    {Type: "string", Description: "Knowledge box identifier", Default: "public-knowledge-box"},
				},
				Required: []string{"prompt"},
			},
		},
	}

	s.toolFuncs = map[string]ToolHandler{
		"ping":   s.handlePingTool,
		"search": s.handleSearchTool,
		"agent":  s.handleAgentTool,
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
	}

	handler, ok := s.toolFuncs[params.Name]
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, "Tool not found", params.Name)
	}

	result, err := handler(ctx, params.Arguments)
	if err != nil {
		if errors.IsKind(err, errors.KindValidation) {
			return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid parameters", err.Error())
		}
		return NewErrorResponse(req.ID, ErrCodeInternalError, "Tool execution failed", err.Error())
	}

	return NewResponse(req.ID, result)
}

func (s *Server) handlePingTool(ctx context.Context, _ map[string]any) (*CallToolResult, error) {
	payload, err := s.upstream.Ping(ctx)
	if err != nil {
		s.logger.Error("ping failed", "error", err)
		return NewToolResultError(err.Error()), nil
	}

	return NewToolResult(string(payload)), nil
}

func (s *Server) handleSearchTool(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	query, err := requiredString(args, "query")
	if err != nil {
		return nil, err
	}
	kb, err := optionalString(args, "kb")
	if err != nil {
		return nil, err
	}
	// Accepted for schema compatibility; not forwarded upstream.
	if _, err := optionalNumber(args, "numResults"); err != nil {
		return nil, err
	}

	payload, upErr := s.upstream.KnowledgeQuery(ctx, query, kb)
	if upErr != nil {
		s.logger.Error("search failed", "query", query, "error", upErr)
		return NewToolResultError(upErr.Error()), nil
	}

	s.history.Record(query, payload)

	return NewToolResult(string(payload)), nil
}

func (s *Server) handleAgentTool(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	prompt, err := requiredString(args, "prompt")
	if err != nil {
		return nil, err
	}
	address, err := optionalString(args, "address")
	if err != nil {
		return nil, err
	}
	chainID, err := optionalString(args, "chainId")
	if err != nil {
		return nil, err
	}
	kbID, err := optionalString(args, "kbId")
	if err != nil {
		return nil, err
	}

	payload, upErr := s.upstream.AgentQuery(ctx, prompt, address, chainID, kbID)
	if upErr != nil {
		s.logger.Error("agent query failed", "error", upErr)
		return NewToolResultError(upErr.Error()), nil
	}

	s.history.Record(prompt, payload)

	return NewToolResult(string(payload)), nil
}

func (s *Server) handleListResources(req *Request) *Response {
	entries := s.history.List()
	resources := make([]Resource, 0, len(entries))

	for i, entry := range entries {
		resources = append(resources, Resource{
			URI:         resourceURIPrefix + strconv.Itoa(i),
			Name:        "Search: " + entry.Query,
			Description: fmt.Sprintf("Result for %q recorded at %s", entry.Query, entry.Timestamp),
			MIMEType:    "application/json",
		})
	}

	return NewResponse(req.ID, ListResourcesResult{Resources: resources})
}

func (s *Server) handleReadResource(req *Request) *Response {
	var params ReadResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
	}

	index, err := parseSearchURI(params.URI)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid resource URI", err.Error())
	}

	entry, ok := s.history.Get(index)
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, "Resource not found", params.URI)
	}

	result := ReadResourceResult{
		Contents: []ResourceContent{
			NewJSONResourceContent(params.URI, string(entry.Response)),
		},
	}

	return NewResponse(req.ID, result)
}

// parseSearchURI extracts the history position from a resource URI of
// the form blocksage://searches/<index>.
func parseSearchURI(uri string) (int, error) {
	if !strings.HasPrefix(uri, resourceURIPrefix) {
		return 0, errors.Validation("mcp.parseSearchURI", fmt.Sprintf("unsupported resource URI %q", uri))
	}

	index, err := strconv.Atoi(strings.TrimPrefix(uri, resourceURIPrefix))
	if err != nil || index < 0 {
		return 0, errors.Validation("mcp.parseSearchURI", fmt.Sprintf("invalid result index in %q", uri))
	}

	return index, nil
}

// Argument extraction helpers. Arguments arrive as decoded JSON, so
// numbers are float64 and everything else is checked by type assertion.

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", errors.Validation("mcp.args", fmt.Sprintf("missing required argument %q", key))
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Validation("mcp.args", fmt.Sprintf("argument %q must be a string", key))
	}
	if s == "" {
		return "", errors.Validation("mcp.args", fmt.Sprintf("argument %q must not be empty", key))
	}
	return s, nil
}

func optionalString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Validation("mcp.args", fmt.Sprintf("argument %q must be a string", key))
	}
	return s, nil
}

func optionalNumber(args map[string]any, key string) (float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, ok := v.(float64)
	if !ok {
		return 0, errors.Validation("mcp.args", fmt.Sprintf("argument %q must be a number", key))
	}
	return n, nil
}
