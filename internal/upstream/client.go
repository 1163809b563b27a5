// Package upstream provides the HTTP client for the LedgerMind
// blockchain-knowledge API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blocksage/blocksage/internal/config"
	"github.com/blocksage/blocksage/internal/errors"
)

// API paths on the LedgerMind service.
const (
	pingPath      = "/api/v0/utils/ping"
	knowledgePath = "/api/v0/agent/knowledge"
	agentPath     = "/api/v0/agent"
)

// ZeroAddress is the placeholder blockchain address used when an agent
// query does not name one.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// AgentRequest is the JSON body for POST /api/v0/agent.
type AgentRequest struct {
	Prompt  string `json:"prompt"`
	Address string `json:"address"`
	ChainID string `json:"chainId,omitempty"`
	KBID    string `json:"kbId"`
}

// KnowledgeRequest is the JSON body for POST /api/v0/agent/knowledge.
type KnowledgeRequest struct {
	Prompt string `json:"prompt"`
	KB     string `json:"kb"`
}

// Client is a thin HTTP client for the LedgerMind API. It binds a base
// URL and API key at construction and returns upstream payloads
// unmodified.
type Client struct {
	baseURL      string
	apiKey       string
	knowledgeBox string
	userAgent    string
	httpClient   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a Client from the upstream configuration.
func New(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.Config("upstream.New", "API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}

	knowledgeBox := cfg.KnowledgeBox
	if knowledgeBox == "" {
		knowledgeBox = config.DefaultKnowledgeBox
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       cfg.APIKey,
		knowledgeBox: knowledgeBox,
		userAgent:    "blocksage",
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// KnowledgeBox returns the default knowledge box identifier applied when
// a query does not name one.
func (c *Client) KnowledgeBox() string {
	return c.knowledgeBox
}

// Ping calls the health-check endpoint and returns the raw payload.
func (c *Client) Ping(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, pingPath, nil)
}

// KnowledgeQuery runs a search against a knowledge box. An empty
// knowledgeBoxID falls back to the client default.
func (c *Client) KnowledgeQuery(ctx context.Context, query, knowledgeBoxID string) (json.RawMessage, error) {
	if knowledgeBoxID == "" {
		knowledgeBoxID = c.knowledgeBox
	}

	body := KnowledgeRequest{
		Prompt: query,
		KB:     knowledgeBoxID,
	}

	return c.do(ctx, http.MethodPost, knowledgePath, body)
}

// AgentQuery asks the conversational agent. Empty address and
// knowledgeBoxID fall back to the zero address and the client default
// knowledge box.
func (c *Client) AgentQuery(ctx context.Context, prompt, address, chainID, knowledgeBoxID string) (json.RawMessage, error) {
	if address == "" {
		address = ZeroAddress
	}
	if knowledgeBoxID == "" {
		knowledgeBoxID = c.knowledgeBox
	}

	body := AgentRequest{
		Prompt:  prompt,
		Address: address,
		ChainID: chainID,
		KBID:    knowledgeBoxID,
	}

	return c.do(ctx, http.MethodPost, agentPath, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	op := "upstream." + strings.TrimPrefix(path, "/api/v0/")

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.InternalWrap(err, op, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.InternalWrap(err, op, "failed to create request")
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.UpstreamWrap(err, op, "request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.UpstreamWrap(err, op, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Upstream(op, fmt.Sprintf("status %d: %s", resp.StatusCode, errorMessage(payload)))
	}

	return payload, nil
}

// errorMessage extracts a human-readable message from an upstream error
// body. LedgerMind returns either {"error":{"message":...}} or a flat
// {"message":...}; anything else is reported as-is, truncated.
func errorMessage(payload []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	msg := strings.TrimSpace(string(payload))
	if msg == "" {
		return "no response body"
	}
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
