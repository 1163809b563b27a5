package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// errMalformedMessage marks an inbound line that was not valid JSON-RPC.
// The message loop drops such lines without answering; a client that
// cannot frame JSON has no request ID to correlate a reply with.
var errMalformedMessage = errors.New("malformed message")

// Transport handles the communication layer for MCP.
type Transport interface {
	// ReadMessage reads the next JSON-RPC message.
	ReadMessage() (*Request, error)
	// WriteResponse writes a JSON-RPC response.
	WriteResponse(resp *Response) error
	// Close closes the transport.
	Close() error
}

// StdioTransport implements Transport over stdin/stdout.
// Messages are newline-delimited JSON (NDJSON).
type StdioTransport struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex
	closed  bool
}

// NewStdioTransport creates a new stdio transport.
func NewStdioTransport(reader io.Reader, writer io.Writer) *StdioTransport {
	return &StdioTransport{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// ReadMessage reads the next JSON-RPC request from stdin.
func (t *StdioTransport) ReadMessage() (*Request, error) {
	if t.closed {
		return nil, io.EOF
	}

	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	return &req, nil
}

// WriteResponse writes a JSON-RPC response to stdout.
func (t *StdioTransport) WriteResponse(resp *Response) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.closed {
		return io.ErrClosedPipe
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	return nil
}

// Close closes the transport.
func (t *StdioTransport) Close() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.closed = true
	return nil
}

// MessageLoop runs the main message processing loop.
type MessageLoop struct {
	transport Transport
	handler   MessageHandler
	logger    *slog.Logger
}

// MessageHandler processes incoming messages.
type MessageHandler interface {
	HandleRequest(ctx context.Context, req *Request) *Response
}

// NewMessageLoop creates a new message loop.
func NewMessageLoop(transport Transport, handler MessageHandler, logger *slog.Logger) *MessageLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageLoop{
		transport: transport,
		handler:   handler,
		logger:    logger,
	}
}

// Run starts the message loop. It returns nil when the input stream
// ends. Lines that do not parse as JSON-RPC are logged and skipped.
func (l *MessageLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req, err := l.transport.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, errMalformedMessage) {
				l.logger.Debug("dropping malformed message", "error", err)
				continue
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		resp := l.handler.HandleRequest(ctx, req)
		if resp != nil {
			if err := l.transport.WriteResponse(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
}
