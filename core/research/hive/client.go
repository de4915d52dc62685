// Package hive is a research backend adapter for a hosted multi-agent
// service. The service runs a coordinator agent that hands queries off to
// specialist agents (research, weather, analysis) and streams phase reports
// back while working.
package hive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/aria-voice/aria-core/core/research"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keepAliveInterval = 10 * time.Second

type Client struct {
	host           string
	apiKey         string
	keepAliveEvery time.Duration

	connMu sync.Mutex
	conns  map[*wsConn]struct{}
}

// wsConn pairs one Process call's websocket with a write mutex: the query
// write and the keep-alive goroutine share the socket, and gorilla/websocket
// does not allow concurrent writers.
type wsConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

type ClientOption func(*Client)

// WithHost overrides the service host, e.g. for a self-hosted deployment.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		if host != "" {
			c.host = host
		}
	}
}

// WithAPIKey overrides the API key read from the HIVE_API_KEY environment
// variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		if apiKey != "" {
			c.apiKey = apiKey
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		host:           "api.hive.dev",
		keepAliveEvery: keepAliveInterval,
		conns:          map[*wsConn]struct{}{},
	}
	if apiKey, ok := os.LookupEnv("HIVE_API_KEY"); ok {
		client.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		return nil, fmt.Errorf("hive api key not found")
	}

	return client, nil
}

type queryMessage struct {
	Type    string `json:"type"`
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

type serverMessage struct {
	Type     string `json:"type"`
	Phase    string `json:"phase,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Process sends the query to the coordinator and blocks until the service
// reports a terminal event or ctx is cancelled. Phase reports are delivered
// through the progress callback in sequence order; reports with non-increasing
// sequence numbers and reports arriving after the terminal event are
// discarded.
func (c *Client) Process(ctx context.Context, query string, opts ...research.ProcessOption) error {
	ctx, span := tracer.Start(ctx, "process research query")
	defer span.End()

	options := research.ProcessOptions{
		ProgressCallback: func(research.ProgressEvent) {},
		AnswerCallback:   func(string) {},
		FailureCallback:  func(error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	ws, err := c.connectWebsocket()
	if err != nil {
		err = fmt.Errorf("failed to open websocket: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer ws.Close()

	// Each Process call owns its connection; several researches may be in
	// flight at once, each with its own socket and keep-alive loop.
	call := &wsConn{ws: ws}
	c.track(call)
	defer c.untrack(call)

	if err := call.writeJSON(queryMessage{
		Type:    "query",
		Query:   query,
		Context: options.Context,
	}); err != nil {
		err = fmt.Errorf("failed to send query: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	keepAliveDone := make(chan struct{})
	defer close(keepAliveDone)
	go c.sendKeepAlives(call, keepAliveDone)

	go func() {
		select {
		case <-ctx.Done():
			// Unblocks the read loop; in-flight backend work is the
			// service's concern.
			_ = ws.Close()
		case <-keepAliveDone:
		}
	}()

	return c.readAndProcessMessages(ctx, ws, options)
}

func (c *Client) track(call *wsConn) {
	c.connMu.Lock()
	c.conns[call] = struct{}{}
	c.connMu.Unlock()
}

func (c *Client) untrack(call *wsConn) {
	c.connMu.Lock()
	delete(c.conns, call)
	c.connMu.Unlock()
}

func (c *Client) connectWebsocket() (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   c.host,
			Path:   "/v1/coordinate",
		}).String(),
		http.Header{"Authorization": {"Bearer " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to hive: %w", err)
	}

	return conn, nil
}

func (c *Client) sendKeepAlives(call *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(c.keepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := call.writeJSON(struct {
				Type string `json:"type"`
			}{Type: "keep_alive"}); err != nil {
				logger.Warn("failed to send keep-alive", "error", err)
			}
		}
	}
}

func (c *Client) readAndProcessMessages(ctx context.Context, conn *websocket.Conn, options research.ProcessOptions) error {
	span := trace.SpanFromContext(ctx)

	lastSequence := 0
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			err = fmt.Errorf("websocket read error: %w", err)
			span.RecordError(err)
			options.FailureCallback(err)
			return err
		}

		var parsed serverMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			logger.Warn("failed to unmarshal hive message", "error", err)
			continue
		}

		switch parsed.Type {
		case "progress":
			if parsed.Sequence <= lastSequence {
				continue
			}
			lastSequence = parsed.Sequence
			span.AddEvent("progress", trace.WithAttributes(
				attribute.String("research.phase", parsed.Phase),
				attribute.Int("research.sequence", parsed.Sequence),
			))
			options.ProgressCallback(research.ProgressEvent{
				Phase:    parsed.Phase,
				Sequence: parsed.Sequence,
			})

		case "answer":
			span.SetAttributes(attribute.Int("research.progress_events", lastSequence))
			options.AnswerCallback(parsed.Answer)
			return nil

		case "error":
			err := fmt.Errorf("hive processing failed: %s", parsed.Error)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			options.FailureCallback(err)
			return err

		case "keep_alive":
			// Server echo, nothing to do.

		default:
			logger.Debug("unknown hive message type", "type", parsed.Type)
		}
	}
}

// Close terminates every connection still open.
func (c *Client) Close(context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	errs := []error{}
	for call := range c.conns {
		if err := call.ws.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close hive connection: %w", err))
		}
	}
	clear(c.conns)

	return errors.Join(errs...)
}
