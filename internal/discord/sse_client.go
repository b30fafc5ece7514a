package discord

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osse101/DCM_Go/internal/settlement"
	"github.com/osse101/DCM_Go/internal/sse"
)

// SSEEvent is one event read from the settlement live feed
type SSEEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SSEEventHandler handles a specific event type
type SSEEventHandler func(event SSEEvent) error

// SSEClient follows the API's event stream and reconnects with backoff
type SSEClient struct {
	baseURL    string
	apiKey     string
	eventTypes []string
	handlers   map[string][]SSEEventHandler
	httpClient *http.Client
	mu         sync.RWMutex
	shutdown   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	connected  atomic.Bool
}

// NewSSEClient creates a new SSE client
func NewSSEClient(baseURL, apiKey string, eventTypes []string) *SSEClient {
	return &SSEClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		eventTypes: eventTypes,
		handlers:   make(map[string][]SSEEventHandler),
		httpClient: &http.Client{}, // no timeout, the stream is long-lived
		shutdown:   make(chan struct{}),
	}
}

// OnEvent registers a handler for a specific event type
func (c *SSEClient) OnEvent(eventType string, handler SSEEventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// Start begins the SSE connection with auto-reconnect
func (c *SSEClient) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.connectLoop(ctx)
}

// Stop shuts the client down and waits for the read loop to exit
func (c *SSEClient) Stop() {
	c.stopOnce.Do(func() { close(c.shutdown) })
	c.wg.Wait()
}

// IsConnected returns true while a stream is open
func (c *SSEClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *SSEClient) connectLoop(ctx context.Context) {
	defer c.wg.Done()

	// Cancel the in-flight request when Stop is called
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	backoff := sseInitialBackoff
	consecutiveFailures := 0

	for {
		if ctx.Err() != nil {
			slog.Info(sseLogMsgClientStopped)
			return
		}

		err := c.connect(ctx)
		c.connected.Store(false)
		if ctx.Err() != nil {
			slog.Info(sseLogMsgClientStopped)
			return
		}

		if errors.Is(err, errStreamEnded) {
			backoff = sseInitialBackoff
			consecutiveFailures = 0
		} else {
			consecutiveFailures++
		}

		slog.Warn(sseLogMsgConnectionFailed,
			"error", err,
			"backoff", backoff,
			"consecutive_failures", consecutiveFailures)

		select {
		case <-time.After(backoff):
			backoff = min(time.Duration(float64(backoff)*sseBackoffMultiplier), sseMaxBackoff)
		case <-ctx.Done():
			slog.Info(sseLogMsgClientStopped)
			return
		}
	}
}

var errStreamEnded = errors.New("stream closed by server")

func (c *SSEClient) connect(ctx context.Context) error {
	url := c.baseURL + "/api/v1/events"
	if len(c.eventTypes) > 0 {
		url += "?" + sse.QueryParamTypes + "=" + strings.Join(c.eventTypes, ",")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set(headerClientSource, settlement.SourceDiscord)
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	c.connected.Store(true)
	slog.Info(sseLogMsgClientConnected, "url", url)

	return c.readEvents(resp.Body)
}

// readEvents parses the text/event-stream framing until the body ends
func (c *SSEClient) readEvents(body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, sseBufferSize), sseBufferSize)

	var eventID, eventType, data string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data != "" {
				c.dispatchEvent(eventID, eventType, data)
			}
			eventID, eventType, data = "", "", ""
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			eventID = value
		case "event":
			eventType = value
		case "data":
			if data != "" {
				data += "\n"
			}
			data += value
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stream: %w", err)
	}
	return errStreamEnded
}

func (c *SSEClient) dispatchEvent(id, eventType, data string) {
	if eventType == sse.EventTypeKeepalive || eventType == sse.EventTypeConnected {
		return
	}

	var event SSEEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		slog.Warn(sseLogMsgParseError, "error", err, "data", data)
		return
	}

	if eventType != "" {
		event.Type = eventType
	}
	if id != "" {
		event.ID = id
	}

	c.mu.RLock()
	handlers := c.handlers[event.Type]
	c.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			slog.Error(sseLogMsgHandlerError,
				"event_type", event.Type,
				"error", err)
		}
	}
}
