// Package auditclient is a fire-and-forget publisher for MindDump audit
// events. Publishing never blocks and never surfaces transport failures to the
// caller; a failed publish is logged locally and dropped.
package auditclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minddump/auditd/pkg/logger"
)

const (
	defaultEndpoint  = "/api/audit-logs"
	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "minddump-auditclient/1.0"
)

// Event is a single audit event to publish. Action and EntityType are
// required; everything else is optional.
type Event struct {
	Action     string
	EntityType string
	EntityID   string
	UserID     string
	Metadata   map[string]any
}

// Client publishes audit events to the ingestion endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	userID     string
	timeout    time.Duration
	log        *zap.Logger
	wg         sync.WaitGroup
}

// Option customises the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithUserAgent overrides the user-agent string attached to every event.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithUserID attaches a default user identifier to every published event.
func WithUserID(userID string) Option {
	return func(c *Client) {
		c.userID = userID
	}
}

// WithTimeout bounds each publish attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger overrides the local diagnostic logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New constructs a Client targeting the audit service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
		timeout:    defaultTimeout,
		log:        logger.WithModule("auditclient"),
	}

	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Publish emits an event asynchronously. It returns immediately; transport or
// server failure is logged locally and the event is dropped, never retried.
func (c *Client) Publish(event Event) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.send(event); err != nil {
			c.log.Warn("audit publish dropped",
				zap.String("action", event.Action),
				zap.String("entity_type", event.EntityType),
				zap.Error(err),
			)
		}
	}()
}

// Close waits for in-flight publishes to finish. It does not retry failures.
func (c *Client) Close() {
	c.wg.Wait()
}

// Convenience publishers, one per known action.

// EntryCreated records creation of a note entry.
func (c *Client) EntryCreated(entryID string, metadata map[string]any) {
	c.Publish(Event{Action: "entry_created", EntityType: "entry", EntityID: entryID, Metadata: metadata})
}

// EntryUpdated records an update to a note entry.
func (c *Client) EntryUpdated(entryID string, metadata map[string]any) {
	c.Publish(Event{Action: "entry_updated", EntityType: "entry", EntityID: entryID, Metadata: metadata})
}

// EntryDeleted records deletion of a note entry.
func (c *Client) EntryDeleted(entryID string, metadata map[string]any) {
	c.Publish(Event{Action: "entry_deleted", EntityType: "entry", EntityID: entryID, Metadata: metadata})
}

// EntryViewed records that a note entry was opened.
func (c *Client) EntryViewed(entryID string, metadata map[string]any) {
	c.Publish(Event{Action: "entry_viewed", EntityType: "entry", EntityID: entryID, Metadata: metadata})
}

// DraftAutoSaved records a debounced draft save.
func (c *Client) DraftAutoSaved(draftID string, metadata map[string]any) {
	c.Publish(Event{Action: "draft_auto_saved", EntityType: "draft", EntityID: draftID, Metadata: metadata})
}

// ModeSwitched records a UI mode change.
func (c *Client) ModeSwitched(metadata map[string]any) {
	c.Publish(Event{Action: "mode_switched", EntityType: "system", Metadata: metadata})
}

// AppLoaded records application startup.
func (c *Client) AppLoaded(metadata map[string]any) {
	c.Publish(Event{Action: "app_loaded", EntityType: "system", Metadata: metadata})
}

// SearchPerformed records a search.
func (c *Client) SearchPerformed(metadata map[string]any) {
	c.Publish(Event{Action: "search_performed", EntityType: "system", Metadata: metadata})
}

// SessionStarted records the start of a session and returns the generated
// session identifier.
func (c *Client) SessionStarted(metadata map[string]any) string {
	sessionID := "session_" + uuid.NewString()
	c.Publish(Event{Action: "session_started", EntityType: "session", EntityID: sessionID, Metadata: metadata})
	return sessionID
}

type eventPayload struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   *string        `json:"entityId,omitempty"`
	UserID     *string        `json:"userId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UserAgent  string         `json:"userAgent"`
}

func (c *Client) send(event Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	payload := eventPayload{
		Action:     event.Action,
		EntityType: event.EntityType,
		Metadata:   event.Metadata,
		UserAgent:  c.userAgent,
	}
	if event.EntityID != "" {
		payload.EntityID = &event.EntityID
	}
	userID := event.UserID
	if userID == "" {
		userID = c.userID
	}
	if userID != "" {
		payload.UserID = &userID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+defaultEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("audit service responded %d", resp.StatusCode)
	}
	return nil
}
