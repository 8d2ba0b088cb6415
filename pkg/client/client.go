// Package client implements the consumer side of the list event stream: a
// sync agent that keeps a local view of one shopping list, reconnecting with
// a fixed backoff whenever the connection drops.
//
// The agent carries no replay mechanism. Events published while it was
// disconnected are lost until the caller triggers FullResync; reconnection
// only restores live updates.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/realtime"
	"github.com/teamshop/teamshop/pkg/logger"
)

// DefaultBackoff is the fixed delay between reconnect attempts.
const DefaultBackoff = 3 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithBackoff overrides the reconnect delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithHTTPClient overrides the HTTP client used for full-list reads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger overrides the default logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithOnEvent registers a callback invoked after each event is applied to
// the local view. Called from the connection goroutine.
func WithOnEvent(fn func(realtime.Event)) Option {
	return func(c *Client) { c.onEvent = fn }
}

// Client is a sync agent for one list.
type Client struct {
	baseURL string
	listID  string
	backoff time.Duration
	httpc   *http.Client
	dialer  *websocket.Dialer
	log     *logger.Logger
	onEvent func(realtime.Event)

	mu        sync.RWMutex
	items     map[string]list.Item
	connected bool
}

// New creates a sync agent for the list behind baseURL (e.g.
// "http://localhost:8000").
func New(baseURL, listID string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		listID:  listID,
		backoff: DefaultBackoff,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:     logger.NewDefault("client"),
		items:   make(map[string]list.Item),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FullResync fetches the full list snapshot over HTTP and replaces the local
// view. Called once on initial load and whenever the caller decides an
// outage was long enough to warrant a fresh read.
func (c *Client) FullResync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/lists/"+c.listID, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return list.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch list: unexpected status %d", resp.StatusCode)
	}

	var snapshot list.List
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}

	c.mu.Lock()
	c.items = make(map[string]list.Item, len(snapshot.Items))
	for _, it := range snapshot.Items {
		c.items[it.ID] = it
	}
	c.mu.Unlock()
	return nil
}

// Run connects to the list's event channel and keeps the local view updated
// until ctx is cancelled, reconnecting with the fixed backoff after every
// drop. It returns ctx.Err() on cancellation.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connectAndStream(ctx); err != nil && ctx.Err() == nil {
			c.log.WithError(err).Debug("connection lost")
		}

		c.setConnected(false)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

// Connected reports whether the agent currently holds a live connection.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Items returns the local view, items in creation order.
func (c *Client) Items() []list.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]list.Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (c *Client) connectAndStream(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	c.setConnected(true)
	c.log.WithField("list_id", c.listID).Debug("connected")

	// Close the socket when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := realtime.Decode(data)
		if err != nil {
			c.log.WithError(err).Warn("undecodable event")
			continue
		}
		c.apply(ev)
		if c.onEvent != nil {
			c.onEvent(ev)
		}
	}
}

// apply folds one event into the local view. Application is idempotent per
// event kind: duplicates and events about unknown items are no-ops.
func (c *Client) apply(ev realtime.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case realtime.ItemAdded:
		if _, exists := c.items[e.Item.ID]; exists {
			return
		}
		c.items[e.Item.ID] = e.Item
	case realtime.ItemUpdated:
		if _, exists := c.items[e.Item.ID]; !exists {
			return
		}
		c.items[e.Item.ID] = e.Item
	case realtime.ItemDeleted:
		delete(c.items, e.ItemID)
	case realtime.ListReset:
		c.items = make(map[string]list.Item, len(e.List.Items))
		for _, it := range e.List.Items {
			c.items[it.ID] = it
		}
	case realtime.PseudoRenamed:
		for id, it := range c.items {
			if it.ClaimedBy == e.OldPseudo && e.OldPseudo != "" {
				it.ClaimedBy = e.NewPseudo
				c.items[id] = it
			}
		}
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) wsURL() string {
	url := c.baseURL
	switch {
	case strings.HasPrefix(url, "https"):
		url = "wss" + url[len("https"):]
	case strings.HasPrefix(url, "http"):
		url = "ws" + url[len("http"):]
	}
	return url + "/ws/lists/" + c.listID
}
