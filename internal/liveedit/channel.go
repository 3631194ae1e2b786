// Package liveedit maintains the persistent notification channel that pushes
// granular hot patches (script or config changes) outside the version-check
// cycle, and the write side that publishes such edits.
package liveedit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/rivenlabs/patchd/internal/api"
	"github.com/rivenlabs/patchd/internal/host"
	"github.com/rivenlabs/patchd/internal/types"
)

// ChannelPath is the well-known suffix appended to the REST base to reach
// the notification socket.
const ChannelPath = "/updates/live-edit/ws"

// State is the channel's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MessageTypeLiveEdit is the only message type this channel consumes.
const MessageTypeLiveEdit = "live-edit"

// Message is one notification from the authority. Payload arrives base64
// encoded on the wire; encoding/json decodes it transparently.
type Message struct {
	Type     string `json:"type"`
	FilePath string `json:"filePath"`
	Payload  []byte `json:"payload"`
}

// EventKind classifies local events raised by the channel.
type EventKind string

const (
	// EventConfigReload asks the UI layer to re-read a configuration file.
	EventConfigReload EventKind = "config-reload"
	// EventFileUpdated announces an optimistic local push of a live edit.
	EventFileUpdated EventKind = "file-updated"
)

// Event is a local notification for the embedding UI.
type Event struct {
	Kind EventKind
	Path string
}

// Policy bounds the reconnect behavior.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxRetries   uint64 // consecutive failed connect attempts before giving up
}

// DefaultPolicy returns the stock reconnect policy.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 2 * time.Second,
		MaxDelay:     2 * time.Minute,
		MaxRetries:   30,
	}
}

// DeriveChannelURL swaps the REST base's scheme for the websocket scheme and
// replaces the path with the well-known channel suffix.
func DeriveChannelURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("cannot derive channel address from scheme %q", u.Scheme)
	}
	u.Path = ChannelPath
	u.RawQuery = ""
	return u.String(), nil
}

// Channel is the long-lived notification connection. Run drives the state
// machine Disconnected -> Connecting -> Connected and reconnects under
// exponential backoff with jitter when the socket fails.
type Channel struct {
	url    string
	client *api.Client
	bridge host.Bridge
	dialer *websocket.Dialer
	policy Policy

	state  atomic.Int32
	events chan Event
}

// NewChannel creates a channel whose address derives from the API client's
// base URL.
func NewChannel(client *api.Client, bridge host.Bridge, policy Policy) (*Channel, error) {
	u, err := DeriveChannelURL(client.BaseURL())
	if err != nil {
		return nil, err
	}
	return &Channel{
		url:    u,
		client: client,
		bridge: bridge,
		dialer: websocket.DefaultDialer,
		policy: policy,
		events: make(chan Event, 16),
	}, nil
}

// State reports the current connection state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Events is the stream of local notifications for the UI layer.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Run connects and consumes messages until ctx is cancelled or the retry
// budget is exhausted. Each successful connection resets the backoff.
func (c *Channel) Run(ctx context.Context) error {
	defer c.state.Store(int32(StateDisconnected))

	for {
		conn, err := c.connect(ctx)
		if err != nil {
			return err
		}

		err = c.serve(ctx, conn)
		_ = conn.Close()
		c.state.Store(int32(StateDisconnected))

		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("live-edit channel dropped, reconnecting")
	}
}

// connect dials the channel address, retrying under the policy's backoff.
func (c *Channel) connect(ctx context.Context) (*websocket.Conn, error) {
	c.state.Store(int32(StateConnecting))

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.policy.InitialDelay
	bo.MaxInterval = c.policy.MaxDelay
	bo.MaxElapsedTime = 0 // bounded by retry count, not wall clock

	var conn *websocket.Conn
	operation := func() error {
		var err error
		conn, _, err = c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			log.WithError(err).WithField("url", c.url).Debug("live-edit dial failed")
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.policy.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("live-edit channel gave up connecting: %w", err)
	}

	c.state.Store(int32(StateConnected))
	log.WithField("url", c.url).Info("live-edit channel connected")
	return conn, nil
}

// serve reads messages until the connection fails.
func (c *Channel) serve(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the context is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.WithError(err).Warn("dropping malformed live-edit message")
			continue
		}
		c.handle(msg)
	}
}

// handle dispatches one message: script files reload through the host,
// config files raise a local reload event, everything else is dropped.
func (c *Channel) handle(msg Message) {
	if msg.Type != MessageTypeLiveEdit {
		log.WithField("type", msg.Type).Debug("ignoring unknown channel message type")
		return
	}

	if len(msg.Payload) > 0 {
		if err := c.bridge.SaveFile(msg.FilePath, msg.Payload); err != nil {
			log.WithError(err).WithField("path", msg.FilePath).Error("failed to write live edit")
			return
		}
	}

	switch types.KindForPath(msg.FilePath) {
	case types.FileKindScript:
		if err := c.bridge.ReloadScript(msg.FilePath); err != nil {
			log.WithError(err).WithField("path", msg.FilePath).Error("script reload failed")
		}
	case types.FileKindConfig:
		c.emit(Event{Kind: EventConfigReload, Path: msg.FilePath})
	default:
		log.WithField("path", msg.FilePath).Debug("live edit for unclassified file, no reload action")
	}
}

// Push publishes a live edit for other clients and optimistically raises the
// local file-updated event without waiting for propagation.
func (c *Channel) Push(ctx context.Context, filePath string, content []byte) error {
	if err := c.client.PushLiveEdit(ctx, filePath, content); err != nil {
		return fmt.Errorf("failed to push live edit for %s: %w", filePath, err)
	}
	c.emit(Event{Kind: EventFileUpdated, Path: filePath})
	return nil
}

func (c *Channel) emit(e Event) {
	select {
	case c.events <- e:
	default:
		log.WithField("path", e.Path).Debug("event channel full, dropping")
	}
}
