// Package push owns the push-channel lifecycle for one auction view:
// connect, authenticate, join the auction's event room, and reconnect with
// resubscribe. Room membership is a derived effect of being connected; it is
// re-applied on every transition into the connected state, not only on the
// first connect.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	defaultReconnectBase = 2 * time.Second
	defaultReconnectMax  = 60 * time.Second
	defaultMaxAttempts   = 8
)

// State is the connection manager's lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRoomJoined
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRoomJoined:
		return "room_joined"
	default:
		return "disconnected"
	}
}

// Config holds push-channel connection parameters. Zero durations and
// attempt counts fall back to defaults.
type Config struct {
	URL           string
	Token         string // session token; empty is a valid anonymous viewer
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
	MaxAttempts   int
}

// Client is the WebSocket connection manager for the auction push channel.
// Inbound events are decoded and delivered in arrival order on Events.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	conn   *websocket.Conn
	state  State
	room   string // auction room to restore on every reconnect
	closed bool

	events chan domain.Event
	done   chan struct{}
}

// NewClient creates a connection manager for the given endpoint. It does not
// dial; call Connect once the view mounts.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = defaultReconnectBase
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = defaultReconnectMax
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "push")),
		events: make(chan domain.Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the inbound event channel. It is never closed; consumers
// stop reading when they unmount.
func (c *Client) Events() <-chan domain.Event {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connect dials the push endpoint, authenticates best-effort with the
// session token, and restores room membership if a room was joined before.
// Calling Connect while already connected is a no-op, so re-renders of an
// unchanged view cannot stack duplicate connections.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("push: connect: %w", domain.ErrRoomClosed)
	}
	if c.conn != nil {
		return nil
	}

	c.state = StateConnecting

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.state = StateDisconnected
		return fmt.Errorf("push: connect: %w", err)
	}

	c.conn = conn
	c.state = StateConnected

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readLoop(conn)
	go c.pingLoop(conn)

	// Authentication is best-effort: an absent identity is a valid
	// anonymous viewer.
	if c.cfg.Token != "" {
		if err := c.sendCommand(command{Type: "auth", Token: c.cfg.Token}); err != nil {
			c.logger.Warn("push auth failed", slog.String("error", err.Error()))
		}
	}

	// Rejoin on every transition into connected, not only the first one. A
	// reconnect that forgets this silently stops delivering events while
	// looking connected.
	if c.room != "" {
		if err := c.sendCommand(command{Type: "join_room", Room: c.room}); err != nil {
			return fmt.Errorf("push: rejoin room %s: %w", c.room, err)
		}
		c.state = StateRoomJoined
		c.logger.Info("rejoined auction room", slog.String("room", c.room))
	}

	return nil
}

// JoinRoom subscribes to one auction's event room. Joining the room already
// held is a no-op; a mounted view joins exactly one room.
func (c *Client) JoinRoom(ctx context.Context, auctionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("push: join room: %w", domain.ErrRoomClosed)
	}
	if c.room == auctionID && c.state == StateRoomJoined {
		return nil
	}
	if c.conn == nil {
		return fmt.Errorf("push: join room: %w", domain.ErrNotConnected)
	}

	if err := c.sendCommand(command{Type: "join_room", Room: auctionID}); err != nil {
		return fmt.Errorf("push: join room %s: %w", auctionID, err)
	}
	c.room = auctionID
	c.state = StateRoomJoined
	c.logger.Info("joined auction room", slog.String("room", auctionID))
	return nil
}

// LeaveRoom unsubscribes from the current room without tearing the
// connection down.
func (c *Client) LeaveRoom(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.room == "" || c.conn == nil {
		c.room = ""
		return nil
	}
	room := c.room
	c.room = ""
	if c.state == StateRoomJoined {
		c.state = StateConnected
	}
	if err := c.sendCommand(command{Type: "leave_room", Room: room}); err != nil {
		return fmt.Errorf("push: leave room %s: %w", room, err)
	}
	return nil
}

// Close tears the channel down for good: leave the room, stop event
// dispatch, then disconnect, in that order, so a room event cannot arrive
// after teardown has begun. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	if c.conn != nil && c.room != "" {
		_ = c.sendCommand(command{Type: "leave_room", Room: c.room})
	}
	c.room = ""

	c.closed = true
	close(c.done)

	c.state = StateDisconnected
	if c.conn != nil {
		_ = c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// sendCommand marshals and writes a control message. Caller must hold c.mu.
func (c *Client) sendCommand(cmd command) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(cmd)
}

// readLoop reads and dispatches inbound messages for one physical
// connection. On read failure it hands over to reconnect, unless the client
// was closed.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.state = StateDisconnected
			}
			c.mu.Unlock()
			conn.Close()

			c.logger.Warn("push channel dropped", slog.String("error", err.Error()))
			c.reconnect()
			return
		}

		ev, err := decodeEvent(raw)
		if err != nil {
			c.logger.Debug("dropping undecodable message", slog.String("error", err.Error()))
			continue
		}
		if ev == nil {
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

// pingLoop keeps one physical connection alive. It exits when the client is
// closed or the connection stops accepting pings.
func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reconnect re-establishes the connection with capped exponential backoff.
// Connect restores auth and room membership, so a successful attempt needs
// no extra work here. Once the attempt ceiling is exhausted the failure is
// surfaced as a ConnectionLost event; before that the consumer keeps showing
// last-known-good state.
func (c *Client) reconnect() {
	delay := c.cfg.ReconnectBase

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.Connect(ctx)
		cancel()

		if err == nil {
			c.logger.Info("push channel reconnected", slog.Int("attempt", attempt))
			return
		}
		c.logger.Warn("reconnect attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)

		delay *= 2
		if delay > c.cfg.ReconnectMax {
			delay = c.cfg.ReconnectMax
		}
	}

	c.logger.Error("reconnect ceiling exhausted", slog.Int("attempts", c.cfg.MaxAttempts))
	select {
	case c.events <- domain.ConnectionLost{Attempts: c.cfg.MaxAttempts}:
	case <-c.done:
	}
}
