// Package channel is the websocket transport between the dashboard engine and
// its streaming server.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/event"
	"strategy_dash/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 * 1024 // full snapshots can be large
)

// Options configures a Client.
type Options struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	MaxBackoff       time.Duration
	Metrics          *infra.Metrics
}

// Client keeps one websocket connection alive, decodes frames into events for
// the engine inbox and writes commands. It reconnects with backoff until
// Disconnect is called; every successful (re)connect is reported as a
// ConnectionEvent so the engine can resync.
type Client struct {
	opts  Options
	inbox chan<- event.Event

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	everUp    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// NewClient creates a channel client feeding inbox.
func NewClient(opts Options, inbox chan<- event.Event) *Client {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = infra.GlobalMetrics
	}
	return &Client{
		opts:   opts,
		inbox:  inbox,
		logger: slog.Default().With("module", "channel"),
	}
}

// Connect starts the connection loop and returns immediately.
func (c *Client) Connect(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether a connection is currently open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) connectionLoop(ctx context.Context) {
	defer c.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			if !domain.IsRetriable(err) {
				c.logger.Error("Channel connection rejected, not retrying", slog.Any("error", err))
				c.publish(ctx, &event.ConnectionEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}, Connected: false, Err: err})
				return
			}
			delay := infra.CalculateBackoffWithCap(retryCount, c.opts.MaxBackoff)
			c.logger.Warn("Channel connection failed", slog.Any("error", err), slog.Int("retry", retryCount), slog.Duration("delay", delay))
			retryCount++
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		c.publish(ctx, &event.ConnectionEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}, Connected: true})
		err := c.readLoop(ctx)
		c.closeConnection()
		c.publish(ctx, &event.ConnectionEvent{BaseEvent: event.BaseEvent{Ts: time.Now()}, Connected: false, Err: err})
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}
	header := make(http.Header)
	header.Set("User-Agent", infra.DefaultUserAgent)
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	conn, resp, err := dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return domain.NewFatalNetworkError("dial", fmt.Errorf("handshake rejected: %s", resp.Status))
		}
		return domain.NewNetworkError("dial", err)
	}
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	if c.everUp {
		c.opts.Metrics.RecordReconnect()
	}
	c.everUp = true
	c.mu.Unlock()
	c.opts.Metrics.IncrementConnections()

	c.wg.Add(1)
	go c.pingLoop(ctx, conn)

	c.logger.Info("Channel connected", slog.String("url", c.opts.URL))
	return nil
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			current := c.conn == conn
			c.mu.RUnlock()
			if !current {
				return
			}
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return domain.NewNetworkError("read", domain.ErrNotConnected)
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Channel closed unexpectedly", slog.Any("error", err))
			}
			return domain.NewNetworkError("read", err)
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *Client) handleMessage(ctx context.Context, msg []byte) {
	ev, err := Decode(msg, time.Now())
	if err != nil {
		c.opts.Metrics.RecordDecodeError()
		c.logger.Debug("Dropping frame", slog.Any("error", err), slog.Int("bytes", len(msg)))
		return
	}
	c.publish(ctx, ev)
}

// publish blocks until the engine takes the event: dropping a patch would
// break per-symbol delivery order.
func (c *Client) publish(ctx context.Context, ev event.Event) {
	select {
	case c.inbox <- ev:
	case <-ctx.Done():
	}
}

// Send writes one command frame. It fails fast when disconnected; callers do not retry.
func (c *Client) Send(cmd domain.Command) error {
	frame, err := Encode(cmd)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return domain.NewNetworkError("send", domain.ErrNotConnected)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return domain.NewNetworkError("send", fmt.Errorf("%s: %w", cmd.Event, err))
	}
	return nil
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.opts.Metrics.DecrementConnections()
	}
	c.connected = false
}

// Disconnect stops reconnecting and closes the connection.
func (c *Client) Disconnect() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConnection()
	c.wg.Wait()
}
