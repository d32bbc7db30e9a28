// Package host connects the bridge to the host process over a websocket.
//
// Frames are JSON text messages. Outbound: {"command": "...", "args": [...]}.
// Inbound: {"command": "...", "payload": ...}.
package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
)

var (
	ErrNotConnected = errors.New("host not connected")
	ErrConnected    = errors.New("host already connected")
)

// Dispatcher receives inbound messages.
type Dispatcher interface {
	Dispatch(command string, payload any) error
}

// Inbound is one frame from the host.
type Inbound struct {
	Command string `json:"command"`
	Payload any    `json:"payload"`
}

// Config holds connection settings.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Header           http.Header
}

// Client is the websocket link to the host. It satisfies bridge.Host.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates an unconnected client.
func New(cfg Config, logger *logging.Logger) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		logger: logger.For("host"),
	}
}

// Connect dials the host.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return ErrConnected
	}

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, c.cfg.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial host %s: %w (status %d)", c.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial host %s: %w", c.cfg.URL, err)
	}
	c.conn = conn
	c.logger.Info("Connected to host", zap.String("url", c.cfg.URL))
	return nil
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Send writes one outbound frame.
func (c *Client) Send(msg bridge.Outbound) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Command, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Run reads frames and hands them to d until the connection closes or ctx
// is done. An unknown command is a contract violation: the connection is
// closed and the error returned. Frames that are not valid JSON are logged
// and skipped.
func (c *Client) Run(ctx context.Context, d Dispatcher) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Host closed connection")
				return nil
			}
			return fmt.Errorf("read from host: %w", err)
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Skipping malformed frame", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}
		if err := d.Dispatch(msg.Command, msg.Payload); err != nil {
			c.logger.Error("Host sent an unknown command", zap.String("command", msg.Command), zap.Error(err))
			return err
		}
	}
}

// Close closes the connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}
