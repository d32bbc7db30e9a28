package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
)

// fakeHost is a websocket server that sends frames and records what it
// receives.
type fakeHost struct {
	server   *httptest.Server
	frames   []string
	received chan string
}

func newFakeHost(t *testing.T, frames ...string) *fakeHost {
	t.Helper()
	h := &fakeHost{frames: frames, received: make(chan string, 16)}
	upgrader := websocket.Upgrader{}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Wait for the first outbound frame so the client is reading.
		if _, data, err := conn.ReadMessage(); err == nil {
			h.received <- string(data)
		}
		for _, f := range h.frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			h.received <- string(data)
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *fakeHost) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http")
}

type recordingDispatcher struct {
	mu       sync.Mutex
	commands []string
	payloads []any
	reject   string
}

func (d *recordingDispatcher) Dispatch(command string, payload any) error {
	if command == d.reject {
		return bridge.ErrUnknownCommand
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, command)
	d.payloads = append(d.payloads, payload)
	return nil
}

func TestSendBeforeConnect(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1"}, nil)

	assert.ErrorIs(t, c.Send(bridge.Outbound{Command: bridge.CmdNotifyReady}), ErrNotConnected)
	assert.ErrorIs(t, c.Run(context.Background(), &recordingDispatcher{}), ErrNotConnected)
	assert.NoError(t, c.Close())
}

func TestRunDispatchesFrames(t *testing.T) {
	h := newFakeHost(t,
		`{"command":"receivedSpdyStatus","payload":{"enabled":true}}`,
		`not json`,
		`{"command":"receivedBadProxies","payload":[1,2]}`,
	)
	c := New(Config{URL: h.url()}, nil)
	require.NoError(t, c.Connect(context.Background()))
	assert.ErrorIs(t, c.Connect(context.Background()), ErrConnected)

	require.NoError(t, c.Send(bridge.Outbound{Command: bridge.CmdHSTSQuery, Args: []any{"example.com"}}))
	assert.JSONEq(t, `{"command":"hstsQuery","args":["example.com"]}`, <-h.received)

	ctx, cancel := context.WithCancel(context.Background())
	d := &recordingDispatcher{}
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, d) }()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.commands) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Send(bridge.Outbound{Command: bridge.CmdNotifyReady}))
	assert.JSONEq(t, `{"command":"notifyReady"}`, <-h.received)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, c.Connected())

	assert.Equal(t, []string{"receivedSpdyStatus", "receivedBadProxies"}, d.commands)
	assert.Equal(t, map[string]any{"enabled": true}, d.payloads[0])
	assert.Equal(t, []any{float64(1), float64(2)}, d.payloads[1])
}

func TestRunStopsOnUnknownCommand(t *testing.T) {
	h := newFakeHost(t,
		`{"command":"receivedMystery","payload":null}`,
		`{"command":"receivedSpdyStatus","payload":{}}`,
	)
	c := New(Config{URL: h.url()}, nil)
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Send(bridge.Outbound{Command: bridge.CmdNotifyReady}))

	d := &recordingDispatcher{reject: "receivedMystery"}
	err := c.Run(context.Background(), d)

	assert.ErrorIs(t, err, bridge.ErrUnknownCommand)
	assert.Empty(t, d.commands)
	assert.False(t, c.Connected())
}

func TestBridgeOverWebsocket(t *testing.T) {
	h := newFakeHost(t, `{"command":"receivedSpdyStatus","payload":"early"}`)
	c := New(Config{URL: h.url()}, nil)
	require.NoError(t, c.Connect(context.Background()))

	b := bridge.New(c, bridge.Options{Platform: bridge.PlatformLinux})
	t.Cleanup(func() { b.SetPollInterval(0) })
	require.NoError(t, b.SendReady())
	assert.JSONEq(t, `{"command":"notifyReady"}`, <-h.received)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, b)

	require.Eventually(t, func() bool { return b.PendingCount() == 1 }, time.Second, 5*time.Millisecond)
}
