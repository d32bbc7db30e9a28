package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/netinternals/internal/domain/constants/constantstest"
	"github.com/GriffinCanCode/netinternals/internal/domain/views"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/config"
	"github.com/GriffinCanCode/netinternals/internal/transport/host"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Host.Platform = "linux"
	cfg.Logging.Level = "error"
	cfg.Logging.Development = true
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	return port
}

// handshakingHost answers notifyReady with the constants handshake.
func handshakingHost(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg struct {
				Command string `json:"command"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Command == "notifyReady" {
				_ = conn.WriteJSON(host.Inbound{Command: "receivedConstants", Payload: constantstest.Payload()})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestNewServerRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Compression = "lz4"
	_, err := NewServer(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Host.Platform = "plan9"
	_, err = NewServer(cfg)
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	srv, err := NewServer(testConfig(t))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "netinternals_uptime_seconds")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRunConnectsToHost(t *testing.T) {
	cfg := testConfig(t)
	cfg.Host.URL = handshakingHost(t)
	cfg.Poll.InitialTab = "#dns"
	cfg.Poll.Interval = time.Second

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return srv.bridge.Constants() != nil && srv.bridge.PollInterval() == time.Second
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, views.TabDNS, srv.views.Selected())
	assert.True(t, srv.host.Connected())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
