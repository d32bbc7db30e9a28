package ws

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/constants/constantstest"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/monitoring"
)

type recordingHost struct {
	mu   sync.Mutex
	sent []bridge.Outbound
}

func (h *recordingHost) Send(msg bridge.Outbound) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, msg)
	return nil
}

func (h *recordingHost) has(cmd bridge.Command) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msg := range h.sent {
		if msg.Command == cmd {
			return true
		}
	}
	return false
}

type fixture struct {
	host    *recordingHost
	bridge  *bridge.Bridge
	tracker *events.Tracker
	metrics *monitoring.Metrics
	url     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	host := &recordingHost{}
	b := bridge.New(host, bridge.Options{Platform: bridge.PlatformLinux})
	tracker := events.NewTracker(100)
	b.WithLogSink(tracker)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.GET("/stream", NewHandler(b, tracker, metrics, nil).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{
		host:    host,
		bridge:  b,
		tracker: tracker,
		metrics: metrics,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream",
	}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := readUntil(t, conn, TypeSystem)
	require.NotEmpty(t, welcome.ClientID)
	return conn
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWelcome(t *testing.T) {
	f := newFixture(t)
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readUntil(t, conn, TypeSystem)
	assert.True(t, strings.HasPrefix(string(msg.ClientID), "cli_"))
	require.NotNil(t, msg.Status)
	assert.Equal(t, bridge.PlatformLinux, msg.Status.Platform)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StreamClients))
}

func TestSubscribeDeliversFeedValues(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Request{Type: RequestSubscribe, Feeds: []bridge.FeedName{bridge.FeedProxySettings}}))
	readUntil(t, conn, TypeAck)
	assert.True(t, f.host.has(bridge.CmdGetProxySettings), "subscribing polls right away")

	require.NoError(t, f.bridge.Dispatch("receivedConstants", constantstest.Payload()))
	require.NoError(t, f.bridge.Dispatch("receivedProxySettings", "direct"))

	msg := readUntil(t, conn, TypeFeed)
	assert.Equal(t, bridge.FeedProxySettings, msg.Feed)
	assert.Equal(t, "direct", msg.Value)
}

func TestSubscribeUnknownFeed(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Request{Type: RequestSubscribe, Feeds: []bridge.FeedName{bridge.FeedServiceProviders}}))
	msg := readUntil(t, conn, TypeError)
	assert.Equal(t, bridge.FeedServiceProviders, msg.Feed)
}

func TestTopicsAreForwarded(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, f.bridge.Dispatch("receivedConstants", constantstest.Payload()))
	msg := readUntil(t, conn, TypeTopic)
	assert.Equal(t, TopicConstants, msg.Topic)

	require.NoError(t, f.bridge.Dispatch("receivedHSTSResult", map[string]any{"domain": "a.test"}))
	msg = readUntil(t, conn, TypeTopic)
	assert.Equal(t, TopicHSTS, msg.Topic)
	assert.Equal(t, map[string]any{"domain": "a.test"}, msg.Value)
}

func TestCommand(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Request{Type: RequestCommand, Command: "hstsQuery", Args: []any{"a.test"}}))
	msg := readUntil(t, conn, TypeAck)
	assert.Equal(t, bridge.CmdHSTSQuery, msg.Command)
	assert.True(t, f.host.has(bridge.CmdHSTSQuery))

	require.NoError(t, conn.WriteJSON(Request{Type: RequestCommand, Command: "reboot"}))
	msg = readUntil(t, conn, TypeError)
	assert.Contains(t, msg.Error, "unknown command")

	require.NoError(t, conn.WriteJSON(Request{Type: "dance"}))
	msg = readUntil(t, conn, TypeError)
	assert.Contains(t, msg.Error, "dance")
}

func TestEventsStreaming(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Request{Type: RequestEvents, Enabled: true}))
	readUntil(t, conn, TypeAck)

	require.NoError(t, f.bridge.Dispatch("receivedConstants", constantstest.Payload()))
	require.NoError(t, f.bridge.Dispatch("receivedLogEntries", []any{"a", "b"}))

	msg := readUntil(t, conn, TypeEvents)
	require.Len(t, msg.Entries, 2)
	assert.Equal(t, "a", msg.Entries[0].Data)

	f.tracker.Clear()
	readUntil(t, conn, TypeEventsCleared)
}

func TestDisconnectStopsObserving(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	require.NoError(t, conn.WriteJSON(Request{Type: RequestSubscribe, Feeds: []bridge.FeedName{bridge.FeedSocketPoolInfo}}))
	readUntil(t, conn, TypeAck)

	feed, err := f.bridge.Feed(bridge.FeedSocketPoolInfo)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.Status().Observers)

	conn.Close()
	assert.Eventually(t, func() bool {
		return feed.Status().Observers == 0 && f.bridge.HSTSObservers().Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StreamClients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
