package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge metrics
	CommandsSent     *prometheus.CounterVec
	SendErrors       *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	PendingMessages  prometheus.Gauge
	BridgeDisabled   prometheus.Gauge

	// Feed metrics
	FeedPolls         *prometheus.CounterVec
	FeedUpdates       *prometheus.CounterVec
	FeedNotifications *prometheus.CounterVec

	// Stream metrics
	StreamClients prometheus.Gauge

	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON status endpoint
type Snapshot struct {
	CommandsSent     int64 `json:"commands_sent"`
	MessagesReceived int64 `json:"messages_received"`
	FeedUpdates      int64 `json:"feed_updates"`
	TotalRequests    int64 `json:"total_requests"`
	TotalErrors      int64 `json:"total_errors"`
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netinternals_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	m.CommandsSent = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_bridge_commands_sent_total",
			Help: "Commands sent to the host",
		},
		[]string{"command"},
	)
	m.SendErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_bridge_send_errors_total",
			Help: "Commands the host channel failed to deliver",
		},
		[]string{"command"},
	)
	m.MessagesReceived = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_bridge_messages_received_total",
			Help: "Messages received from the host",
		},
		[]string{"command", "outcome"},
	)
	m.PendingMessages = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netinternals_bridge_pending_messages",
			Help: "Messages buffered until the constants handshake",
		},
	)
	m.BridgeDisabled = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netinternals_bridge_disabled",
			Help: "1 once the bridge has been disabled",
		},
	)

	m.FeedPolls = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_feed_polls_total",
			Help: "Refresh requests issued per feed",
		},
		[]string{"feed"},
	)
	m.FeedUpdates = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_feed_updates_total",
			Help: "Values received per feed",
		},
		[]string{"feed", "changed"},
	)
	m.FeedNotifications = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netinternals_feed_notifications_total",
			Help: "Observer notifications delivered per feed",
		},
		[]string{"feed"},
	)

	m.StreamClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netinternals_stream_clients",
			Help: "Number of connected live stream clients",
		},
	)

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "netinternals_uptime_seconds",
			Help: "Daemon uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordCommandSent records an outbound command
func (m *Metrics) RecordCommandSent(command string) {
	m.CommandsSent.WithLabelValues(command).Inc()
	m.mu.Lock()
	m.snapshot.CommandsSent++
	m.mu.Unlock()
}

// RecordSendError records a command the host channel could not deliver
func (m *Metrics) RecordSendError(command string) {
	m.SendErrors.WithLabelValues(command).Inc()
}

// RecordMessageReceived records an inbound message and what became of it:
// "handled", "buffered", "replayed" or "dropped".
func (m *Metrics) RecordMessageReceived(command, outcome string) {
	m.MessagesReceived.WithLabelValues(command, outcome).Inc()
	if outcome == "handled" || outcome == "replayed" {
		m.mu.Lock()
		m.snapshot.MessagesReceived++
		m.mu.Unlock()
	}
}

// SetPendingMessages sets the size of the pre-handshake buffer
func (m *Metrics) SetPendingMessages(n int) {
	m.PendingMessages.Set(float64(n))
}

// SetBridgeDisabled marks the bridge as disabled
func (m *Metrics) SetBridgeDisabled() {
	m.BridgeDisabled.Set(1)
}

// RecordFeedPoll records a refresh request for a feed
func (m *Metrics) RecordFeedPoll(feed string) {
	m.FeedPolls.WithLabelValues(feed).Inc()
}

// RecordFeedUpdate records a value arriving on a feed
func (m *Metrics) RecordFeedUpdate(feed string, changed bool, notified int) {
	label := "false"
	if changed {
		label = "true"
	}
	m.FeedUpdates.WithLabelValues(feed, label).Inc()
	if notified > 0 {
		m.FeedNotifications.WithLabelValues(feed).Add(float64(notified))
	}
	m.mu.Lock()
	m.snapshot.FeedUpdates++
	m.mu.Unlock()
}

// IncStreamClients increments live stream clients
func (m *Metrics) IncStreamClients() {
	m.StreamClients.Inc()
}

// DecStreamClients decrements live stream clients
func (m *Metrics) DecStreamClients() {
	m.StreamClients.Dec()
}

// GetSnapshot returns a copy of the running totals
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UptimeDuration returns how long the collector has existed
func (m *Metrics) UptimeDuration() time.Duration {
	return time.Since(m.startTime)
}
