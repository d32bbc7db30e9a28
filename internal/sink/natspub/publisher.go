// Package natspub mirrors feed updates and host log entries to NATS.
package natspub

import (
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Config configures the sink.
type Config struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration

	// DrivePolling makes the sink an active observer, so every feed is
	// polled even when no view shows it.
	DrivePolling bool
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Subject == "" {
		c.Subject = "netinternals"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

// Connect opens a NATS connection that keeps reconnecting in the background.
func Connect(cfg Config) (*nats.Conn, error) {
	cfg.applyDefaults()
	conn, err := nats.Connect(cfg.URL,
		nats.Name("netinternals"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// FeedMessage is published on <subject>.feed.<name>.
type FeedMessage struct {
	Feed  bridge.FeedName `json:"feed"`
	Value any             `json:"value"`
	Time  time.Time       `json:"time"`
}

// EventsMessage is published on <subject>.events.
type EventsMessage struct {
	Entries []events.Entry `json:"entries,omitempty"`
	Cleared bool           `json:"cleared,omitempty"`
}

// Sink publishes what it observes. Publish failures are logged and counted;
// they never reach the bridge.
type Sink struct {
	pub    Publisher
	cfg    Config
	logger *logging.Logger

	mu       sync.Mutex
	feedSubs map[bridge.FeedName]id.SubscriptionID
	tracker  *events.Tracker
	eventSub id.SubscriptionID
	failures int64
}

// New creates a sink publishing through pub.
func New(pub Publisher, cfg Config, logger *logging.Logger) *Sink {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sink{
		pub:      pub,
		cfg:      cfg,
		logger:   logger.For("natspub"),
		feedSubs: make(map[bridge.FeedName]id.SubscriptionID),
	}
}

// Attach observes every feed of b (changes only) and, if tracker is
// non-nil, its log entries.
func (s *Sink) Attach(b *bridge.Bridge, tracker *events.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, feed := range b.Feeds() {
		s.feedSubs[feed.Name()] = feed.Subscribe(s, true)
	}
	if tracker != nil {
		s.tracker = tracker
		s.eventSub = tracker.Subscribe(s)
	}
}

// Detach stops observing.
func (s *Sink) Detach(b *bridge.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, subID := range s.feedSubs {
		b.StopObserving(name, subID)
	}
	s.feedSubs = make(map[bridge.FeedName]id.SubscriptionID)
	if s.tracker != nil {
		s.tracker.Unsubscribe(s.eventSub)
		s.tracker = nil
	}
}

// Failures returns how many publishes failed.
func (s *Sink) Failures() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

func (s *Sink) OnFeedUpdate(feed bridge.FeedName, value any) {
	s.publish(s.cfg.Subject+".feed."+string(feed), FeedMessage{Feed: feed, Value: value, Time: time.Now()})
}

func (s *Sink) IsActive() bool {
	return s.cfg.DrivePolling
}

func (s *Sink) OnReceivedLogEntries(entries []events.Entry) {
	s.publish(s.cfg.Subject+".events", EventsMessage{Entries: entries})
}

func (s *Sink) OnAllEntriesDeleted() {
	s.publish(s.cfg.Subject+".events", EventsMessage{Cleared: true})
}

func (s *Sink) publish(subject string, v any) {
	data, err := sonic.Marshal(v)
	if err == nil {
		err = s.pub.Publish(subject, data)
	}
	if err != nil {
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()
		s.logger.Warn("Publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
