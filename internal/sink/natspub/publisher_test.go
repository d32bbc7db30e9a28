package natspub

import (
	"errors"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/netinternals/internal/domain/bridge"
	"github.com/GriffinCanCode/netinternals/internal/domain/constants/constantstest"
	"github.com/GriffinCanCode/netinternals/internal/domain/events"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, message{subject, data})
	return nil
}

type nopHost struct{}

func (nopHost) Send(bridge.Outbound) error { return nil }

func newBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	b := bridge.New(nopHost{}, bridge.Options{Platform: bridge.PlatformLinux})
	require.NoError(t, b.Dispatch("receivedConstants", constantstest.Payload()))
	return b
}

func TestSinkPublishesFeedChanges(t *testing.T) {
	b := newBridge(t)
	pub := &fakePublisher{}
	sink := New(pub, Config{Subject: "lab"}, nil)
	sink.Attach(b, nil)

	require.NoError(t, b.Dispatch("receivedSpdyStatus", map[string]any{"enabled": true}))
	require.NoError(t, b.Dispatch("receivedSpdyStatus", map[string]any{"enabled": true}))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "lab.feed.spdyStatus", pub.msgs[0].subject)

	var msg FeedMessage
	require.NoError(t, sonic.Unmarshal(pub.msgs[0].data, &msg))
	assert.Equal(t, bridge.FeedSpdyStatus, msg.Feed)
	assert.Equal(t, map[string]any{"enabled": true}, msg.Value)
}

func TestSinkPublishesEvents(t *testing.T) {
	b := newBridge(t)
	tracker := events.NewTracker(10)
	b.WithLogSink(tracker)
	pub := &fakePublisher{}
	sink := New(pub, Config{}, nil)
	sink.Attach(b, tracker)

	require.NoError(t, b.Dispatch("receivedLogEntries", []any{"a", "b"}))
	tracker.Clear()

	require.Len(t, pub.msgs, 2)
	assert.Equal(t, "netinternals.events", pub.msgs[0].subject)

	var batch EventsMessage
	require.NoError(t, sonic.Unmarshal(pub.msgs[0].data, &batch))
	assert.Len(t, batch.Entries, 2)

	var cleared EventsMessage
	require.NoError(t, sonic.Unmarshal(pub.msgs[1].data, &cleared))
	assert.True(t, cleared.Cleared)
}

func TestSinkDetach(t *testing.T) {
	b := newBridge(t)
	tracker := events.NewTracker(10)
	pub := &fakePublisher{}
	sink := New(pub, Config{}, nil)
	sink.Attach(b, tracker)
	sink.Detach(b)

	require.NoError(t, b.Dispatch("receivedBadProxies", []any{}))
	tracker.AddLogEntries([]any{"x"})

	assert.Empty(t, pub.msgs)
	for _, feed := range b.Feeds() {
		assert.Zero(t, feed.Status().Observers)
	}
}

func TestSinkDrivePolling(t *testing.T) {
	passive := New(&fakePublisher{}, Config{}, nil)
	assert.False(t, passive.IsActive())

	active := New(&fakePublisher{}, Config{DrivePolling: true}, nil)
	assert.True(t, active.IsActive())
}

func TestSinkCountsFailures(t *testing.T) {
	b := newBridge(t)
	pub := &fakePublisher{err: errors.New("no responders")}
	sink := New(pub, Config{}, nil)
	sink.Attach(b, nil)

	require.NoError(t, b.Dispatch("receivedPrerenderInfo", map[string]any{}))

	assert.Equal(t, int64(1), sink.Failures())
}
