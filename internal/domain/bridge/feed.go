package bridge

import (
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// Observer receives feed values.
type Observer interface {
	// OnFeedUpdate is called with the feed's current value.
	OnFeedUpdate(feed FeedName, value any)
	// IsActive reports whether the observer currently wants fresh data
	// (e.g. its view is visible). Polling skips feeds with no active
	// observer.
	IsActive() bool
}

// ObserverFuncs adapts plain functions to Observer. A nil Active means
// always active.
type ObserverFuncs struct {
	Update func(feed FeedName, value any)
	Active func() bool
}

func (o ObserverFuncs) OnFeedUpdate(feed FeedName, value any) {
	if o.Update != nil {
		o.Update(feed, value)
	}
}

func (o ObserverFuncs) IsActive() bool {
	if o.Active == nil {
		return true
	}
	return o.Active()
}

type binding struct {
	observer           Observer
	notifyOnlyOnChange bool
	receivedFirstValue bool
}

// FeedStatus describes a feed for status endpoints.
type FeedStatus struct {
	Name         FeedName     `json:"name"`
	HasValue     bool         `json:"has_value"`
	Observers    int          `json:"observers"`
	Active       bool         `json:"active"`
	LastUpdate   time.Time    `json:"last_update"`
	Updates      int64        `json:"updates"`
	RoundTrip    LatencyStats `json:"round_trip"`
	PollInFlight bool         `json:"poll_in_flight"`
}

// Feed tracks the last known value of one category of host state and the
// observers interested in it.
type Feed struct {
	name    FeedName
	refresh func()
	onPoll  func(FeedName)
	onValue func(name FeedName, changed bool, notified int)

	mu         sync.Mutex
	value      any
	hasValue   bool
	bindings   *subscriptions[*binding]
	pollSent   time.Time
	lastUpdate time.Time
	updates    int64
	latency    latencyWindow
}

// NewFeed creates a feed whose Poll runs refresh.
func NewFeed(name FeedName, refresh func()) *Feed {
	return &Feed{
		name:     name,
		refresh:  refresh,
		bindings: newSubscriptions[*binding](),
	}
}

// Name returns the feed name.
func (f *Feed) Name() FeedName {
	return f.name
}

// Subscribe registers an observer. It is not notified immediately; it gets
// the current value on the next Update whether or not that value changed.
// With notifyOnlyOnChange it is afterwards only told about changes.
func (f *Feed) Subscribe(o Observer, notifyOnlyOnChange bool) id.SubscriptionID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bindings.add(&binding{observer: o, notifyOnlyOnChange: notifyOnlyOnChange})
}

// Unsubscribe removes a registration. Unknown handles are ignored.
func (f *Feed) Unsubscribe(subID id.SubscriptionID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bindings.remove(subID)
}

// Update records a value from the host and notifies observers. Observers are
// called outside the feed's lock, so they may unsubscribe themselves.
func (f *Feed) Update(value any) {
	f.mu.Lock()
	changed := !f.hasValue || !equalValues(f.value, value)
	if changed {
		f.value = value
		f.hasValue = true
	}
	now := time.Now()
	if !f.pollSent.IsZero() {
		f.latency.add(now.Sub(f.pollSent))
		f.pollSent = time.Time{}
	}
	f.lastUpdate = now
	f.updates++

	current := f.value
	var targets []Observer
	for _, b := range f.bindings.values() {
		if changed || !b.receivedFirstValue || !b.notifyOnlyOnChange {
			targets = append(targets, b.observer)
			b.receivedFirstValue = true
		}
	}
	f.mu.Unlock()

	for _, o := range targets {
		o.OnFeedUpdate(f.name, current)
	}
	if f.onValue != nil {
		f.onValue(f.name, changed, len(targets))
	}
}

// Poll asks the host for a fresh value. The answer arrives later through
// Update.
func (f *Feed) Poll() {
	f.mu.Lock()
	if f.pollSent.IsZero() {
		f.pollSent = time.Now()
	}
	f.mu.Unlock()

	if f.onPoll != nil {
		f.onPoll(f.name)
	}
	if f.refresh != nil {
		f.refresh()
	}
}

// HasActiveObserver reports whether any observer currently wants data.
func (f *Feed) HasActiveObserver() bool {
	f.mu.Lock()
	observers := f.bindings.values()
	f.mu.Unlock()

	for _, b := range observers {
		if b.observer.IsActive() {
			return true
		}
	}
	return false
}

// Value returns the last value received, if any.
func (f *Feed) Value() (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.hasValue
}

// Status returns a snapshot of the feed's bookkeeping.
func (f *Feed) Status() FeedStatus {
	active := f.HasActiveObserver()

	f.mu.Lock()
	defer f.mu.Unlock()
	return FeedStatus{
		Name:         f.name,
		HasValue:     f.hasValue,
		Observers:    f.bindings.len(),
		Active:       active,
		LastUpdate:   f.lastUpdate,
		Updates:      f.updates,
		RoundTrip:    f.latency.summary(),
		PollInFlight: !f.pollSent.IsZero(),
	}
}

// equalValues compares payloads structurally. Values cmp cannot walk (structs
// with unexported fields) count as different.
func equalValues(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return cmp.Equal(a, b)
}
