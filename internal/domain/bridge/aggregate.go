package bridge

import (
	"sync"

	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// updateAllObserver collects one value from every feed, then calls back once.
type updateAllObserver struct {
	bridge   *Bridge
	callback func(map[FeedName]any)

	mu        sync.Mutex
	subs      map[FeedName]id.SubscriptionID
	remaining int
	values    map[FeedName]any
	done      bool
}

func (o *updateAllObserver) IsActive() bool { return true }

func (o *updateAllObserver) OnFeedUpdate(feed FeedName, value any) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	if _, seen := o.values[feed]; seen {
		o.mu.Unlock()
		return
	}
	o.values[feed] = value
	o.remaining--
	subID, ok := o.subs[feed]
	delete(o.subs, feed)
	finished := o.remaining == 0
	if finished {
		o.done = true
	}
	o.mu.Unlock()

	if ok {
		o.bridge.StopObserving(feed, subID)
	}
	if finished {
		o.callback(o.values)
	}
}

// cancel drops the observer from every feed that has not reported yet. The
// callback will not run afterwards.
func (o *updateAllObserver) cancel() {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.done = true
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	for feed, subID := range subs {
		o.bridge.StopObserving(feed, subID)
	}
}

// UpdateAllInfo polls every feed regardless of activity. If callback is
// non-nil it is called exactly once, after every registered feed has
// reported a value since the call began, with those values keyed by feed.
// The returned function abandons the wait; it is safe to call after the
// callback has run.
func (b *Bridge) UpdateAllInfo(callback func(map[FeedName]any)) (cancel func()) {
	cancel = func() {}
	if callback != nil {
		feeds := b.Feeds()
		if len(feeds) == 0 {
			callback(map[FeedName]any{})
		} else {
			o := &updateAllObserver{
				bridge:    b,
				callback:  callback,
				subs:      make(map[FeedName]id.SubscriptionID, len(feeds)),
				remaining: len(feeds),
				values:    make(map[FeedName]any, len(feeds)),
			}
			// Held while subscribing so a concurrent update cannot finish
			// before every handle is recorded.
			o.mu.Lock()
			for _, feed := range feeds {
				o.subs[feed.Name()] = feed.Subscribe(o, false)
			}
			o.mu.Unlock()
			cancel = o.cancel
		}
	}
	b.CheckForUpdatedInfo(true)
	return cancel
}
