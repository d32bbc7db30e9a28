// Package events keeps the host's log entries for viewing and export.
package events

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// DefaultCapacity bounds the tracker when no capacity is configured.
const DefaultCapacity = 50000

// Entry is one host log entry. Data is the entry as decoded from the host.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Received time.Time `json:"received"`
	Data     any       `json:"data"`
}

// Observer is told about appended batches and clears.
type Observer interface {
	OnReceivedLogEntries(entries []Entry)
	OnAllEntriesDeleted()
}

// Tracker is a bounded in-memory store of log entries. Once full, the
// oldest entries are dropped.
type Tracker struct {
	capacity int

	mu        sync.Mutex
	entries   []Entry
	nextSeq   uint64
	dropped   uint64
	order     []id.SubscriptionID
	observers map[id.SubscriptionID]Observer
}

// NewTracker creates a tracker holding at most capacity entries.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity:  capacity,
		nextSeq:   1,
		observers: make(map[id.SubscriptionID]Observer),
	}
}

// AddLogEntries appends a batch. Observers get the batch as stored,
// including entries that were immediately evicted.
func (t *Tracker) AddLogEntries(data []any) {
	if len(data) == 0 {
		return
	}

	now := time.Now()
	batch := make([]Entry, len(data))

	t.mu.Lock()
	for i, d := range data {
		batch[i] = Entry{Seq: t.nextSeq, Received: now, Data: d}
		t.nextSeq++
	}
	t.entries = append(t.entries, batch...)
	if over := len(t.entries) - t.capacity; over > 0 {
		t.entries = append([]Entry(nil), t.entries[over:]...)
		t.dropped += uint64(over)
	}
	observers := t.snapshotObservers()
	t.mu.Unlock()

	for _, o := range observers {
		o.OnReceivedLogEntries(batch)
	}
}

// Entries returns a copy of the stored entries, oldest first.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}

// Since returns stored entries with a sequence number greater than seq.
func (t *Tracker) Since(seq uint64) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.Seq > seq {
			return append([]Entry(nil), t.entries[i:]...)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Dropped returns how many entries were evicted for capacity.
func (t *Tracker) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Clear deletes every entry. Sequence numbers keep increasing.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.entries = nil
	observers := t.snapshotObservers()
	t.mu.Unlock()

	for _, o := range observers {
		o.OnAllEntriesDeleted()
	}
}

// Subscribe registers an observer.
func (t *Tracker) Subscribe(o Observer) id.SubscriptionID {
	t.mu.Lock()
	defer t.mu.Unlock()

	subID := id.NewSubscriptionID()
	t.order = append(t.order, subID)
	t.observers[subID] = o
	return subID
}

// Unsubscribe removes an observer. Unknown handles are ignored.
func (t *Tracker) Unsubscribe(subID id.SubscriptionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.observers[subID]; !ok {
		return false
	}
	delete(t.observers, subID)
	for i, existing := range t.order {
		if existing == subID {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *Tracker) snapshotObservers() []Observer {
	out := make([]Observer, 0, len(t.order))
	for _, subID := range t.order {
		out = append(out, t.observers[subID])
	}
	return out
}
