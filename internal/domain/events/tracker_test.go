package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	batches [][]Entry
	clears  int
}

func (r *recorder) OnReceivedLogEntries(entries []Entry) { r.batches = append(r.batches, entries) }
func (r *recorder) OnAllEntriesDeleted()                 { r.clears++ }

func data(entries []Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

func TestTrackerAddAndNotify(t *testing.T) {
	tr := NewTracker(10)
	rec := &recorder{}
	tr.Subscribe(rec)

	tr.AddLogEntries([]any{"a", "b"})
	tr.AddLogEntries(nil)
	tr.AddLogEntries([]any{"c"})

	require.Len(t, rec.batches, 2)
	assert.Equal(t, []any{"a", "b"}, data(rec.batches[0]))
	assert.Equal(t, uint64(3), rec.batches[1][0].Seq)
	assert.Equal(t, []any{"a", "b", "c"}, data(tr.Entries()))
	assert.Equal(t, 3, tr.Count())
}

func TestTrackerEvictsOldest(t *testing.T) {
	tr := NewTracker(3)

	tr.AddLogEntries([]any{1, 2})
	tr.AddLogEntries([]any{3, 4, 5})

	assert.Equal(t, []any{3, 4, 5}, data(tr.Entries()))
	assert.Equal(t, uint64(2), tr.Dropped())
}

func TestTrackerSince(t *testing.T) {
	tr := NewTracker(0)
	tr.AddLogEntries([]any{"a", "b", "c"})

	assert.Equal(t, []any{"b", "c"}, data(tr.Since(1)))
	assert.Empty(t, tr.Since(3))
	assert.Len(t, tr.Since(0), 3)
}

func TestTrackerClear(t *testing.T) {
	tr := NewTracker(10)
	rec := &recorder{}
	subID := tr.Subscribe(rec)

	tr.AddLogEntries([]any{"a"})
	tr.Clear()
	assert.Zero(t, tr.Count())
	assert.Equal(t, 1, rec.clears)

	tr.AddLogEntries([]any{"b"})
	assert.Equal(t, uint64(2), tr.Entries()[0].Seq)

	assert.True(t, tr.Unsubscribe(subID))
	assert.False(t, tr.Unsubscribe(subID))
	tr.Clear()
	assert.Equal(t, 1, rec.clears)
}
