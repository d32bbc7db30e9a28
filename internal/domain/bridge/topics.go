package bridge

import (
	"sync"

	"github.com/GriffinCanCode/netinternals/internal/shared/id"
)

// Topic is a notification list for host events that are pushed rather than
// polled. Subscribers are called in registration order.
type Topic[T any] struct {
	mu   sync.Mutex
	subs *subscriptions[func(T)]
}

func newTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: newSubscriptions[func(T)]()}
}

// Subscribe registers fn and returns its handle.
func (t *Topic[T]) Subscribe(fn func(T)) id.SubscriptionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs.add(fn)
}

// Unsubscribe removes a registration. Unknown handles are ignored.
func (t *Topic[T]) Unsubscribe(subID id.SubscriptionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs.remove(subID)
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subs.len()
}

func (t *Topic[T]) publish(v T) {
	t.mu.Lock()
	fns := t.subs.values()
	t.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// ConnectionTestPhase is a step of a connection test suite run.
type ConnectionTestPhase string

const (
	SuiteStarted        ConnectionTestPhase = "suite_started"
	ExperimentStarted   ConnectionTestPhase = "experiment_started"
	ExperimentCompleted ConnectionTestPhase = "experiment_completed"
	SuiteCompleted      ConnectionTestPhase = "suite_completed"
)

// ConnectionTestEvent reports connection test progress. Experiment is set
// for the experiment phases, Result only on ExperimentCompleted.
type ConnectionTestEvent struct {
	Phase      ConnectionTestPhase `json:"phase"`
	Experiment any                 `json:"experiment,omitempty"`
	Result     any                 `json:"result,omitempty"`
}
