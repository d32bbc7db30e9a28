package bridge

import "github.com/GriffinCanCode/netinternals/internal/shared/id"

// subscriptions is an insertion-ordered registry keyed by subscription
// handle. Callers provide their own locking.
type subscriptions[T any] struct {
	order   []id.SubscriptionID
	entries map[id.SubscriptionID]T
}

func newSubscriptions[T any]() *subscriptions[T] {
	return &subscriptions[T]{entries: make(map[id.SubscriptionID]T)}
}

func (s *subscriptions[T]) add(v T) id.SubscriptionID {
	subID := id.NewSubscriptionID()
	s.order = append(s.order, subID)
	s.entries[subID] = v
	return subID
}

func (s *subscriptions[T]) remove(subID id.SubscriptionID) bool {
	if _, ok := s.entries[subID]; !ok {
		return false
	}
	delete(s.entries, subID)
	for i, existing := range s.order {
		if existing == subID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *subscriptions[T]) values() []T {
	out := make([]T, 0, len(s.order))
	for _, subID := range s.order {
		out = append(out, s.entries[subID])
	}
	return out
}

func (s *subscriptions[T]) len() int {
	return len(s.order)
}
