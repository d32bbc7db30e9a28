package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Threshold is the number of consecutive failures that opens the circuit
	Threshold uint32
	// Cooldown is how long the circuit stays open before one probe is let through
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes, outside the lock
	OnStateChange func(name string, from State, to State)
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Attempts            uint32
	TotalSuccesses      uint32
	TotalFailures       uint32
	ConsecutiveFailures uint32
}

// Breaker guards a flaky dependency such as the host link. After Threshold
// consecutive failures calls fail fast for Cooldown; then a single probe is
// allowed, which closes the circuit on success and reopens it on failure.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState(b.now())
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// RetryAfter returns how long until the circuit lets a probe through, zero
// unless it is open.
func (b *Breaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if b.currentState(now) != StateOpen {
		return 0
	}
	return b.openedAt.Add(b.settings.Cooldown).Sub(now)
}

// Do runs fn if the circuit accepts it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}

	var err error
	defer func() {
		if e := recover(); e != nil {
			b.after(false)
			panic(e)
		}
	}()
	err = fn()
	b.after(err == nil)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState(b.now()) {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.counts.Attempts++
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	now := b.now()
	prev := b.currentState(now)
	b.probing = false

	next := prev
	if success {
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveFailures = 0
		next = StateClosed
	} else {
		b.counts.TotalFailures++
		b.counts.ConsecutiveFailures++
		if prev == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.Threshold {
			next = StateOpen
			b.openedAt = now
		}
	}
	b.state = next
	b.mu.Unlock()

	if next != prev && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, prev, next)
	}
}

// currentState moves an open circuit to half-open once the cooldown ends.
func (b *Breaker) currentState(now time.Time) State {
	if b.state == StateOpen && !now.Before(b.openedAt.Add(b.settings.Cooldown)) {
		b.state = StateHalfOpen
	}
	return b.state
}
