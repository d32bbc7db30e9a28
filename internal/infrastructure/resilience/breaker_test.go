package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDial = errors.New("dial failed")

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold uint32, cooldown time.Duration) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1700000000, 0)}
	b := New("host", Settings{Threshold: threshold, Cooldown: cooldown})
	b.now = c.now
	return b, c
}

func fail() error    { return errDial }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		threshold     uint32
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			threshold:     1,
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			threshold:     3,
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			threshold:     3,
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker, _ := newTestBreaker(tt.threshold, time.Minute)

			for _, success := range tt.requests {
				if success {
					_ = breaker.Do(succeed)
				} else {
					_ = breaker.Do(fail)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker, _ := newTestBreaker(5, time.Minute)

	require.NoError(t, breaker.Do(succeed))
	assert.ErrorIs(t, breaker.Do(fail), errDial)

	counts := breaker.Counts()
	assert.Equal(t, uint32(2), counts.Attempts)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker, clk := newTestBreaker(2, time.Minute)
	_ = breaker.Do(fail)
	_ = breaker.Do(fail)

	called := false
	err := breaker.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, time.Minute, breaker.RetryAfter())

	clk.advance(20 * time.Second)
	assert.Equal(t, 40*time.Second, breaker.RetryAfter())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	breaker, clk := newTestBreaker(1, time.Minute)
	_ = breaker.Do(fail)
	require.Equal(t, StateOpen, breaker.State())

	clk.advance(time.Minute)
	assert.Equal(t, StateHalfOpen, breaker.State())
	assert.Zero(t, breaker.RetryAfter())

	// A failed probe reopens for a full cooldown.
	assert.ErrorIs(t, breaker.Do(fail), errDial)
	assert.Equal(t, StateOpen, breaker.State())
	assert.Equal(t, time.Minute, breaker.RetryAfter())

	clk.advance(time.Minute)
	require.NoError(t, breaker.Do(succeed))
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerSingleProbe(t *testing.T) {
	breaker, clk := newTestBreaker(1, time.Second)
	_ = breaker.Do(fail)
	clk.advance(time.Second)

	err := breaker.Do(func() error {
		assert.ErrorIs(t, breaker.Do(succeed), ErrCircuitOpen, "second probe while the first runs")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var changes []string
	breaker := New("host", Settings{
		Threshold: 1,
		Cooldown:  time.Hour,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = breaker.Do(fail)
	assert.Equal(t, []string{"host:closed->open"}, changes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
