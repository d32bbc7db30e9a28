package bridge

import (
	"sync"
	"time"
)

// DefaultPollInterval is armed by SendReady.
const DefaultPollInterval = 5 * time.Second

// scheduler runs tick on a recurring timer. A tick is handed a live check
// that turns false once set is called again; ticks must stop starting work
// when it does. mu is never held while a tick runs.
type scheduler struct {
	tick func(live func() bool)

	mu         sync.Mutex
	interval   time.Duration
	generation uint64
	stop       chan struct{}
}

func newScheduler(tick func(live func() bool)) *scheduler {
	return &scheduler{tick: tick}
}

func (s *scheduler) set(d time.Duration) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.generation++
	s.interval = d
	if d == 0 {
		return
	}

	stop := make(chan struct{})
	s.stop = stop
	go s.run(d, s.generation, stop)
}

func (s *scheduler) run(d time.Duration, generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	live := func() bool { return s.live(generation) }
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !live() {
				return
			}
			s.tick(live)
		}
	}
}

func (s *scheduler) live(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == generation
}

func (s *scheduler) current() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetPollInterval replaces the polling cadence. Each tick polls the feeds
// that have an active observer; zero stops polling. Calling it again with
// the same interval restarts the timer. It never waits for a running tick:
// a tick already sending finishes that send but polls nothing further.
func (b *Bridge) SetPollInterval(d time.Duration) {
	if d > 0 && b.IsDisabled() {
		return
	}
	b.scheduler.set(d)
}

// PollInterval returns the current polling cadence, zero when stopped.
func (b *Bridge) PollInterval() time.Duration {
	return b.scheduler.current()
}

// CheckForUpdatedInfo polls feeds. With force every feed is polled,
// otherwise only those with an active observer.
func (b *Bridge) CheckForUpdatedInfo(force bool) {
	b.pollFeeds(force, func() bool { return true })
}

func (b *Bridge) pollFeeds(force bool, live func() bool) {
	for _, feed := range b.Feeds() {
		if b.IsDisabled() || !live() {
			return
		}
		if force || feed.HasActiveObserver() {
			feed.Poll()
		}
	}
}
