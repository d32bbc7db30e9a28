package host

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/netinternals/internal/infrastructure/logging"
	"github.com/GriffinCanCode/netinternals/internal/infrastructure/resilience"
)

// SupervisorConfig configures reconnects.
type SupervisorConfig struct {
	// RetryDelay separates a failed or ended session from the next dial.
	RetryDelay time.Duration
	Breaker    resilience.Settings

	// OnConnect runs after every successful dial, before frames are read.
	// first is true only for the first connection.
	OnConnect func(first bool)
}

// Supervisor keeps the client connected, dialing through a circuit breaker
// so an absent host is not hammered.
type Supervisor struct {
	client  *Client
	breaker *resilience.Breaker
	cfg     SupervisorConfig
	logger  *logging.Logger
}

// NewSupervisor wraps c.
func NewSupervisor(c *Client, cfg SupervisorConfig, logger *logging.Logger) *Supervisor {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logger.For("host")
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(name string, from, to resilience.State) {
			log.Info("Host circuit changed", zap.String("from", from.String()), zap.String("to", to.String()))
		}
	}
	return &Supervisor{
		client:  c,
		breaker: resilience.New("host", cfg.Breaker),
		cfg:     cfg,
		logger:  log,
	}
}

// Breaker exposes the dial breaker for status reporting.
func (s *Supervisor) Breaker() *resilience.Breaker {
	return s.breaker
}

// Run dials, serves sessions with d and redials until ctx is done.
func (s *Supervisor) Run(ctx context.Context, d Dispatcher) error {
	first := true
	for {
		err := s.breaker.Do(func() error { return s.client.Connect(ctx) })
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := s.cfg.RetryDelay
			if errors.Is(err, resilience.ErrCircuitOpen) {
				wait = max(s.breaker.RetryAfter(), 10*time.Millisecond)
			} else {
				s.logger.Warn("Host dial failed", zap.Error(err), zap.Duration("retry_in", wait))
			}
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}

		if s.cfg.OnConnect != nil {
			s.cfg.OnConnect(first)
		}
		first = false

		err = s.client.Run(ctx, d)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.logger.Warn("Host session ended", zap.Error(err))
		}
		if !sleep(ctx, s.cfg.RetryDelay) {
			return nil
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
