/*
Package resilience provides the circuit breaker that paces reconnects to
the host.

# Usage

	breaker := resilience.New("host", resilience.Settings{
		Threshold: 3,
		Cooldown:  30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("Circuit breaker changed", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	err := breaker.Do(func() error { return client.Connect(ctx) })
	if errors.Is(err, resilience.ErrCircuitOpen) {
		time.Sleep(breaker.RetryAfter())
	}

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[probe ok]-> Closed
	                                  ^                     |
	                                  +----[probe failed]---+
*/
package resilience
