package eventcore

import "github.com/benbjohnson/clock"

// Option configures a [Loop] at construction time.
type Option func(*loopConfig)

type loopConfig struct {
	logger Logger
	clock  clock.Clock
}

// WithLogger sets the [Logger] the loop and its sources write to. The
// default is a discarding logger.
func WithLogger(l Logger) Option {
	return func(c *loopConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the loop's [clock.Clock] source. This exists for
// tests that need deterministic control over monotonic and wall-clock
// time (see [clock.NewMock]); production callers have no reason to call
// it, since the default is [clock.New], the real OS clock.
func WithClock(c clock.Clock) Option {
	return func(cfg *loopConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

func resolveOptions(opts []Option) *loopConfig {
	cfg := &loopConfig{
		logger: discardLogger(),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}
