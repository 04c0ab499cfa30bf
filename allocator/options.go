package allocator

import "github.com/pqbench/pq/logging"

type config struct {
	logger logging.Logger
}

// Option configures an Allocator at construction.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithLogger sets the logger allocator diagnostics are reported to.
// Only the eager strategy has anything to report (capacity exhaustion,
// immediately before the fatal abort); the default discards it.
func WithLogger(l logging.Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

func resolveOptions(opts []Option) config {
	cfg := config{logger: logging.NoOp()}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(&cfg)
	}
	return cfg
}
