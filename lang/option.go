package lang

import "github.com/ardnew/scribe/log"

// DefaultCheckInterval is the number of instructions the VM executes between
// checks of its context.
const DefaultCheckInterval = 1024

// Option configures parsing, compilation, and execution.
type Option func(*config)

type config struct {
	logger        log.Logger
	specialize    bool
	checkInterval int
}

func makeConfig(opts ...Option) config {
	c := config{specialize: true, checkInterval: DefaultCheckInterval}

	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// WithLogger traces each phase to logger. The zero logger is silent.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithSpecialize selects whether the compiler emits the fused and
// append-specialized instructions. Disabled, every rendered expression is
// computed on the stack and written with a generic Append.
func WithSpecialize(enable bool) Option {
	return func(c *config) { c.specialize = enable }
}

// WithCheckInterval sets how many instructions run between context checks.
// Values below 1 select [DefaultCheckInterval].
func WithCheckInterval(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = DefaultCheckInterval
		}

		c.checkInterval = n
	}
}
