package worker

import "github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"

// Option applies a configuration option to a worker or a pool.
type Option func(*config)

type config struct {
	name   string
	logger logger.Logger
}

// WithName sets the worker name used in logs. Pools suffix it with the index.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) config {
	c := config{name: "autosave"}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = logger.Get()
	}
	return c
}
