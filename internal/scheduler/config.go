package scheduler

import "time"

// Config controls the materializer scheduler.
type Config struct {
	// TickInterval is how often the loop wakes up to check for a day
	// rollover.
	TickInterval time.Duration
	// RunTimeout bounds a single materializer run.
	RunTimeout time.Duration
	// RunOnStart triggers a run immediately when the loop starts
	// instead of waiting for the first rollover.
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		TickInterval: time.Minute,
		RunTimeout:   30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
