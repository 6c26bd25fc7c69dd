package scene

import (
	"time"

	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/observability/log"
)

// Option is a function that configures a scene.
type Option func(*Config)

// Config holds the optional collaborators of a Scene.
type Config struct {
	Logger  log.Log          // Destination of lifecycle logs, Nop by default
	Bus     bus.EventBus     // Receives lifecycle events when set
	Workers int              // Bucket-parallel main pass when > 0
	Clock   func() time.Time // Time source for tick durations and event timestamps
}

func defaultConfig() Config {
	return Config{
		Logger: log.Nop(),
		Clock:  time.Now,
	}
}

// WithLogger sets the scene logger.
func WithLogger(l log.Log) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithEventBus publishes lifecycle events on b.
func WithEventBus(b bus.EventBus) Option {
	return func(c *Config) { c.Bus = b }
}

// WithParallelUpdate runs the main pass with up to workers goroutines, one
// component bucket per goroutine. Prepare and finish phases stay sequential.
func WithParallelUpdate(workers int) Option {
	return func(c *Config) { c.Workers = workers }
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}
