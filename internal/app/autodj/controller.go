package autodj

import (
	"github.com/osa030/automix/internal/domain/deck"
)

// Controller owns the transition state between ticks.
// It is not safe for concurrent use; callers serialize ticks.
type Controller struct {
	config Config
	state  State
	last   Result
}

// NewController creates a new transition controller with zero state.
func NewController(config Config) *Controller {
	return &Controller{config: config}
}

// Step evaluates one tick and keeps the resulting state.
func (c *Controller) Step(snap deck.Snapshot, keys KeySyncer) Result {
	res := Evaluate(snap, c.state, c.config, keys)
	c.state = res.State
	if res.Defined {
		c.last = res
	}
	return res
}

// Reset clears per-selection flags and counters.
func (c *Controller) Reset() {
	c.state = State{}
	c.last = Result{}
}

// State returns the current transition state.
func (c *Controller) State() State {
	return c.state
}

// Last returns the most recent defined tick result.
func (c *Controller) Last() (Result, bool) {
	return c.last, c.last.Defined
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.config
}
