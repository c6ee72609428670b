package attack

import "sync"

// Controller holds the single active attack mode.
type Controller struct {
	mu   sync.RWMutex
	mode Mode
}

// NewController creates a controller with no active mode.
func NewController() *Controller {
	return &Controller{}
}

// Set parses raw and makes it the active mode. Invalid input leaves the state unchanged.
func (c *Controller) Set(raw string) (Mode, error) {
	m, err := ParseMode(raw)
	if err != nil {
		return c.Get(), err
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
	return m, nil
}

// Get returns the active mode.
func (c *Controller) Get() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}
