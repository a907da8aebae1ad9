package counter

import "sync"

// DefaultCountdown is how many "not yet" answers a resource gives before it
// reports ready.
const DefaultCountdown = 2

// Countdown is the decrementing cousin of the bounded counter. Each resource
// starts with a budget of polls that answer "not ready"; once the budget is
// spent the next poll answers "ready" and the budget refills.
type Countdown struct {
	mu        sync.Mutex
	defaults  int
	maxima    map[string]int
	remaining map[string]int
}

// NewCountdown builds a Countdown. perResource overrides the default budget
// for a resource type; keys passed to Ready are "<type>" or "<type>:<id>".
func NewCountdown(defaultMax int, perResource map[string]int) *Countdown {
	if defaultMax < 0 {
		defaultMax = 0
	}
	maxima := make(map[string]int, len(perResource))
	for k, v := range perResource {
		maxima[k] = v
	}
	return &Countdown{
		defaults:  defaultMax,
		maxima:    maxima,
		remaining: make(map[string]int),
	}
}

// Ready consumes one poll for the resource and reports whether it is ready.
func (c *Countdown) Ready(resourceType, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := resourceType + ":" + id
	left, seen := c.remaining[key]
	if !seen {
		left = c.max(resourceType)
	}
	if left > 0 {
		c.remaining[key] = left - 1
		return false
	}
	c.remaining[key] = c.max(resourceType)
	return true
}

// Forget drops the budget for one resource so its next poll starts fresh.
func (c *Countdown) Forget(resourceType, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.remaining, resourceType+":"+id)
}

func (c *Countdown) max(resourceType string) int {
	if m, ok := c.maxima[resourceType]; ok {
		return m
	}
	return c.defaults
}
