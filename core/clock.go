package core

import "time"

// Clock tracks time since Start. The zero value starts on first use.
type Clock struct {
	Now func() time.Time

	start   time.Time
	last    time.Time
	running bool
}

func NewClock() *Clock {
	return &Clock{Now: time.Now}
}

func (c *Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Clock) Start() {
	c.start = c.now()
	c.last = c.start
	c.running = true
}

// ElapsedTime returns seconds since Start.
func (c *Clock) ElapsedTime() float64 {
	if !c.running {
		c.Start()
	}
	return c.now().Sub(c.start).Seconds()
}

// Delta returns seconds since the previous Delta call (or Start).
func (c *Clock) Delta() float64 {
	if !c.running {
		c.Start()
		return 0
	}
	now := c.now()
	dt := now.Sub(c.last).Seconds()
	c.last = now
	return dt
}
