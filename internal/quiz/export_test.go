package quiz

import "time"

func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Controller) SetIDGenerator(newID func() string) {
	c.newID = newID
}
