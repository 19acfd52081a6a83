// Package reveal decides, from wall-clock time alone, whether messages may be
// opened yet.
package reveal

import "time"

// Phase is either Locked or Open. Once Open, a Clock never reports Locked
// again for a later instant.
type Phase int

const (
	Locked Phase = iota
	Open
)

func (p Phase) String() string {
	if p == Open {
		return "OPEN"
	}
	return "LOCKED"
}

// Countdown is the time left until the deadline, cascaded through whole
// days, hours, minutes and seconds.
type Countdown struct {
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// totalSeconds folds the countdown back into seconds.
func (c Countdown) totalSeconds() int64 {
	return c.Days*86400 + c.Hours*3600 + c.Minutes*60 + c.Seconds
}

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Clock evaluates one fixed deadline. It caches nothing; every call is
// computed from the instant passed in.
type Clock struct {
	deadline time.Time
}

func NewClock(deadline time.Time) *Clock {
	return &Clock{deadline: deadline}
}

func (c *Clock) Deadline() time.Time {
	return c.deadline
}

// Phase is Open iff now >= deadline.
func (c *Clock) Phase(now time.Time) Phase {
	if now.Before(c.deadline) {
		return Locked
	}
	return Open
}

// Countdown is all zero once the phase is Open.
func (c *Clock) Countdown(now time.Time) Countdown {
	ms := c.deadline.Sub(now).Milliseconds()
	if ms <= 0 {
		return Countdown{}
	}
	return Countdown{
		Days:    ms / msPerDay,
		Hours:   ms % msPerDay / msPerHour,
		Minutes: ms % msPerHour / msPerMinute,
		Seconds: ms % msPerMinute / msPerSecond,
	}
}

// Evaluate returns phase and countdown for the same instant.
func (c *Clock) Evaluate(now time.Time) (Phase, Countdown) {
	return c.Phase(now), c.Countdown(now)
}
