package opt

import (
	"fmt"
	"math"
	"time"
)

// StopCondition bounds a search loop by iterations or wall-clock seconds.
// MaxSeconds takes precedence over MaxIterations. A non-zero Deadline cuts
// every loop sharing it off at that instant, whatever the other limits say.
type StopCondition struct {
	MaxIterations int
	MaxSeconds    float64
	Deadline      time.Time
}

func Iterations(n int) StopCondition     { return StopCondition{MaxIterations: n} }
func Time(seconds float64) StopCondition { return StopCondition{MaxSeconds: seconds} }

// Until bounds a loop by deadline alone.
func Until(deadline time.Time) StopCondition {
	return StopCondition{MaxIterations: math.MaxInt, Deadline: deadline}
}

// WithDeadline returns c cut off at d as well. A zero d leaves c unchanged.
func (c StopCondition) WithDeadline(d time.Time) StopCondition {
	if !d.IsZero() && (c.Deadline.IsZero() || d.Before(c.Deadline)) {
		c.Deadline = d
	}
	return c
}

func (c StopCondition) String() string {
	var out string
	switch {
	case c.MaxSeconds > 0:
		out = fmt.Sprintf("time(%gs)", c.MaxSeconds)
	case c.MaxIterations == math.MaxInt:
		out = "unbounded"
	default:
		out = fmt.Sprintf("iterations(%d)", c.MaxIterations)
	}
	if !c.Deadline.IsZero() {
		out += " until " + c.Deadline.Format(time.RFC3339Nano)
	}
	return out
}

// Guard tracks one loop's progress against a StopCondition.
type Guard struct {
	cond    StopCondition
	started time.Time
	calls   int
	now     func() time.Time
}

func NewGuard(c StopCondition) *Guard { return newGuardWithClock(c, time.Now) }

// optionalGuard returns nil for a nil condition. A nil Guard never stops.
func optionalGuard(c *StopCondition) *Guard {
	if c == nil {
		return nil
	}
	return NewGuard(*c)
}

func newGuardWithClock(c StopCondition, now func() time.Time) *Guard {
	return &Guard{cond: c, started: now(), now: now}
}

// ShouldContinue is queried once per loop head. An iteration guard returns
// true for exactly MaxIterations calls; a time guard while elapsed < MaxSeconds.
// Both return false once the deadline has passed.
func (g *Guard) ShouldContinue() bool {
	if g == nil {
		return true
	}
	g.calls++
	if !g.cond.Deadline.IsZero() && !g.now().Before(g.cond.Deadline) {
		return false
	}
	if g.cond.MaxSeconds > 0 {
		return g.now().Sub(g.started).Seconds() < g.cond.MaxSeconds
	}
	return g.calls <= g.cond.MaxIterations
}

// Iterations returns how many times ShouldContinue has been called.
func (g *Guard) Iterations() int { return g.calls }

func (g *Guard) Elapsed() time.Duration { return g.now().Sub(g.started) }
