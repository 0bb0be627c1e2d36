// Package backoff implements the exponential-backoff-with-jitter schedule
// spec.md section 4.2 and section 4.4 both call for (base 500ms, factor 2,
// jitter +/-20%, cap 8s). The teacher repo inlines this twice — once in its
// probe retry loop, once in its chunk worker retry loop — with two subtly
// different schedules; this package gives both call sites one shared,
// spec-exact implementation.
package backoff

import (
	"math/rand"
	"time"
)

// Schedule describes an exponential backoff with jitter.
type Schedule struct {
	Base   time.Duration
	Factor float64
	Jitter float64 // fraction, e.g. 0.2 for +/-20%
	Cap    time.Duration
}

// Default is the schedule spec.md sections 4.2 and 4.4 both specify.
var Default = Schedule{
	Base:   500 * time.Millisecond,
	Factor: 2,
	Jitter: 0.2,
	Cap:    8 * time.Second,
}

// Delay returns the backoff delay for the given zero-based attempt number,
// with jitter applied.
func (s Schedule) Delay(attempt int) time.Duration {
	d := float64(s.Base)
	for i := 0; i < attempt; i++ {
		d *= s.Factor
	}
	if cap := float64(s.Cap); d > cap {
		d = cap
	}

	jitterRange := d * s.Jitter
	d += (rand.Float64()*2 - 1) * jitterRange

	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Sleep blocks for the backoff delay of the given attempt, or returns early
// if done is closed.
func (s Schedule) Sleep(attempt int, done <-chan struct{}) {
	t := time.NewTimer(s.Delay(attempt))
	defer t.Stop()
	select {
	case <-t.C:
	case <-done:
	}
}
