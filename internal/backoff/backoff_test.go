package backoff

import (
	"testing"
	"time"
)

func TestDelay_GrowsAndCaps(t *testing.T) {
	s := Default

	for attempt := 0; attempt < 10; attempt++ {
		d := s.Delay(attempt)
		if d < 0 {
			t.Fatalf("attempt %d: negative delay %v", attempt, d)
		}
		maxAllowed := s.Cap + time.Duration(float64(s.Cap)*s.Jitter)
		if d > maxAllowed {
			t.Fatalf("attempt %d: delay %v exceeds cap+jitter %v", attempt, d, maxAllowed)
		}
		nominal := float64(s.Base)
		for i := 0; i < attempt; i++ {
			nominal *= s.Factor
		}
		if nominal > float64(s.Cap) {
			nominal = float64(s.Cap)
		}
		minAllowed := time.Duration(nominal*(1-s.Jitter)) - 1
		if d < minAllowed {
			t.Fatalf("attempt %d: delay %v below the grown floor %v", attempt, d, minAllowed)
		}
	}
}

func TestDelay_FirstAttemptNearBase(t *testing.T) {
	s := Default
	d := s.Delay(0)
	lo := s.Base - time.Duration(float64(s.Base)*s.Jitter) - 1
	hi := s.Base + time.Duration(float64(s.Base)*s.Jitter) + 1
	if d < lo || d > hi {
		t.Fatalf("attempt 0 delay %v outside expected jitter band [%v, %v]", d, lo, hi)
	}
}
