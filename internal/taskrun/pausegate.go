package taskrun

import "sync"

// pauseGate lets a Task's workers park before starting a new chunk while
// paused, without aborting whatever chunk they're already mid-flight on
// (spec.md section 4.4, 5: "pause ... workers park after finishing the
// current HTTP request; no new requests start").
type pauseGate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
	closed bool
}

func newPauseGate() *pauseGate {
	g := &pauseGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *pauseGate) Pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

func (g *pauseGate) Resume() {
	g.mu.Lock()
	g.paused = false
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Close wakes every parked worker for good (used on stop).
func (g *pauseGate) Close() {
	g.mu.Lock()
	g.closed = true
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Wait blocks while paused, returning false if the gate was closed (stop)
// instead of resumed.
func (g *pauseGate) Wait() (ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.paused && !g.closed {
		g.cond.Wait()
	}
	return !g.closed
}

func (g *pauseGate) IsPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}
