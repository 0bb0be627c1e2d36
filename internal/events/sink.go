package events

import (
	"sync"

	"github.com/tthsd/engine/internal/config"
)

// EmitFunc is the engine-side shape of the C ABI callback: two JSON
// strings, (event, data). cmd/libtthsd adapts the raw C function pointer to
// this signature; the demo CLI can subscribe one directly.
type EmitFunc func(eventJSON, dataJSON string)

// RemoteWriter is satisfied by both the WebSocket and raw-TCP remote sink
// transports: write one encoded event, framed however that transport
// requires.
type RemoteWriter interface {
	WriteEvent(eventJSON, dataJSON string) error
	Close() error
}

// Sink fans a single session's event stream out to an optional in-process
// callback and an optional remote transport. Events are serialized per
// session: the dispatcher goroutine drains its queue one at a time, so a
// callback never sees two events interleaved (spec.md section 4.7, 5, 9).
type Sink struct {
	queue    chan Event
	callback EmitFunc
	remote   RemoteWriter

	mu       sync.Mutex
	remoteOK bool

	// Pending "update" events are kept one-per-task in a map rather than
	// queued, so a newer update always replaces an older, undelivered one
	// for the same Task instead of competing with it for queue space
	// (spec.md section 4.7: "newer drops older").
	updMu          sync.Mutex
	pendingUpdates map[string]Event
	updateSignal   chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// New builds a Sink with the spec's fixed queue capacity. callback and
// remote may each be nil.
func New(callback EmitFunc, remote RemoteWriter) *Sink {
	s := &Sink{
		queue:          make(chan Event, config.EventQueueCapacity),
		callback:       callback,
		remote:         remote,
		remoteOK:       remote != nil,
		pendingUpdates: make(map[string]Event),
		updateSignal:   make(chan struct{}, 1),
		done:           make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) run() {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-s.queue:
			if !ok {
				return
			}
			s.deliver(ev)
		case <-s.updateSignal:
			s.flushUpdates()
		}
	}
}

func (s *Sink) flushUpdates() {
	s.updMu.Lock()
	pending := s.pendingUpdates
	s.pendingUpdates = make(map[string]Event)
	s.updMu.Unlock()
	for _, ev := range pending {
		s.deliver(ev)
	}
}

func (s *Sink) deliver(ev Event) {
	eventJSON, dataJSON, err := ev.Encode()
	if err != nil {
		return
	}
	if s.callback != nil {
		s.callback(eventJSON, dataJSON)
	}

	s.mu.Lock()
	remote := s.remote
	ok := s.remoteOK
	s.mu.Unlock()

	if remote != nil && ok {
		if werr := remote.WriteEvent(eventJSON, dataJSON); werr != nil {
			s.mu.Lock()
			s.remoteOK = false
			s.mu.Unlock()
		}
	}
}

// DisableRemote turns off the remote transport for the rest of the session.
// deliver does the same on its own after the first failed remote write.
func (s *Sink) DisableRemote() {
	s.mu.Lock()
	s.remoteOK = false
	s.mu.Unlock()
}

// EmitLifecycle enqueues a lossless event (start, startOne, endOne, end,
// err, msg): it blocks briefly under back-pressure rather than dropping
// (spec.md section 4.7).
func (s *Sink) EmitLifecycle(ev Event) {
	select {
	case s.queue <- ev:
	case <-s.done:
	}
}

// EmitUpdate records a progress update for delivery, replacing any update
// already pending for the same Task: the newer value always wins over the
// older, undelivered one (spec.md section 4.7's "newer drops older").
func (s *Sink) EmitUpdate(ev Event) {
	s.updMu.Lock()
	s.pendingUpdates[ev.Envelope.ID] = ev
	s.updMu.Unlock()

	select {
	case s.updateSignal <- struct{}{}:
	default:
	}
}

// Close drains and closes the sink: no further events will be delivered
// once this returns. Safe to call once per session, at stop time, and only
// after every goroutine that might call EmitLifecycle/EmitUpdate has
// already exited — the session's Stop sequence guarantees this by joining
// all task workers before closing the sink (spec.md section 5).
func (s *Sink) Close() {
	close(s.done)
	close(s.queue)
	s.wg.Wait()
	if s.remote != nil {
		_ = s.remote.Close()
	}
}
