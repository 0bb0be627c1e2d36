// Package session implements the Session state machine (spec.md section
// 4.6): a batch of Tasks sharing configuration, dispatched serially or in
// parallel, with pause/resume/stop cascading to every Task's Runtime.
// Grounded on the teacher's cmd/root.go + internal/engine wiring, which
// plays the same "own the whole batch, fan out to one downloader per file"
// role for a single CLI invocation; this package generalizes that to many
// concurrent named Sessions behind a registry.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/events"
	"github.com/tthsd/engine/internal/model"
	"github.com/tthsd/engine/internal/taskrun"
	"github.com/tthsd/engine/internal/tthsderr"
)

// State is a Session's place in the lifecycle spec.md section 4.6 defines.
type State int

const (
	Created State = iota
	Running
	Paused
	Stopping
	Done
	Failed
)

// Session owns a batch of Tasks, their shared RuntimeConfig, and the event
// Sink they all report through.
type Session struct {
	ID       int
	Name     string
	Tasks    []model.TaskDescriptor
	Config   *config.RuntimeConfig
	Sink     *events.Sink
	Parallel bool

	mu       sync.Mutex
	state    State
	runtimes []*taskrun.Runtime
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
}

// New builds a Created Session. tasks must already be validated and
// defaulted (model.TaskDescriptor.Validate/ApplyDefaults) by the caller.
func New(id int, name string, tasks []model.TaskDescriptor, cfg *config.RuntimeConfig, sink *events.Sink) *Session {
	return &Session{
		ID:     id,
		Name:   name,
		Tasks:  tasks,
		Config: cfg,
		Sink:   sink,
		state:  Created,
	}
}

// State reports the Session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins running the batch in the requested dispatch mode and
// returns immediately; the Session runs to completion on its own
// goroutines, reporting progress only through the event Sink (spec.md
// section 4.1: start_download_id/start_multiple_downloads_id are control
// operations, not synchronous downloads).
func (s *Session) Start(parallel bool) error {
	s.mu.Lock()
	if s.state != Created {
		s.mu.Unlock()
		return fmt.Errorf("session %d: start called from state %d, want Created", s.ID, s.state)
	}
	s.Parallel = parallel
	s.state = Running
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.runtimes = make([]*taskrun.Runtime, len(s.Tasks))
	for i, t := range s.Tasks {
		s.runtimes[i] = taskrun.New(t, i, len(s.Tasks), s.Name, s.Config, s.Sink)
	}
	s.mu.Unlock()

	s.Sink.EmitLifecycle(events.Start(fmt.Sprintf("%d", s.ID), s.Name))

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()

	if s.Parallel {
		s.runParallel(ctx)
	} else {
		s.runSerial(ctx)
	}

	s.mu.Lock()
	if s.state != Stopping {
		if s.anyFailed() {
			s.state = Failed
		} else {
			s.state = Done
		}
	}
	s.mu.Unlock()

	s.Sink.EmitLifecycle(events.End(fmt.Sprintf("%d", s.ID)))
}

func (s *Session) runSerial(ctx context.Context) {
	for _, rt := range s.runtimes {
		if ctx.Err() != nil {
			return
		}
		_ = rt.Run(ctx) // per-Task failure is reported via its own err event; siblings proceed (spec.md section 4.6)
	}
}

func (s *Session) runParallel(ctx context.Context) {
	var wg sync.WaitGroup
	for _, rt := range s.runtimes {
		wg.Add(1)
		go func(rt *taskrun.Runtime) {
			defer wg.Done()
			_ = rt.Run(ctx)
		}(rt)
	}
	wg.Wait()
}

func (s *Session) anyFailed() bool {
	for _, rt := range s.runtimes {
		if rt.Progress().State() == model.TaskFailed {
			return true
		}
	}
	return false
}

// Pause cascades to every Task's Runtime (spec.md section 4.4, 5: observable
// within one RTT, in-flight requests finish before parking).
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return fmt.Errorf("session %d: pause called from state %d, want Running", s.ID, s.state)
	}
	s.state = Paused
	for _, rt := range s.runtimes {
		rt.Pause()
	}
	return nil
}

// Resume cascades to every parked Runtime.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Paused {
		return fmt.Errorf("session %d: resume called from state %d, want Paused", s.ID, s.state)
	}
	s.state = Running
	for _, rt := range s.runtimes {
		rt.Resume()
	}
	return nil
}

// Stop cancels every in-flight request, waits for all Task goroutines to
// exit, closes the event sink, and marks the Session terminal. It is
// idempotent: a second call returns tthsderr.ErrCancelled so the registry
// caller can map it to the spec's "stop twice returns -1" property.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return tthsderr.ErrCancelled
	}
	s.stopped = true
	wasCreated := s.state == Created
	s.state = Stopping
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	if wasCreated {
		// Never started: no run() goroutine will emit "end", so stop does it.
		s.Sink.EmitLifecycle(events.End(fmt.Sprintf("%d", s.ID)))
	}

	s.mu.Lock()
	s.state = Done
	s.mu.Unlock()

	s.Sink.Close()
	return nil
}
