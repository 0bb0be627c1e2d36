package events

import (
	"sync"
	"testing"
	"time"
)

type fakeRemote struct {
	mu     sync.Mutex
	events []string
	failAt int
	calls  int
}

func (f *fakeRemote) WriteEvent(eventJSON, dataJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt != 0 && f.calls >= f.failAt {
		return errFake
	}
	f.events = append(f.events, eventJSON)
	return nil
}

func (f *fakeRemote) Close() error { return nil }

var errFake = &fakeError{"fake remote write failure"}

type fakeError struct{ msg string }

func (e *fakeError) Error() string { return e.msg }

func TestSink_DeliversToCallbackAndRemote(t *testing.T) {
	var mu sync.Mutex
	var received []string

	cb := func(eventJSON, dataJSON string) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, eventJSON)
	}

	remote := &fakeRemote{}
	s := New(cb, remote)

	s.EmitLifecycle(Start("1", "batch"))
	s.EmitLifecycle(End("1"))
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("callback got %d events, want 2", len(received))
	}
	if len(remote.events) != 2 {
		t.Fatalf("remote got %d events, want 2", len(remote.events))
	}
}

func TestSink_UpdateIsLossyUnderPressure(t *testing.T) {
	s := New(nil, nil)
	defer s.Close()

	// Fill the queue without a dispatcher draining it quickly by emitting
	// far more updates than capacity in a tight loop; EmitUpdate must never
	// block (it's the whole point of the lossy path).
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			s.EmitUpdate(Update("t1", "", "", int64(i), 100))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("EmitUpdate blocked under pressure; it must be non-blocking")
	}
}

func TestSink_DisablesRemoteOnWriteFailure(t *testing.T) {
	remote := &fakeRemote{failAt: 1}
	s := New(nil, remote)

	s.EmitLifecycle(Start("1", "batch"))
	time.Sleep(20 * time.Millisecond)
	s.EmitLifecycle(End("1"))
	s.Close()

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if len(remote.events) != 0 {
		t.Fatalf("expected no successful remote writes, got %d", len(remote.events))
	}
}
