package model

import (
	"sync"
	"sync/atomic"
)

// TaskState is one Task's place in its lifecycle (spec.md section 3).
type TaskState int

const (
	TaskPending TaskState = iota
	TaskProbing
	TaskDownloading
	TaskPaused
	TaskFinishing
	TaskDone
	TaskFailed
)

// Progress is the atomic, concurrently-updated state shared between a
// Task's worker pool and its event dispatcher. Adapted from the teacher's
// ProgressState, generalized from a single download's counters to the
// richer per-Task state machine this spec requires.
type Progress struct {
	Downloaded    atomic.Int64
	TotalSize     atomic.Int64 // -1 while unknown
	ActiveWorkers atomic.Int32
	state         atomic.Int32 // TaskState

	mu       sync.Mutex
	failErr  error
	failOnce sync.Once
}

func NewProgress(total int64) *Progress {
	p := &Progress{}
	p.TotalSize.Store(total)
	p.state.Store(int32(TaskPending))
	return p
}

func (p *Progress) SetState(s TaskState) {
	p.state.Store(int32(s))
}

func (p *Progress) State() TaskState {
	return TaskState(p.state.Load())
}

// SetFailed records the first failure reason and moves to TaskFailed; later
// calls are no-ops so the original cause wins.
func (p *Progress) SetFailed(err error) {
	p.failOnce.Do(func() {
		p.mu.Lock()
		p.failErr = err
		p.mu.Unlock()
		p.SetState(TaskFailed)
	})
}

func (p *Progress) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failErr
}
