package taskrun

import (
	"sync"

	"github.com/tthsd/engine/internal/model"
)

// chunkQueue is a thread-safe FIFO work queue of model.Chunk, adapted from
// the teacher's TaskQueue (internal/engine/concurrent/task_queue.go):
// dropped its dynamic splitting/work-stealing balancer (not part of this
// spec's range planner, spec.md section 4.3) and kept the blocking
// Pop/Close/idle-worker-counting shape, generalized to carry retry state on
// the chunk itself. A failed chunk is retried in place by the worker that
// popped it (fetchChunkWithRetry); it is not put back on this queue.
type chunkQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	chunks      []model.Chunk
	head        int
	done        bool
	idleWorkers int
}

func newChunkQueue() *chunkQueue {
	q := &chunkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *chunkQueue) PushMultiple(chunks []model.Chunk) {
	q.mu.Lock()
	q.chunks = append(q.chunks, chunks...)
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Push appends a single chunk to the back of the queue, so it is popped
// after every chunk already queued.
func (q *chunkQueue) Push(c model.Chunk) {
	q.mu.Lock()
	q.chunks = append(q.chunks, c)
	q.cond.Signal()
	q.mu.Unlock()
}

// Pop blocks until a chunk is available or the queue is closed.
func (q *chunkQueue) Pop() (model.Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.idleWorkers++
	for len(q.chunks)-q.head == 0 && !q.done {
		q.cond.Wait()
	}
	q.idleWorkers--

	if len(q.chunks)-q.head == 0 {
		return model.Chunk{}, false
	}

	c := q.chunks[q.head]
	q.head++
	if q.head > len(q.chunks)/2 {
		q.chunks = append([]model.Chunk(nil), q.chunks[q.head:]...)
		q.head = 0
	}
	return c, true
}

// Close unblocks every Pop waiting on this queue; they all return !ok.
func (q *chunkQueue) Close() {
	q.mu.Lock()
	q.done = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *chunkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.chunks) - q.head
}

func (q *chunkQueue) IdleWorkers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idleWorkers
}
