package taskrun

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tthsd/engine/internal/backoff"
	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/model"
	"github.com/tthsd/engine/internal/tthsderr"
)

const workerBufferSize = 256 * 1024

var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, workerBufferSize)
		return &buf
	},
}

// worker repeatedly dequeues chunks and fetches them until the queue
// closes or ctx is cancelled (stop). Grounded on the teacher's worker loop
// in internal/engine/concurrent/worker.go, simplified: this spec's planner
// produces a fixed partition up front (spec.md section 4.3) so there is no
// dynamic chunk-splitting/work-stealing balancer to carry over.
func (r *Runtime) worker(ctx context.Context, rawurl string) error {
	bufPtr := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufPtr)
	buf := *bufPtr

	for {
		if ctx.Err() != nil {
			return nil
		}
		if ok := r.gate.Wait(); !ok {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		chunk, ok := r.queue.Pop()
		if !ok {
			return nil
		}

		r.progress.ActiveWorkers.Add(1)
		err := r.fetchChunkWithRetry(ctx, rawurl, chunk, buf)
		r.progress.ActiveWorkers.Add(-1)

		if err != nil {
			return err
		}
	}
}

// fetchChunkWithRetry attempts chunk up to its retry budget. In the chunked
// (ranged) case, a partial failure resumes only the remaining bytes, per
// spec.md section 4.4; in the single-stream fallback, a no-Range server
// always restarts the body at byte 0, so a partial failure there restarts
// the whole chunk instead. It returns a non-nil error only once retries are
// exhausted, at which point the Task is done for.
func (r *Runtime) fetchChunkWithRetry(ctx context.Context, rawurl string, chunk model.Chunk, buf []byte) error {
	remaining := chunk
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil
		}
		if attempt > 0 {
			backoff.Default.Sleep(attempt, ctx.Done())
			if ctx.Err() != nil {
				return nil
			}
		}

		written, err := r.fetchOnce(ctx, rawurl, remaining, buf)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		if r.singleStream {
			// A single-stream retry has no Range header, so the server
			// re-sends the body from byte 0: undo the partial write's
			// progress credit and restart the whole chunk, rather than
			// resuming at the offset the previous attempt reached.
			if written > 0 {
				r.progress.Downloaded.Add(-written)
			}
			remaining = model.Chunk{Start: chunk.Start, End: chunk.End, RetriesLeft: remaining.RetriesLeft - 1}
		} else {
			remaining = model.Chunk{Start: remaining.Start + written, End: remaining.End, RetriesLeft: remaining.RetriesLeft - 1}
		}
		if remaining.Len() <= 0 {
			return nil
		}
		if remaining.RetriesLeft <= 0 {
			return fmt.Errorf("%w: chunk [%d,%d) failed after retries: %w", tthsderr.ErrNetworkError, chunk.Start, chunk.End, err)
		}
	}
}

// fetchOnce issues one ranged GET for chunk and streams the body into the
// writer at absolute offsets, returning the number of bytes successfully
// written even on a mid-stream error (so the caller can retry only the
// remainder).
func (r *Runtime) fetchOnce(ctx context.Context, rawurl string, chunk model.Chunk, buf []byte) (int64, error) {
	// Per-request idle-read watchdog (spec.md section 5): the request is
	// aborted if config.IdleReadTimeout passes without a single byte being
	// read, independent of the overall Task/session cancellation.
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	activity := make(chan struct{}, 1)
	go idleWatchdog(watchCtx, cancel, activity)

	req, err := http.NewRequestWithContext(watchCtx, http.MethodGet, rawurl, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", r.runtimeConfig.GetUserAgent())
	if !r.singleStream {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", chunk.Start, chunk.End-1))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, fmt.Errorf("rate limited (429)")
	}
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	offset := chunk.Start
	var written int64

	for {
		if watchCtx.Err() != nil {
			return written, watchCtx.Err()
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if werr := r.writer.WriteAt(buf[:n], offset); werr != nil {
				return written, werr
			}
			offset += int64(n)
			written += int64(n)
			r.progress.Downloaded.Add(int64(n))
			select {
			case activity <- struct{}{}:
			default:
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// idleWatchdog cancels watchCtx if no activity signal arrives within
// config.IdleReadTimeout.
func idleWatchdog(watchCtx context.Context, cancel context.CancelFunc, activity <-chan struct{}) {
	t := time.NewTimer(config.IdleReadTimeout)
	defer t.Stop()
	for {
		select {
		case <-watchCtx.Done():
			return
		case <-activity:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(config.IdleReadTimeout)
		case <-t.C:
			cancel()
			return
		}
	}
}
