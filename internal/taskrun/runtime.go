// Package taskrun drives one Task end to end: probe, range-plan, bounded
// worker pool, file writer, finalize (spec.md section 4.6's "Task runtime").
// Grounded on the teacher's internal/engine/concurrent.ConcurrentDownloader,
// generalized from a single CLI download into one Task among many in a
// Session, and re-targeted at this spec's event schema instead of a TUI
// progress channel.
package taskrun

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/events"
	"github.com/tthsd/engine/internal/model"
	"github.com/tthsd/engine/internal/probe"
	"github.com/tthsd/engine/internal/showname"
	"github.com/tthsd/engine/internal/tthsderr"
	"github.com/tthsd/engine/internal/tthsdlog"
)

// Runtime is one Task's execution state.
type Runtime struct {
	Task  model.TaskDescriptor
	Index int
	Total int // batch size, for TaskData.Total (spec.md section 6 uses Total
	// both as the file's byte size in update events and as the batch size
	// in startOne/endOne's TaskData — see comment on emitStartOne).

	sessionName   string
	runtimeConfig *config.RuntimeConfig
	sink          *events.Sink

	client       *http.Client
	singleStream bool

	queue    *chunkQueue
	gate     *pauseGate
	progress *model.Progress
	writer   *fileWriter

	mu       sync.Mutex
	probeRes *probe.Result
}

// New builds a Runtime for one Task within a batch of size total.
func New(task model.TaskDescriptor, index, total int, sessionName string, rc *config.RuntimeConfig, sink *events.Sink) *Runtime {
	return &Runtime{
		Task:          task,
		Index:         index,
		Total:         total,
		sessionName:   sessionName,
		runtimeConfig: rc,
		sink:          sink,
		gate:          newPauseGate(),
		progress:      model.NewProgress(-1),
	}
}

// Pause parks this Task's workers before their next chunk (spec.md section
// 4.4, 5).
func (r *Runtime) Pause() {
	r.progress.SetState(model.TaskPaused)
	r.gate.Pause()
}

// Resume wakes this Task's parked workers.
func (r *Runtime) Resume() {
	r.gate.Resume()
	r.progress.SetState(model.TaskDownloading)
}

// Progress exposes the Task's live counters, e.g. for a resumed-download's
// continuing update events (spec.md's "resume must not replay startOne").
func (r *Runtime) Progress() *model.Progress { return r.progress }

// Run drives the Task to completion: probe, plan, download, finalize. It
// returns only after the Task reaches a terminal state (Done or Failed) or
// ctx is cancelled (session stop).
func (r *Runtime) Run(ctx context.Context) error {
	r.progress.SetState(model.TaskProbing)

	transport := newTransport(r.runtimeConfig.GetMaxConnectionsPerHost())
	r.client = probe.NewClient(transport)

	res, err := probe.Probe(ctx, r.client, r.Task.URL, r.runtimeConfig.GetUserAgent())
	if err != nil {
		if isCancelled(ctx, err) {
			return err
		}
		r.progress.SetFailed(err)
		r.emitErr(err)
		return err
	}
	r.mu.Lock()
	r.probeRes = res
	r.mu.Unlock()
	r.progress.TotalSize.Store(res.TotalSize)

	r.enrichShowName(res)

	r.emitStartOne(res.TotalSize)

	if err := r.download(ctx, res); err != nil {
		if isCancelled(ctx, err) {
			return err
		}
		r.progress.SetFailed(err)
		r.emitErr(err)
		return err
	}

	r.progress.SetState(model.TaskDone)
	r.emitEndOne(res.TotalSize)
	return nil
}

// isCancelled reports whether err is the Task's own cancellation (a session
// stop) rather than a genuine failure. Spec.md section 7: a cancelled Task
// is silent on stop, no err event, no TaskFailed.
func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Runtime) enrichShowName(res *probe.Result) {
	if r.Task.ShowName != "" {
		return
	}
	resp := &http.Response{Header: res.Header}
	if name := showname.FromResponse(res.FinalURL, resp, nil); name != "" {
		r.Task.ShowName = name
	}
}

func (r *Runtime) download(ctx context.Context, res *probe.Result) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A session stop cancels taskCtx, but a worker parked in r.gate.Wait()
	// (paused) doesn't observe context cancellation on its own: unstick it
	// by closing the gate too.
	go func() {
		<-taskCtx.Done()
		r.gate.Close()
	}()

	r.singleStream = !res.SupportsRange || res.TotalSize <= 0

	if err := os.MkdirAll(filepath.Dir(r.Task.SavePath), 0755); err != nil {
		return fmt.Errorf("%w: mkdir: %v", tthsderr.ErrIOError, err)
	}

	if r.singleStream {
		return r.runSingleStream(taskCtx, cancel, res)
	}
	return r.runChunked(taskCtx, cancel, res)
}

func (r *Runtime) runSingleStream(ctx context.Context, cancel context.CancelFunc, res *probe.Result) error {
	var w *fileWriter
	var err error
	if res.TotalSize > 0 {
		w, err = openFileWriter(r.Task.SavePath, res.TotalSize)
	} else {
		w, err = openStreamWriter(r.Task.SavePath)
	}
	if err != nil {
		return err
	}
	r.writer = w

	r.queue = newChunkQueue()
	r.queue.PushMultiple([]model.Chunk{{Start: 0, End: maxInt64(res.TotalSize, 1 << 62), RetriesLeft: r.runtimeConfig.GetMaxTaskRetries()}})
	r.queue.Close() // no more work after this one chunk

	r.progress.SetState(model.TaskDownloading)
	stopTicker := r.startUpdateTicker(ctx)
	defer stopTicker()

	err = r.worker(ctx, res.FinalURL)
	if err != nil {
		r.writer.Abandon()
		cancel()
		return err
	}
	return r.writer.Finish()
}

func (r *Runtime) runChunked(ctx context.Context, cancel context.CancelFunc, res *probe.Result) error {
	w, err := openFileWriter(r.Task.SavePath, res.TotalSize)
	if err != nil {
		return err
	}
	r.writer = w

	chunks := model.PlanChunks(res.TotalSize, r.runtimeConfig.GetChunkSize(), r.runtimeConfig.GetMaxTaskRetries())
	r.queue = newChunkQueue()
	r.queue.PushMultiple(chunks)

	numWorkers := r.runtimeConfig.GetThreadCount()
	if len(chunks) < numWorkers {
		numWorkers = len(chunks)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	r.progress.SetState(model.TaskDownloading)
	stopTicker := r.startUpdateTicker(ctx)
	defer stopTicker()

	var wg sync.WaitGroup
	errCh := make(chan error, numWorkers)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.worker(ctx, res.FinalURL); err != nil {
				select {
				case errCh <- err:
				default:
				}
				cancel()
			}
		}()
	}

	go func() {
		wg.Wait()
		r.queue.Close()
		close(errCh)
	}()

	wg.Wait()
	r.queue.Close()

	select {
	case err := <-errCh:
		if err != nil {
			r.writer.Abandon()
			return err
		}
	default:
	}

	if ctx.Err() != nil {
		r.writer.Abandon()
		return ctx.Err()
	}

	return r.writer.Finish()
}

// startUpdateTicker emits one coalesced "update" event per
// config.UpdateCoalesceInterval for this Task, folding every worker's
// progress into a single tick (spec.md section 4.4: "coalesced across
// workers: only one update per Task per tick").
func (r *Runtime) startUpdateTicker(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(config.UpdateCoalesceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.emitUpdate()
			}
		}
	}()
	return func() { close(done) }
}

func (r *Runtime) emitUpdate() {
	total := r.progress.TotalSize.Load()
	downloaded := r.progress.Downloaded.Load()
	r.sink.EmitUpdate(events.Update(r.Task.ID, r.sessionName, r.Task.ShowName, downloaded, total))
}

// emitStartOne sends the startOne event. TaskData.Total carries the Task's
// batch position context (index/total pair), matching spec.md section 6's
// {URL, SavePath, ShowName, Index, Total} schema where Total there means
// the batch size, distinct from the per-byte Total in update events.
func (r *Runtime) emitStartOne(fileSize int64) {
	r.sink.EmitLifecycle(events.StartOne(r.Task.ID, r.sessionName, r.Task.ShowName, events.TaskData{
		URL: r.Task.URL, SavePath: r.Task.SavePath, ShowName: r.Task.ShowName,
		Index: r.Index, Total: int64(r.Total),
	}))
}

func (r *Runtime) emitEndOne(fileSize int64) {
	r.sink.EmitLifecycle(events.EndOne(r.Task.ID, r.sessionName, r.Task.ShowName, events.TaskData{
		URL: r.Task.URL, SavePath: r.Task.SavePath, ShowName: r.Task.ShowName,
		Index: r.Index, Total: int64(r.Total),
	}))
}

func (r *Runtime) emitErr(err error) {
	tthsdlog.Debug("task %s failed: %v", r.Task.ID, err)
	r.sink.EmitLifecycle(events.Err(r.Task.ID, err))
}

func newTransport(maxConnsPerHost int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: config.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	t.MaxConnsPerHost = maxConnsPerHost
	t.MaxIdleConnsPerHost = maxConnsPerHost + 2
	t.DisableCompression = true
	return t
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
