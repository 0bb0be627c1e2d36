// Package engineapi implements the seven C ABI operations (spec.md section
// 4.1, 6) as Go-native functions: the same precondition validation, return
// convention (session id >= 1 or -1; control 0/-1), and event side effects,
// minus the cgo marshalling itself. cmd/libtthsd's //export shims and
// cmd/tthsdctl's subcommands both call straight into this package, so the
// ABI boundary and the demo CLI can never drift out of sync with each
// other.
package engineapi

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tthsd/engine/internal/backoff"
	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/events"
	"github.com/tthsd/engine/internal/model"
	"github.com/tthsd/engine/internal/registry"
	"github.com/tthsd/engine/internal/session"
	"github.com/tthsd/engine/internal/tthsderr"
	"github.com/tthsd/engine/internal/tthsdlog"
)

// Options bundles every start_download/get_downloader parameter that isn't
// tasks_json/count, already unwrapped from the C ABI's *_Bool/char* nulls
// into plain Go zero values.
type Options struct {
	Threads        int
	ChunkMB        int
	Callback       events.EmitFunc // may be nil (remote-sink-only mode, spec.md section 9)
	UseCallbackURL bool
	UserAgent      string
	CallbackURL    string
	UseSocket      bool
	IsMultiple     *bool // nil means unspecified: serial (spec.md section 9 Open Question)
}

// ParseTasks validates and defaults a batch's tasks_json against count,
// synthesizing an id for any Task that omits one (spec.md section 3, 4.1).
func ParseTasks(tasksJSON string, count int) ([]model.TaskDescriptor, error) {
	var tasks []model.TaskDescriptor
	if err := json.Unmarshal([]byte(tasksJSON), &tasks); err != nil {
		return nil, fmt.Errorf("%w: tasks_json: %v", tthsderr.ErrInvalidInput, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: tasks_json: empty array", tthsderr.ErrInvalidInput)
	}
	if len(tasks) != count {
		return nil, fmt.Errorf("%w: count %d does not match %d tasks", tthsderr.ErrInvalidInput, count, len(tasks))
	}
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", tthsderr.ErrInvalidInput, i, err)
		}
		tasks[i].ApplyDefaults(i)
		if tasks[i].ID == "" {
			tasks[i].ID = uuid.NewString()
		}
	}
	return tasks, nil
}

func validateOptions(opts Options) error {
	if opts.Threads < 1 {
		return fmt.Errorf("%w: threads must be >= 1, got %d", tthsderr.ErrInvalidInput, opts.Threads)
	}
	if opts.ChunkMB < 1 {
		return fmt.Errorf("%w: chunk_mb must be >= 1, got %d", tthsderr.ErrInvalidInput, opts.ChunkMB)
	}
	if opts.UseCallbackURL && opts.CallbackURL == "" {
		return fmt.Errorf("%w: use_callback_url set but cb_url is empty", tthsderr.ErrInvalidInput)
	}
	return nil
}

// buildSink wires the in-process callback and, if requested, the remote
// sink, retrying per spec.md section 4.7's reconnect budget and degrading
// to local-only telemetry (a "msg" event) on exhaustion rather than failing
// the whole session create.
func buildSink(id int, opts Options) *events.Sink {
	var remote events.RemoteWriter
	if opts.UseCallbackURL {
		w, err := events.NewRemoteSink(opts.CallbackURL, opts.UseSocket, config.MaxRemoteSinkReconnects, func(attempt int) {
			backoff.Default.Sleep(attempt, nil)
		})
		if err != nil {
			tthsdlog.Debug("session %d: remote sink unavailable: %v", id, err)
		} else {
			remote = w
		}
	}
	sink := events.New(opts.Callback, remote)
	if opts.UseCallbackURL && remote == nil {
		sink.EmitLifecycle(events.Msg(fmt.Sprintf("%d", id), "remote telemetry unavailable: sink disabled for this session"))
	}
	return sink
}

func newSession(tasks []model.TaskDescriptor, opts Options) *session.Session {
	return registry.Global().Create(func(id int) *session.Session {
		rc := config.NewRuntimeConfig(opts.Threads, opts.ChunkMB, opts.UserAgent)
		sink := buildSink(id, opts)
		name := fmt.Sprintf("%d", id)
		return session.New(id, name, tasks, rc, sink)
	})
}

// GetDownloader creates a Session in the Created state without starting it
// (spec.md section 4.1). Returns the session id, or -1 (via the returned
// error) on any precondition violation.
func GetDownloader(tasksJSON string, count int, opts Options) (int, error) {
	if err := validateOptions(opts); err != nil {
		return -1, err
	}
	tasks, err := ParseTasks(tasksJSON, count)
	if err != nil {
		return -1, err
	}
	sess := newSession(tasks, opts)
	return sess.ID, nil
}

// StartDownload creates a Session and immediately starts it, serial unless
// isMultiple is a non-nil true (spec.md section 9 Open Question: nil means
// serial).
func StartDownload(tasksJSON string, count int, opts Options) (int, error) {
	if err := validateOptions(opts); err != nil {
		return -1, err
	}
	tasks, err := ParseTasks(tasksJSON, count)
	if err != nil {
		return -1, err
	}
	sess := newSession(tasks, opts)
	parallel := opts.IsMultiple != nil && *opts.IsMultiple
	if err := sess.Start(parallel); err != nil {
		return -1, err
	}
	return sess.ID, nil
}

// StartDownloadID begins a Created session in serial mode.
func StartDownloadID(id int) error {
	sess, err := registry.Global().Get(id)
	if err != nil {
		return err
	}
	return sess.Start(false)
}

// StartMultipleDownloadsID begins a Created session in parallel mode.
func StartMultipleDownloadsID(id int) error {
	sess, err := registry.Global().Get(id)
	if err != nil {
		return err
	}
	return sess.Start(true)
}

// PauseDownload pauses a Running session.
func PauseDownload(id int) error {
	sess, err := registry.Global().Get(id)
	if err != nil {
		return err
	}
	return sess.Pause()
}

// ResumeDownload resumes a Paused session.
func ResumeDownload(id int) error {
	sess, err := registry.Global().Get(id)
	if err != nil {
		return err
	}
	return sess.Resume()
}

// StopDownload cancels all in-flight work, drains the event sink, and
// unregisters id. Idempotent: a second call returns an error (spec.md
// section 8: "calling stop_download twice ... returns -1 ... and emits no
// events").
func StopDownload(id int) error {
	sess, err := registry.Global().Get(id)
	if err != nil {
		return err
	}
	err = sess.Stop()
	registry.Global().Remove(id)
	return err
}
