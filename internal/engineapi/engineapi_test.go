package engineapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tthsd/engine/internal/registry"
	"github.com/tthsd/engine/internal/session"
)

func echoServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Header.Get("Range") != "" {
			w.WriteHeader(http.StatusPartialContent)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write(body)
	}))
}

func tasksJSONFor(t *testing.T, urls ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	type task struct {
		URL      string `json:"url"`
		SavePath string `json:"save_path"`
	}
	tasks := make([]task, len(urls))
	for i, u := range urls {
		tasks[i] = task{URL: u, SavePath: filepath.Join(dir, strconv.Itoa(i)+".bin")}
	}
	b, err := json.Marshal(tasks)
	require.NoError(t, err)
	return string(b), dir
}

func TestParseTasks_RejectsCountMismatch(t *testing.T) {
	tasksJSON, _ := tasksJSONFor(t, "http://example.invalid/a")
	_, err := ParseTasks(tasksJSON, 2)
	require.Error(t, err)
}

func TestParseTasks_RejectsEmptyURL(t *testing.T) {
	_, err := ParseTasks(`[{"url":"","save_path":"x"}]`, 1)
	require.Error(t, err)
}

func TestParseTasks_SynthesizesMissingID(t *testing.T) {
	tasksJSON, _ := tasksJSONFor(t, "http://example.invalid/a")
	tasks, err := ParseTasks(tasksJSON, 1)
	require.NoError(t, err)
	require.NotEmpty(t, tasks[0].ID)
}

func TestGetDownloader_RejectsInvalidThreads(t *testing.T) {
	tasksJSON, _ := tasksJSONFor(t, "http://example.invalid/a")
	_, err := GetDownloader(tasksJSON, 1, Options{Threads: 0, ChunkMB: 1})
	require.Error(t, err)
}

func TestGetDownloader_CreatesWithoutStarting(t *testing.T) {
	tasksJSON, _ := tasksJSONFor(t, "http://example.invalid/a")
	id, err := GetDownloader(tasksJSON, 1, Options{Threads: 1, ChunkMB: 1})
	require.NoError(t, err)
	require.GreaterOrEqual(t, id, 1)

	sess, err := registry.Global().Get(id)
	require.NoError(t, err)
	require.Equal(t, session.Created, sess.State())
}

func TestStartDownload_EndToEnd(t *testing.T) {
	body := []byte("engineapi end to end")
	server := echoServer(t, body)
	defer server.Close()

	tasksJSON, dir := tasksJSONFor(t, server.URL)
	id, err := StartDownload(tasksJSON, 1, Options{Threads: 2, ChunkMB: 1})
	require.NoError(t, err)
	require.GreaterOrEqual(t, id, 1)

	require.Eventually(t, func() bool {
		got, err := os.ReadFile(filepath.Join(dir, "0.bin"))
		return err == nil && len(got) == len(body)
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, StopDownload(id))
}

func TestStopDownload_UnknownIDFails(t *testing.T) {
	require.Error(t, StopDownload(-12345))
}

func TestStopDownload_IsIdempotent(t *testing.T) {
	tasksJSON, _ := tasksJSONFor(t, "http://example.invalid/a")
	id, err := GetDownloader(tasksJSON, 1, Options{Threads: 1, ChunkMB: 1})
	require.NoError(t, err)

	require.NoError(t, StopDownload(id))
	require.Error(t, StopDownload(id))
}
