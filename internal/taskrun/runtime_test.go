package taskrun

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/events"
	"github.com/tthsd/engine/internal/model"
)

// rangeHandler serves body, honoring a Range: bytes=start-end request header
// with 206 Partial Content, the way a real range-capable origin would.
func rangeHandler(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		rangeHdr := r.Header.Get("Range")
		if rangeHdr == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}
		start, end, ok := parseRangeHeader(rangeHdr, len(body))
		if !ok {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end-1, len(body)))
		w.Header().Set("Content-Length", strconv.Itoa(end-start))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[start:end])
	}
}

func parseRangeHeader(h string, total int) (start, end int, ok bool) {
	h = strings.TrimPrefix(h, "bytes=")
	parts := strings.SplitN(h, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	s, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	e, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	e++
	if e > total {
		e = total
	}
	if s < 0 || s > e {
		return 0, 0, false
	}
	return s, e, true
}

func runOneTask(t *testing.T, server *httptest.Server, rc *config.RuntimeConfig) string {
	t.Helper()
	dir := t.TempDir()
	savePath := filepath.Join(dir, "out.bin")

	sink := events.New(nil, nil)
	task := model.TaskDescriptor{URL: server.URL, SavePath: savePath, ShowName: "out.bin", ID: "t1"}
	rt := New(task, 0, 1, "sess", rc, sink)

	err := rt.Run(context.Background())
	require.NoError(t, err)
	sink.Close()
	return savePath
}

func TestRuntime_SingleChunk_RangeSupported(t *testing.T) {
	body := make([]byte, 64*1024)
	for i := range body {
		body[i] = byte(i)
	}
	server := httptest.NewServer(rangeHandler(body))
	defer server.Close()

	rc := &config.RuntimeConfig{ThreadCount: 4, ChunkSize: 1024 * 1024}
	savePath := runOneTask(t, server, rc)

	got, err := os.ReadFile(savePath)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(body), sha256.Sum256(got))
}

func TestRuntime_Chunked_MultipleWorkers(t *testing.T) {
	body := make([]byte, 256*1024)
	for i := range body {
		body[i] = byte(i * 3)
	}
	server := httptest.NewServer(rangeHandler(body))
	defer server.Close()

	rc := &config.RuntimeConfig{ThreadCount: 8, ChunkSize: 16 * 1024}
	savePath := runOneTask(t, server, rc)

	got, err := os.ReadFile(savePath)
	require.NoError(t, err)
	require.Equal(t, len(body), len(got))
	require.Equal(t, sha256.Sum256(body), sha256.Sum256(got))
}

func TestRuntime_NoRangeSupport_SingleStreamFallback(t *testing.T) {
	body := []byte("the server ignores Range headers and always sends the full body")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	defer server.Close()

	rc := &config.RuntimeConfig{ThreadCount: 4, ChunkSize: 1024}
	savePath := runOneTask(t, server, rc)

	got, err := os.ReadFile(savePath)
	require.NoError(t, err)
	require.Equal(t, body, got)
}

// TestRuntime_SingleStream_MidStreamFailureRestartsFromZero covers the no-
// Range fallback's retry path: a server that ignores Range headers always
// resends the body from byte 0, so a mid-stream failure must restart the
// whole chunk rather than resume at the partial write's offset, or the
// retry's bytes land at the wrong file offset.
func TestRuntime_SingleStream_MidStreamFailureRestartsFromZero(t *testing.T) {
	body := make([]byte, 64*1024)
	for i := range body {
		body[i] = byte(i * 7)
	}

	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&requests, 1)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if n == 2 {
			// The download's first fetch attempt: write half the body, then
			// abort the connection mid-stream to force a retry.
			_, _ = w.Write(body[:len(body)/2])
			panic(http.ErrAbortHandler)
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	rc := &config.RuntimeConfig{ThreadCount: 4, ChunkSize: 1024}
	savePath := runOneTask(t, server, rc)

	got, err := os.ReadFile(savePath)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(body), sha256.Sum256(got))
}

func TestRuntime_TransientErrors_RecoverWithinRetryBudget(t *testing.T) {
	body := make([]byte, 32*1024)
	for i := range body {
		body[i] = byte(i)
	}
	var hits int64
	handler := rangeHandler(body)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&hits, 1)
		if n%4 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		handler(w, r)
	}))
	defer server.Close()

	rc := &config.RuntimeConfig{ThreadCount: 4, ChunkSize: 8 * 1024}
	savePath := runOneTask(t, server, rc)

	got, err := os.ReadFile(savePath)
	require.NoError(t, err)
	require.Equal(t, sha256.Sum256(body), sha256.Sum256(got))
}
