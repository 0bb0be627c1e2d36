// Package tthsdlog is the engine's best-effort debug trace: a single
// process-wide log file, opened lazily on first use. It must never become a
// reason a download fails, so every I/O error here is swallowed.
package tthsdlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tthsd/engine/internal/config"
)

var (
	once    sync.Once
	logFile *os.File
	mu      sync.Mutex
)

func open() {
	dir := config.GetLogsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	name := fmt.Sprintf("tthsd-%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	logFile = f
}

// Debug writes a timestamped trace line. Safe for concurrent use, and
// silent (not an error) when the log directory isn't writable.
func Debug(format string, args ...any) {
	once.Do(open)

	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format(time.RFC3339Nano), fmt.Sprintf(format, args...))
	_, _ = logFile.WriteString(line)
}
