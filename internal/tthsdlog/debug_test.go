package tthsdlog

import (
	"os"
	"testing"
	"time"

	"github.com/tthsd/engine/internal/config"
)

func TestDebug_CreatesLogFile(t *testing.T) {
	dir := config.GetLogsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create logs dir: %v", err)
	}

	Debug("test message from unit test")
	time.Sleep(50 * time.Millisecond)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read logs dir: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one debug log file to be created")
	}
}
