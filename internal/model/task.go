// Package model holds the engine's core data types: the caller-supplied
// Task descriptor, the Chunk a worker fetches, and the atomic progress
// counters shared between a Task's workers and its event dispatcher.
// Grounded on spec.md section 3 and the teacher's internal/engine/types
// package shape.
package model

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// TaskDescriptor is one URL->file entry from a caller's batch. It is
// immutable once accepted (spec.md section 3).
type TaskDescriptor struct {
	URL      string `json:"url"`
	SavePath string `json:"save_path"`
	ShowName string `json:"show_name"`
	ID       string `json:"id"`
}

// ApplyDefaults fills ShowName when the caller left it blank: the last URL
// path segment (stripped of query string), or a synthetic task_<index> when
// even that is empty (spec.md section 3).
func (t *TaskDescriptor) ApplyDefaults(index int) {
	if t.ShowName != "" {
		return
	}
	if name := lastPathSegment(t.URL); name != "" {
		t.ShowName = name
		return
	}
	t.ShowName = fmt.Sprintf("task_%d", index)
}

func lastPathSegment(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSpace(base)
}

// Validate checks the per-task invariants the C ABI's InvalidInput class
// covers: non-empty url and save_path.
func (t *TaskDescriptor) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return fmt.Errorf("task has empty url")
	}
	if strings.TrimSpace(t.SavePath) == "" {
		return fmt.Errorf("task has empty save_path")
	}
	return nil
}
