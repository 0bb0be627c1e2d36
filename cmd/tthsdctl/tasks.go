package tthsdctl

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tthsd/engine/internal/model"
)

// buildTasksJSON turns a flat list of URLs into the Tasks JSON schema
// spec.md section 6 defines, saving each into outputDir under its
// URL-derived show name unless overridden.
func buildTasksJSON(urls []string, outputDir string) (string, int, error) {
	if len(urls) == 0 {
		return "", 0, fmt.Errorf("no URLs given")
	}
	tasks := make([]model.TaskDescriptor, len(urls))
	for i, u := range urls {
		t := model.TaskDescriptor{URL: u}
		t.ApplyDefaults(i)
		if outputDir != "" {
			t.SavePath = filepath.Join(outputDir, t.ShowName)
		} else {
			t.SavePath = t.ShowName
		}
		tasks[i] = t
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return "", 0, err
	}
	return string(b), len(tasks), nil
}

// readBatchFile splits a newline-delimited URL list file's contents.
func readBatchFile(contents string) []string {
	var urls []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}
