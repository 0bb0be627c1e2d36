// Package clipboard extracts downloadable URLs from clipboard text for the
// demo CLI's "add --clipboard" batch-add path. Adapted from the teacher's
// internal/clipboard/validator.go: generalized from "one URL per clipboard
// read" to "one or more URLs, one per non-empty line", since tthsdctl add
// builds a whole Tasks batch rather than a single download.
package clipboard

import (
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

var allowedSchemes = map[string]bool{"http": true, "https": true}

// ExtractURLs splits text into lines and returns every line that parses as
// an http(s) URL with a host, in order, skipping anything else silently.
func ExtractURLs(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		if u := extractOne(line); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func extractOne(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 2048 {
		return ""
	}
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return ""
	}
	parsed, err := url.Parse(text)
	if err != nil || parsed.Host == "" || !allowedSchemes[parsed.Scheme] {
		return ""
	}
	return parsed.String()
}

// ReadURLs reads the system clipboard and returns every valid URL found in
// it, one per line.
func ReadURLs() ([]string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, err
	}
	return ExtractURLs(text), nil
}
