// Package showname enriches a Task's show_name using the same heuristic
// chain the teacher repo uses to name downloaded files: Content-Disposition,
// then URL query parameters, then the URL path tail, then magic-byte
// extension sniffing of the response body. It never overrides a caller-
// supplied show_name, and only runs when the probe response offers
// something the bare URL tail (spec.md section 3's baseline rule) doesn't.
package showname

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
)

// FromResponse derives a candidate show name from a probe's HTTP response,
// falling back to "" when nothing better than the URL tail is available.
func FromResponse(rawurl string, resp *http.Response, sniff []byte) string {
	if _, name, err := httpheader.ContentDisposition(resp.Header); err == nil && name != "" {
		return sanitize(name)
	}

	if parsed, err := url.Parse(rawurl); err == nil {
		q := parsed.Query()
		if name := q.Get("filename"); name != "" {
			return sanitize(name)
		}
		if name := q.Get("file"); name != "" {
			return sanitize(name)
		}
	}

	if len(sniff) > 0 && filepath.Ext(sanitize(filepath.Base(rawurl))) == "" {
		if kind, _ := filetype.Match(sniff); kind != filetype.Unknown && kind.Extension != "" {
			base := sanitize(filepath.Base(rawurl))
			if base != "" && base != "." {
				return base + "." + kind.Extension
			}
		}
	}

	return ""
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.TrimSpace(name)
	for _, c := range []string{"/", ":", "*", "?", "\"", "<", ">", "|"} {
		name = strings.ReplaceAll(name, c, "_")
	}
	return name
}
