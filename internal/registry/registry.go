// Package registry implements the process-global session id -> Session map
// (spec.md section 4.1, 9): a monotonically increasing counter protected by
// a reader-writer lock, exactly the "writer only on create/destroy" shared
// resource spec.md section 5 calls for. Grounded on the teacher's own
// in-process session bookkeeping in cmd/server.go, generalized from a
// single-process-lifetime download to many independently-removable
// Sessions.
package registry

import (
	"sync"

	"github.com/tthsd/engine/internal/session"
	"github.com/tthsd/engine/internal/tthsderr"
)

// Registry is the global id->Session map. Build one with New (the zero value
// has a nil map and starts ids at 0); Global() is what cmd/libtthsd and
// cmd/tthsdctl actually share.
type Registry struct {
	mu      sync.RWMutex
	next    int
	entries map[int]*session.Session
}

func New() *Registry {
	return &Registry{entries: make(map[int]*session.Session), next: 1}
}

var global = New()

// Global returns the process-wide registry the C ABI entry points and the
// demo CLI both operate on.
func Global() *Registry { return global }

// Create allocates the next monotonic id and stores sess under it. Ids are
// never reused within the process lifetime (spec.md section 3: "Session
// IDs are unique for the lifetime of the process").
func (r *Registry) Create(build func(id int) *session.Session) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	sess := build(id)
	r.entries[id] = sess
	return sess
}

// Get looks up a Session by id.
func (r *Registry) Get(id int) (*session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.entries[id]
	if !ok {
		return nil, tthsderr.ErrRegistryMiss
	}
	return sess, nil
}

// Remove drops id from the registry; called once a Session's Stop has
// fully drained (spec.md section 4.6: "destroyed only by stop_download ...
// unregisters the ID").
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}
