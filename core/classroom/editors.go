package classroom

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Editors holds the open editors of one session.
type Editors struct {
	deps EditorDeps

	mu      sync.Mutex
	editors map[string]*Editor
}

func NewEditors(deps EditorDeps) *Editors {
	return &Editors{deps: deps, editors: make(map[string]*Editor)}
}

// Open registers a new editor for classID (empty for a new class) and populates it.
// The editor is returned even when populating it failed.
func (r *Editors) Open(ctx context.Context, classID string) (*Editor, error) {
	e := NewEditor(uuid.New().String(), classID, r.deps)
	r.mu.Lock()
	r.editors[e.ID()] = e
	r.mu.Unlock()
	return e, e.Open(ctx)
}

// Get returns the open editor id. Editors closed by a submission are forgotten.
func (r *Editors) Get(id string) (*Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.editors[id]
	if !ok {
		return nil, false
	}
	if e.Closed() {
		delete(r.editors, id)
		return nil, false
	}
	return e, true
}

func (r *Editors) Close(id string) {
	r.mu.Lock()
	e, ok := r.editors[id]
	delete(r.editors, id)
	r.mu.Unlock()
	if ok {
		e.Close()
	}
}

func (r *Editors) CloseAll() {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[string]*Editor)
	r.mu.Unlock()
	for _, e := range editors {
		e.Close()
	}
}

func (r *Editors) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.editors)
}
