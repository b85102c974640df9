package catalog

import (
	"context"
	"sync"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/classroom"
)

// View is the classes screen of one session: the catalog and the class editors opened from it.
type View struct {
	Catalog *Catalog
	Editors *classroom.Editors
	svc     classroom.Service
	notify  core.Notifier
}

// Delete deletes a class then reloads every list.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.svc.Delete(ctx, id, v.notify); err != nil {
		return err
	}
	v.Catalog.Refresh(ctx)
	return nil
}

func (v *View) Close() {
	v.Catalog.Close()
	v.Editors.CloseAll()
}

// ViewDeps are shared by the views of every session.
type ViewDeps struct {
	Classes  classroom.Service
	Editor   classroom.EditorDeps // Notifier and Refresher are set per view
	Notifier func(sessionID string) core.Notifier
	Logger   core.Logger
}

// Views holds the view of each session.
type Views struct {
	deps ViewDeps

	mu    sync.Mutex
	views map[string]*View
}

func NewViews(deps ViewDeps) *Views {
	return &Views{deps: deps, views: make(map[string]*View)}
}

// Get returns the view of sessionID, creating it on first use. created reports whether the
// view is new and needs a first Load.
func (vs *Views) Get(sessionID string) (v *View, created bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if v, ok := vs.views[sessionID]; ok {
		return v, false
	}

	n := vs.deps.Notifier(sessionID)
	cat := New(vs.deps.Editor.Classes, vs.deps.Editor.Members, vs.deps.Logger)
	edDeps := vs.deps.Editor
	edDeps.Notifier = n
	edDeps.Refresher = cat
	v = &View{
		Catalog: cat,
		Editors: classroom.NewEditors(edDeps),
		svc:     vs.deps.Classes,
		notify:  n,
	}
	vs.views[sessionID] = v
	return v, true
}

// Drop closes and forgets the view of sessionID.
func (vs *Views) Drop(sessionID string) {
	vs.mu.Lock()
	v, ok := vs.views[sessionID]
	delete(vs.views, sessionID)
	vs.mu.Unlock()
	if ok {
		v.Close()
	}
}

func (vs *Views) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}
