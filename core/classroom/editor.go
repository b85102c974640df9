package classroom

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/form"
	"github.com/Shin40411/Lms-client/core/roster"
)

var (
	ErrEditorClosed = errors.New("editor closed")
	// ErrNotLoaded is returned when submitting an edit whose class could not be fetched yet.
	ErrNotLoaded = errors.New("class not loaded")
	// ErrSubmitting is returned while another submission of the same editor is in flight.
	ErrSubmitting = errors.New("submission in progress")

	messages = form.Messages{
		Created: "Class created successfully",
		Updated: "Class updated successfully",
		Failed:  "Something went wrong",
	}
)

// Editor steps
const (
	StepInfo = iota
	StepMembers
)

type EditorDeps struct {
	Classes   Repository
	Members   MemberSource
	Validate  *validator.Validate
	Notifier  core.Notifier
	Refresher form.Refresher      // runs after a successful submission
	Activity  activity.Repository // optional
	Notices   RosterNotifier      // optional
	Logger    core.Logger
}

// Editor is the create/edit form of one class. It owns the assigned members, the candidate
// pools, the options offered from both, and the current selection.
//
// Loads are discarded when a newer load started or the editor was closed in the meantime.
type Editor struct {
	id      string
	classID string // empty for a new class
	deps    EditorDeps

	mu      sync.Mutex
	epoch   uint64
	cancel  context.CancelFunc
	closed  bool
	loaded  bool
	sending bool
	step    int
	info    Info
	detail  *Detail
	assignT []roster.Member
	assignS []roster.Member
	poolT   []roster.Member
	poolS   []roster.Member
	optsT   []roster.Member
	optsS   []roster.Member
	selT    roster.Selection
	selS    roster.Selection
}

// State is a snapshot of an editor.
type State struct {
	ID             string          `json:"id"`
	ClassID        string          `json:"classId,omitempty"`
	Step           int             `json:"step"`
	Loaded         bool            `json:"loaded"`
	Info           Info            `json:"info"`
	TeacherOptions []roster.Member `json:"teacherOptions"`
	StudentOptions []roster.Member `json:"studentOptions"`
	TeacherIDs     []string        `json:"teacherIds"`
	StudentIDs     []string        `json:"studentIds"`
}

func NewEditor(id, classID string, deps EditorDeps) *Editor {
	return &Editor{id: id, classID: classID, deps: deps}
}

func (e *Editor) ID() string      { return e.id }
func (e *Editor) ClassID() string { return e.classID }

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		ID:             e.id,
		ClassID:        e.classID,
		Step:           e.step,
		Loaded:         e.loaded,
		Info:           e.info,
		TeacherOptions: append([]roster.Member{}, e.optsT...),
		StudentOptions: append([]roster.Member{}, e.optsS...),
		TeacherIDs:     e.selT.IDs(),
		StudentIDs:     e.selS.IDs(),
	}
}

// Open populates the editor: the class detail when editing, and both candidate pools.
// The selection starts as the members assigned to the class.
func (e *Editor) Open(ctx context.Context) error {
	return e.load(ctx)
}

// Reload fetches the class and the pools again. The selection is kept, and selected members
// that are no longer offered by either fetch remain options.
func (e *Editor) Reload(ctx context.Context) error {
	return e.load(ctx)
}

type fetched struct {
	detail   *Detail
	teachers []roster.Member
	students []roster.Member
	errs     [3]error
}

func (e *Editor) load(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.epoch++
	epoch := e.epoch
	lctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	var res fetched
	var g errgroup.Group
	if e.classID != "" {
		g.Go(func() error {
			d, err := e.deps.Classes.GetClass(lctx, e.classID)
			if err == nil {
				res.detail = &d
			}
			res.errs[0] = err
			return nil
		})
	}
	g.Go(func() error {
		res.teachers, res.errs[1] = e.deps.Members.Members(lctx, TeacherPoolQuery)
		return nil
	})
	g.Go(func() error {
		res.students, res.errs[2] = e.deps.Members.Members(lctx, StudentPoolQuery)
		return nil
	})
	_ = g.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}
	if epoch != e.epoch {
		return nil // superseded
	}
	e.apply(res)
	return nil
}

// apply must be called with e.mu held. Failed fetches leave their part of the state as is.
func (e *Editor) apply(res fetched) {
	for i, what := range []string{"class detail", "teacher pool", "student pool"} {
		if err := res.errs[i]; err != nil {
			e.deps.Logger.Warn(fmt.Sprintf("class editor %s: fetching %s: %v", e.id, what, err), err)
		}
	}

	prevT := e.selT.Members(e.optsT)
	prevS := e.selS.Members(e.optsS)

	if res.detail != nil {
		first := e.detail == nil
		e.detail = res.detail
		e.assignT = res.detail.AssignedTeachers()
		e.assignS = res.detail.AssignedStudents()
		if first {
			e.info = InfoFromClass(res.detail.Class)
			e.selT.Set(res.detail.TeacherIDs()...)
			e.selS.Set(roster.IDs(e.assignS)...)
		}
	}
	if res.errs[1] == nil {
		e.poolT = res.teachers
	}
	if res.errs[2] == nil {
		e.poolS = res.students
	}

	e.optsT = roster.Merge(roster.Merge(e.assignT, e.poolT), prevT)
	e.optsS = roster.Merge(roster.Merge(e.assignS, e.poolS), prevS)
	e.loaded = e.loaded || (res.detail != nil || e.classID == "")
}

// Select replaces the selection. Every id must be among the options.
func (e *Editor) Select(teacherIDs, studentIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}

	selT := roster.NewSelection(teacherIDs...)
	selS := roster.NewSelection(studentIDs...)
	var flds []core.FieldError
	if missing := selT.Missing(e.optsT); len(missing) > 0 {
		flds = append(flds, core.FieldError{Field: "teacherIds", Error: fmt.Sprintf("unknown teachers: %v", missing)})
	}
	if missing := selS.Missing(e.optsS); len(missing) > 0 {
		flds = append(flds, core.FieldError{Field: "studentIds", Error: fmt.Sprintf("unknown students: %v", missing)})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	e.selT, e.selS = *selT, *selS
	return nil
}

// Next validates the class fields of the first step and moves to the member step.
func (e *Editor) Next(info Info) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEditorClosed
	}
	e.info = info
	if err := validateFirstStep(e.deps.Validate, &e.info); err != nil {
		return err
	}
	e.step = StepMembers
	return nil
}

// Back returns to the first step; nothing entered is lost.
func (e *Editor) Back() {
	e.mu.Lock()
	e.step = StepInfo
	e.mu.Unlock()
}

// Submit validates info, then creates the class or updates the edited one with the current
// selection as its new membership. On success the editor is closed and the refresher runs;
// on failure the entered info and the selection are kept.
func (e *Editor) Submit(ctx context.Context, info Info) (form.Result, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return form.Result{}, ErrEditorClosed
	}
	if e.sending {
		e.mu.Unlock()
		return form.Result{}, ErrSubmitting
	}
	if e.classID != "" && e.detail == nil {
		e.mu.Unlock()
		return form.Result{}, ErrNotLoaded
	}
	e.info = info
	if err := validateInfo(e.deps.Validate, &e.info); err != nil {
		e.mu.Unlock()
		return form.Result{}, err
	}
	if _, ok := roster.Find(e.optsT, e.info.HomeroomTeacherID); !ok {
		e.mu.Unlock()
		return form.Result{}, core.NewValidationError(nil, core.FieldError{Field: "homeroomTeacherId", Error: "unknown teacher"})
	}

	payload := Payload{
		HomeroomTeacherID: e.info.HomeroomTeacherID,
		Name:              e.info.Name,
		Grade:             e.info.Grade,
		Description:       e.info.Description,
		AcademicYear:      e.info.AcademicYear,
		Students:          e.selS.IDs(),
		Teachers:          e.selT.IDs(),
	}
	var change *RosterChange
	if e.detail != nil {
		change = newRosterChange(*e.detail, payload, roster.Merge(e.optsT, e.optsS))
	}
	e.sending = true
	e.mu.Unlock()

	adapter := form.Adapter[Payload]{
		Mutator:   mutator{repo: e.deps.Classes},
		Notifier:  e.deps.Notifier,
		Refresher: e.deps.Refresher,
		Activity:  e.deps.Activity,
		Logger:    e.deps.Logger,
		Entity:    activity.EntityClass,
		Messages:  messages,
		Describe:  func(p Payload) string { return p.Name },
	}
	res, err := adapter.Submit(ctx, e.classID, payload)
	if err != nil {
		e.mu.Lock()
		e.sending = false
		e.mu.Unlock()
		return res, err
	}

	e.Close()
	if change != nil && e.deps.Notices != nil && !change.IsEmpty() {
		e.deps.Notices.RosterChanged(ctx, *change)
	}
	return res, nil
}

// Close discards the editor. Loads still in flight are cancelled and their results dropped.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type mutator struct {
	repo Repository
}

func (m mutator) Create(ctx context.Context, p Payload) (string, error) {
	c, err := m.repo.CreateClass(ctx, p)
	return c.ID, err
}

func (m mutator) Update(ctx context.Context, id string, p Payload) error {
	_, err := m.repo.UpdateClass(ctx, id, p)
	return err
}
