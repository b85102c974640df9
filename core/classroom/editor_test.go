package classroom

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/form"
	"github.com/Shin40411/Lms-client/core/roster"
	"github.com/Shin40411/Lms-client/core/user"
	"github.com/Shin40411/Lms-client/tests"
)

var errUpstream = errors.New("upstream unavailable")

func person(id, last, first string) Person {
	return Person{ID: id, LastName: last, FirstName: first, Email: id + "@school.test"}
}

// repoMock serves one class detail and records mutations.
type repoMock struct {
	mu       sync.Mutex
	detail   Detail
	getErr   error
	saveErr  error
	gate     chan struct{} // when set, GetClass waits for it
	saveGate chan struct{} // when set, CreateClass signals saving and waits for it
	saving   chan struct{}
	created  []Payload
	updated  map[string]Payload
	gets     int
	deletes  []string
	classes  []Class
	queryErr error
}

func (m *repoMock) QueryClasses(_ context.Context, search string) (core.Page[Class], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return core.Page[Class]{}, m.queryErr
	}
	return core.Page[Class]{Count: len(m.classes), Results: append([]Class{}, m.classes...)}, nil
}

func (m *repoMock) GetClass(ctx context.Context, id string) (Detail, error) {
	m.mu.Lock()
	m.gets++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Detail{}, m.getErr
	}
	return m.detail, nil
}

func (m *repoMock) CreateClass(_ context.Context, p Payload) (Class, error) {
	m.mu.Lock()
	gate, saving := m.saveGate, m.saving
	m.mu.Unlock()
	if gate != nil {
		select {
		case saving <- struct{}{}:
		default:
		}
		<-gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, p)
	if m.saveErr != nil {
		return Class{}, m.saveErr
	}
	return Class{ID: "new-class", Name: p.Name}, nil
}

func (m *repoMock) UpdateClass(_ context.Context, id string, p Payload) (Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updated == nil {
		m.updated = make(map[string]Payload)
	}
	m.updated[id] = p
	if m.saveErr != nil {
		return Class{}, m.saveErr
	}
	return Class{ID: id, Name: p.Name}, nil
}

func (m *repoMock) DeleteClass(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, id)
	return m.saveErr
}

// poolMock answers the teacher and student pool queries.
type poolMock struct {
	mu       sync.Mutex
	teachers []roster.Member
	students []roster.Member
	err      error
}

func (m *poolMock) Members(_ context.Context, q user.Query) ([]roster.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if q.IsTeacher != nil && *q.IsTeacher {
		return append([]roster.Member{}, m.teachers...), nil
	}
	return append([]roster.Member{}, m.students...), nil
}

type noticesMock struct {
	changes []RosterChange
}

func (m *noticesMock) RosterChanged(_ context.Context, c RosterChange) {
	m.changes = append(m.changes, c)
}

type refreshCounter struct {
	mu sync.Mutex
	n  int
}

func (r *refreshCounter) Refresh(context.Context) {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type editorFixture struct {
	repo    *repoMock
	pool    *poolMock
	toasts  *testutil.Toasts
	refresh *refreshCounter
	notices *noticesMock
	logger  *testutil.RecordingLogger
	deps    EditorDeps
}

func newEditorFixture() *editorFixture {
	homeroom := Teacher{ID: "tp-t1", Degree: user.DegreeMaster, User: person("t1", "Tran", "An")}
	f := &editorFixture{
		repo: &repoMock{detail: Detail{
			Class: Class{
				ID: "c1", Name: "10A1", Description: "Science", Grade: "10", AcademicYear: "2024-2025",
				HomeroomTeacher: &homeroom,
			},
			Teachers: []Teacher{{ID: "tp-t2", Degree: user.DegreeBachelor, User: person("t2", "Le", "Binh")}},
			Students: []Person{person("s1", "Pham", "Chi"), person("s2", "Vo", "Dung")},
		}},
		pool: &poolMock{
			teachers: []roster.Member{{ID: "t1", Name: "Tran An"}, {ID: "t2", Name: "Le Binh"}, {ID: "t3", Name: "Ngo Cuong"}},
			students: []roster.Member{{ID: "s3", Name: "Hoang Em"}},
		},
		toasts:  &testutil.Toasts{},
		refresh: &refreshCounter{},
		notices: &noticesMock{},
		logger:  &testutil.RecordingLogger{},
	}
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	f.deps = EditorDeps{
		Classes:   f.repo,
		Members:   f.pool,
		Validate:  validate,
		Notifier:  f.toasts,
		Refresher: f.refresh,
		Notices:   f.notices,
		Logger:    f.logger,
	}
	return f
}

func validInfo() Info {
	return Info{Name: "10A1", Description: "Science", Grade: "10", AcademicYear: "2024-2025", HomeroomTeacherID: "t1"}
}

func TestEditor_Open(t *testing.T) {
	t.Run("edit merges assigned members with the pools", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))

		st := e.State()
		assert.True(t, st.Loaded)
		assert.Equal(t, []string{"t1", "t2", "t3"}, roster.IDs(st.TeacherOptions))
		assert.Equal(t, []string{"s1", "s2", "s3"}, roster.IDs(st.StudentOptions))
		assert.Equal(t, []string{"t2"}, st.TeacherIDs, "homeroom teacher is offered, not selected")
		assert.Equal(t, []string{"s1", "s2"}, st.StudentIDs)
		assert.Equal(t, validInfo(), st.Info)
	})

	t.Run("create only offers the pools", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		require.NoError(t, e.Open(context.Background()))

		st := e.State()
		assert.True(t, st.Loaded)
		assert.Equal(t, []string{"t1", "t2", "t3"}, roster.IDs(st.TeacherOptions))
		assert.Equal(t, []string{"s3"}, roster.IDs(st.StudentOptions))
		assert.Empty(t, st.TeacherIDs)
		assert.Empty(t, st.StudentIDs)
		assert.Equal(t, 0, f.repo.gets)
	})

	t.Run("failed detail leaves the editor unloaded", func(t *testing.T) {
		f := newEditorFixture()
		f.repo.getErr = errUpstream
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))

		st := e.State()
		assert.False(t, st.Loaded)
		assert.Equal(t, []string{"s3"}, roster.IDs(st.StudentOptions))
		assert.Len(t, f.logger.Messages(), 1)
		assert.Nil(t, f.toasts.All())
	})
}

func TestEditor_Reload(t *testing.T) {
	t.Run("keeps the selection", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))
		require.NoError(t, e.Select([]string{"t2", "t3"}, []string{"s1", "s3"}))

		// s3 got assigned elsewhere meanwhile
		f.pool.mu.Lock()
		f.pool.students = []roster.Member{{ID: "s4", Name: "Dang Giang"}}
		f.pool.mu.Unlock()

		require.NoError(t, e.Reload(context.Background()))
		st := e.State()
		assert.Equal(t, []string{"t2", "t3"}, st.TeacherIDs)
		assert.Equal(t, []string{"s1", "s3"}, st.StudentIDs)
		assert.Equal(t, []string{"s1", "s2", "s4", "s3"}, roster.IDs(st.StudentOptions))
	})

	t.Run("failed pool keeps the previous one", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		require.NoError(t, e.Open(context.Background()))

		f.pool.mu.Lock()
		f.pool.err = errUpstream
		f.pool.mu.Unlock()
		require.NoError(t, e.Reload(context.Background()))

		st := e.State()
		assert.Equal(t, []string{"t1", "t2", "t3"}, roster.IDs(st.TeacherOptions))
		assert.Equal(t, []string{"s3"}, roster.IDs(st.StudentOptions))
	})
}

func TestEditor_StaleLoads(t *testing.T) {
	t.Run("close discards the load in flight", func(t *testing.T) {
		f := newEditorFixture()
		f.repo.gate = make(chan struct{})
		e := NewEditor("e1", "c1", f.deps)

		done := make(chan error)
		go func() { done <- e.Open(context.Background()) }()
		waitFor(t, func() bool { f.repo.mu.Lock(); defer f.repo.mu.Unlock(); return f.repo.gets == 1 })

		e.Close()
		close(f.repo.gate)
		assert.ErrorIs(t, <-done, ErrEditorClosed)

		st := e.State()
		assert.False(t, st.Loaded)
		assert.Empty(t, st.TeacherOptions)
		assert.Empty(t, st.StudentIDs)
	})

	t.Run("superseded load is dropped", func(t *testing.T) {
		f := newEditorFixture()
		f.repo.gate = make(chan struct{})
		e := NewEditor("e1", "c1", f.deps)

		first := make(chan error)
		go func() { first <- e.Open(context.Background()) }()
		waitFor(t, func() bool { f.repo.mu.Lock(); defer f.repo.mu.Unlock(); return f.repo.gets == 1 })

		// the second load cancels the first one; both read the same gate
		f.repo.mu.Lock()
		f.repo.detail.Name = "10A2"
		f.repo.mu.Unlock()
		second := make(chan error)
		go func() { second <- e.Reload(context.Background()) }()
		waitFor(t, func() bool { f.repo.mu.Lock(); defer f.repo.mu.Unlock(); return f.repo.gets == 2 })
		close(f.repo.gate)

		require.NoError(t, <-first)
		require.NoError(t, <-second)
		assert.Equal(t, "10A2", e.State().Info.Name)
	})
}

func TestEditor_Select(t *testing.T) {
	f := newEditorFixture()
	e := NewEditor("e1", "c1", f.deps)
	require.NoError(t, e.Open(context.Background()))

	err := e.Select([]string{"t9"}, []string{"s1", "s8"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, []string{"s1", "s2"}, e.State().StudentIDs, "rejected selection is not applied")

	require.NoError(t, e.Select([]string{"t3", "t3"}, nil))
	st := e.State()
	assert.Equal(t, []string{"t3"}, st.TeacherIDs)
	assert.Equal(t, []string{}, st.StudentIDs)
}

func TestEditor_Steps(t *testing.T) {
	f := newEditorFixture()
	e := NewEditor("e1", "", f.deps)
	require.NoError(t, e.Open(context.Background()))

	info := validInfo()
	info.Grade = "13"
	assert.Error(t, e.Next(info))
	assert.Equal(t, StepInfo, e.State().Step)

	info = validInfo()
	info.AcademicYear = "" // checked on submit only
	info.Name = "  10A3 "
	require.NoError(t, e.Next(info))
	st := e.State()
	assert.Equal(t, StepMembers, st.Step)
	assert.Equal(t, "10A3", st.Info.Name)

	e.Back()
	st = e.State()
	assert.Equal(t, StepInfo, st.Step)
	assert.Equal(t, "10A3", st.Info.Name)
}

func TestEditor_Submit(t *testing.T) {
	t.Run("update sends the selection and notifies the roster change", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))
		require.NoError(t, e.Select([]string{"t2", "t3"}, []string{"s2", "s3"}))

		res, err := e.Submit(context.Background(), validInfo())
		require.NoError(t, err)
		assert.Equal(t, form.Updated, res.Outcome)
		assert.Equal(t, "c1", res.ID)

		assert.Empty(t, f.repo.created)
		assert.Equal(t, Payload{
			HomeroomTeacherID: "t1", Name: "10A1", Grade: "10", Description: "Science", AcademicYear: "2024-2025",
			Students: []string{"s2", "s3"}, Teachers: []string{"t2", "t3"},
		}, f.repo.updated["c1"])
		assert.Equal(t, []core.Toast{{Level: core.ToastSuccess, Message: "Class updated successfully"}}, f.toasts.All())
		assert.Equal(t, 1, f.refresh.count())
		assert.True(t, e.Closed())

		require.Len(t, f.notices.changes, 1)
		change := f.notices.changes[0]
		assert.Equal(t, roster.Change{Added: []string{"t3"}, Removed: []string{}}, change.Teachers)
		assert.Equal(t, roster.Change{Added: []string{"s3"}, Removed: []string{"s1"}}, change.Students)
		assert.Equal(t, []string{"Hoang Em"}, change.Names(change.Students.Added))
		require.NotNil(t, change.Homeroom)
		assert.Equal(t, "t1", change.Homeroom.ID)
	})

	t.Run("create", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		require.NoError(t, e.Open(context.Background()))
		require.NoError(t, e.Select([]string{"t2"}, []string{"s3"}))

		res, err := e.Submit(context.Background(), validInfo())
		require.NoError(t, err)
		assert.Equal(t, form.Created, res.Outcome)
		assert.Equal(t, "new-class", res.ID)
		require.Len(t, f.repo.created, 1)
		assert.Equal(t, []string{"s3"}, f.repo.created[0].Students)
		assert.Nil(t, f.repo.updated)
		assert.Equal(t, []core.Toast{{Level: core.ToastSuccess, Message: "Class created successfully"}}, f.toasts.All())
		assert.Empty(t, f.notices.changes)
	})

	t.Run("unchanged roster sends no notice", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))

		_, err := e.Submit(context.Background(), validInfo())
		require.NoError(t, err)
		assert.Empty(t, f.notices.changes)
	})

	t.Run("failure keeps the editor state", func(t *testing.T) {
		f := newEditorFixture()
		f.repo.saveErr = errUpstream
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))
		require.NoError(t, e.Select([]string{"t3"}, []string{"s3"}))

		info := validInfo()
		info.Name = "10A9"
		_, err := e.Submit(context.Background(), info)
		assert.ErrorIs(t, err, errUpstream)

		assert.Equal(t, []core.Toast{{Level: core.ToastError, Message: "Something went wrong"}}, f.toasts.All())
		assert.Equal(t, 0, f.refresh.count())
		assert.False(t, e.Closed())
		st := e.State()
		assert.Equal(t, "10A9", st.Info.Name)
		assert.Equal(t, []string{"t3"}, st.TeacherIDs)
		assert.Equal(t, []string{"s3"}, st.StudentIDs)
		assert.Empty(t, f.notices.changes)
	})

	t.Run("invalid info is not sent", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		require.NoError(t, e.Open(context.Background()))

		info := validInfo()
		info.AcademicYear = "2024-2026"
		_, err := e.Submit(context.Background(), info)
		assert.Error(t, err)
		assert.Empty(t, f.repo.created)
		assert.Nil(t, f.toasts.All())
	})

	t.Run("homeroom teacher must be offered", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		require.NoError(t, e.Open(context.Background()))

		info := validInfo()
		info.HomeroomTeacherID = "t9"
		_, err := e.Submit(context.Background(), info)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "homeroomTeacherId", verr.Fields[0].Field)
	})

	t.Run("edit before the class loaded", func(t *testing.T) {
		f := newEditorFixture()
		f.repo.getErr = errUpstream
		e := NewEditor("e1", "c1", f.deps)
		require.NoError(t, e.Open(context.Background()))

		_, err := e.Submit(context.Background(), validInfo())
		assert.ErrorIs(t, err, ErrNotLoaded)
		assert.Nil(t, f.repo.updated)
	})

	t.Run("closed editor", func(t *testing.T) {
		f := newEditorFixture()
		e := NewEditor("e1", "", f.deps)
		e.Close()
		_, err := e.Submit(context.Background(), validInfo())
		assert.ErrorIs(t, err, ErrEditorClosed)
		assert.ErrorIs(t, e.Open(context.Background()), ErrEditorClosed)
	})
}

func TestEditor_Submit_inFlight(t *testing.T) {
	tests := []struct {
		name       string
		saveErr    error
		wantToasts []core.Toast
		wantClosed bool
	}{
		{
			name:       "success",
			wantToasts: []core.Toast{{Level: core.ToastSuccess, Message: "Class created successfully"}},
			wantClosed: true,
		},
		{
			name:       "failure",
			saveErr:    errUpstream,
			wantToasts: []core.Toast{{Level: core.ToastError, Message: "Something went wrong"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEditorFixture()
			f.repo.saveErr = tt.saveErr
			f.repo.saveGate = make(chan struct{})
			f.repo.saving = make(chan struct{}, 1)
			e := NewEditor("e1", "", f.deps)
			require.NoError(t, e.Open(context.Background()))

			done := make(chan error, 1)
			go func() {
				_, err := e.Submit(context.Background(), validInfo())
				done <- err
			}()
			select {
			case <-f.repo.saving:
			case <-time.After(time.Second):
				t.Fatal("first submission never reached the repository")
			}

			_, err := e.Submit(context.Background(), validInfo())
			assert.ErrorIs(t, err, ErrSubmitting)

			close(f.repo.saveGate)
			err = <-done
			if tt.saveErr != nil {
				assert.ErrorIs(t, err, tt.saveErr)
			} else {
				assert.NoError(t, err)
			}

			f.repo.mu.Lock()
			assert.Len(t, f.repo.created, 1)
			f.repo.mu.Unlock()
			assert.Equal(t, tt.wantToasts, f.toasts.All())
			assert.Equal(t, tt.wantClosed, e.Closed())

			// a failed submission can be retried, a successful one closed the editor
			_, err = e.Submit(context.Background(), validInfo())
			if tt.wantClosed {
				assert.ErrorIs(t, err, ErrEditorClosed)
				assert.Equal(t, 1, f.refresh.count())
			} else {
				assert.ErrorIs(t, err, tt.saveErr)
				f.repo.mu.Lock()
				assert.Len(t, f.repo.created, 2)
				f.repo.mu.Unlock()
			}
		})
	}
}

func TestEditors(t *testing.T) {
	f := newEditorFixture()
	eds := NewEditors(f.deps)

	e, err := eds.Open(context.Background(), "c1")
	require.NoError(t, err)
	got, ok := eds.Get(e.ID())
	require.True(t, ok)
	assert.Same(t, e, got)

	_, err = e.Submit(context.Background(), validInfo())
	require.NoError(t, err)
	_, ok = eds.Get(e.ID())
	assert.False(t, ok, "submitted editors are forgotten")
	assert.Equal(t, 0, eds.Len())

	e1, _ := eds.Open(context.Background(), "")
	e2, _ := eds.Open(context.Background(), "c1")
	eds.Close(e1.ID())
	assert.True(t, e1.Closed())
	assert.Equal(t, 1, eds.Len())
	eds.CloseAll()
	assert.True(t, e2.Closed())
	assert.Equal(t, 0, eds.Len())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}
