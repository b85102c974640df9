package tests

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/roster"
	"github.com/Shin40411/Lms-client/tests"
)

var (
	teacherPool = []roster.Member{{ID: "t1", Name: "Tran An"}, {ID: "t2", Name: "Le Binh"}, {ID: "t3", Name: "Do Cuong"}}
	studentPool = []roster.Member{{ID: "s3", Name: "Vo Em"}}
)

func classNames(s catalog.Snapshot) []string {
	names := make([]string, 0, len(s.Classes.Results))
	for _, c := range s.Classes.Results {
		names = append(names, c.Name)
	}
	return names
}

func Test_classApi_list(t *testing.T) {
	env := setup(t)
	token := login(t, env)
	env.upstream.AddClass(testutil.FakeClass{ID: "c2", Name: "11B2", Description: "Literature", Grade: "11", AcademicYear: "2024-2025"})

	t.Run("first use populates the catalog", func(t *testing.T) {
		var snap catalog.Snapshot
		rec := do(t, env, http.MethodGet, "/v1/classes", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10A1", "11B2"}, classNames(snap))
		assert.Equal(t, 2, snap.Classes.Count)
		assert.Equal(t, teacherPool, snap.Teachers)
		assert.Equal(t, studentPool, snap.Students)
		assert.Equal(t, "t1", snap.Classes.Results[0].HomeroomTeacherID())
	})

	t.Run("search", func(t *testing.T) {
		var snap catalog.Snapshot
		rec := do(t, env, http.MethodGet, "/v1/classes?search=liter", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "liter", snap.Search)
		assert.Equal(t, []string{"11B2"}, classNames(snap))

		// the search sticks until changed
		rec = do(t, env, http.MethodGet, "/v1/classes", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"11B2"}, classNames(snap))

		rec = do(t, env, http.MethodGet, "/v1/classes?search=", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10A1", "11B2"}, classNames(snap))
	})

	t.Run("failed refresh keeps the lists", func(t *testing.T) {
		env.upstream.Fail(http.MethodGet, "/api/v1/classrooms", http.StatusInternalServerError)
		defer env.upstream.Heal()
		env.upstream.AddClass(testutil.FakeClass{ID: "c3", Name: "12C3"})

		var snap catalog.Snapshot
		rec := do(t, env, http.MethodPost, "/v1/classes/refresh", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10A1", "11B2"}, classNames(snap))
		assert.Equal(t, teacherPool, snap.Teachers)
	})

	t.Run("refresh", func(t *testing.T) {
		var snap catalog.Snapshot
		rec := do(t, env, http.MethodPost, "/v1/classes/refresh", token, nil, &snap)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10A1", "11B2", "12C3"}, classNames(snap))
	})
}

func Test_classApi_get(t *testing.T) {
	env := setup(t)
	token := login(t, env)

	t.Run("detail", func(t *testing.T) {
		var d struct {
			classroom.Class
			HomeroomTeacher struct {
				Degree      string `json:"degree"`
				DegreeLabel string `json:"degreeLabel"`
			} `json:"homeroomTeacher"`
			Teachers []struct {
				User        classroom.Person `json:"user"`
				DegreeLabel string           `json:"degreeLabel"`
			} `json:"teachers"`
			Students []classroom.Person `json:"students"`
		}
		rec := do(t, env, http.MethodGet, "/v1/classes/c1", token, nil, &d)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10A1", d.Name)
		assert.Equal(t, "Master", d.HomeroomTeacher.DegreeLabel)
		require.Len(t, d.Teachers, 1)
		assert.Equal(t, "t2", d.Teachers[0].User.ID)
		assert.Equal(t, "Bachelor", d.Teachers[0].DegreeLabel)
		require.Len(t, d.Students, 2)
		assert.Equal(t, "Nguyen Chi", d.Students[0].DisplayName())
	})

	tests := []httpTest{
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/classes/nope",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/classes/c1",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_delete(t *testing.T) {
	env := setup(t)
	token := login(t, env)
	env.upstream.AddClass(testutil.FakeClass{ID: "c2", Name: "11B2", StudentIDs: []string{"s3"}})

	var snap catalog.Snapshot
	do(t, env, http.MethodGet, "/v1/classes", token, nil, &snap)
	require.Equal(t, []roster.Member{}, snap.Students, "s3 has a class")

	t.Run("success", func(t *testing.T) {
		rec := do(t, env, http.MethodDelete, "/v1/classes/c2", token, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 1, env.upstream.ClassCount())

		do(t, env, http.MethodGet, "/v1/classes", token, nil, &snap)
		assert.Equal(t, []string{"10A1"}, classNames(snap), "the lists are reloaded")
		assert.Equal(t, studentPool, snap.Students)

		assert.Equal(t, []core.Toast{{Level: core.ToastSuccess, Message: "Class deleted successfully"}}, drain(t, env, token))

		var entries []activity.Entry
		do(t, env, http.MethodGet, "/v1/activity", token, nil, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, activity.ActionDelete, entries[0].Action)
		assert.Equal(t, "c2", entries[0].EntityID)
		assert.Equal(t, "admin", entries[0].Actor)
	})

	t.Run("failure", func(t *testing.T) {
		env.upstream.Fail(http.MethodDelete, "/api/v1/classrooms/c1", http.StatusInternalServerError)
		defer env.upstream.Heal()

		rec := do(t, env, http.MethodDelete, "/v1/classes/c1", token, nil, nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, 1, env.upstream.ClassCount())
		assert.Equal(t, []core.Toast{{Level: core.ToastError, Message: "Something went wrong"}}, drain(t, env, token))
	})
}

func Test_classApi_export(t *testing.T) {
	env := setup(t)
	token := login(t, env)

	rec := do(t, env, http.MethodGet, "/v1/classes/c1/roster.xlsx", token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, classroom.RosterContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="roster_10A1.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Students")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header and two students")
}
