package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Shin40411/Lms-client/apps/api/echo"
	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/activity"
	"github.com/Shin40411/Lms-client/core/auth"
	"github.com/Shin40411/Lms-client/core/catalog"
	"github.com/Shin40411/Lms-client/core/classroom"
	"github.com/Shin40411/Lms-client/core/overview"
	"github.com/Shin40411/Lms-client/core/subject"
	"github.com/Shin40411/Lms-client/core/user"
	"github.com/Shin40411/Lms-client/services/notify"
	"github.com/Shin40411/Lms-client/storage/database/inmem"
	"github.com/Shin40411/Lms-client/storage/remote"
	"github.com/Shin40411/Lms-client/tests"
)

const adminPassword = "s3cret-pass"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app      Server
	upstream *testutil.FakeSchoolAPI
	conf     *core.Config
	activity activity.Repository
	views    *catalog.Views
	notices  *notifysvc.Queues
}

// setup serves the dashboard API over a seeded fake school API:
// class c1 "10A1" (homeroom t1; teacher t2; students s1, s2), teacher t3 and student s3 unassigned.
func setup(t *testing.T) *testEnv {
	t.Helper()

	upstream := testutil.NewFakeSchoolAPI()
	t.Cleanup(upstream.Close)
	seed(upstream)

	conf := core.NewTestConfig(upstream.URL)
	logger := testutil.NopLogger{}
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	classroom.InitValidators(validate, translator)

	// set up repos
	db := inmemdb.Open()
	client := remote.NewClient(conf)
	classRepo := remote.NewClassroomRepository(client)
	userRepo := remote.NewUserRepository(client)
	subjectRepo := remote.NewSubjectRepository(client)
	actRepo := inmemdb.NewActivityRepository(db)

	// set up services
	authSvc := auth.NewService(remote.NewAuthGateway(client), inmemdb.NewSessionStore(db), validate, conf)
	userSvc := user.NewService(userRepo, actRepo, validate, logger)
	classSvc := classroom.NewService(classRepo, actRepo, logger)
	notices := notifysvc.NewQueues(logger)
	views := catalog.NewViews(catalog.ViewDeps{
		Classes: classSvc,
		Editor: classroom.EditorDeps{
			Classes:  classRepo,
			Members:  userSvc,
			Validate: validate,
			Activity: actRepo,
			Logger:   logger,
		},
		Notifier: notices.For,
		Logger:   logger,
	})

	// set up server
	app := NewServer(
		&Options{DisableReqLogs: true},
		nil, /* shutdown */
		&Deps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			AuthSvc:    authSvc,
			UserSvc:    userSvc,
			SubjectSvc: subject.NewService(subjectRepo, actRepo, validate, logger),
			ClassSvc:   classSvc,
			Roles:      remote.NewRoleRepository(client),
			Overview:   overview.NewService(classRepo, subjectRepo, userRepo, actRepo, logger),
			Activity:   actRepo,
			Views:      views,
			Notices:    notices,
		},
	)
	return &testEnv{app: app, upstream: upstream, conf: conf, activity: actRepo, views: views, notices: notices}
}

func seed(api *testutil.FakeSchoolAPI) {
	api.AddRole(testutil.FakeRole{ID: "r1", Name: "ADMIN"})
	api.AddRole(testutil.FakeRole{ID: "r2", Name: "TEACHER"})
	api.AddRole(testutil.FakeRole{ID: "r3", Name: "STUDENT"})

	api.AddUser(testutil.FakeUser{ID: "admin", Username: "admin", Password: adminPassword, FirstName: "Admin", LastName: "School", RoleID: "r1"})
	api.AddUser(testutil.FakeUser{ID: "t1", Username: "an", FirstName: "An", LastName: "Tran", Email: "an@school.test", RoleID: "r2", Degree: user.DegreeMaster})
	api.AddUser(testutil.FakeUser{ID: "t2", Username: "binh", FirstName: "Binh", LastName: "Le", RoleID: "r2", Degree: user.DegreeBachelor})
	api.AddUser(testutil.FakeUser{ID: "t3", Username: "cuong", FirstName: "Cuong", LastName: "Do", RoleID: "r2", Degree: user.DegreeDoctorate})
	api.AddUser(testutil.FakeUser{ID: "s1", Username: "chi", FirstName: "Chi", LastName: "Nguyen", RoleID: "r3", AcademicYear: "2024-2025"})
	api.AddUser(testutil.FakeUser{ID: "s2", Username: "dung", FirstName: "Dung", LastName: "Pham", RoleID: "r3", AcademicYear: "2024-2025"})
	api.AddUser(testutil.FakeUser{ID: "s3", Username: "em", FirstName: "Em", LastName: "Vo", RoleID: "r3", AcademicYear: "2024-2025", Status: user.StatusInactive})

	api.AddClass(testutil.FakeClass{
		ID: "c1", Name: "10A1", Description: "Science class", Grade: "10", AcademicYear: "2024-2025",
		HomeroomTeacherID: "t1", TeacherIDs: []string{"t2"}, StudentIDs: []string{"s1", "s2"},
	})
}

// login signs the admin in and returns the dashboard token.
func login(t *testing.T, env *testEnv) string {
	t.Helper()
	body := marchallObj(t, auth.SignInForm{Username: "admin", Password: adminPassword})
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

// do serves one request and decodes the JSON response into out, if given.
func do(t *testing.T, env *testEnv, method, path, token string, body []byte, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(method, path, token, body)
	env.app.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func drain(t *testing.T, env *testEnv, token string) []core.Toast {
	t.Helper()
	var toasts []core.Toast
	rec := do(t, env, http.MethodGet, "/v1/notifications", token, nil, &toasts)
	require.Equal(t, http.StatusOK, rec.Code)
	return toasts
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		assert.Empty(t, rec.Body.String())
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
