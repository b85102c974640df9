package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSchoolAPI_update(t *testing.T) {
	api := NewFakeSchoolAPI()
	defer api.Close()
	api.AddUser(FakeUser{ID: "admin", Username: "admin", Password: "s3cret-pass"})
	api.AddSubject(FakeSubject{ID: "sub1", Name: "Maths", Code: "MA"})
	token := api.Token("admin")

	send := func(method, path string, body echo.Map) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequest(method, api.URL+path, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = res.Body.Close() })
		return res
	}

	res := send(http.MethodPatch, "/api/v1/subjects/sub1", echo.Map{"name": "Mathematics", "code": "MA"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	s, ok := api.Subject("sub1")
	require.True(t, ok)
	assert.Equal(t, "Mathematics", s.Name)
	assert.Equal(t,
		[]echo.Map{{"name": "Mathematics", "code": "MA"}},
		api.Bodies("PATCH /api/v1/subjects/sub1"),
		"path params are not recorded as body fields",
	)

	res = send(http.MethodPatch, "/api/v1/subjects/sub9", echo.Map{"name": "Physics", "code": "PH"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
