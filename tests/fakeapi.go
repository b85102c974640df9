package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

type (
	FakeRole struct {
		ID          string
		Name        string
		Description string
	}

	// FakeUser is a teacher when Degree is set and a student when AcademicYear is set.
	FakeUser struct {
		ID           string
		Username     string
		Password     string
		FirstName    string
		LastName     string
		Email        string
		Phone        string
		Gender       string
		Dob          string
		Code         string
		Status       string
		RoleID       string
		Degree       string
		AcademicYear string
	}

	FakeClass struct {
		ID                string
		Name              string
		Description       string
		Grade             string
		AcademicYear      string
		HomeroomTeacherID string
		TeacherIDs        []string
		StudentIDs        []string
	}

	FakeSubject struct {
		ID          string
		Name        string
		Code        string
		Description string
	}
)

// FakeSchoolAPI serves the upstream school REST API from memory.
type FakeSchoolAPI struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	roles    []FakeRole
	users    []*FakeUser
	classes  []*FakeClass
	subjects []*FakeSubject
	tokens   map[string]string // token: user id
	failures map[string]int    // "METHOD /path": status
	holds    map[string][]chan struct{}
	requests []string
	bodies   map[string][]echo.Map
}

func NewFakeSchoolAPI() *FakeSchoolAPI {
	api := &FakeSchoolAPI{
		tokens:   make(map[string]string),
		failures: make(map[string]int),
		holds:    make(map[string][]chan struct{}),
		bodies:   make(map[string][]echo.Map),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(api.record, api.inject)

	g := e.Group("/api/v1")
	g.POST("/auth/login", api.login)

	ag := g.Group("", api.authed)
	ag.GET("/auth/me", api.me)
	ag.GET("/roles", api.listRoles)

	ag.GET("/users", api.listUsers)
	ag.POST("/users", api.createUser)
	ag.GET("/users/:id", api.getUser)
	ag.PATCH("/users/:id", api.updateUser)
	ag.DELETE("/users/:id", api.deleteUser)

	ag.GET("/classrooms", api.listClasses)
	ag.POST("/classrooms", api.createClass)
	ag.GET("/classrooms/:id", api.getClass)
	ag.PATCH("/classrooms/:id", api.updateClass)
	ag.DELETE("/classrooms/:id", api.deleteClass)

	ag.GET("/subjects", api.listSubjects)
	ag.POST("/subjects", api.createSubject)
	ag.GET("/subjects/:id", api.getSubject)
	ag.PATCH("/subjects/:id", api.updateSubject)
	ag.DELETE("/subjects/:id", api.deleteSubject)

	api.Server = httptest.NewServer(e)
	return api
}

// Seeding

func (api *FakeSchoolAPI) AddRole(r FakeRole) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.roles = append(api.roles, r)
}

func (api *FakeSchoolAPI) AddUser(u FakeUser) FakeUser {
	api.mu.Lock()
	defer api.mu.Unlock()
	if u.ID == "" {
		u.ID = api.nextID("u")
	}
	if u.Status == "" {
		u.Status = "ACTIVE"
	}
	api.users = append(api.users, &u)
	return u
}

func (api *FakeSchoolAPI) AddClass(c FakeClass) FakeClass {
	api.mu.Lock()
	defer api.mu.Unlock()
	if c.ID == "" {
		c.ID = api.nextID("c")
	}
	api.classes = append(api.classes, &c)
	return c
}

func (api *FakeSchoolAPI) AddSubject(s FakeSubject) FakeSubject {
	api.mu.Lock()
	defer api.mu.Unlock()
	if s.ID == "" {
		s.ID = api.nextID("s")
	}
	api.subjects = append(api.subjects, &s)
	return s
}

// Token returns an access token of the user username, as login would.
func (api *FakeSchoolAPI) Token(username string) string {
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, u := range api.users {
		if u.Username == username {
			return api.issueToken(u)
		}
	}
	return ""
}

// Inspection

func (api *FakeSchoolAPI) Class(id string) (FakeClass, bool) {
	api.mu.Lock()
	defer api.mu.Unlock()
	if c := api.findClass(id); c != nil {
		cp := *c
		cp.TeacherIDs = append([]string{}, c.TeacherIDs...)
		cp.StudentIDs = append([]string{}, c.StudentIDs...)
		return cp, true
	}
	return FakeClass{}, false
}

func (api *FakeSchoolAPI) ClassCount() int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return len(api.classes)
}

func (api *FakeSchoolAPI) Subject(id string) (FakeSubject, bool) {
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, s := range api.subjects {
		if s.ID == id {
			return *s, true
		}
	}
	return FakeSubject{}, false
}

// Requests returns "METHOD /path?query" of every request served, in order.
func (api *FakeSchoolAPI) Requests() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]string{}, api.requests...)
}

// CountRequests counts the served requests starting with prefix, e.g. "GET /api/v1/users".
func (api *FakeSchoolAPI) CountRequests(prefix string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	var n int
	for _, r := range api.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// Bodies returns the JSON bodies received by "METHOD /path".
func (api *FakeSchoolAPI) Bodies(key string) []echo.Map {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]echo.Map{}, api.bodies[key]...)
}

func (api *FakeSchoolAPI) ResetRequests() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.requests = nil
	api.bodies = make(map[string][]echo.Map)
}

// Failure injection

// Fail makes every request "METHOD /path" answer status, until Heal.
func (api *FakeSchoolAPI) Fail(method, path string, status int) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.failures[method+" "+path] = status
}

func (api *FakeSchoolAPI) Heal() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.failures = make(map[string]int)
}

// Hold makes the next request "METHOD /path" compute its response, then wait for release
// before sending it.
func (api *FakeSchoolAPI) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	api.mu.Lock()
	key := method + " " + path
	api.holds[key] = append(api.holds[key], ch)
	api.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Middlewares

func (api *FakeSchoolAPI) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		line := req.Method + " " + req.URL.Path
		if req.URL.RawQuery != "" {
			line += "?" + req.URL.RawQuery
		}
		api.mu.Lock()
		api.requests = append(api.requests, line)
		api.mu.Unlock()
		return next(ctx)
	}
}

func (api *FakeSchoolAPI) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		key := ctx.Request().Method + " " + ctx.Request().URL.Path
		api.mu.Lock()
		status, fail := api.failures[key]
		var hold chan struct{}
		if hs := api.holds[key]; len(hs) > 0 {
			hold, api.holds[key] = hs[0], hs[1:]
		}
		api.mu.Unlock()

		if fail {
			return ctx.JSON(status, echo.Map{"message": http.StatusText(status)})
		}
		if hold == nil {
			return next(ctx)
		}

		// compute the response now, send it once released
		w := ctx.Response().Writer
		rec := httptest.NewRecorder()
		ctx.Response().Writer = rec
		err := next(ctx)
		<-hold
		ctx.Response().Writer = w
		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
		return err
	}
}

func (api *FakeSchoolAPI) authed(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := strings.TrimPrefix(ctx.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		api.mu.Lock()
		uid, ok := api.tokens[token]
		api.mu.Unlock()
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
		}
		ctx.Set("uid", uid)
		return next(ctx)
	}
}

// Handlers

func (api *FakeSchoolAPI) login(ctx echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, u := range api.users {
		if u.Username == body.Username && u.Password == body.Password {
			return ctx.JSON(http.StatusOK, echo.Map{"accessToken": api.issueToken(u)})
		}
	}
	return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
}

func (api *FakeSchoolAPI) me(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	if u := api.findUser(ctx.Get("uid").(string)); u != nil {
		return ctx.JSON(http.StatusOK, api.userJSON(u))
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

func (api *FakeSchoolAPI) listRoles(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	results := make([]echo.Map, 0, len(api.roles))
	for _, r := range api.roles {
		results = append(results, echo.Map{"id": r.ID, "name": r.Name, "description": r.Description, "roleFeatures": []interface{}{}})
	}
	return ctx.JSON(http.StatusOK, page(results))
}

func (api *FakeSchoolAPI) listUsers(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()

	search := strings.ToLower(ctx.QueryParam("search"))
	flag := func(name string, got bool) bool {
		v := ctx.QueryParam(name)
		return v == "" || (v == "true") == got
	}
	results := make([]echo.Map, 0, len(api.users))
	for _, u := range api.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Username+" "+u.LastName+" "+u.FirstName+" "+u.Email), search) {
			continue
		}
		if !flag("isTeacher", u.Degree != "") || !flag("isStudent", u.AcademicYear != "") ||
			!flag("hasClassroom", api.classOf(u.ID) != nil) || !flag("hasHomeroom", api.homeroomOf(u.ID) != nil) {
			continue
		}
		results = append(results, api.userJSON(u))
	}
	return ctx.JSON(http.StatusOK, page(results))
}

func (api *FakeSchoolAPI) getUser(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	if u := api.findUser(ctx.Param("id")); u != nil {
		return ctx.JSON(http.StatusOK, api.userJSON(u))
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

type userBody struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Gender         string `json:"gender"`
	Dob            string `json:"dob"`
	Code           string `json:"code"`
	Status         string `json:"status"`
	RoleID         string `json:"roleId"`
	TeacherProfile *struct {
		Degree string `json:"degree"`
	} `json:"teacherProfile"`
	StudentProfile *struct {
		AcademicYear string `json:"academicYear"`
	} `json:"studentProfile"`
}

func (b userBody) apply(u *FakeUser) {
	u.Username, u.FirstName, u.LastName = b.Username, b.FirstName, b.LastName
	u.Email, u.Phone, u.Gender, u.Dob, u.Code = b.Email, b.Phone, b.Gender, b.Dob, b.Code
	u.Status, u.RoleID = b.Status, b.RoleID
	if b.Password != "" {
		u.Password = b.Password
	}
	u.Degree, u.AcademicYear = "", ""
	if b.TeacherProfile != nil {
		u.Degree = b.TeacherProfile.Degree
	}
	if b.StudentProfile != nil {
		u.AcademicYear = b.StudentProfile.AcademicYear
	}
}

func (api *FakeSchoolAPI) createUser(ctx echo.Context) error {
	var body userBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	u := &FakeUser{ID: api.nextID("u")}
	body.apply(u)
	api.users = append(api.users, u)
	return ctx.JSON(http.StatusCreated, api.userJSON(u))
}

func (api *FakeSchoolAPI) updateUser(ctx echo.Context) error {
	var body userBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	u := api.findUser(ctx.Param("id"))
	if u == nil {
		return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	body.apply(u)
	return ctx.JSON(http.StatusOK, api.userJSON(u))
}

func (api *FakeSchoolAPI) deleteUser(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i, u := range api.users {
		if u.ID == ctx.Param("id") {
			api.users = append(api.users[:i], api.users[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

func (api *FakeSchoolAPI) listClasses(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	search := strings.ToLower(ctx.QueryParam("search"))
	results := make([]echo.Map, 0, len(api.classes))
	for _, c := range api.classes {
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Description), search) {
			continue
		}
		results = append(results, api.classJSON(c))
	}
	return ctx.JSON(http.StatusOK, page(results))
}

func (api *FakeSchoolAPI) getClass(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	c := api.findClass(ctx.Param("id"))
	if c == nil {
		return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	detail := api.classJSON(c)
	teachers := make([]echo.Map, 0, len(c.TeacherIDs))
	for _, id := range c.TeacherIDs {
		if u := api.findUser(id); u != nil {
			teachers = append(teachers, api.teacherJSON(u))
		}
	}
	students := make([]echo.Map, 0, len(c.StudentIDs))
	for _, id := range c.StudentIDs {
		if u := api.findUser(id); u != nil {
			students = append(students, api.personJSON(u))
		}
	}
	detail["teachers"] = teachers
	detail["students"] = students
	return ctx.JSON(http.StatusOK, detail)
}

type classBody struct {
	HomeroomTeacherID string   `json:"homeroomTeacherId"`
	Name              string   `json:"name"`
	Grade             string   `json:"grade"`
	Description       string   `json:"description"`
	AcademicYear      string   `json:"academicYear"`
	Students          []string `json:"students"`
	Teachers          []string `json:"teachers"`
}

func (b classBody) apply(c *FakeClass) {
	c.HomeroomTeacherID, c.Name, c.Grade = b.HomeroomTeacherID, b.Name, b.Grade
	c.Description, c.AcademicYear = b.Description, b.AcademicYear
	c.StudentIDs = append([]string{}, b.Students...)
	c.TeacherIDs = append([]string{}, b.Teachers...)
}

func (api *FakeSchoolAPI) createClass(ctx echo.Context) error {
	var body classBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	c := &FakeClass{ID: api.nextID("c")}
	body.apply(c)
	api.classes = append(api.classes, c)
	return ctx.JSON(http.StatusCreated, api.classJSON(c))
}

func (api *FakeSchoolAPI) updateClass(ctx echo.Context) error {
	var body classBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	c := api.findClass(ctx.Param("id"))
	if c == nil {
		return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	body.apply(c)
	return ctx.JSON(http.StatusOK, api.classJSON(c))
}

func (api *FakeSchoolAPI) deleteClass(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i, c := range api.classes {
		if c.ID == ctx.Param("id") {
			api.classes = append(api.classes[:i], api.classes[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

func (api *FakeSchoolAPI) listSubjects(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	search := strings.ToLower(ctx.QueryParam("search"))
	results := make([]echo.Map, 0, len(api.subjects))
	for _, s := range api.subjects {
		if search != "" && !strings.Contains(strings.ToLower(s.Name+" "+s.Code), search) {
			continue
		}
		results = append(results, subjectJSON(s))
	}
	return ctx.JSON(http.StatusOK, page(results))
}

func (api *FakeSchoolAPI) getSubject(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, s := range api.subjects {
		if s.ID == ctx.Param("id") {
			return ctx.JSON(http.StatusOK, subjectJSON(s))
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

type subjectBody struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (api *FakeSchoolAPI) createSubject(ctx echo.Context) error {
	var body subjectBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	s := &FakeSubject{ID: api.nextID("s"), Name: body.Name, Code: body.Code, Description: body.Description}
	api.subjects = append(api.subjects, s)
	return ctx.JSON(http.StatusCreated, subjectJSON(s))
}

func (api *FakeSchoolAPI) updateSubject(ctx echo.Context) error {
	var body subjectBody
	if err := api.bind(ctx, &body); err != nil {
		return err
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	for _, s := range api.subjects {
		if s.ID == ctx.Param("id") {
			s.Name, s.Code, s.Description = body.Name, body.Code, body.Description
			return ctx.JSON(http.StatusOK, subjectJSON(s))
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

func (api *FakeSchoolAPI) deleteSubject(ctx echo.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i, s := range api.subjects {
		if s.ID == ctx.Param("id") {
			api.subjects = append(api.subjects[:i], api.subjects[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return ctx.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
}

// helpers; the callers hold api.mu unless stated otherwise

func (api *FakeSchoolAPI) nextID(prefix string) string {
	api.seq++
	return fmt.Sprintf("%s%d", prefix, api.seq)
}

func (api *FakeSchoolAPI) issueToken(u *FakeUser) string {
	api.seq++
	token := fmt.Sprintf("token-%s-%d", u.Username, api.seq)
	api.tokens[token] = u.ID
	return token
}

// bind decodes the body and keeps a copy of it; api.mu must not be held.
func (api *FakeSchoolAPI) bind(ctx echo.Context, v interface{}) error {
	raw := echo.Map{} // the binder writes path params into it
	if err := ctx.Bind(&raw); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	for _, name := range ctx.ParamNames() {
		delete(raw, name)
	}
	key := ctx.Request().Method + " " + ctx.Request().URL.Path
	api.mu.Lock()
	api.bodies[key] = append(api.bodies[key], raw)
	api.mu.Unlock()
	return remarshal(raw, v)
}

func (api *FakeSchoolAPI) findUser(id string) *FakeUser {
	for _, u := range api.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (api *FakeSchoolAPI) findClass(id string) *FakeClass {
	for _, c := range api.classes {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (api *FakeSchoolAPI) classOf(uid string) *FakeClass {
	for _, c := range api.classes {
		for _, id := range c.StudentIDs {
			if id == uid {
				return c
			}
		}
	}
	return nil
}

func (api *FakeSchoolAPI) homeroomOf(uid string) *FakeClass {
	for _, c := range api.classes {
		if c.HomeroomTeacherID == uid {
			return c
		}
	}
	return nil
}

func (api *FakeSchoolAPI) roleOf(id string) FakeRole {
	for _, r := range api.roles {
		if r.ID == id {
			return r
		}
	}
	return FakeRole{ID: id}
}

func (api *FakeSchoolAPI) personJSON(u *FakeUser) echo.Map {
	return echo.Map{
		"id": u.ID, "username": u.Username, "firstName": u.FirstName, "lastName": u.LastName,
		"fullName": strings.TrimSpace(u.LastName + " " + u.FirstName), "dob": u.Dob, "avatar": "",
		"gender": u.Gender, "code": u.Code, "email": u.Email, "phone": u.Phone,
	}
}

func (api *FakeSchoolAPI) teacherJSON(u *FakeUser) echo.Map {
	return echo.Map{"id": "tp-" + u.ID, "degree": u.Degree, "user": api.personJSON(u)}
}

func (api *FakeSchoolAPI) userJSON(u *FakeUser) echo.Map {
	m := api.personJSON(u)
	m["status"] = u.Status
	m["address"] = ""
	r := api.roleOf(u.RoleID)
	m["role"] = echo.Map{"id": r.ID, "name": r.Name}
	if u.Degree != "" {
		m["teacherProfile"] = echo.Map{"id": "tp-" + u.ID, "degree": u.Degree}
	}
	if u.AcademicYear != "" {
		m["studentProfile"] = echo.Map{"id": "sp-" + u.ID, "academicYear": u.AcademicYear}
	}
	return m
}

func (api *FakeSchoolAPI) classJSON(c *FakeClass) echo.Map {
	m := echo.Map{
		"id": c.ID, "name": c.Name, "description": c.Description, "grade": c.Grade,
		"academicYear": c.AcademicYear, "homeroomTeacher": nil,
		"_count": echo.Map{"students": len(c.StudentIDs)},
	}
	if u := api.findUser(c.HomeroomTeacherID); u != nil {
		m["homeroomTeacher"] = api.teacherJSON(u)
	}
	return m
}

func subjectJSON(s *FakeSubject) echo.Map {
	return echo.Map{"id": s.ID, "name": s.Name, "code": s.Code, "description": s.Description}
}

func remarshal(in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func page(results []echo.Map) echo.Map {
	return echo.Map{"count": len(results), "next": nil, "previous": nil, "results": results}
}

// SortedIDs returns a sorted copy of ids.
func SortedIDs(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
