// Package classroom edits classes and their rosters.
package classroom

import (
	"context"
	"strings"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/roster"
	"github.com/Shin40411/Lms-client/core/user"
)

// GradePostgraduate is the grade after 12, as the upstream API names it.
const GradePostgraduate = "Sau đại học"

var Grades = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", GradePostgraduate}

// Candidate pools offered by the class editor.
var (
	TeacherPoolQuery = user.Query{IsTeacher: user.Bool(true)}
	StudentPoolQuery = user.Query{IsStudent: user.Bool(true), HasClassroom: user.Bool(false)}
)

type (
	Person struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		FullName  string `json:"fullName"`
		Dob       string `json:"dob"`
		Avatar    string `json:"avatar"`
		Gender    string `json:"gender"`
		Code      string `json:"code"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}

	// Teacher is a teacher profile; ID is the profile id, User.ID the user id.
	Teacher struct {
		ID     string `json:"id"`
		Degree string `json:"degree"`
		User   Person `json:"user"`
	}

	Class struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		Description     string   `json:"description"`
		Grade           string   `json:"grade"`
		AcademicYear    string   `json:"academicYear"`
		HomeroomTeacher *Teacher `json:"homeroomTeacher"`
		Count           struct {
			Students int `json:"students"`
		} `json:"_count"`
	}

	// Detail is a class with its teachers and students.
	Detail struct {
		Class
		Teachers []Teacher `json:"teachers"`
		Students []Person  `json:"students"`
	}
)

func (p Person) DisplayName() string {
	if name := strings.TrimSpace(p.LastName + " " + p.FirstName); name != "" {
		return name
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}

func (p Person) Member() roster.Member { return roster.Member{ID: p.ID, Name: p.DisplayName()} }

// DegreeLabel is the display label of the teacher degree.
func (t Teacher) DegreeLabel() string { return user.DegreeLabel(t.Degree) }

// HomeroomTeacherID is the user id of the homeroom teacher, if any.
func (c Class) HomeroomTeacherID() string {
	if c.HomeroomTeacher == nil {
		return ""
	}
	return c.HomeroomTeacher.User.ID
}

// AssignedTeachers are the teachers of the class, homeroom teacher first.
func (d Detail) AssignedTeachers() []roster.Member {
	ms := make([]roster.Member, 0, len(d.Teachers)+1)
	if d.HomeroomTeacher != nil {
		ms = append(ms, d.HomeroomTeacher.User.Member())
	}
	for _, t := range d.Teachers {
		ms = append(ms, t.User.Member())
	}
	return roster.Merge(ms, nil)
}

// TeacherIDs are the user ids of the teachers of the class, homeroom teacher excluded
// unless they also teach the class.
func (d Detail) TeacherIDs() []string {
	ids := make([]string, 0, len(d.Teachers))
	for _, t := range d.Teachers {
		ids = append(ids, t.User.ID)
	}
	return ids
}

func (d Detail) AssignedStudents() []roster.Member {
	ms := make([]roster.Member, 0, len(d.Students))
	for _, s := range d.Students {
		ms = append(ms, s.Member())
	}
	return roster.Merge(ms, nil)
}

// Info holds the class fields of the editor.
type Info struct {
	Name              string `json:"name" validate:"required,notblank"`
	Description       string `json:"description" validate:"required,notblank"`
	Grade             string `json:"grade" validate:"required,grade"`
	AcademicYear      string `json:"academicYear" validate:"required,academicyear"`
	HomeroomTeacherID string `json:"homeroomTeacherId" validate:"required"`
}

func (i *Info) clean() {
	i.Name = core.CleanString(i.Name)
	i.Description = core.CleanString(i.Description)
	i.Grade = core.CleanString(i.Grade)
	i.AcademicYear = core.CleanString(i.AcademicYear)
	i.HomeroomTeacherID = core.CleanString(i.HomeroomTeacherID)
}

func InfoFromClass(c Class) Info {
	return Info{
		Name:              c.Name,
		Description:       c.Description,
		Grade:             c.Grade,
		AcademicYear:      c.AcademicYear,
		HomeroomTeacherID: c.HomeroomTeacherID(),
	}
}

// Payload is the body of the upstream create/update class endpoints.
type Payload struct {
	HomeroomTeacherID string   `json:"homeroomTeacherId"`
	Name              string   `json:"name"`
	Grade             string   `json:"grade"`
	Description       string   `json:"description"`
	AcademicYear      string   `json:"academicYear"`
	Students          []string `json:"students"`
	Teachers          []string `json:"teachers"`
}

type (
	Repository interface {
		QueryClasses(ctx context.Context, search string) (core.Page[Class], error)
		GetClass(ctx context.Context, id string) (Detail, error)
		CreateClass(ctx context.Context, p Payload) (Class, error)
		UpdateClass(ctx context.Context, id string, p Payload) (Class, error)
		DeleteClass(ctx context.Context, id string) error
	}

	// MemberSource lists users as roster members; implemented by user.Service.
	MemberSource interface {
		Members(ctx context.Context, q user.Query) ([]roster.Member, error)
	}
)
