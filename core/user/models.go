package user

import (
	"strings"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/roster"
)

// Genders
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Statuses
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type (
	RoleRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	TeacherProfileRef struct {
		ID     string `json:"id"`
		Degree string `json:"degree"`
	}

	StudentProfileRef struct {
		ID           string `json:"id,omitempty"`
		AcademicYear string `json:"academicYear"`
	}

	// User is a user item as listed by the upstream API.
	User struct {
		ID             string             `json:"id"`
		Address        string             `json:"address"`
		Username       string             `json:"username"`
		FirstName      string             `json:"firstName"`
		LastName       string             `json:"lastName"`
		FullName       string             `json:"fullName"`
		Dob            string             `json:"dob"`
		Avatar         string             `json:"avatar"`
		Gender         string             `json:"gender"`
		Code           string             `json:"code"`
		Email          string             `json:"email"`
		Phone          string             `json:"phone"`
		Status         string             `json:"status"`
		TeacherProfile *TeacherProfileRef `json:"teacherProfile,omitempty"`
		StudentProfile *StudentProfileRef `json:"studentProfile,omitempty"`
		Role           RoleRef            `json:"role"`
	}
)

// DisplayName is "<last name> <first name>", falling back to the full name then the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.LastName + " " + u.FirstName); name != "" {
		return name
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u User) IsActive() bool  { return u.Status != StatusInactive }
func (u User) IsTeacher() bool { return u.TeacherProfile != nil }
func (u User) IsStudent() bool { return u.StudentProfile != nil }

// Profile returns the profile variant of u.
func (u User) Profile() Profile {
	switch {
	case u.TeacherProfile != nil:
		return TeacherProfile{Degree: u.TeacherProfile.Degree}
	case u.StudentProfile != nil:
		return StudentProfile{AcademicYear: u.StudentProfile.AcademicYear}
	default:
		return NoProfile{}
	}
}

// Member projects u onto a roster member.
func Member(u User) roster.Member {
	return roster.Member{ID: u.ID, Name: u.DisplayName()}
}

func Members(users []User) []roster.Member {
	ms := make([]roster.Member, 0, len(users))
	for _, u := range users {
		ms = append(ms, Member(u))
	}
	return ms
}

// Form holds the fields of the user create/edit form.
type Form struct {
	Username  string       `json:"username" validate:"required,min=3,alphanum_"`
	Password  string       `json:"password" validate:"omitempty,min=6"`
	FirstName string       `json:"firstName" validate:"required,notblank"`
	LastName  string       `json:"lastName" validate:"required,notblank"`
	Dob       string       `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender    string       `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	Status    string       `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
	RoleID    string       `json:"roleId" validate:"required"`
	Email     string       `json:"email" validate:"omitempty,email"`
	Phone     string       `json:"phone" validate:"omitempty,phone"`
	Address   string       `json:"address"`
	Code      string       `json:"code"`
	Avatar    string       `json:"avatar" validate:"omitempty,url"`
	Profile   ProfileField `json:"profile" validate:"-"`
}

func (f *Form) clean() {
	f.Username = core.CleanString(f.Username, true /* lower */)
	f.FirstName = core.CleanString(f.FirstName)
	f.LastName = core.CleanString(f.LastName)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Phone = core.CleanString(f.Phone)
	f.Address = core.CleanString(f.Address)
	f.Code = core.CleanString(f.Code)
	if f.Profile.Profile == nil {
		f.Profile.Profile = NoProfile{}
	}
}

// FormFromUser pre-fills the edit form of u. The password is left blank.
func FormFromUser(u User) Form {
	return Form{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Dob:       u.Dob,
		Gender:    u.Gender,
		Status:    u.Status,
		RoleID:    u.Role.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Code:      u.Code,
		Avatar:    u.Avatar,
		Profile:   ProfileField{Profile: u.Profile()},
	}
}

// Payload is the body of the upstream create/update user endpoints.
type Payload struct {
	Address        *string            `json:"address"`
	RoleID         string             `json:"roleId"`
	Password       string             `json:"password,omitempty"`
	Username       string             `json:"username"`
	FirstName      string             `json:"firstName"`
	LastName       string             `json:"lastName"`
	Dob            string             `json:"dob"`
	Avatar         string             `json:"avatar,omitempty"`
	Gender         string             `json:"gender"`
	Status         string             `json:"status"`
	Code           string             `json:"code,omitempty"`
	Email          string             `json:"email,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	TeacherProfile *TeacherProfile    `json:"teacherProfile,omitempty"`
	StudentProfile *StudentProfileRef `json:"studentProfile,omitempty"`
}

// Payload converts a validated form.
func (f Form) Payload() Payload {
	p := Payload{
		RoleID:    f.RoleID,
		Password:  f.Password,
		Username:  f.Username,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Dob:       f.Dob,
		Avatar:    f.Avatar,
		Gender:    f.Gender,
		Status:    f.Status,
		Code:      f.Code,
		Email:     f.Email,
		Phone:     f.Phone,
	}
	if f.Address != "" {
		addr := f.Address
		p.Address = &addr
	}
	switch prof := f.Profile.Profile.(type) {
	case TeacherProfile:
		p.TeacherProfile = &prof
	case StudentProfile:
		p.StudentProfile = &StudentProfileRef{AcademicYear: prof.AcademicYear}
	}
	return p
}

// Filter narrows the user list. Search and the flags are sent upstream; Roles and Status
// are applied to the returned page.
type Filter struct {
	Search       string   `query:"search"`
	Roles        []string `query:"role"`
	Status       string   `query:"status"`
	IsTeacher    *bool    `query:"isTeacher"`
	IsStudent    *bool    `query:"isStudent"`
	HasClassroom *bool    `query:"hasClassroom"`
	HasHomeroom  *bool    `query:"hasHomeroom"`
}

func (f *Filter) Clean() {
	f.Search = core.CleanString(f.Search)
	f.Status = strings.ToUpper(core.CleanString(f.Status))
	if f.Status == "ALL" {
		f.Status = ""
	}
	f.Roles = core.CleanStrings(f.Roles)
}

// Query is the part of a Filter understood by the upstream API.
func (f Filter) Query() Query {
	return Query{
		Search:       f.Search,
		IsTeacher:    f.IsTeacher,
		IsStudent:    f.IsStudent,
		HasClassroom: f.HasClassroom,
		HasHomeroom:  f.HasHomeroom,
	}
}

func (f Filter) hasLocal() bool { return len(f.Roles) > 0 || f.Status != "" }

// match applies the local part of the filter. Roles match on role name, case-insensitively.
func (f Filter) match(u User) bool {
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if len(f.Roles) == 0 {
		return true
	}
	for _, r := range f.Roles {
		if strings.EqualFold(r, u.Role.Name) || r == u.Role.ID {
			return true
		}
	}
	return false
}

// Query holds the upstream user list parameters.
type Query struct {
	Search       string
	IsTeacher    *bool
	IsStudent    *bool
	HasClassroom *bool
	HasHomeroom  *bool
}

func Bool(b bool) *bool { return &b }
