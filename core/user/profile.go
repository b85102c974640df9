package user

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Degrees, spelled as the upstream API spells them.
const (
	DegreeBachelor  = "BACHELOR"
	DegreeMaster    = "MASTER"
	DegreeDoctorate = "DOCTORATE"
	DegreeOther     = "ORTHER"

	// DegreeDoctor is emitted by the classroom endpoints for doctorates.
	DegreeDoctor = "DOCTOR"
)

// Degrees lists the degrees a teacher profile may be created with.
var Degrees = []string{DegreeBachelor, DegreeMaster, DegreeDoctorate, DegreeOther}

var degreeLabels = map[string]string{
	DegreeBachelor:  "Bachelor",
	DegreeMaster:    "Master",
	DegreeDoctorate: "Doctor",
	DegreeDoctor:    "Doctor",
	DegreeOther:     "Other",
}

// DegreeLabel returns the display label of degree; unknown degrees are returned as is.
func DegreeLabel(degree string) string {
	if l, ok := degreeLabels[degree]; ok {
		return l
	}
	return degree
}

// Profile types
const (
	ProfileNone    = "none"
	ProfileTeacher = "teacher"
	ProfileStudent = "student"
)

// Profile is one of TeacherProfile, StudentProfile or NoProfile.
type Profile interface {
	ProfileType() string
}

type (
	TeacherProfile struct {
		Degree string `json:"degree" validate:"required,oneof=BACHELOR MASTER DOCTORATE ORTHER"`
	}

	StudentProfile struct {
		AcademicYear string `json:"academicYear" validate:"required,academicyear"`
	}

	NoProfile struct{}
)

func (TeacherProfile) ProfileType() string { return ProfileTeacher }
func (StudentProfile) ProfileType() string { return ProfileStudent }
func (NoProfile) ProfileType() string      { return ProfileNone }

// ProfileField carries a Profile through JSON as {"type": "teacher", "degree": "MASTER"}.
type ProfileField struct {
	Profile
}

var errUnknownProfile = errors.New("unknown profile type")

func (pf ProfileField) MarshalJSON() ([]byte, error) {
	switch p := pf.Profile.(type) {
	case TeacherProfile:
		return json.Marshal(struct {
			Type string `json:"type"`
			TeacherProfile
		}{ProfileTeacher, p})
	case StudentProfile:
		return json.Marshal(struct {
			Type string `json:"type"`
			StudentProfile
		}{ProfileStudent, p})
	default:
		return json.Marshal(struct {
			Type string `json:"type"`
		}{ProfileNone})
	}
}

func (pf *ProfileField) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	switch head.Type {
	case ProfileTeacher:
		var p TeacherProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		pf.Profile = p
	case ProfileStudent:
		var p StudentProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		pf.Profile = p
	case ProfileNone, "":
		pf.Profile = NoProfile{}
	default:
		return errors.Wrap(errUnknownProfile, head.Type)
	}
	return nil
}
