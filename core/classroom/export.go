package classroom

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	RosterContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	teachersSheet = "Teachers"
	studentsSheet = "Students"
)

var (
	teacherHeader = []interface{}{"Code", "Last name", "First name", "Degree", "Email", "Phone", "Homeroom"}
	studentHeader = []interface{}{"Code", "Last name", "First name", "Date of birth", "Gender", "Email", "Phone"}
)

// RosterFilename is the name of the exported roster of c.
func RosterFilename(c Class) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>| `, r) {
			return '_'
		}
		return r
	}, c.Name)
	if name == "" {
		name = c.ID
	}
	return fmt.Sprintf("roster_%s.xlsx", name)
}

// WriteRoster writes the teachers and students of d to w as an XLSX workbook,
// one sheet each. The homeroom teacher is listed first.
func WriteRoster(w io.Writer, d Detail) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), teachersSheet); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	if _, err := f.NewSheet(studentsSheet); err != nil {
		return errors.Wrap(err, "creating students sheet")
	}

	teachers := make([]Teacher, 0, len(d.Teachers)+1)
	if d.HomeroomTeacher != nil {
		teachers = append(teachers, *d.HomeroomTeacher)
	}
	for _, t := range d.Teachers {
		if d.HomeroomTeacher == nil || t.User.ID != d.HomeroomTeacher.User.ID {
			teachers = append(teachers, t)
		}
	}

	rows := make([][]interface{}, 0, len(teachers)+1)
	rows = append(rows, teacherHeader)
	for _, t := range teachers {
		homeroom := ""
		if d.HomeroomTeacher != nil && t.User.ID == d.HomeroomTeacher.User.ID {
			homeroom = "yes"
		}
		u := t.User
		rows = append(rows, []interface{}{u.Code, u.LastName, u.FirstName, t.DegreeLabel(), u.Email, u.Phone, homeroom})
	}
	if err := writeRows(f, teachersSheet, rows); err != nil {
		return err
	}

	rows = make([][]interface{}, 0, len(d.Students)+1)
	rows = append(rows, studentHeader)
	for _, s := range d.Students {
		rows = append(rows, []interface{}{s.Code, s.LastName, s.FirstName, s.Dob, s.Gender, s.Email, s.Phone})
	}
	if err := writeRows(f, studentsSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := row
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s row %d", sheet, i+1)
		}
	}
	return nil
}
