package classroom

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/core/roster"
)

const rosterChangedTemplate = "roster_changed"

// RosterChange is the membership change made by a class update.
type RosterChange struct {
	Class      Class
	HomeroomID string
	Homeroom   *Person // homeroom teacher after the update, when known
	Teachers roster.Change
	Students roster.Change
	names    map[string]string
}

func newRosterChange(before Detail, p Payload, options []roster.Member) *RosterChange {
	c := &RosterChange{
		Class:      before.Class,
		HomeroomID: p.HomeroomTeacherID,
		Teachers:   roster.Diff(before.TeacherIDs(), p.Teachers),
		Students:   roster.Diff(roster.IDs(before.AssignedStudents()), p.Students),
		names:      make(map[string]string, len(options)),
	}
	c.Class.Name = p.Name
	c.Class.Grade = p.Grade
	c.Class.Description = p.Description
	c.Class.AcademicYear = p.AcademicYear
	for _, m := range options {
		c.names[m.ID] = m.Name
	}

	if before.HomeroomTeacher != nil && before.HomeroomTeacher.User.ID == p.HomeroomTeacherID {
		person := before.HomeroomTeacher.User
		c.Homeroom = &person
	} else {
		for _, t := range before.Teachers {
			if t.User.ID == p.HomeroomTeacherID {
				person := t.User
				c.Homeroom = &person
				break
			}
		}
	}
	return c
}

func (c RosterChange) IsEmpty() bool { return c.Teachers.IsEmpty() && c.Students.IsEmpty() }

// Names resolves ids to display names; unknown ids are kept as is.
func (c RosterChange) Names(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := c.names[id]; ok && n != "" {
			names = append(names, n)
		} else {
			names = append(names, id)
		}
	}
	return names
}

// RosterNotifier is told about the membership changes of updated classes.
type RosterNotifier interface {
	RosterChanged(ctx context.Context, c RosterChange)
}

type rosterChangeData struct {
	ClassName       string
	Grade           string
	AcademicYear    string
	Teacher         string
	AddedTeachers   []string
	RemovedTeachers []string
	AddedStudents   []string
	RemovedStudents []string
}

// MailNotices emails roster changes to the homeroom teacher of the class, with the new
// roster attached as a spreadsheet. A homeroom teacher the class did not have before the
// update is taken from the updated class.
type MailNotices struct {
	mailSvc core.EmailService
	classes Repository
	logger  core.Logger
}

var _ RosterNotifier = (*MailNotices)(nil)

func NewMailNotices(mailSvc core.EmailService, classes Repository, logger core.Logger) *MailNotices {
	return &MailNotices{mailSvc: mailSvc, classes: classes, logger: logger}
}

func (n *MailNotices) RosterChanged(ctx context.Context, c RosterChange) {
	detail, err := n.classes.GetClass(ctx, c.Class.ID)
	if err != nil {
		n.logger.Warn(fmt.Sprintf("roster notice: fetching class %s: %v", c.Class.ID, err), err)
	} else if c.Homeroom == nil && detail.HomeroomTeacher != nil && detail.HomeroomTeacher.User.ID == c.HomeroomID {
		person := detail.HomeroomTeacher.User
		c.Homeroom = &person
	}

	if c.Homeroom == nil || c.Homeroom.Email == "" {
		n.logger.Info(fmt.Sprintf("roster of class %s changed; no homeroom teacher email to notify", c.Class.ID))
		return
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: c.Homeroom.DisplayName(), Address: c.Homeroom.Email}},
		Subject:      fmt.Sprintf("Roster of class %s updated", c.Class.Name),
		TemplateName: rosterChangedTemplate,
		TemplateData: rosterChangeData{
			ClassName:       c.Class.Name,
			Grade:           c.Class.Grade,
			AcademicYear:    c.Class.AcademicYear,
			Teacher:         c.Homeroom.DisplayName(),
			AddedTeachers:   c.Names(c.Teachers.Added),
			RemovedTeachers: c.Names(c.Teachers.Removed),
			AddedStudents:   c.Names(c.Students.Added),
			RemovedStudents: c.Names(c.Students.Removed),
		},
	}

	if err == nil {
		var buf bytes.Buffer
		if err = WriteRoster(&buf, detail); err != nil {
			n.logger.Error(fmt.Sprintf("roster notice: exporting class %s: %v", c.Class.ID, err), err)
		} else if err = msg.Attach(&buf, RosterFilename(detail.Class), RosterContentType); err != nil {
			n.logger.Error(fmt.Sprintf("roster notice: attaching roster: %v", err), err)
		}
	}
	n.mailSvc.SendMessages(msg)
}
