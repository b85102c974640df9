package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin40411/Lms-client/core"
	"github.com/Shin40411/Lms-client/fs"
	"github.com/Shin40411/Lms-client/tests"
)

type rosterData struct {
	ClassName       string
	Grade           string
	AcademicYear    string
	Teacher         string
	AddedTeachers   []string
	RemovedTeachers []string
	AddedStudents   []string
	RemovedStudents []string
}

func TestConsoleService(t *testing.T) {
	conf := core.NewTestConfig("http://upstream.test")
	logger := &testutil.RecordingLogger{}
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)
	require.Empty(t, logger.Messages())

	to := []mail.Address{{Name: "Tran An", Address: "t1@school.test"}}

	t.Run("templated message with attachment", func(t *testing.T) {
		var out bytes.Buffer
		svc := NewConsoleService(conf, &out, logger)
		msg := &core.EmailMessage{
			To:           to,
			Subject:      "Roster of class 10A1 updated",
			TemplateName: "roster_changed",
			TemplateData: rosterData{
				ClassName: "10A1", Grade: "10", AcademicYear: "2024-2025", Teacher: "Tran An",
				AddedStudents: []string{"Hoang Em", "Dang Giang"}, RemovedTeachers: []string{"Le Binh"},
			},
		}
		require.NoError(t, msg.Attach(strings.NewReader("xlsx"), "roster_10A1.xlsx", "application/octet-stream"))
		svc.SendMessages(msg)
		svc.Wait()

		sent := svc.Sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].TextContent, "Students added: Hoang Em, Dang Giang")
		assert.Contains(t, sent[0].TextContent, "Teachers removed: Le Binh")
		assert.NotContains(t, sent[0].TextContent, "Teachers added")
		assert.Contains(t, sent[0].HTMLContent, "<strong>10A1</strong>")

		body := out.String()
		assert.Contains(t, body, "Subject: [Lms Dashboard] Roster of class 10A1 updated")
		assert.Contains(t, body, "multipart/mixed")
		assert.Contains(t, body, `filename="roster_10A1.xlsx"`)
	})

	t.Run("plain message", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf, logger)
		svc.SendMessages(&core.EmailMessage{To: to, Subject: "Hi", BodyStr: "hello"})
		sent := svc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "hello", sent[0].TextContent)
		assert.Empty(t, sent[0].HTMLContent)
	})

	t.Run("messages without recipients or content are dropped", func(t *testing.T) {
		svc := NewConsoleServiceMock(conf, logger)
		svc.SendMessages(
			&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
			&core.EmailMessage{To: to, Subject: "no content"},
		)
		assert.Empty(t, svc.Sent())
	})
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig("http://upstream.test")
	svc := NewSendgridService(conf, testutil.NopLogger{})

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Tran An", Address: "t1@school.test"}},
		Cc:          []mail.Address{{Address: "office@school.test"}},
		Subject:     "Roster",
		TextContent: "text",
	}
	require.NoError(t, msg.Attach(strings.NewReader("xlsx"), "roster.xlsx", "application/octet-stream"))

	m := svc.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Lms Dashboard] Roster", m.Personalizations[0].Subject)
	assert.Len(t, m.Personalizations[0].To, 1)
	assert.Len(t, m.Personalizations[0].CC, 1)
	require.Len(t, m.Content, 1, "no html part without html content")
	assert.Equal(t, "text/plain", m.Content[0].Type)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "roster.xlsx", m.Attachments[0].Filename)
}
