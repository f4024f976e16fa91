package emailalert

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJobLinks(t *testing.T) {
	body := `<html><body>
		<a href="https://jobs.example.com/view/123">Senior CRM Manager at Acme</a>
		<a href="https://example.com/unsubscribe?u=1">Unsubscribe</a>
		<a href="mailto:alerts@example.com">contact</a>
		<a href="/relative/path">relative</a>
		<a href="https://jobs.example.com/view/456"><b>Sales  Lead</b></a>
	</body></html>`

	links := extractJobLinks(body)
	require.Len(t, links, 2)
	assert.Equal(t, "https://jobs.example.com/view/123", links[0].url)
	assert.Equal(t, "Senior CRM Manager at Acme", links[0].text)
	// nested markup stripped, whitespace collapsed
	assert.Equal(t, "Sales Lead", links[1].text)
}

func TestSubjectWanted(t *testing.T) {
	s := New(Config{SubjectAny: []string{"job alert", "new jobs"}})
	assert.True(t, s.subjectWanted("Your Daily Job Alert"))
	assert.True(t, s.subjectWanted("14 NEW JOBS for you"))
	assert.False(t, s.subjectWanted("Your invoice"))

	all := New(Config{})
	assert.True(t, all.subjectWanted("anything"))
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "Linkedin", senderDomain("alerts@linkedin.com"))
	assert.Equal(t, "Indeed", senderDomain("no-reply@mail.indeed.com"))
	assert.Equal(t, "Email Alert", senderDomain(""))
}

func TestJobsFromMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: alerts@linkedin.com",
		"Subject: Job Alert",
		"Content-Type: text/html",
		"",
		`<html><body><a href="https://jobs.example.com/view/1">CRM Manager</a>` +
			`<a href="https://jobs.example.com/view/1">CRM Manager</a></body></html>`,
	}, "\r\n")

	s := New(Config{})
	msgDate := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	jobs := s.jobsFromMessage(message{
		subject: "Job Alert",
		from:    "alerts@linkedin.com",
		date:    msgDate,
		raw:     []byte(raw),
	})

	// duplicate anchors produce duplicate links here; dedupe happens by
	// job_id in Search, so both carry the same identity
	require.NotEmpty(t, jobs)
	assert.Equal(t, "CRM Manager", jobs[0].Title)
	assert.Equal(t, "Linkedin", jobs[0].Company)
	assert.Equal(t, "email_alert", jobs[0].Source)
	assert.Equal(t, "https://jobs.example.com/view/1", jobs[0].URL)
	require.NotNil(t, jobs[0].PostedAt)
	assert.Equal(t, msgDate, jobs[0].PostedAt.UTC())
	for _, j := range jobs[1:] {
		assert.Equal(t, jobs[0].JobID, j.JobID)
	}
}

func TestMessageBodyMultipartPrefersHTML(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.c",
		"Subject: x",
		`Content-Type: multipart/alternative; boundary="BOUND"`,
		"",
		"--BOUND",
		"Content-Type: text/plain",
		"",
		"plain text version",
		"--BOUND",
		"Content-Type: text/html",
		"",
		`<html><a href="https://jobs.example.com/1">Job</a></html>`,
		"--BOUND--",
	}, "\r\n")

	body := messageBody([]byte(raw))
	assert.Contains(t, body, `href="https://jobs.example.com/1"`)
	assert.NotContains(t, body, "plain text version")
}

func TestMessageBodyQuotedPrintable(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.c",
		"Subject: x",
		"Content-Type: text/html",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		`<a href=3D"https://jobs.example.com/2">Job</a>`,
	}, "\r\n")

	body := messageBody([]byte(raw))
	assert.Contains(t, body, `href="https://jobs.example.com/2"`)
}
