package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.Search.Keywords = []string{"crm"}
	cfg.Sources.Remotive.Enabled = true
	return cfg
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	out, res := NormalizeAndValidate(validConfig())
	require.True(t, res.OK(), "%v", res.Errors)

	assert.Equal(t, 8080, out.App.Port)
	assert.Equal(t, "UTC", out.App.Timezone)
	assert.Equal(t, 2, out.Retention.KeepDays)
	assert.Equal(t, 24, out.Retention.LookbackHours)
	assert.Equal(t, 50, out.Digest.MaxJobs)
	assert.Equal(t, "Job Digest", out.Digest.FromName)
	assert.Equal(t, 60, out.Serve.IntervalMinutes)
	assert.Equal(t, 5, out.Sources.Arbeitnow.MaxPages)
	assert.Equal(t, 3, out.Sources.GoogleJobs.MaxTerms)
	assert.Equal(t, "INBOX", out.Sources.EmailAlert.Mailbox)
}

func TestNormalizeTrimsAndDedupesLists(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Keywords = []string{" CRM ", "crm", "", "sales"}

	out, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK())
	assert.Equal(t, []string{"CRM", "sales"}, out.Search.Keywords)
}

func TestEmptyKeywordsIsError(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Keywords = nil

	_, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
}

func TestDigestEnabledNeedsRecipients(t *testing.T) {
	cfg := validConfig()
	cfg.Digest.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Contains(t, res.Errors[0], "digest.recipients")

	cfg.Digest.Recipients = []string{"me@example.com"}
	_, res = NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
}

func TestNoSourcesIsWarningNotError(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.Remotive.Enabled = false

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	assert.NotEmpty(t, res.Warnings)
}

func TestEmailAlertRequiresConnectionFields(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.EmailAlert.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	require.False(t, res.OK())
	assert.Len(t, res.Errors, 3) // host, port, username

	cfg.Sources.EmailAlert.IMAPHost = "imap.gmail.com"
	cfg.Sources.EmailAlert.IMAPPort = 993
	cfg.Sources.EmailAlert.Username = "me@gmail.com"
	_, res = NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
}
