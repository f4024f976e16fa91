package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("CRM Manager", "Acme", "123")
	b := Fingerprint("CRM Manager", "Acme", "123")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c := Fingerprint("CRM Manager", "Acme", "124")
	assert.NotEqual(t, a, c)
}

func TestJobID(t *testing.T) {
	assert.Equal(t, "remotive_123", JobID("remotive", "123"))
	assert.Equal(t, "remotive_123", JobID("remotive", "  123 "))
}

func TestFallbackJobID(t *testing.T) {
	id := FallbackJobID("google_jobs", "CRM Manager", "Acme", "https://x")
	assert.Len(t, id, len("google_jobs_")+12)
	// stable across calls
	assert.Equal(t, id, FallbackJobID("google_jobs", "CRM Manager", "Acme", "https://x"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a b\n  c  "))
	assert.Equal(t, "", CleanText("    "))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "Berlin, DE", NormalizeLocation(" Berlin , DE "))
	// duplicate segments collapse
	assert.Equal(t, "Remote", NormalizeLocation("Remote, remote"))
	assert.Equal(t, "New York", NormalizeLocation("Location: New York"))
	assert.Equal(t, "", NormalizeLocation("   "))
}

func TestDedupeTags(t *testing.T) {
	got := DedupeTags([]string{"CRM", "crm", " Sales ", "", "sales"})
	assert.Equal(t, []string{"CRM", "Sales"}, got)
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2026-08-20T10:30:00.000000Z": "2026-08-20T10:30:00Z",
		"2026-08-20T10:30:00Z":        "2026-08-20T10:30:00Z",
		"2026-08-20 10:30:00":         "2026-08-20T10:30:00Z",
		"2026-08-20":                  "2026-08-20T00:00:00Z",
	}
	for raw, want := range cases {
		got := ParseDate(raw)
		require.NotNil(t, got, raw)
		assert.Equal(t, want, got.UTC().Format(time.RFC3339), raw)
	}

	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("not a date"))
}
