package tz

import (
	"log"
	"time"
)

// Handler converts between UTC (all comparisons) and the user's timezone
// (display formatting only).
type Handler struct {
	loc *time.Location
}

func New(name string) *Handler {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[tz] unknown timezone %q, falling back to UTC", name)
		loc = time.UTC
	}
	return &Handler{loc: loc}
}

func (h *Handler) Location() *time.Location { return h.loc }

func (h *Handler) Now() time.Time { return time.Now().In(h.loc) }

func (h *Handler) NowUTC() time.Time { return time.Now().UTC() }

// CutoffHours returns the UTC timestamp n hours in the past. All age
// comparisons happen in UTC regardless of the display timezone.
func (h *Handler) CutoffHours(n int) time.Time {
	return time.Now().UTC().Add(-time.Duration(n) * time.Hour)
}

func (h *Handler) FormatDate(t time.Time) string {
	return t.In(h.loc).Format("Mon, Jan 2")
}

func (h *Handler) FormatDateTime(t time.Time) string {
	return t.In(h.loc).Format("Mon, Jan 2 at 3:04 PM MST")
}
