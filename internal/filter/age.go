package filter

import (
	"time"

	"jobdigest-engine/internal/domain"
)

// ByPostedAge keeps jobs posted at or after cutoff. Jobs with no posted date
// are always kept: unknown age is treated as recent. Both sides of the
// comparison are normalized to UTC.
func ByPostedAge(jobs []domain.Job, cutoff time.Time) []domain.Job {
	cutoff = cutoff.UTC()

	var out []domain.Job
	for _, j := range jobs {
		if j.PostedAt == nil {
			out = append(out, j)
			continue
		}
		if !j.PostedAt.UTC().Before(cutoff) {
			out = append(out, j)
		}
	}
	return out
}
