package domain

import (
	"fmt"
	"strings"
	"time"
)

// Job is the canonical record every source adapter normalizes into.
// JobID is the per-origin identity used for upserts ("<source>_<native id>");
// Hash is the cross-source content fingerprint used for novelty detection.
// The two are deliberately not reconciled: the same role posted on two
// origins stores as two rows but counts as a duplicate for novelty.
type Job struct {
	JobID           string     `json:"job_id"`
	Source          string     `json:"source"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	Description     string     `json:"description"`
	URL             string     `json:"url"`
	Salary          string     `json:"salary"`
	JobType         string     `json:"job_type"`
	Category        string     `json:"category"`
	Tags            []string   `json:"tags"`
	KeywordsMatched []string   `json:"keywords_matched"`
	Hash            string     `json:"hash"`
	IsNew           bool       `json:"is_new"`
	CompanyLogo     string     `json:"company_logo"`
	PostedAt        *time.Time `json:"posted_date,omitempty"`
	FetchedAt       time.Time  `json:"fetched_date"`
	FirstSeen       time.Time  `json:"first_seen"`
}

// Validate reports which mandatory fields are missing. A job failing
// validation is never persisted.
func (j Job) Validate() error {
	var missing []string
	if strings.TrimSpace(j.JobID) == "" {
		missing = append(missing, "job_id")
	}
	if strings.TrimSpace(j.Source) == "" {
		missing = append(missing, "source")
	}
	if strings.TrimSpace(j.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(j.URL) == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
