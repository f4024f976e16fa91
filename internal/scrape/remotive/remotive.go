package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/util"
)

// var so tests can point the scraper at a fake origin.
var baseURL = "https://remotive.com/api/remote-jobs"

// Categories fetched before the catch-all pass. The API has no keyword
// search, so filtering happens downstream.
var categories = []string{"marketing", "sales", "customer-support", "product", "business"}

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return "remotive" }

type remotiveJob struct {
	ID                        int64    `json:"id"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	CompanyLogo               string   `json:"company_logo"`
	Category                  string   `json:"category"`
	JobType                   string   `json:"job_type"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	Salary                    string   `json:"salary"`
	PublicationDate           string   `json:"publication_date"`
	URL                       string   `json:"url"`
	Description               string   `json:"description"`
	Tags                      []string `json:"tags"`
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

func (s *Scraper) Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error) {
	seen := map[int64]bool{}
	var raw []remotiveJob

	collect := func(url string) error {
		jobs, err := s.fetch(ctx, url)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			if seen[j.ID] {
				continue
			}
			seen[j.ID] = true
			raw = append(raw, j)
		}
		return nil
	}

	var lastErr error
	for _, cat := range categories {
		if err := collect(baseURL + "?category=" + cat); err != nil {
			log.Printf("[remotive] category=%s: %v", cat, err)
			lastErr = err
		}
	}
	// Catch-all pass so jobs outside the listed categories aren't missed.
	if err := collect(baseURL); err != nil {
		log.Printf("[remotive] catch-all: %v", err)
		lastErr = err
	}
	if len(raw) == 0 && lastErr != nil {
		return nil, lastErr
	}

	out := make([]domain.Job, 0, len(raw))
	for _, rj := range raw {
		out = append(out, s.normalize(rj))
	}
	return out, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) ([]remotiveJob, error) {
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	req.Header.Set("User-Agent", "JobDigest/1.0 (+local)")
	req.Header.Set("Accept", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("remotive status %d", res.StatusCode)
	}

	var body remotiveResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("remotive decode: %w", err)
	}
	return body.Jobs, nil
}

// normalize maps one API posting to the canonical record.
// Hash recipe: title + company_name + origin id.
func (s *Scraper) normalize(rj remotiveJob) domain.Job {
	loc := util.NormalizeLocation(rj.CandidateRequiredLocation)
	if loc == "" {
		loc = "Remote"
	}

	tags := append([]string{rj.Category, rj.JobType}, rj.Tags...)

	nativeID := fmt.Sprint(rj.ID)
	return domain.Job{
		JobID:       util.JobID(s.Name(), nativeID),
		Source:      s.Name(),
		Title:       strings.TrimSpace(rj.Title),
		Company:     strings.TrimSpace(rj.CompanyName),
		Location:    loc,
		Description: rj.Description,
		URL:         strings.TrimSpace(rj.URL),
		Salary:      strings.TrimSpace(rj.Salary),
		JobType:     rj.JobType,
		Category:    rj.Category,
		Tags:        util.DedupeTags(tags),
		CompanyLogo: rj.CompanyLogo,
		Hash:        util.Fingerprint(rj.Title, rj.CompanyName, nativeID),
		PostedAt:    util.ParseDate(rj.PublicationDate),
		FetchedAt:   time.Now().UTC(),
	}
}
