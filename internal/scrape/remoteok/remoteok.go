package remoteok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/util"
)

// var so tests can point the scraper at a fake origin.
var baseURL = "https://remoteok.com/api"

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

func (s *Scraper) Name() string { return "remoteok" }

// remoteokItem is loosely typed on purpose: the API's first element is a
// legal notice, not a job, and field types drift.
type remoteokItem struct {
	ID          json.Number `json:"id"`
	Slug        string      `json:"slug"`
	Position    string      `json:"position"`
	Company     string      `json:"company"`
	CompanyLogo string      `json:"company_logo"`
	Logo        string      `json:"logo"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Salary      string      `json:"salary"`
	Tags        []string    `json:"tags"`
	Date        string      `json:"date"`
	URL         string      `json:"url"`
}

func (s *Scraper) Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error) {
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, baseURL); err != nil {
			return nil, err
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	// RemoteOK wants an honest, descriptive UA.
	req.Header.Set("User-Agent", "JobDigest/1.0 (job search application)")
	req.Header.Set("Accept", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("remoteok status %d", res.StatusCode)
	}

	var items []remoteokItem
	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("remoteok decode: %w", err)
	}

	var out []domain.Job
	for _, it := range items {
		// Skip the legal-notice element and anything else non-job shaped.
		if it.ID.String() == "" || it.Position == "" {
			continue
		}
		out = append(out, s.normalize(it))
	}
	return out, nil
}

// normalize maps one listing to the canonical record.
// Hash recipe: position + company + origin id.
func (s *Scraper) normalize(it remoteokItem) domain.Job {
	loc := util.NormalizeLocation(it.Location)
	if loc == "" {
		loc = "Remote"
	}

	url := strings.TrimSpace(it.URL)
	if url == "" {
		slug := it.Slug
		if slug == "" {
			slug = it.ID.String()
		}
		url = "https://remoteok.com/remote-jobs/" + slug
	}

	logo := it.CompanyLogo
	if logo == "" {
		logo = it.Logo
	}

	nativeID := it.ID.String()
	return domain.Job{
		JobID:       util.JobID(s.Name(), nativeID),
		Source:      s.Name(),
		Title:       strings.TrimSpace(it.Position),
		Company:     strings.TrimSpace(it.Company),
		Location:    loc,
		Description: it.Description,
		URL:         url,
		Salary:      strings.TrimSpace(it.Salary),
		JobType:     "Remote",
		Tags:        util.DedupeTags(it.Tags),
		CompanyLogo: logo,
		Hash:        util.Fingerprint(it.Position, it.Company, nativeID),
		PostedAt:    util.ParseDate(it.Date),
		FetchedAt:   time.Now().UTC(),
	}
}
