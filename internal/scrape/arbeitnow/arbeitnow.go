package arbeitnow

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
var baseURL = "https://www.arbeitnow.com/api/job-board-api"

type Config struct {
	MaxPages int // pagination cap; keeps origin traversal bounded
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Scraper {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return "arbeitnow" }

type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

type arbeitnowResponse struct {
	Data  []arbeitnowJob `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

func (s *Scraper) Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error) {
	var out []domain.Job

	for page := 1; page <= s.cfg.MaxPages; page++ {
		body, err := s.fetchPage(ctx, page)
		if err != nil {
			if len(out) > 0 {
				// partial result beats none
				return out, nil
			}
			return nil, err
		}
		if len(body.Data) == 0 {
			break
		}
		for _, rj := range body.Data {
			out = append(out, s.normalize(rj))
		}
		if body.Links.Next == "" {
			break
		}
	}
	return out, nil
}

func (s *Scraper) fetchPage(ctx context.Context, page int) (*arbeitnowResponse, error) {
	url := fmt.Sprintf("%s?page=%d", baseURL, page)

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
		return nil, fmt.Errorf("arbeitnow get page %d: %w", page, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("arbeitnow status %d on page %d", res.StatusCode, page)
	}

	var body arbeitnowResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("arbeitnow decode page %d: %w", page, err)
	}
	return &body, nil
}

// normalize maps one listing to the canonical record.
// Hash recipe: title + company_name + slug.
func (s *Scraper) normalize(rj arbeitnowJob) domain.Job {
	loc := util.NormalizeLocation(rj.Location)
	if loc == "" && rj.Remote {
		loc = "Remote"
	}

	tags := append([]string{}, rj.Tags...)
	if rj.Remote {
		tags = append(tags, "Remote")
	}

	jobType := "On-site"
	if rj.Remote {
		jobType = "Remote"
	}

	var posted *time.Time
	if rj.CreatedAt > 0 {
		t := time.Unix(rj.CreatedAt, 0).UTC()
		posted = &t
	}

	return domain.Job{
		JobID:       util.JobID(s.Name(), rj.Slug),
		Source:      s.Name(),
		Title:       strings.TrimSpace(rj.Title),
		Company:     strings.TrimSpace(rj.CompanyName),
		Location:    loc,
		Description: rj.Description,
		URL:         strings.TrimSpace(rj.URL),
		JobType:     jobType,
		Tags:        util.DedupeTags(tags),
		Hash:        util.Fingerprint(rj.Title, rj.CompanyName, rj.Slug),
		PostedAt:    posted,
		FetchedAt:   time.Now().UTC(),
	}
}
