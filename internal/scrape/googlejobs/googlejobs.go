package googlejobs

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/util"
)

const baseURL = "https://www.google.com/search"

// Scraper pulls job cards out of Google's jobs search view. It is
// inherently best-effort: Google may block the request or reshuffle its
// markup, in which case the result is legitimately empty.
type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
}

type Config struct {
	MaxTerms int // search terms per run
}

func New(cfg Config, limiter *util.HostLimiter) *Scraper {
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = 3
	}
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func (s *Scraper) Name() string { return "google_jobs" }

func (s *Scraper) Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error) {
	terms := keywords
	if len(terms) > s.cfg.MaxTerms {
		terms = terms[:s.cfg.MaxTerms]
	}

	var all []rawJob
	for _, term := range terms {
		query := term + " jobs"
		if location != "" {
			query += " " + location
		}
		raw, err := s.searchOnce(ctx, query)
		if err != nil {
			log.Printf("[google_jobs] query=%q: %v", query, err)
			continue
		}
		all = append(all, raw...)
	}

	// Drop repeats across queries (title+company).
	seen := map[string]bool{}
	var out []domain.Job
	for _, rj := range all {
		key := rj.title + "|" + rj.company
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s.normalize(rj))
	}
	return out, nil
}

type rawJob struct {
	title    string
	company  string
	location string
	url      string
	query    string
}

func (s *Scraper) searchOnce(ctx context.Context, query string) ([]rawJob, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("ibp", "htl;jobs") // triggers the jobs view
	params.Set("hl", "en")
	params.Set("gl", "us")

	full := baseURL + "?" + params.Encode()

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, full); err != nil {
			return nil, err
		}
	}

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google jobs get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("google jobs status %d", res.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("google jobs read: %w", err)
	}

	return parseJobsHTML(string(html), query), nil
}

var (
	reCardClass  = regexp.MustCompile(`BjJfJf|PwjeAc|gws-plugins-horizon-jobs`)
	reTitleClass = regexp.MustCompile(`BjJfJf|tJ9zfc`)
	reCoClass    = regexp.MustCompile(`vNEEBe|company`)
	reLocClass   = regexp.MustCompile(`Qk80Jf|location`)
	reEmbedded   = regexp.MustCompile(`(?s)"title"\s*:\s*"([^"]+)".*?"company"\s*:\s*"([^"]+)"`)
)

// parseJobsHTML tries an ordered list of extraction strategies until one
// yields results: rendered job cards, then JSON embedded in scripts, then
// loosely structured result divs.
func parseJobsHTML(html, query string) []rawJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	jobs := extractFromCards(doc, query)
	if len(jobs) == 0 {
		jobs = extractFromScripts(html, query)
	}
	if len(jobs) == 0 {
		jobs = extractStructured(doc, query)
	}
	return jobs
}

func extractFromCards(doc *goquery.Document, query string) []rawJob {
	var jobs []rawJob

	doc.Find("div").Each(func(_ int, card *goquery.Selection) {
		class, _ := card.Attr("class")
		if !reCardClass.MatchString(class) {
			return
		}

		title := findByClass(card, reTitleClass)
		if title == "" {
			return
		}
		company := findByClass(card, reCoClass)
		if company == "" {
			company = "Unknown"
		}
		loc := findByClass(card, reLocClass)
		if loc == "" {
			loc = "Not specified"
		}

		href := ""
		if a := card.Find("a[href]").First(); a.Length() > 0 {
			href, _ = a.Attr("href")
			if href != "" && !strings.HasPrefix(href, "http") {
				href = "https://www.google.com" + href
			}
		}
		if href == "" {
			href = searchURL(title + " " + company + " jobs")
		}

		jobs = append(jobs, rawJob{
			title:    title,
			company:  company,
			location: loc,
			url:      href,
			query:    query,
		})
	})

	return jobs
}

func extractFromScripts(html, query string) []rawJob {
	var jobs []rawJob
	for _, m := range reEmbedded.FindAllStringSubmatch(html, 20) {
		jobs = append(jobs, rawJob{
			title:    m[1],
			company:  m[2],
			location: "Not specified",
			url:      searchURL(m[1] + " " + m[2] + " jobs"),
			query:    query,
		})
	}
	return jobs
}

func extractStructured(doc *goquery.Document, query string) []rawJob {
	var jobs []rawJob

	doc.Find("div[data-ved]").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		text := util.CleanText(div.Text())
		if len(text) < 20 || len(text) > 500 {
			return true
		}
		lines := strings.Split(div.Text(), "\n")
		var fields []string
		for _, l := range lines {
			if l = util.CleanText(l); l != "" {
				fields = append(fields, l)
			}
		}
		if len(fields) < 2 {
			return true
		}

		job := rawJob{
			title:    clip(fields[0], 100),
			company:  clip(fields[1], 100),
			location: "Not specified",
			url:      searchURL(query) + "&ibp=htl;jobs",
			query:    query,
		}
		if len(fields) > 2 {
			job.location = clip(fields[2], 100)
		}
		jobs = append(jobs, job)
		return len(jobs) < 10
	})

	return jobs
}

// normalize maps one scraped card to the canonical record. Google gives no
// stable native id, so job_id falls back to a hash-derived one.
// Hash recipe: title + company + url.
func (s *Scraper) normalize(rj rawJob) domain.Job {
	now := time.Now().UTC()

	var tags []string
	if rj.query != "" {
		tags = append(tags, rj.query)
	}

	return domain.Job{
		JobID:     util.FallbackJobID(s.Name(), rj.title, rj.company, rj.url),
		Source:    s.Name(),
		Title:     rj.title,
		Company:   rj.company,
		Location:  rj.location,
		URL:       rj.url,
		Tags:      tags,
		Hash:      util.Fingerprint(rj.title, rj.company, rj.url),
		PostedAt:  &now, // listings in the jobs view are fresh by construction
		FetchedAt: now,
	}
}

func findByClass(sel *goquery.Selection, re *regexp.Regexp) string {
	out := ""
	sel.Find("div,span,h2,h3").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, _ := el.Attr("class")
		if re.MatchString(class) {
			out = util.CleanText(el.Text())
			return out == ""
		}
		return true
	})
	return out
}

func searchURL(q string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(q)
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
