package filter

import (
	"strings"

	"jobdigest-engine/internal/domain"
)

// remoteSynonyms are accepted as a location match whenever "remote" is among
// the configured locations, even if the literal string "remote" is absent.
var remoteSynonyms = []string{"remote", "anywhere", "worldwide", "work from home", "wfh"}

// Filter evaluates jobs against four independent predicates, all of which
// must pass. An empty list means "accept all" for that dimension.
type Filter struct {
	keywords     []string
	designations []string
	fields       []string
	locations    []string
}

func New(keywords, designations, fields, locations []string) *Filter {
	return &Filter{
		keywords:     lowerAll(keywords),
		designations: lowerAll(designations),
		fields:       lowerAll(fields),
		locations:    lowerAll(locations),
	}
}

func (f *Filter) MatchesKeywords(j domain.Job) bool {
	if len(f.keywords) == 0 {
		return true
	}
	text := strings.ToLower(j.Title + " " + j.Description + " " + j.Company + " " + strings.Join(j.Tags, " "))
	return containsAny(text, f.keywords)
}

func (f *Filter) MatchesDesignation(j domain.Job) bool {
	if len(f.designations) == 0 {
		return true
	}
	return containsAny(strings.ToLower(j.Title), f.designations)
}

func (f *Filter) MatchesField(j domain.Job) bool {
	if len(f.fields) == 0 {
		return true
	}
	text := strings.ToLower(j.Category + " " + strings.Join(j.Tags, " "))
	return containsAny(text, f.fields)
}

func (f *Filter) MatchesLocation(j domain.Job) bool {
	if len(f.locations) == 0 {
		return true
	}
	loc := strings.ToLower(j.Location)

	for _, want := range f.locations {
		if want == "remote" && containsAny(loc, remoteSynonyms) {
			return true
		}
	}
	return containsAny(loc, f.locations)
}

// Match is the AND of all four predicates.
func (f *Filter) Match(j domain.Job) bool {
	return f.MatchesKeywords(j) &&
		f.MatchesDesignation(j) &&
		f.MatchesField(j) &&
		f.MatchesLocation(j)
}

// Apply keeps the jobs passing Match and annotates each survivor with the
// configured keywords found in title+description+company, configured order.
func (f *Filter) Apply(jobs []domain.Job) []domain.Job {
	var out []domain.Job
	for _, j := range jobs {
		if !f.Match(j) {
			continue
		}
		j.KeywordsMatched = f.MatchedKeywords(j)
		out = append(out, j)
	}
	return out
}

// MatchedKeywords returns the case-folded subset of configured keywords
// present in the job. Tags are deliberately excluded here: a keyword counts
// as matched only when it shows up in the visible text.
func (f *Filter) MatchedKeywords(j domain.Job) []string {
	if len(f.keywords) == 0 {
		return nil
	}
	text := strings.ToLower(j.Title + " " + j.Description + " " + j.Company)

	var out []string
	for _, kw := range f.keywords {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func lowerAll(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = strings.ToLower(strings.TrimSpace(x))
		if x == "" {
			continue
		}
		out = append(out, x)
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
