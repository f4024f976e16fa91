package notify

import (
	"bytes"
	"html/template"
	"strings"

	"jobdigest-engine/internal/domain"
)

type digestData struct {
	Jobs        []domain.Job
	Total       int
	Truncated   int
	GeneratedAt string
}

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"join": func(s []string) string { return strings.Join(s, ", ") },
	"postedOn": func(j domain.Job) string {
		if j.PostedAt == nil {
			return ""
		}
		return j.PostedAt.Format("Jan 2, 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, Helvetica, sans-serif; color: #222; max-width: 680px; margin: 0 auto;">
  <h2 style="border-bottom: 2px solid #2b6cb0; padding-bottom: 8px;">Job Digest</h2>
  {{if .Jobs}}
  <p>{{.Total}} new job(s) since the last run.</p>
  {{range .Jobs}}
  <div style="border: 1px solid #e2e8f0; border-radius: 6px; padding: 12px 16px; margin-bottom: 12px;">
    <h3 style="margin: 0 0 4px 0;"><a href="{{.URL}}" style="color: #2b6cb0; text-decoration: none;">{{.Title}}</a></h3>
    <p style="margin: 2px 0; font-size: 14px;"><strong>{{.Company}}</strong>{{if .Location}} &middot; {{.Location}}{{end}}{{if .Salary}} &middot; {{.Salary}}{{end}}</p>
    {{if .KeywordsMatched}}<p style="margin: 2px 0; font-size: 13px; color: #555;">Matched: {{join .KeywordsMatched}}</p>{{end}}
    {{with postedOn .}}<p style="margin: 2px 0; font-size: 12px; color: #888;">Posted {{.}}</p>{{end}}
  </div>
  {{end}}
  {{if .Truncated}}<p style="font-size: 13px; color: #888;">{{.Truncated}} more job(s) omitted from this digest.</p>{{end}}
  {{else}}
  <p>No new jobs this run. The pipeline is healthy and will keep looking.</p>
  {{end}}
  <p style="font-size: 12px; color: #aaa; margin-top: 24px;">Generated {{.GeneratedAt}}</p>
</body>
</html>`))

func renderDigest(data digestData) (string, error) {
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
