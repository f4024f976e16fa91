package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Defaults are applied here so the rest of the code
// never has to guess.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Search.Keywords = trimList(out.Search.Keywords)
	out.Search.Designations = trimList(out.Search.Designations)
	out.Search.Fields = trimList(out.Search.Fields)
	out.Search.Locations = trimList(out.Search.Locations)
	out.Digest.Recipients = trimList(out.Digest.Recipients)
	out.Sources.EmailAlert.SubjectAny = trimList(out.Sources.EmailAlert.SubjectAny)

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 8080
	}
	if out.App.Timezone == "" {
		out.App.Timezone = "UTC"
	}
	if out.Retention.KeepDays == 0 {
		out.Retention.KeepDays = 2
	}
	if out.Retention.LookbackHours == 0 {
		out.Retention.LookbackHours = 24
	}
	if out.Digest.MaxJobs == 0 {
		out.Digest.MaxJobs = 50
	}
	if out.Digest.FromName == "" {
		out.Digest.FromName = "Job Digest"
	}
	if out.Serve.IntervalMinutes == 0 {
		out.Serve.IntervalMinutes = 60
	}
	if out.Sources.Arbeitnow.MaxPages == 0 {
		out.Sources.Arbeitnow.MaxPages = 5
	}
	if out.Sources.GoogleJobs.MaxTerms == 0 {
		out.Sources.GoogleJobs.MaxTerms = 3
	}
	if out.Sources.EmailAlert.Mailbox == "" {
		out.Sources.EmailAlert.Mailbox = "INBOX"
	}
	if out.Sources.EmailAlert.MaxMessages == 0 {
		out.Sources.EmailAlert.MaxMessages = 50
	}
	if out.Sources.EmailAlert.LookbackMonths == 0 {
		out.Sources.EmailAlert.LookbackMonths = 3
	}

	// ---- Validation rules ----

	if len(out.Search.Keywords) == 0 {
		res.addErr("search.keywords must not be empty")
	}

	if out.Retention.KeepDays < 0 {
		res.addErr("retention.keep_days must be >= 0")
	}
	if out.Retention.LookbackHours < 0 {
		res.addErr("retention.lookback_hours must be >= 0")
	}

	if out.Digest.Enabled && len(out.Digest.Recipients) == 0 {
		res.addErr("digest.recipients is required when digest.enabled=true")
	}

	if !out.Sources.Remotive.Enabled && !out.Sources.RemoteOK.Enabled &&
		!out.Sources.Arbeitnow.Enabled && !out.Sources.GoogleJobs.Enabled &&
		!out.Sources.EmailAlert.Enabled {
		res.addWarn("no sources enabled; runs will fetch nothing")
	}

	if out.Sources.EmailAlert.Enabled {
		ea := out.Sources.EmailAlert
		if strings.TrimSpace(ea.IMAPHost) == "" {
			res.addErr("sources.email_alerts.imap_host is required when enabled")
		}
		if ea.IMAPPort == 0 {
			res.addErr("sources.email_alerts.imap_port is required when enabled")
		}
		if strings.TrimSpace(ea.Username) == "" {
			res.addErr("sources.email_alerts.username is required when enabled")
		}
		if len(ea.SubjectAny) == 0 {
			res.addWarn("sources.email_alerts.subject_any is empty; every unseen message will be scanned")
		}
	}

	if len(out.Search.Locations) > 50 {
		res.addWarn("search.locations has %d entries; consider tightening it", len(out.Search.Locations))
	}

	return out, res
}
