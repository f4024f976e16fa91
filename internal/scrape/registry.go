package scrape

import (
	"log"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/scrape/arbeitnow"
	"jobdigest-engine/internal/scrape/emailalert"
	"jobdigest-engine/internal/scrape/googlejobs"
	"jobdigest-engine/internal/scrape/remoteok"
	"jobdigest-engine/internal/scrape/remotive"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
)

// BuildSources assembles the enabled sources for one run. A source whose
// credentials can't be loaded is skipped with a log line rather than
// blocking the others.
func BuildSources(cfg *config.Config, limiter *util.HostLimiter) []types.Source {
	var out []types.Source

	if cfg.Sources.Remotive.Enabled {
		out = append(out, remotive.New(limiter))
	}
	if cfg.Sources.RemoteOK.Enabled {
		out = append(out, remoteok.New(limiter))
	}
	if cfg.Sources.Arbeitnow.Enabled {
		out = append(out, arbeitnow.New(arbeitnow.Config{
			MaxPages: cfg.Sources.Arbeitnow.MaxPages,
		}, limiter))
	}
	if cfg.Sources.GoogleJobs.Enabled {
		out = append(out, googlejobs.New(googlejobs.Config{
			MaxTerms: cfg.Sources.GoogleJobs.MaxTerms,
		}, limiter))
	}
	if cfg.Sources.EmailAlert.Enabled {
		ea := cfg.Sources.EmailAlert
		password, err := config.LoadIMAPPassword(ea.Username, ea.IMAPHost)
		if err != nil {
			log.Printf("[scrape] email alert source disabled: %v", err)
		} else {
			out = append(out, emailalert.New(emailalert.Config{
				Host:           ea.IMAPHost,
				Port:           ea.IMAPPort,
				Username:       ea.Username,
				Password:       password,
				Mailbox:        ea.Mailbox,
				SubjectAny:     ea.SubjectAny,
				MaxMessages:    ea.MaxMessages,
				LookbackMonths: ea.LookbackMonths,
			}))
		}
	}

	return out
}
