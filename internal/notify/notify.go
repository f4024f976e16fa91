package notify

import (
	"fmt"
	"log"

	gomail "gopkg.in/gomail.v2"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/tz"
)

// Notifier sends the per-run digest email. Sending is best-effort: a failed
// send is logged and reported but never fails the run that produced it.
type Notifier struct {
	cfg   config.DigestConfig
	creds config.SMTPCredentials
	tz    *tz.Handler
}

func New(cfg config.DigestConfig, creds config.SMTPCredentials, tzh *tz.Handler) *Notifier {
	return &Notifier{cfg: cfg, creds: creds, tz: tzh}
}

// SendDigest emails the new jobs of one run. A run with zero new jobs still
// sends a short "no new jobs" note so a silent pipeline is distinguishable
// from a broken one.
func (n *Notifier) SendDigest(jobs []domain.Job) error {
	if !n.cfg.Enabled {
		return nil
	}
	if len(n.cfg.Recipients) == 0 {
		return fmt.Errorf("digest enabled but no recipients configured")
	}

	capped := jobs
	truncated := 0
	if len(capped) > n.cfg.MaxJobs {
		truncated = len(capped) - n.cfg.MaxJobs
		capped = capped[:n.cfg.MaxJobs]
	}

	subject := fmt.Sprintf("Job Digest: %d new job(s) for %s", len(jobs), n.tz.FormatDate(n.tz.Now()))
	if len(jobs) == 0 {
		subject = "Job Digest: no new jobs for " + n.tz.FormatDate(n.tz.Now())
	}

	body, err := renderDigest(digestData{
		Jobs:        capped,
		Total:       len(jobs),
		Truncated:   truncated,
		GeneratedAt: n.tz.FormatDateTime(n.tz.Now()),
	})
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	if err := n.send(subject, body); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	log.Printf("[notify] digest sent: %d job(s) to %d recipient(s)", len(jobs), len(n.cfg.Recipients))
	return nil
}

// SendTest sends a minimal message to verify SMTP settings end to end.
func (n *Notifier) SendTest() error {
	if len(n.cfg.Recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}
	body := "<p>SMTP settings are working. This is a test message.</p>"
	if err := n.send("Job Digest: test message", body); err != nil {
		return fmt.Errorf("send test: %w", err)
	}
	return nil
}

func (n *Notifier) send(subject, htmlBody string) error {
	from := n.creds.FromEmail
	if from == "" {
		from = n.creds.User
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, n.cfg.FromName)
	m.SetHeader("To", n.cfg.Recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(n.creds.Host, n.creds.Port, n.creds.User, n.creds.Password)
	// port 587 negotiates STARTTLS; implicit TLS only on 465
	d.SSL = n.creds.UseTLS && n.creds.Port == 465
	return d.DialAndSend(m)
}
