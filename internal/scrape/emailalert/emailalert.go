package emailalert

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/util"
)

// Config selects the mailbox and which alert mails to harvest.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Mailbox        string
	SubjectAny     []string // subject must contain one of these (case-insensitive); empty = all
	MaxMessages    int
	LookbackMonths int
}

// Scraper harvests job links out of job-alert emails over IMAP. Messages are
// fetched with BODY.PEEK[] and never marked \Seen.
type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 50
	}
	if cfg.LookbackMonths <= 0 {
		cfg.LookbackMonths = 3
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() string { return "email_alert" }

func (s *Scraper) Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error) {
	if s.cfg.Host == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return nil, errors.New("email alert source needs imap host, username and password")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: s.cfg.Host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}
	defer func() {
		if err := c.Logout().Wait(); err != nil {
			log.Printf("[email_alert] imap logout: %v", err)
		}
		_ = c.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(s.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", s.cfg.Mailbox, err)
	}

	msgs, err := s.fetchUnseen(ctx, c)
	if err != nil {
		return nil, err
	}

	var out []domain.Job
	seen := map[string]bool{}
	for _, m := range msgs {
		if !s.subjectWanted(m.subject) {
			continue
		}
		for _, j := range s.jobsFromMessage(m) {
			if seen[j.JobID] {
				continue
			}
			seen[j.JobID] = true
			out = append(out, j)
		}
	}
	return out, nil
}

type message struct {
	uid     imap.UID
	subject string
	from    string
	date    time.Time
	raw     []byte
}

func (s *Scraper) fetchUnseen(ctx context.Context, c *imapclient.Client) ([]message, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -s.cfg.LookbackMonths, 0),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	// Newest first.
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > s.cfg.MaxMessages {
		uids = uids[:s.cfg.MaxMessages]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []message
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var m message
		m.uid = buf.UID
		if buf.Envelope != nil {
			m.subject = buf.Envelope.Subject
			m.date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				m.from = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func (s *Scraper) subjectWanted(subject string) bool {
	if len(s.cfg.SubjectAny) == 0 {
		return true
	}
	lower := strings.ToLower(subject)
	for _, want := range s.cfg.SubjectAny {
		if strings.Contains(lower, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

// jobsFromMessage turns the anchors of one alert mail into job records. The
// anchor text becomes the title; the sender domain stands in for the company
// when the text gives nothing better.
func (s *Scraper) jobsFromMessage(m message) []domain.Job {
	body := messageBody(m.raw)
	if body == "" {
		return nil
	}

	links := extractJobLinks(body)
	if len(links) == 0 {
		return nil
	}

	company := senderDomain(m.from)
	date := m.date
	if date.IsZero() {
		date = time.Now()
	}
	posted := date.UTC()

	var out []domain.Job
	for _, l := range links {
		title := l.text
		if title == "" {
			title = m.subject
		}
		if title == "" {
			continue
		}

		out = append(out, domain.Job{
			JobID:       util.FallbackJobID(s.Name(), title, company, l.url),
			Source:      s.Name(),
			Title:       title,
			Company:     company,
			Location:    "See listing",
			Description: m.subject,
			URL:         l.url,
			Tags:        []string{"email-alert"},
			Hash:        util.Fingerprint(title, company, l.url),
			PostedAt:    &posted,
			FetchedAt:   time.Now().UTC(),
		})
	}
	return out
}

type link struct {
	url  string
	text string
}

var (
	reHref = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["'][^>]*>(.*?)</a>`)
	reTags = regexp.MustCompile(`(?is)<[^>]+>`)

	// Hosts that show up in alert mails but never point at a job.
	skipHosts = []string{"unsubscribe", "preferences", "mailto:", "privacy", "terms", "help.", "support."}
)

func extractJobLinks(body string) []link {
	var out []link
	for _, m := range reHref.FindAllStringSubmatch(body, -1) {
		href := strings.TrimSpace(html.UnescapeString(m[1]))
		if href == "" || !strings.HasPrefix(href, "http") {
			continue
		}
		if boring(href) {
			continue
		}
		text := strings.TrimSpace(reTags.ReplaceAllString(m[2], " "))
		text = strings.Join(strings.Fields(html.UnescapeString(text)), " ")
		if len(text) > 150 {
			text = text[:150]
		}
		out = append(out, link{url: href, text: text})
	}
	return out
}

func boring(href string) bool {
	lower := strings.ToLower(href)
	for _, h := range skipHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func senderDomain(from string) string {
	if at := strings.LastIndex(from, "@"); at >= 0 {
		host := from[at+1:]
		host = strings.TrimSuffix(host, ">")
		if dot := strings.LastIndex(host, "."); dot > 0 {
			host = host[:dot]
		}
		if i := strings.LastIndex(host, "."); i >= 0 {
			host = host[i+1:]
		}
		if host != "" {
			return strings.ToUpper(host[:1]) + host[1:]
		}
	}
	if u, err := url.Parse(from); err == nil && u.Host != "" {
		return u.Host
	}
	return "Email Alert"
}

// messageBody decodes the RFC822 message and returns the richest text part,
// preferring HTML so anchors survive.
func messageBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	bodyRaw, _ := io.ReadAll(io.LimitReader(msg.Body, 6<<20))
	plain, htmlPart := textParts(msg.Header, bodyRaw)
	if htmlPart != "" {
		return htmlPart
	}
	if plain != "" {
		return plain
	}
	return string(bodyRaw)
}

func textParts(h mail.Header, body []byte) (plain, htmlPart string) {
	ct := h.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return string(decodeCTE(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeCTE(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
			pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
			pMedia = strings.ToLower(pMedia)

			b, _ := io.ReadAll(io.LimitReader(p, 6<<20))
			b = decodeCTE(b, partCTE)

			switch {
			case strings.HasPrefix(pMedia, "multipart/"):
				pl, ht := textParts(mail.Header(p.Header), b)
				if len(pl) > len(plain) {
					plain = pl
				}
				if len(ht) > len(htmlPart) {
					htmlPart = ht
				}
			case strings.HasPrefix(pMedia, "text/plain"):
				if len(b) > len(plain) {
					plain = string(b)
				}
			case strings.HasPrefix(pMedia, "text/html"):
				if len(b) > len(htmlPart) {
					htmlPart = string(b)
				}
			}
		}
		return plain, htmlPart
	}

	s := decodeCTE(body, cte)
	if strings.HasPrefix(mediaType, "text/html") {
		return "", string(s)
	}
	return string(s), ""
}

func decodeCTE(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	default:
		return b
	}
}
