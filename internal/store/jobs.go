package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"jobdigest-engine/internal/domain"
)

// UpsertAll writes every valid job keyed by job_id. Fields are fully
// replaced on conflict except first_seen, which is set once on insert.
// fetched_date never moves backwards for a given job_id. Invalid jobs are
// counted as failed without aborting the batch.
func UpsertAll(ctx context.Context, db *sql.DB, jobs []domain.Job) (inserted, updated, failed int, err error) {
	if len(jobs) == 0 {
		return 0, 0, 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	for _, j := range jobs {
		if verr := j.Validate(); verr != nil {
			log.Printf("[store] skipping invalid job url=%q: %v", j.URL, verr)
			failed++
			continue
		}

		if j.FetchedAt.IsZero() {
			j.FetchedAt = now
		}

		var exists int
		serr := tx.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE job_id = ? LIMIT 1;`, j.JobID).Scan(&exists)
		if serr != nil && serr != sql.ErrNoRows {
			return inserted, updated, failed, fmt.Errorf("existence check for %s: %w", j.JobID, serr)
		}

		tagsB, _ := json.Marshal(emptyIfNil(j.Tags))
		kwB, _ := json.Marshal(emptyIfNil(j.KeywordsMatched))

		var posted any
		if j.PostedAt != nil && !j.PostedAt.IsZero() {
			posted = j.PostedAt.UTC().Format(time.RFC3339)
		}

		_, uerr := tx.ExecContext(ctx, `
INSERT INTO jobs (job_id, source, title, company, location, description, url,
                  salary, job_type, category, tags, keywords_matched, hash,
                  is_new, company_logo, posted_date, fetched_date, first_seen)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(job_id) DO UPDATE SET
  source = excluded.source,
  title = excluded.title,
  company = excluded.company,
  location = excluded.location,
  description = excluded.description,
  url = excluded.url,
  salary = excluded.salary,
  job_type = excluded.job_type,
  category = excluded.category,
  tags = excluded.tags,
  keywords_matched = excluded.keywords_matched,
  hash = excluded.hash,
  is_new = excluded.is_new,
  company_logo = excluded.company_logo,
  posted_date = excluded.posted_date,
  fetched_date = MAX(jobs.fetched_date, excluded.fetched_date);`,
			j.JobID, j.Source, j.Title, j.Company, j.Location, j.Description, j.URL,
			j.Salary, j.JobType, j.Category, string(tagsB), string(kwB), j.Hash,
			boolToInt(j.IsNew), j.CompanyLogo, posted,
			j.FetchedAt.UTC().Format(time.RFC3339), now.Format(time.RFC3339),
		)
		if uerr != nil {
			log.Printf("[store] upsert error job_id=%q: %v", j.JobID, uerr)
			failed++
			continue
		}

		if serr == sql.ErrNoRows {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, updated, failed, fmt.Errorf("commit upsert tx: %w", err)
	}
	return inserted, updated, failed, nil
}

// ExistingHashes returns which of the given hashes are already stored,
// as a single batched query.
func ExistingHashes(ctx context.Context, db *sql.DB, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(hashes) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?,", len(hashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT hash FROM jobs WHERE hash IN (`+placeholders+`);`, args...)
	if err != nil {
		return nil, fmt.Errorf("existing hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out[h] = true
	}
	return out, rows.Err()
}

// PartitionByNovelty splits jobs into never-seen and already-known based on
// the content hash, NOT the job_id. The check and any following upsert are
// separate statements: two overlapping runs can both classify a hash as new.
// That window is accepted; the idempotent upsert absorbs it.
func PartitionByNovelty(ctx context.Context, db *sql.DB, jobs []domain.Job) (newJobs, existing []domain.Job, err error) {
	if len(jobs) == 0 {
		return nil, nil, nil
	}

	var hashes []string
	for _, j := range jobs {
		if j.Hash != "" {
			hashes = append(hashes, j.Hash)
		}
	}

	seen, err := ExistingHashes(ctx, db, hashes)
	if err != nil {
		return nil, nil, err
	}

	for i := range jobs {
		if jobs[i].Hash != "" && seen[jobs[i].Hash] {
			jobs[i].IsNew = false
			existing = append(existing, jobs[i])
		} else {
			jobs[i].IsNew = true
			newJobs = append(newJobs, jobs[i])
		}
	}
	return newJobs, existing, nil
}

// PurgeOlderThan removes records whose fetched_date fell out of the
// retention window.
func PurgeOlderThan(ctx context.Context, db *sql.DB, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age).Format(time.RFC3339)
	res, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE fetched_date < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type QueryOpts struct {
	Source   string   // filter by source, empty = all
	Keywords []string // filter by matched keyword, empty = all
	Limit    int      // 0 = no limit
}

// QuerySince returns jobs fetched within the last N hours, newest posting
// first. Jobs without a posted_date sort last (kept, not excluded).
func QuerySince(ctx context.Context, db *sql.DB, hours int, opts QueryOpts) ([]domain.Job, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)

	query := `
SELECT job_id, source, title, company, location, description, url,
       salary, job_type, category, tags, keywords_matched, hash,
       is_new, company_logo, posted_date, fetched_date, first_seen
FROM jobs
WHERE fetched_date >= ?`
	args := []any{cutoff}

	if opts.Source != "" {
		query += ` AND source = ?`
		args = append(args, opts.Source)
	}
	if len(opts.Keywords) > 0 {
		placeholders := strings.Repeat("?,", len(opts.Keywords))
		placeholders = placeholders[:len(placeholders)-1]
		query += ` AND EXISTS (SELECT 1 FROM json_each(jobs.keywords_matched) WHERE json_each.value IN (` + placeholders + `))`
		for _, k := range opts.Keywords {
			args = append(args, k)
		}
	}

	query += `
ORDER BY posted_date IS NULL, posted_date DESC`
	if opts.Limit > 0 {
		query += `
LIMIT ?`
		args = append(args, opts.Limit)
	}
	query += `;`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query since: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// NewSince returns only jobs first discovered within the last N hours.
func NewSince(ctx context.Context, db *sql.DB, hours int) ([]domain.Job, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)

	rows, err := db.QueryContext(ctx, `
SELECT job_id, source, title, company, location, description, url,
       salary, job_type, category, tags, keywords_matched, hash,
       is_new, company_logo, posted_date, fetched_date, first_seen
FROM jobs
WHERE fetched_date >= ? AND is_new = 1
ORDER BY posted_date IS NULL, posted_date DESC;`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("new since: %w", err)
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type Stats struct {
	TotalJobs      int            `json:"total_jobs"`
	JobsLast24h    int            `json:"jobs_last_24h"`
	JobsLast48h    int            `json:"jobs_last_48h"`
	NewJobsLast24h int            `json:"new_jobs_last_24h"`
	BySource       map[string]int `json:"by_source"`
	LastUpdated    string         `json:"last_updated"`
}

func GetStats(ctx context.Context, db *sql.DB) (Stats, error) {
	st := Stats{BySource: make(map[string]int)}

	count := func(where string, args ...any) (int, error) {
		var n int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs `+where+`;`, args...).Scan(&n)
		return n, err
	}

	cut24 := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	cut48 := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)

	var err error
	if st.TotalJobs, err = count(""); err != nil {
		return st, err
	}
	if st.JobsLast24h, err = count(`WHERE fetched_date >= ?`, cut24); err != nil {
		return st, err
	}
	if st.JobsLast48h, err = count(`WHERE fetched_date >= ?`, cut48); err != nil {
		return st, err
	}
	if st.NewJobsLast24h, err = count(`WHERE is_new = 1 AND fetched_date >= ?`, cut24); err != nil {
		return st, err
	}

	rows, err := db.QueryContext(ctx, `SELECT source, COUNT(*) FROM jobs GROUP BY source;`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return st, err
		}
		st.BySource[src] = n
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	st.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return st, nil
}

func scanJob(rows *sql.Rows) (domain.Job, error) {
	var j domain.Job
	var tagsJSON, kwJSON string
	var isNew int
	var posted sql.NullString
	var fetched, firstSeen string

	if err := rows.Scan(
		&j.JobID, &j.Source, &j.Title, &j.Company, &j.Location, &j.Description, &j.URL,
		&j.Salary, &j.JobType, &j.Category, &tagsJSON, &kwJSON, &j.Hash,
		&isNew, &j.CompanyLogo, &posted, &fetched, &firstSeen,
	); err != nil {
		return j, err
	}

	_ = json.Unmarshal([]byte(tagsJSON), &j.Tags)
	_ = json.Unmarshal([]byte(kwJSON), &j.KeywordsMatched)
	j.IsNew = isNew == 1

	if posted.Valid && posted.String != "" {
		if t, err := time.Parse(time.RFC3339, posted.String); err == nil {
			j.PostedAt = &t
		}
	}
	j.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	j.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
	return j, nil
}

func emptyIfNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
