package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/filter"
	"jobdigest-engine/internal/scrape"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
	"jobdigest-engine/internal/store"
	"jobdigest-engine/internal/tz"
)

// State names the phase a run is in. Failed is only reachable from setup;
// once fetching starts, per-source failures degrade the run instead of
// aborting it.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateFiltering State = "filtering"
	StateStoring   State = "storing"
	StateNotifying State = "notifying"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Summary is the accounting of one run.
type Summary struct {
	RunID      string         `json:"run_id"`
	State      State          `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Fetched    int            `json:"fetched"`
	Filtered   int            `json:"filtered"`
	New        int            `json:"new"`
	Existing   int            `json:"existing"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Failed     int            `json:"failed"`
	Purged     int64          `json:"purged"`
	BySource   map[string]int `json:"by_source"`
	Errors     []string       `json:"errors,omitempty"`
}

// Digester sends the end-of-run digest.
type Digester interface {
	SendDigest(jobs []domain.Job) error
}

// Pipeline runs the fetch, filter, store, notify cycle. One instance may be
// shared between the scheduler and the API; Run itself is serialized by a
// file lock so overlapping cycles never race on the store.
type Pipeline struct {
	cfg      config.Config
	tz       *tz.Handler
	limiter  *util.HostLimiter
	digester Digester

	// sourcesFn builds the source list for a run; tests swap it out.
	sourcesFn func(*config.Config, *util.HostLimiter) []types.Source

	mu   sync.RWMutex
	last Summary
}

func New(cfg config.Config, tzh *tz.Handler, digester Digester) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		tz:        tzh,
		limiter:   util.NewHostLimiter(1, 2),
		digester:  digester,
		sourcesFn: scrape.BuildSources,
	}
}

// Last returns the most recent run summary.
func (p *Pipeline) Last() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (p *Pipeline) setState(s *Summary, st State) {
	s.State = st
	p.mu.Lock()
	p.last = *s
	p.mu.Unlock()
}

const perSourceTimeout = 2 * time.Minute

// Run executes one full cycle. Setup failures (lock, store) return an error
// with the summary in the failed state; anything after that is best-effort.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	s := Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		BySource:  map[string]int{},
	}
	p.setState(&s, StateIdle)
	log.Printf("[pipeline] run %s starting", s.RunID)

	lock := flock.New(filepath.Join(p.cfg.App.DataDir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return p.fail(&s, fmt.Errorf("acquire run lock: %w", err))
	}
	if !locked {
		return p.fail(&s, fmt.Errorf("another run holds the lock"))
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(filepath.Join(p.cfg.App.DataDir, "jobs.db"))
	if err != nil {
		return p.fail(&s, fmt.Errorf("open store: %w", err))
	}
	defer db.Close()

	// Fetch.
	p.setState(&s, StateFetching)
	sources := p.sourcesFn(&p.cfg, p.limiter)
	if len(sources) == 0 {
		return p.fail(&s, fmt.Errorf("no sources enabled"))
	}
	fetched := p.fetchAll(ctx, sources, &s)
	s.Fetched = len(fetched)

	// Filter.
	p.setState(&s, StateFiltering)
	f := filter.New(
		p.cfg.Search.Keywords,
		p.cfg.Search.Designations,
		p.cfg.Search.Fields,
		p.cfg.Search.Locations,
	)
	kept := f.Apply(fetched)
	kept = filter.ByPostedAge(kept, p.tz.CutoffHours(p.cfg.Retention.LookbackHours))
	s.Filtered = len(kept)
	log.Printf("[pipeline] run %s: fetched=%d kept=%d", s.RunID, s.Fetched, s.Filtered)

	// Store.
	p.setState(&s, StateStoring)
	newJobs, existing, err := store.PartitionByNovelty(ctx, db.Pool, kept)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("partition: %v", err))
		newJobs, existing = kept, nil
	}
	s.New, s.Existing = len(newJobs), len(existing)

	inserted, updated, failed, err := store.UpsertAll(ctx, db.Pool, kept)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("upsert: %v", err))
	}
	s.Inserted, s.Updated, s.Failed = inserted, updated, failed

	keep := time.Duration(p.cfg.Retention.KeepDays) * 24 * time.Hour
	purged, err := store.PurgeOlderThan(ctx, db.Pool, keep)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Sprintf("purge: %v", err))
	}
	s.Purged = purged

	// Notify. A run with nothing new still sends the heartbeat digest.
	p.setState(&s, StateNotifying)
	if p.digester != nil {
		if err := p.digester.SendDigest(newJobs); err != nil {
			log.Printf("[pipeline] run %s: digest: %v", s.RunID, err)
			s.Errors = append(s.Errors, fmt.Sprintf("digest: %v", err))
		}
	}

	s.FinishedAt = time.Now().UTC()
	p.setState(&s, StateDone)
	log.Printf("[pipeline] run %s done: new=%d existing=%d inserted=%d updated=%d purged=%d in %s",
		s.RunID, s.New, s.Existing, s.Inserted, s.Updated, s.Purged,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	return s, nil
}

func (p *Pipeline) fail(s *Summary, err error) (Summary, error) {
	s.Errors = append(s.Errors, err.Error())
	s.FinishedAt = time.Now().UTC()
	p.setState(s, StateFailed)
	log.Printf("[pipeline] run %s failed: %v", s.RunID, err)
	return *s, err
}

// fetchAll fans the sources out on an errgroup. A source failure is logged
// and counted, never propagated, so siblings keep running.
func (p *Pipeline) fetchAll(ctx context.Context, sources []types.Source, s *Summary) []domain.Job {
	var g errgroup.Group
	results := make(chan types.Result, len(sources))

	for _, src := range sources {
		src := src
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, perSourceTimeout)
			defer cancel()

			log.Printf("[%s] fetching...", src.Name())
			jobs, err := src.Search(sctx, p.cfg.Search.Keywords, firstOrEmpty(p.cfg.Search.Locations))
			if err != nil {
				log.Printf("[%s] error: %v", src.Name(), err)
				results <- types.Result{Source: src.Name(), Err: err}
				return nil // best-effort: don't cancel siblings
			}
			log.Printf("[%s] fetched %d job(s)", src.Name(), len(jobs))
			results <- types.Result{Source: src.Name(), Jobs: jobs}
			return nil
		})
	}

	_ = g.Wait()
	close(results)

	var all []domain.Job
	for res := range results {
		if res.Err != nil {
			s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", res.Source, res.Err))
			continue
		}
		s.BySource[res.Source] = len(res.Jobs)
		all = append(all, res.Jobs...)
	}
	return all
}

func firstOrEmpty(xs []string) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[0]
}
