package types

import (
	"context"

	"jobdigest-engine/internal/domain"
)

// Source fetches raw postings from one external origin and maps them to the
// canonical Job record. Implementations are best-effort and independently
// failing: a transient network or parse failure surfaces as an error (or an
// empty slice), never as a panic, and never aborts the run.
type Source interface {
	Name() string
	Search(ctx context.Context, keywords []string, location string) ([]domain.Job, error)
}

// Result is one source's contribution to a run.
type Result struct {
	Source string
	Jobs   []domain.Job
	Err    error
}
