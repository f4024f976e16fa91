package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/store"
)

// Snapshot is the on-disk export artifact: everything currently retained,
// plus the stats a reader needs to judge freshness.
type Snapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Timezone    string       `json:"timezone"`
	Stats       store.Stats  `json:"stats"`
	Jobs        []domain.Job `json:"jobs"`
}

// Write queries the full retained window and writes it as pretty-printed
// JSON. The file is written via a temp file and rename so a concurrent
// reader never sees a half-written snapshot.
func Write(ctx context.Context, db *store.DB, path, timezone string, windowHours int) (int, error) {
	jobs, err := store.QuerySince(ctx, db.Pool, windowHours, store.QueryOpts{})
	if err != nil {
		return 0, fmt.Errorf("query jobs: %w", err)
	}
	stats, err := store.GetStats(ctx, db.Pool)
	if err != nil {
		return 0, fmt.Errorf("query stats: %w", err)
	}

	snap := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Timezone:    timezone,
		Stats:       stats,
		Jobs:        jobs,
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create export dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("rename snapshot: %w", err)
	}
	return len(jobs), nil
}
