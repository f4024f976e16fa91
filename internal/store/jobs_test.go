package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdigest-engine/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleJob(id string) domain.Job {
	now := time.Now().UTC()
	posted := now.Add(-1 * time.Hour)
	return domain.Job{
		JobID:     "remotive_" + id,
		Source:    "remotive",
		Title:     "CRM Manager",
		Company:   "Acme",
		Location:  "Remote",
		URL:       "https://example.com/jobs/" + id,
		Tags:      []string{"crm"},
		Hash:      "hash-" + id,
		PostedAt:  &posted,
		FetchedAt: now,
	}
}

func TestUpsertInsertThenUpdate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ins, upd, failed, err := UpsertAll(ctx, db.Pool, []domain.Job{sampleJob("1")})
	require.NoError(t, err)
	assert.Equal(t, 1, ins)
	assert.Equal(t, 0, upd)
	assert.Equal(t, 0, failed)

	j := sampleJob("1")
	j.Title = "Senior CRM Manager"
	ins, upd, failed, err = UpsertAll(ctx, db.Pool, []domain.Job{j})
	require.NoError(t, err)
	assert.Equal(t, 0, ins)
	assert.Equal(t, 1, upd)
	assert.Equal(t, 0, failed)

	got, err := QuerySince(ctx, db.Pool, 24, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Senior CRM Manager", got[0].Title)
}

func TestUpsertSkipsInvalidJobs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	bad := sampleJob("2")
	bad.Title = "" // fails validation

	ins, _, failed, err := UpsertAll(ctx, db.Pool, []domain.Job{sampleJob("1"), bad})
	require.NoError(t, err)
	assert.Equal(t, 1, ins)
	assert.Equal(t, 1, failed)
}

func TestFirstSeenSurvivesUpdates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{sampleJob("1")})
	require.NoError(t, err)

	got, err := QuerySince(ctx, db.Pool, 24, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	firstSeen := got[0].FirstSeen
	require.False(t, firstSeen.IsZero())

	time.Sleep(1100 * time.Millisecond) // second resolution in RFC3339

	_, _, _, err = UpsertAll(ctx, db.Pool, []domain.Job{sampleJob("1")})
	require.NoError(t, err)

	got, err = QuerySince(ctx, db.Pool, 24, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, firstSeen, got[0].FirstSeen)
}

func TestFetchedDateNeverDecreases(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	j := sampleJob("1")
	j.FetchedAt = time.Now().UTC()
	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{j})
	require.NoError(t, err)

	stale := j
	stale.FetchedAt = j.FetchedAt.Add(-2 * time.Hour)
	_, _, _, err = UpsertAll(ctx, db.Pool, []domain.Job{stale})
	require.NoError(t, err)

	got, err := QuerySince(ctx, db.Pool, 24, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, j.FetchedAt.Truncate(time.Second), got[0].FetchedAt.Truncate(time.Second))
}

func TestPartitionByNovelty(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a, b := sampleJob("1"), sampleJob("2")
	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{a})
	require.NoError(t, err)

	newJobs, existing, err := PartitionByNovelty(ctx, db.Pool, []domain.Job{a, b})
	require.NoError(t, err)
	require.Len(t, newJobs, 1)
	require.Len(t, existing, 1)
	assert.Equal(t, b.JobID, newJobs[0].JobID)
	assert.True(t, newJobs[0].IsNew)
	assert.Equal(t, a.JobID, existing[0].JobID)
	assert.False(t, existing[0].IsNew)

	// repeatable with no intervening upsert
	newAgain, existingAgain, err := PartitionByNovelty(ctx, db.Pool, []domain.Job{a, b})
	require.NoError(t, err)
	assert.Equal(t, newJobs, newAgain)
	assert.Equal(t, existing, existingAgain)
}

func TestPartitionMatchesOnHashNotJobID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := sampleJob("1")
	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{a})
	require.NoError(t, err)

	// Same content on a different origin: different job_id, same hash.
	crossPost := sampleJob("1")
	crossPost.JobID = "remoteok_99"
	crossPost.Source = "remoteok"

	newJobs, existing, err := PartitionByNovelty(ctx, db.Pool, []domain.Job{crossPost})
	require.NoError(t, err)
	assert.Empty(t, newJobs)
	require.Len(t, existing, 1)
}

func TestPartitionEmptyHashCountsAsNew(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	j := sampleJob("1")
	j.Hash = ""
	newJobs, existing, err := PartitionByNovelty(ctx, db.Pool, []domain.Job{j})
	require.NoError(t, err)
	require.Len(t, newJobs, 1)
	assert.Empty(t, existing)
}

func TestPurgeOlderThan(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	old := sampleJob("1")
	old.FetchedAt = time.Now().UTC().Add(-72 * time.Hour)
	fresh := sampleJob("2")

	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{old, fresh})
	require.NoError(t, err)

	purged, err := PurgeOlderThan(ctx, db.Pool, 48*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	got, err := QuerySince(ctx, db.Pool, 24*7, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, fresh.JobID, got[0].JobID)
}

func TestQuerySinceFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := sampleJob("1")
	a.KeywordsMatched = []string{"crm"}
	b := sampleJob("2")
	b.JobID = "remoteok_2"
	b.Source = "remoteok"
	b.Hash = "hash-b"

	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{a, b})
	require.NoError(t, err)

	bySource, err := QuerySince(ctx, db.Pool, 24, QueryOpts{Source: "remoteok"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "remoteok", bySource[0].Source)

	byKeyword, err := QuerySince(ctx, db.Pool, 24, QueryOpts{Keywords: []string{"crm"}})
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, a.JobID, byKeyword[0].JobID)

	limited, err := QuerySince(ctx, db.Pool, 24, QueryOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQuerySinceOrdersUndatedLast(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	dated := sampleJob("1")
	undated := sampleJob("2")
	undated.PostedAt = nil
	undated.Hash = "hash-undated"

	older := sampleJob("3")
	op := time.Now().UTC().Add(-20 * time.Hour)
	older.PostedAt = &op
	older.Hash = "hash-older"

	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{undated, older, dated})
	require.NoError(t, err)

	got, err := QuerySince(ctx, db.Pool, 24, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, dated.JobID, got[0].JobID)
	assert.Equal(t, older.JobID, got[1].JobID)
	assert.Nil(t, got[2].PostedAt)
}

func TestGetStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := sampleJob("1")
	a.IsNew = true
	b := sampleJob("2")
	b.JobID = "remoteok_2"
	b.Source = "remoteok"
	b.Hash = "hash-b"

	_, _, _, err := UpsertAll(ctx, db.Pool, []domain.Job{a, b})
	require.NoError(t, err)

	st, err := GetStats(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalJobs)
	assert.Equal(t, 2, st.JobsLast24h)
	assert.Equal(t, 1, st.NewJobsLast24h)
	assert.Equal(t, 1, st.BySource["remotive"])
	assert.Equal(t, 1, st.BySource["remoteok"])
	assert.NotEmpty(t, st.LastUpdated)
}
