package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobdigest-engine/internal/store"
)

type JobsHandler struct {
	DB *sql.DB

	// DefaultHours bounds the query window when the client gives none.
	DefaultHours int
}

// List serves GET /api/jobs?hours=24&source=remotive&keyword=crm&limit=100.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hours := h.DefaultHours
	if s := q.Get("hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "hours must be a positive integer")
			return
		}
		hours = n
	}

	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	opts := store.QueryOpts{
		Source: strings.TrimSpace(q.Get("source")),
		Limit:  limit,
	}
	if kw := strings.TrimSpace(q.Get("keyword")); kw != "" {
		opts.Keywords = []string{kw}
	}

	jobs, err := store.QuerySince(r.Context(), h.DB, hours, opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	stats, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"count":        len(jobs),
		"hours":        hours,
		"jobs":         jobs,
		"stats":        stats,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}
