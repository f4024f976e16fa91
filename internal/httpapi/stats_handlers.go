package httpapi

import (
	"database/sql"
	"net/http"

	"jobdigest-engine/internal/store"
)

type StatsHandler struct {
	DB *sql.DB
}

func (h StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetStats(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "query_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
