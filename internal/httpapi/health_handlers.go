package httpapi

import (
	"database/sql"
	"net/http"
	"time"
)

type HealthHandler struct {
	DB      *sql.DB
	Started time.Time
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbOK := h.DB != nil && h.DB.PingContext(r.Context()) == nil

	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	WriteJSON(w, code, map[string]any{
		"status":          status,
		"store_connected": dbOK,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":  int(time.Since(h.Started).Seconds()),
	})
}
