package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"jobdigest-engine/internal/pipeline"
)

type Deps struct {
	DB           *sql.DB
	Pipeline     *pipeline.Pipeline
	DefaultHours int
}

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	jh := JobsHandler{DB: d.DB, DefaultHours: d.DefaultHours}
	mux.HandleFunc("/api/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))

	sh := StatsHandler{DB: d.DB}
	mux.HandleFunc("/api/stats", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Get,
	}))

	hh := HealthHandler{DB: d.DB, Started: time.Now()}
	mux.HandleFunc("/api/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	if d.Pipeline != nil {
		rh := RunHandler{Pipeline: d.Pipeline}
		mux.HandleFunc("/api/run/status", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: rh.Status,
		}))
		mux.HandleFunc("/api/run", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: rh.Trigger,
		}))
	}

	return mux
}

// Handler wraps the mux in the standard middleware chain.
func Handler(d Deps) http.Handler {
	return Chain(NewMux(d), Recover, RequestID, AccessLog, Cors)
}
