package httpapi

import (
	"context"
	"net/http"

	"jobdigest-engine/internal/pipeline"
)

type RunHandler struct {
	Pipeline *pipeline.Pipeline
}

// Status serves GET /api/run/status with the latest run summary.
func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Pipeline.Last())
}

// Trigger serves POST /api/run. The run happens in the background; the file
// lock inside the pipeline rejects a second concurrent cycle.
func (h RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		_, _ = h.Pipeline.Run(context.Background())
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"started": true})
}
