package handlers

import (
	"net/http"

	"studio-schedule/internal/db"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if db.DB != nil {
		if err := db.DB.PingContext(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.cache.Enabled() {
		status["cache"] = "enabled"
	} else {
		status["cache"] = "disabled"
	}
	jsonResponse(w, code, status)
}
