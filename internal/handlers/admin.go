package handlers

import (
	"net/http"

	"studio-schedule/internal/util"
)

// adminGenerate runs a full generation pass for every active pattern. Hit by
// the hosting cron as a backstop for the in-process ticker.
func (h *Handler) adminGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	horizon := util.StartOfDay(timeNow()).AddDate(0, 0, h.svc.HorizonDays())
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := util.ParseDateLocal(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid horizon date")
			return
		}
		horizon = parsed
	}

	created, err := h.svc.GenerateAll(r.Context(), horizon)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"created": created,
		"horizon": util.FormatDate(horizon),
	})
}

func (h *Handler) adminSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	missed, err := h.svc.SweepMissed(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"marked_missed": missed})
}
