package handlers

import (
	"net/http"

	"studio-schedule/internal/cache"
	"studio-schedule/internal/middleware"
	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

func (h *Handler) conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()

	classroomID, ok := parseID(w, q.Get("classroom_id"))
	if !ok {
		return
	}
	day, err := util.ParseDateLocal(q.Get("date"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}

	conflicts, err := h.svc.CheckConflicts(r.Context(), classroomID, day,
		q.Get("start"), q.Get("end"), nil)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"conflicts": conflicts})
}

// readSchedule serves the scoped schedule view. Teachers and students are
// pinned to their own scope; staff may query any scope in their studio.
func (h *Handler) readSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()

	from, err := util.ParseDateLocal(q.Get("from"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := util.ParseDateLocal(q.Get("to"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	scopeType := q.Get("scope")
	scopeID := q.Get("id")
	role := middleware.Role(r)
	caller := middleware.UserID(r)
	studioID := middleware.StudioID(r)

	switch role {
	case "teacher":
		scopeType, scopeID = "teacher", caller.String()
	case "student":
		scopeType, scopeID = "student", caller.String()
	}

	var scope store.Scope
	switch scopeType {
	case "studio", "":
		scope = store.Scope{StudioID: &studioID}
		scopeType, scopeID = "studio", studioID.String()
	case "teacher":
		id, ok := parseID(w, scopeID)
		if !ok {
			return
		}
		scope = store.Scope{TeacherID: &id}
	case "student":
		id, ok := parseID(w, scopeID)
		if !ok {
			return
		}
		scope = store.Scope{StudentID: &id}
	default:
		jsonError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	key := cache.ScheduleKey(studioID.String(), scopeType, scopeID,
		util.FormatDate(from), util.FormatDate(to))
	var cached []*models.Lesson
	if h.cache.GetJSON(r.Context(), key, &cached) {
		h.cfg.Debugf("schedule cache hit: %s", key)
		jsonResponse(w, http.StatusOK, map[string]interface{}{"lessons": cached, "cached": true})
		return
	}
	h.cfg.Debugf("schedule read: scope=%s id=%s range=%s..%s", scopeType, scopeID,
		util.FormatDate(from), util.FormatDate(to))

	lessons, err := h.svc.ReadSchedule(r.Context(), scope, from, to)
	if err != nil {
		serviceError(w, err)
		return
	}
	if lessons == nil {
		lessons = []*models.Lesson{}
	}
	h.cache.SetJSON(r.Context(), key, lessons)
	jsonResponse(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}
