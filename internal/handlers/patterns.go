package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"studio-schedule/internal/middleware"
	"studio-schedule/internal/schedule"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

func (h *Handler) patternsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createPattern(w, r)
	case http.MethodGet:
		h.listPatterns(w, r)
	default:
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) createPattern(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeacherID   string   `json:"teacher_id"`
		ClassroomID string   `json:"classroom_id"`
		DayOfWeek   int      `json:"day_of_week"`
		StartTime   string   `json:"start_time"`
		EndTime     string   `json:"end_time"`
		StartDate   string   `json:"pattern_start_date"`
		EndDate     string   `json:"pattern_end_date"`
		StudentIDs  []string `json:"student_ids"`
		Notes       string   `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	teacherID, err := uuid.Parse(req.TeacherID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid teacher_id")
		return
	}
	classroomID, err := uuid.Parse(req.ClassroomID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid classroom_id")
		return
	}
	startDate, err := util.ParseDateLocal(req.StartDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid pattern_start_date")
		return
	}

	in := &schedule.CreatePatternInput{
		StudioID:    middleware.StudioID(r),
		TeacherID:   teacherID,
		ClassroomID: classroomID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		StartDate:   startDate,
		Notes:       req.Notes,
	}
	if req.EndDate != "" {
		endDate, err := util.ParseDateLocal(req.EndDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid pattern_end_date")
			return
		}
		in.EndDate = &endDate
	}
	for _, raw := range req.StudentIDs {
		sid, err := uuid.Parse(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid student id "+raw)
			return
		}
		in.StudentIDs = append(in.StudentIDs, sid)
	}

	// The classroom, teacher, and students must all belong to the
	// caller's studio.
	room, err := h.studio.GetClassroom(r.Context(), classroomID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if room.StudioID != in.StudioID {
		jsonError(w, http.StatusForbidden, "classroom belongs to another studio")
		return
	}
	if !h.verifyStudioMember(w, r, in.StudioID, teacherID, "teacher") {
		return
	}
	if !h.verifyStudents(w, r, in.StudioID, in.StudentIDs) {
		return
	}

	p, err := h.svc.CreatePattern(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.cache.InvalidateSchedule(r.Context(), p.StudioID.String())
	jsonResponse(w, http.StatusCreated, p)
}

func (h *Handler) listPatterns(w http.ResponseWriter, r *http.Request) {
	studioID := middleware.StudioID(r)
	scope := store.Scope{StudioID: &studioID}
	if raw := r.URL.Query().Get("teacher_id"); raw != "" {
		id, ok := parseID(w, raw)
		if !ok {
			return
		}
		scope = store.Scope{TeacherID: &id}
	}

	patterns, err := h.svc.ListPatterns(r.Context(), scope)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"patterns": patterns})
}

func (h *Handler) patternsItem(w http.ResponseWriter, r *http.Request) {
	parts := pathParts("/api/patterns/", r.URL.Path)
	if len(parts) == 0 {
		jsonError(w, http.StatusNotFound, "not found")
		return
	}
	id, ok := parseID(w, parts[0])
	if !ok {
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			p, err := h.svc.GetPattern(r.Context(), id)
			if err != nil {
				serviceError(w, err)
				return
			}
			jsonResponse(w, http.StatusOK, p)
		case http.MethodPut:
			h.updatePattern(w, r, id)
		default:
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	switch parts[1] {
	case "pause":
		h.pausePattern(w, r, id)
	case "resume":
		h.resumePattern(w, r, id)
	case "archive":
		h.archivePattern(w, r, id)
	case "generate":
		h.generatePattern(w, r, id)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) updatePattern(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		DayOfWeek  int      `json:"day_of_week"`
		StartTime  string   `json:"start_time"`
		EndTime    string   `json:"end_time"`
		EndDate    string   `json:"pattern_end_date"`
		StudentIDs []string `json:"student_ids"`
		Notes      string   `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	in := &schedule.UpdatePatternInput{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     req.Notes,
	}
	if req.EndDate != "" {
		endDate, err := util.ParseDateLocal(req.EndDate)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid pattern_end_date")
			return
		}
		in.EndDate = &endDate
	}
	for _, raw := range req.StudentIDs {
		sid, err := uuid.Parse(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid student id "+raw)
			return
		}
		in.StudentIDs = append(in.StudentIDs, sid)
	}
	if !h.verifyStudents(w, r, middleware.StudioID(r), in.StudentIDs) {
		return
	}

	p, err := h.svc.UpdatePattern(r.Context(), id, in)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.cache.InvalidateSchedule(r.Context(), p.StudioID.String())
	jsonResponse(w, http.StatusOK, p)
}

func (h *Handler) pausePattern(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	cancelled, err := h.svc.PausePattern(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.invalidateForPattern(r, id)
	jsonResponse(w, http.StatusOK, map[string]interface{}{"status": "paused", "cancelled_lessons": cancelled})
}

func (h *Handler) resumePattern(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	res, err := h.svc.ResumePattern(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.invalidateForPattern(r, id)
	jsonResponse(w, http.StatusOK, map[string]interface{}{"status": "active", "created_lessons": res.Created()})
}

func (h *Handler) archivePattern(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	cancelled, err := h.svc.ArchivePattern(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.invalidateForPattern(r, id)
	jsonResponse(w, http.StatusOK, map[string]interface{}{"status": "archived", "cancelled_lessons": cancelled})
}

func (h *Handler) generatePattern(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		Horizon string `json:"horizon"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	horizon, err := util.ParseDateLocal(req.Horizon)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid horizon date")
		return
	}

	res, err := h.svc.GenerateLessons(r.Context(), id, horizon)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.invalidateForPattern(r, id)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"created_ids":   res.CreatedIDs,
		"confirmed_ids": res.ConfirmedIDs,
	})
}

func (h *Handler) invalidateForPattern(r *http.Request, id uuid.UUID) {
	p, err := h.svc.GetPattern(r.Context(), id)
	if err == nil {
		h.cache.InvalidateSchedule(r.Context(), p.StudioID.String())
	}
}
