package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"studio-schedule/internal/middleware"
	"studio-schedule/internal/models"
	"studio-schedule/internal/schedule"
	"studio-schedule/internal/util"
)

func (h *Handler) lessonsCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		TeacherID   string   `json:"teacher_id"`
		ClassroomID string   `json:"classroom_id"`
		Date        string   `json:"date"`
		StartTime   string   `json:"start_time"`
		EndTime     string   `json:"end_time"`
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
	day, err := util.ParseDateLocal(req.Date)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid date")
		return
	}

	in := &schedule.CreateLessonInput{
		StudioID:    middleware.StudioID(r),
		TeacherID:   teacherID,
		ClassroomID: classroomID,
		Date:        day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Notes:       req.Notes,
	}
	for _, raw := range req.StudentIDs {
		sid, err := uuid.Parse(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid student id "+raw)
			return
		}
		in.StudentIDs = append(in.StudentIDs, sid)
	}

	if !h.verifyStudioMember(w, r, in.StudioID, teacherID, "teacher") {
		return
	}
	if !h.verifyStudents(w, r, in.StudioID, in.StudentIDs) {
		return
	}

	l, err := h.svc.CreateLesson(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.cache.InvalidateSchedule(r.Context(), l.StudioID.String())

	status := http.StatusCreated
	body := map[string]interface{}{"lesson": l}
	if l.ConflictFlag {
		// Created anyway; the caller decides what to do about the overlap.
		body["warning"] = "lesson overlaps an existing booking"
	}
	jsonResponse(w, status, body)
}

func (h *Handler) lessonsItem(w http.ResponseWriter, r *http.Request) {
	parts := pathParts("/api/lessons/", r.URL.Path)
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
			h.getLesson(w, r, id)
		case http.MethodDelete:
			h.deleteLesson(w, r, id)
		default:
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[1] {
	case "transition":
		if r.Method != http.MethodPost {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.transitionLesson(w, r, id)
	case "attendance":
		if r.Method != http.MethodPost {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.setAttendance(w, r, id)
	case "students":
		if r.Method != http.MethodGet {
			jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.lessonStudents(w, r, id)
	default:
		jsonError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) getLesson(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	l, err := h.svc.GetLesson(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

func (h *Handler) deleteLesson(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	l, err := h.svc.GetLesson(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if err := h.svc.DeleteLesson(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	h.cache.InvalidateSchedule(r.Context(), l.StudioID.String())
	jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) transitionLesson(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := h.svc.TransitionLesson(r.Context(), id, models.LessonStatus(req.Status))
	if err != nil {
		serviceError(w, err)
		return
	}
	h.cache.InvalidateSchedule(r.Context(), l.StudioID.String())
	jsonResponse(w, http.StatusOK, l)
}

func (h *Handler) setAttendance(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req struct {
		StudentID string `json:"student_id"`
		Status    string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid student_id")
		return
	}

	if err := h.svc.SetAttendance(r.Context(), id, studentID, models.AttendanceStatus(req.Status)); err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *Handler) lessonStudents(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	students, err := h.svc.LessonStudents(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"students": students})
}
