// Package handlers exposes the scheduling service over a JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/cache"
	"studio-schedule/internal/config"
	"studio-schedule/internal/middleware"
	"studio-schedule/internal/models"
	"studio-schedule/internal/providers"
	"studio-schedule/internal/schedule"
)

type Handler struct {
	cfg      *config.Config
	svc      *schedule.Service
	cache    *cache.Cache
	identity providers.Identity
	studio   providers.Studio
}

func New(cfg *config.Config, svc *schedule.Service, c *cache.Cache, identity providers.Identity, studio providers.Studio) *Handler {
	return &Handler{cfg: cfg, svc: svc, cache: c, identity: identity, studio: studio}
}

// timeNow is swapped out in tests.
var timeNow = time.Now

// Register wires every route onto mux. Staff routes require a bearer token;
// admin routes require the internal service key.
func (h *Handler) Register(mux *http.ServeMux, jwtSecret, internalKeyHash string) {
	auth := middleware.Auth(jwtSecret)
	staff := func(next http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole("owner", "admin", "teacher")(next))
	}
	anyUser := func(next http.HandlerFunc) http.Handler {
		return auth(http.HandlerFunc(next))
	}
	internal := middleware.InternalKey(internalKeyHash)

	mux.Handle("/api/patterns", staff(h.patternsCollection))
	mux.Handle("/api/patterns/", staff(h.patternsItem))
	mux.Handle("/api/lessons", staff(h.lessonsCollection))
	mux.Handle("/api/lessons/", staff(h.lessonsItem))
	mux.Handle("/api/conflicts", staff(h.conflicts))
	mux.Handle("/api/schedule", anyUser(h.readSchedule))
	mux.Handle("/api/admin/generate", internal(http.HandlerFunc(h.adminGenerate)))
	mux.Handle("/api/admin/sweep", internal(http.HandlerFunc(h.adminSweep)))
	mux.HandleFunc("/health", h.health)
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("ERROR: failed to encode response: %v", err)
		}
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// serviceError maps domain errors onto HTTP statuses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case models.IsInvalidPattern(err):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrPatternNotFound),
		errors.Is(err, models.ErrLessonNotFound),
		errors.Is(err, models.ErrStudentNotEnrolled),
		errors.Is(err, providers.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrPatternArchived),
		errors.Is(err, models.ErrPatternDerivedLesson),
		errors.Is(err, models.ErrLessonOccurred),
		models.IsInvalidTransition(err):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("ERROR: %v", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathParts strips prefix and splits the remainder, so
// pathParts("/api/lessons/", "/api/lessons/abc/transition") is
// ["abc", "transition"].
func pathParts(prefix, path string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// verifyStudioMember resolves the user through the identity provider and
// checks they belong to the studio. Writes the error response on failure.
func (h *Handler) verifyStudioMember(w http.ResponseWriter, r *http.Request, studioID, userID uuid.UUID, who string) bool {
	u, err := h.identity.GetUser(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return false
	}
	if u.StudioID != studioID {
		jsonError(w, http.StatusForbidden, who+" belongs to another studio")
		return false
	}
	return true
}

func (h *Handler) verifyStudents(w http.ResponseWriter, r *http.Request, studioID uuid.UUID, studentIDs []uuid.UUID) bool {
	for _, sid := range studentIDs {
		if !h.verifyStudioMember(w, r, studioID, sid, "student") {
			return false
		}
	}
	return true
}
