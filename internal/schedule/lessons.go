package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/util"
)

// CreateLessonInput defines a standalone lesson not tied to any pattern.
type CreateLessonInput struct {
	StudioID    uuid.UUID   `validate:"required"`
	TeacherID   uuid.UUID   `validate:"required"`
	ClassroomID uuid.UUID   `validate:"required"`
	Date        time.Time   `validate:"required"`
	StartTime   string      `validate:"required"`
	EndTime     string      `validate:"required"`
	StudentIDs  []uuid.UUID `validate:"omitempty,dive,required"`
	Notes       string      `validate:"max=2000"`
}

// CreateLesson inserts a one-off lesson. Overlaps with existing bookings are
// flagged on both sides but never block creation.
func (s *Service) CreateLesson(ctx context.Context, in *CreateLessonInput) (*models.Lesson, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, &models.InvalidPatternError{Field: "input", Reason: err.Error()}
	}
	if !util.ValidTimeOfDay(in.StartTime) {
		return nil, &models.InvalidPatternError{Field: "start_time", Reason: "must be HH:MM"}
	}
	if !util.ValidTimeOfDay(in.EndTime) {
		return nil, &models.InvalidPatternError{Field: "end_time", Reason: "must be HH:MM"}
	}
	if in.EndTime <= in.StartTime {
		return nil, &models.InvalidPatternError{Field: "end_time", Reason: "must be after start_time"}
	}

	now := s.now()
	l := &models.Lesson{
		ID:             uuid.New(),
		StudioID:       in.StudioID,
		TeacherID:      in.TeacherID,
		ClassroomID:    in.ClassroomID,
		OccurrenceDate: util.StartOfDay(in.Date),
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		Status:         models.LessonScheduled,
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateLesson(ctx, l, in.StudentIDs); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	if err := s.flagConflicts(ctx, l); err != nil {
		return nil, err
	}
	return s.store.GetLesson(ctx, l.ID)
}

func (s *Service) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	return s.store.GetLesson(ctx, id)
}

// DeleteLesson removes a lesson outright. Only standalone lessons may be
// deleted; pattern-derived lessons are cancelled instead so the occurrence
// stays accounted for. A lesson that has started, or that reached a terminal
// status, is part of the record and cannot be destroyed.
func (s *Service) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	l, err := s.store.GetLesson(ctx, id)
	if err != nil {
		return err
	}
	if l.PatternID != nil {
		return models.ErrPatternDerivedLesson
	}
	if l.Status != models.LessonScheduled {
		return models.ErrLessonOccurred
	}
	start, err := util.CombineDateTime(l.OccurrenceDate, l.StartTime)
	if err != nil {
		return err
	}
	if !s.now().Before(start) {
		return models.ErrLessonOccurred
	}
	return s.store.DeleteLesson(ctx, id)
}

// LessonStudents returns the per-student rows for a lesson.
func (s *Service) LessonStudents(ctx context.Context, lessonID uuid.UUID) ([]*models.LessonStudent, error) {
	return s.store.ListLessonStudents(ctx, lessonID)
}

// SetAttendance records one student's attendance for a lesson.
func (s *Service) SetAttendance(ctx context.Context, lessonID, studentID uuid.UUID, status models.AttendanceStatus) error {
	if !models.ValidAttendanceStatus(status) {
		return &models.InvalidPatternError{Field: "attendance_status", Reason: "unknown value"}
	}
	if _, err := s.store.GetLesson(ctx, lessonID); err != nil {
		return err
	}
	return s.store.SetAttendance(ctx, lessonID, studentID, status)
}
