// Package store defines the persistence boundary for patterns and lessons.
// Implementations live in the postgres and memory subpackages.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
)

// Scope narrows a schedule query to one resource. Exactly one of the ID
// fields is expected to be set.
type Scope struct {
	StudioID    *uuid.UUID
	TeacherID   *uuid.UUID
	ClassroomID *uuid.UUID
	StudentID   *uuid.UUID
}

// Slot is a candidate classroom booking checked for conflicts.
// ExcludeLessonID, when set, removes that lesson from consideration so a
// lesson never conflicts with itself.
type Slot struct {
	ClassroomID     uuid.UUID
	Date            time.Time
	StartTime       string
	EndTime         string
	ExcludeLessonID *uuid.UUID
}

// Store is the full persistence surface used by the schedule services.
type Store interface {
	// Patterns.
	CreatePattern(ctx context.Context, p *models.RecurringPattern) error
	GetPattern(ctx context.Context, id uuid.UUID) (*models.RecurringPattern, error)
	ListPatterns(ctx context.Context, scope Scope) ([]*models.RecurringPattern, error)
	ListActivePatterns(ctx context.Context) ([]*models.RecurringPattern, error)
	UpdatePatternState(ctx context.Context, id uuid.UUID, state models.PatternState) error
	// UpdatePattern rewrites the pattern's definition fields (weekday,
	// times, dates, students, notes) and its frontier. Lifecycle state is
	// not touched; UpdatePatternState owns that.
	UpdatePattern(ctx context.Context, p *models.RecurringPattern) error
	// AdvanceFrontier moves last_generated_through forward to through, but
	// never backward. Concurrent callers may race; the stored value only
	// ever increases.
	AdvanceFrontier(ctx context.Context, id uuid.UUID, through time.Time) error

	// Lessons.
	// CreateLessonIfAbsent inserts the lesson unless one already exists for
	// the same (pattern, occurrence date). It reports whether a row was
	// actually inserted; a duplicate is not an error.
	CreateLessonIfAbsent(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) (bool, error)
	CreateLesson(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) error
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	// GetLessonByOccurrence returns the pattern's lesson for one occurrence
	// date, or models.ErrLessonNotFound.
	GetLessonByOccurrence(ctx context.Context, patternID uuid.UUID, date time.Time) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error
	LessonsInRange(ctx context.Context, scope Scope, from, to time.Time) ([]*models.Lesson, error)
	UpdateLessonStatus(ctx context.Context, id uuid.UUID, status models.LessonStatus) error
	// CancelFutureLessons cancels every scheduled lesson of the pattern
	// that has not yet started: any lesson after today, plus today's
	// lessons whose start time is still ahead of nowHHMM. Returns how many
	// were cancelled.
	CancelFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error)
	// DeleteFutureLessons removes the pattern's scheduled lessons that have
	// not yet started, freeing their occurrence dates for regeneration
	// after a definition change. Returns how many were removed.
	DeleteFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error)
	// MarkMissedEnded flips scheduled lessons whose end has passed to
	// missed: any lesson before today, plus today's lessons whose end time
	// is at or before nowHHMM. Returns how many changed.
	MarkMissedEnded(ctx context.Context, today time.Time, nowHHMM string) (int, error)
	SetConflictFlag(ctx context.Context, id uuid.UUID, flagged bool) error

	// FindOverlapping returns lessons in the slot's classroom on the same
	// date whose time window overlaps the slot. Cancelled lessons never
	// count.
	FindOverlapping(ctx context.Context, slot Slot) ([]*models.Lesson, error)

	// Lesson students.
	ListLessonStudents(ctx context.Context, lessonID uuid.UUID) ([]*models.LessonStudent, error)
	SetAttendance(ctx context.Context, lessonID, studentID uuid.UUID, status models.AttendanceStatus) error
}

// TimesOverlap reports whether two [start, end) windows on the same date
// intersect. Times are zero-padded HH:MM strings, so lexical comparison is
// chronological. Back-to-back slots (a ends exactly when b starts) do not
// overlap.
func TimesOverlap(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}
