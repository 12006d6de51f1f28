package models

import (
	"time"

	"github.com/google/uuid"
)

// PatternState is the lifecycle state of a recurring pattern.
type PatternState string

const (
	PatternActive   PatternState = "active"
	PatternPaused   PatternState = "paused"
	PatternArchived PatternState = "archived"
)

// LessonStatus is the lifecycle status of a generated lesson.
type LessonStatus string

const (
	LessonScheduled LessonStatus = "scheduled"
	LessonCompleted LessonStatus = "completed"
	LessonCancelled LessonStatus = "cancelled"
	LessonMissed    LessonStatus = "missed"
)

// AttendanceStatus tracks a single student's participation in a lesson.
type AttendanceStatus string

const (
	AttendanceScheduled AttendanceStatus = "scheduled"
	AttendanceAttended  AttendanceStatus = "attended"
	AttendanceMissed    AttendanceStatus = "missed"
	AttendanceCancelled AttendanceStatus = "cancelled"
)

// RecurringPattern is a weekly template from which lessons are generated.
// LastGeneratedThrough is the generation frontier: the last date for which
// occurrences have been materialized. Nil means nothing generated yet.
type RecurringPattern struct {
	ID                   uuid.UUID    `json:"id"`
	StudioID             uuid.UUID    `json:"studio_id"`
	TeacherID            uuid.UUID    `json:"teacher_id"`
	ClassroomID          uuid.UUID    `json:"classroom_id"`
	DayOfWeek            time.Weekday `json:"day_of_week"`
	StartTime            string       `json:"start_time"`
	EndTime              string       `json:"end_time"`
	PatternStartDate     time.Time    `json:"pattern_start_date"`
	PatternEndDate       *time.Time   `json:"pattern_end_date,omitempty"`
	State                PatternState `json:"state"`
	LastGeneratedThrough *time.Time   `json:"last_generated_through,omitempty"`
	StudentIDs           []uuid.UUID  `json:"student_ids"`
	Notes                string       `json:"notes,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Lesson is one concrete occurrence. PatternID is nil for one-off lessons
// created directly rather than expanded from a pattern.
type Lesson struct {
	ID             uuid.UUID    `json:"id"`
	PatternID      *uuid.UUID   `json:"pattern_id,omitempty"`
	StudioID       uuid.UUID    `json:"studio_id"`
	TeacherID      uuid.UUID    `json:"teacher_id"`
	ClassroomID    uuid.UUID    `json:"classroom_id"`
	OccurrenceDate time.Time    `json:"occurrence_date"`
	StartTime      string       `json:"start_time"`
	EndTime        string       `json:"end_time"`
	Status         LessonStatus `json:"status"`
	ConflictFlag   bool         `json:"conflict_flag"`
	Notes          string       `json:"notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// LessonStudent links a student to a lesson with their attendance status.
type LessonStudent struct {
	LessonID         uuid.UUID        `json:"lesson_id"`
	StudentID        uuid.UUID        `json:"student_id"`
	AttendanceStatus AttendanceStatus `json:"attendance_status"`
}

// Conflict describes a classroom double-booking: an existing lesson whose
// time window overlaps a candidate slot in the same room.
type Conflict struct {
	LessonID    uuid.UUID    `json:"lesson_id"`
	Date        time.Time    `json:"date"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time"`
	Status      LessonStatus `json:"status"`
	ClassroomID uuid.UUID    `json:"classroom_id"`
	TeacherID   uuid.UUID    `json:"teacher_id"`
}
