package models

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrPatternNotFound = errors.New("recurring pattern not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	// ErrPatternArchived is returned for any mutating operation on an
	// archived pattern. Archival is terminal.
	ErrPatternArchived = errors.New("recurring pattern is archived")
	// ErrPatternDerivedLesson is returned when a caller tries to delete a
	// lesson that belongs to a pattern; those are cancelled, not deleted.
	ErrPatternDerivedLesson = errors.New("pattern-derived lessons cannot be deleted")
	// ErrLessonOccurred guards deletion: only an upcoming lesson still in
	// scheduled status may be destroyed. Anything that has started or
	// reached a terminal status stays on record.
	ErrLessonOccurred = errors.New("only upcoming scheduled lessons can be deleted")
	// ErrStudentNotEnrolled is returned when recording attendance for a
	// student who has no row on the lesson.
	ErrStudentNotEnrolled = errors.New("student not enrolled in lesson")
)

// InvalidPatternError reports a pattern definition that fails validation.
type InvalidPatternError struct {
	Field  string
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern: %s %s", e.Field, e.Reason)
}

func IsInvalidPattern(err error) bool {
	var ip *InvalidPatternError
	return errors.As(err, &ip)
}

// InvalidTransitionError reports an attempted illegal lesson status move.
type InvalidTransitionError struct {
	From LessonStatus
	To   LessonStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
