package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

// CheckConflicts reports every non-cancelled lesson in the classroom on the
// given date whose time window overlaps [start, end). It only reports;
// whether to warn or reject is the caller's policy.
func (s *Service) CheckConflicts(ctx context.Context, classroomID uuid.UUID, date time.Time, start, end string, exclude *uuid.UUID) ([]models.Conflict, error) {
	if !util.ValidTimeOfDay(start) {
		return nil, &models.InvalidPatternError{Field: "start_time", Reason: "must be HH:MM"}
	}
	if !util.ValidTimeOfDay(end) {
		return nil, &models.InvalidPatternError{Field: "end_time", Reason: "must be HH:MM"}
	}
	if end <= start {
		return nil, &models.InvalidPatternError{Field: "end_time", Reason: "must be after start_time"}
	}

	overlapping, err := s.store.FindOverlapping(ctx, store.Slot{
		ClassroomID:     classroomID,
		Date:            util.StartOfDay(date),
		StartTime:       start,
		EndTime:         end,
		ExcludeLessonID: exclude,
	})
	if err != nil {
		return nil, err
	}

	conflicts := make([]models.Conflict, 0, len(overlapping))
	for _, l := range overlapping {
		conflicts = append(conflicts, conflictFor(l))
	}
	return conflicts, nil
}

func conflictFor(l *models.Lesson) models.Conflict {
	return models.Conflict{
		LessonID:    l.ID,
		Date:        l.OccurrenceDate,
		StartTime:   l.StartTime,
		EndTime:     l.EndTime,
		Status:      l.Status,
		ClassroomID: l.ClassroomID,
		TeacherID:   l.TeacherID,
	}
}
