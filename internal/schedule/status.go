package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/util"
)

// TransitionLesson moves a lesson to target if the status machine and the
// clock both allow it. Terminal statuses never transition again.
func (s *Service) TransitionLesson(ctx context.Context, id uuid.UUID, target models.LessonStatus) (*models.Lesson, error) {
	l, err := s.store.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.ValidLessonStatus(target) || !models.CanTransition(l.Status, target) {
		return nil, &models.InvalidTransitionError{From: l.Status, To: target}
	}

	start, err := util.CombineDateTime(l.OccurrenceDate, l.StartTime)
	if err != nil {
		return nil, fmt.Errorf("lesson %s has malformed start time: %w", l.ID, err)
	}
	end, err := util.CombineDateTime(l.OccurrenceDate, l.EndTime)
	if err != nil {
		return nil, fmt.Errorf("lesson %s has malformed end time: %w", l.ID, err)
	}

	now := s.now()
	switch target {
	case models.LessonCancelled:
		if !now.Before(start) {
			return nil, &models.InvalidTransitionError{From: l.Status, To: target}
		}
	case models.LessonCompleted:
		if now.Before(start) {
			return nil, &models.InvalidTransitionError{From: l.Status, To: target}
		}
	case models.LessonMissed:
		if now.Before(end) {
			return nil, &models.InvalidTransitionError{From: l.Status, To: target}
		}
	}

	if err := s.store.UpdateLessonStatus(ctx, id, target); err != nil {
		return nil, err
	}
	l.Status = target
	return l, nil
}

// SweepMissed marks every scheduled lesson whose end has passed as missed
// and returns the count.
func (s *Service) SweepMissed(ctx context.Context) (int, error) {
	now := s.now()
	return s.store.MarkMissedEnded(ctx, util.StartOfDay(now), now.Format("15:04"))
}
