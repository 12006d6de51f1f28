package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

// generateConcurrency caps parallel pattern expansion in GenerateAll.
const generateConcurrency = 4

// GenerateResult reports one generation run. CreatedIDs are lessons inserted
// by this run; ConfirmedIDs already existed for an occurrence date in the
// window and were left untouched.
type GenerateResult struct {
	CreatedIDs   []uuid.UUID
	ConfirmedIDs []uuid.UUID
}

func (r *GenerateResult) Created() int   { return len(r.CreatedIDs) }
func (r *GenerateResult) Confirmed() int { return len(r.ConfirmedIDs) }

// GenerateLessons materializes the pattern's occurrences up to horizon.
// Archived patterns reject the request; paused patterns are skipped with an
// empty result and an untouched frontier.
func (s *Service) GenerateLessons(ctx context.Context, patternID uuid.UUID, horizon time.Time) (*GenerateResult, error) {
	p, err := s.store.GetPattern(ctx, patternID)
	if err != nil {
		return nil, err
	}
	switch p.State {
	case models.PatternArchived:
		return nil, models.ErrPatternArchived
	case models.PatternPaused:
		return &GenerateResult{}, nil
	}
	return s.generate(ctx, p, horizon)
}

// generate walks occurrence dates from the frontier to the horizon. Each
// date is inserted idempotently, conflict-checked, and then the frontier is
// advanced past it, so a failure mid-batch resumes cleanly on retry.
func (s *Service) generate(ctx context.Context, p *models.RecurringPattern, horizon time.Time) (*GenerateResult, error) {
	res := &GenerateResult{}

	horizon = util.StartOfDay(horizon)
	if p.PatternEndDate != nil && horizon.After(*p.PatternEndDate) {
		horizon = *p.PatternEndDate
	}

	from := p.PatternStartDate
	if p.LastGeneratedThrough != nil {
		next := p.LastGeneratedThrough.AddDate(0, 0, 1)
		if next.After(from) {
			from = next
		}
	}
	if horizon.Before(from) {
		// Horizon at or behind the frontier: nothing to do.
		return res, nil
	}

	for date := util.NextWeekday(from, p.DayOfWeek); !date.After(horizon); date = date.AddDate(0, 0, 7) {
		lesson := &models.Lesson{
			ID:             uuid.New(),
			PatternID:      &p.ID,
			StudioID:       p.StudioID,
			TeacherID:      p.TeacherID,
			ClassroomID:    p.ClassroomID,
			OccurrenceDate: date,
			StartTime:      p.StartTime,
			EndTime:        p.EndTime,
			Status:         models.LessonScheduled,
		}

		created, err := s.store.CreateLessonIfAbsent(ctx, lesson, p.StudentIDs)
		if err != nil {
			// Races on the unique occurrence index surface here with
			// some storage backends; a duplicate is still a success.
			if models.IsUniqueViolation(err) {
				created = false
			} else {
				return res, fmt.Errorf("failed to generate lesson for %s: %w", util.FormatDate(date), err)
			}
		}

		if created {
			res.CreatedIDs = append(res.CreatedIDs, lesson.ID)
			if err := s.flagConflicts(ctx, lesson); err != nil {
				return res, err
			}
		} else {
			existing, err := s.store.GetLessonByOccurrence(ctx, p.ID, date)
			if err != nil {
				return res, fmt.Errorf("failed to confirm lesson for %s: %w", util.FormatDate(date), err)
			}
			res.ConfirmedIDs = append(res.ConfirmedIDs, existing.ID)
		}

		if err := s.store.AdvanceFrontier(ctx, p.ID, date); err != nil {
			return res, err
		}
	}

	return res, nil
}

// flagConflicts marks the new lesson and every lesson it overlaps. Creation
// is never rejected on conflict; the flags are advisory.
func (s *Service) flagConflicts(ctx context.Context, l *models.Lesson) error {
	overlapping, err := s.store.FindOverlapping(ctx, store.Slot{
		ClassroomID:     l.ClassroomID,
		Date:            l.OccurrenceDate,
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		ExcludeLessonID: &l.ID,
	})
	if err != nil {
		return fmt.Errorf("conflict check failed: %w", err)
	}
	if len(overlapping) == 0 {
		return nil
	}

	if err := s.store.SetConflictFlag(ctx, l.ID, true); err != nil {
		return err
	}
	for _, other := range overlapping {
		if err := s.store.SetConflictFlag(ctx, other.ID, true); err != nil {
			return err
		}
	}
	return nil
}

// GenerateAll runs generation for every active pattern up to horizon.
// Concurrent invocations are safe; duplicates are absorbed by the storage
// uniqueness guarantee.
func (s *Service) GenerateAll(ctx context.Context, horizon time.Time) (int, error) {
	patterns, err := s.store.ListActivePatterns(ctx)
	if err != nil {
		return 0, err
	}

	results := make([]*GenerateResult, len(patterns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(generateConcurrency)
	for i, p := range patterns {
		i, p := i, p
		g.Go(func() error {
			res, err := s.generate(gctx, p, horizon)
			if err != nil {
				log.Printf("ERROR: generation failed for pattern %s: %v", p.ID, err)
				return err
			}
			results[i] = res
			return nil
		})
	}
	err = g.Wait()

	created := 0
	for _, r := range results {
		if r != nil {
			created += r.Created()
		}
	}
	return created, err
}
