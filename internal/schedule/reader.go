package schedule

import (
	"context"
	"fmt"
	"time"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

// ReadSchedule returns every lesson in scope intersecting [from, to],
// ordered by (occurrence date, start time, id). If the range end exceeds an
// active pattern's frontier, the missing occurrences are generated first so
// the read never shows a partially materialized window.
func (s *Service) ReadSchedule(ctx context.Context, scope store.Scope, from, to time.Time) ([]*models.Lesson, error) {
	from = util.StartOfDay(from)
	to = util.StartOfDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is after %s", util.FormatDate(from), util.FormatDate(to))
	}

	patterns, err := s.store.ListPatterns(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if p.State != models.PatternActive {
			continue
		}
		if p.LastGeneratedThrough != nil && !p.LastGeneratedThrough.Before(to) {
			continue
		}
		if _, err := s.generate(ctx, p, to); err != nil {
			return nil, fmt.Errorf("on-demand generation failed for pattern %s: %w", p.ID, err)
		}
	}

	return s.store.LessonsInRange(ctx, scope, from, to)
}
