package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

// CreatePatternInput carries everything needed to define a weekly template.
// Dates are schedule-local midnights; times are zero-padded HH:MM strings.
type CreatePatternInput struct {
	StudioID    uuid.UUID   `validate:"required"`
	TeacherID   uuid.UUID   `validate:"required"`
	ClassroomID uuid.UUID   `validate:"required"`
	DayOfWeek   int         `validate:"min=0,max=6"`
	StartTime   string      `validate:"required"`
	EndTime     string      `validate:"required"`
	StartDate   time.Time   `validate:"required"`
	EndDate     *time.Time  `validate:"omitempty"`
	StudentIDs  []uuid.UUID `validate:"omitempty,dive,required"`
	Notes       string      `validate:"max=2000"`
}

func (s *Service) validatePatternInput(in *CreatePatternInput) error {
	if err := s.validate.Struct(in); err != nil {
		return &models.InvalidPatternError{Field: "input", Reason: err.Error()}
	}
	if !util.ValidTimeOfDay(in.StartTime) {
		return &models.InvalidPatternError{Field: "start_time", Reason: "must be HH:MM"}
	}
	if !util.ValidTimeOfDay(in.EndTime) {
		return &models.InvalidPatternError{Field: "end_time", Reason: "must be HH:MM"}
	}
	if in.EndTime <= in.StartTime {
		return &models.InvalidPatternError{Field: "end_time", Reason: "must be after start_time"}
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return &models.InvalidPatternError{Field: "pattern_end_date", Reason: "must not precede pattern_start_date"}
	}
	return nil
}

// CreatePattern validates and persists a recurring pattern, then immediately
// materializes its lessons up to the standard horizon.
func (s *Service) CreatePattern(ctx context.Context, in *CreatePatternInput) (*models.RecurringPattern, error) {
	if err := s.validatePatternInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.RecurringPattern{
		ID:               uuid.New(),
		StudioID:         in.StudioID,
		TeacherID:        in.TeacherID,
		ClassroomID:      in.ClassroomID,
		DayOfWeek:        time.Weekday(in.DayOfWeek),
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		PatternStartDate: util.StartOfDay(in.StartDate),
		State:            models.PatternActive,
		StudentIDs:       in.StudentIDs,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.EndDate != nil {
		d := util.StartOfDay(*in.EndDate)
		p.PatternEndDate = &d
	}

	if err := s.store.CreatePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pattern: %w", err)
	}

	horizon := util.StartOfDay(now).AddDate(0, 0, s.horizonDays)
	if _, err := s.generate(ctx, p, horizon); err != nil {
		return nil, fmt.Errorf("pattern created but initial generation failed: %w", err)
	}
	return s.store.GetPattern(ctx, p.ID)
}

// UpdatePatternInput carries the mutable fields of a pattern definition; an
// update replaces all of them. A nil EndDate clears any existing end date.
// The studio, teacher, and classroom bindings are fixed at creation.
type UpdatePatternInput struct {
	DayOfWeek  int         `validate:"min=0,max=6"`
	StartTime  string      `validate:"required"`
	EndTime    string      `validate:"required"`
	EndDate    *time.Time  `validate:"omitempty"`
	StudentIDs []uuid.UUID `validate:"omitempty,dive,required"`
	Notes      string      `validate:"max=2000"`
}

// UpdatePattern rewrites a pattern's definition. When the weekday, times, or
// end date change, the pattern's scheduled lessons that have not started are
// deleted and the frontier rewinds so the window regenerates under the new
// definition. Lessons already started, completed, missed, or cancelled keep
// their history.
func (s *Service) UpdatePattern(ctx context.Context, id uuid.UUID, in *UpdatePatternInput) (*models.RecurringPattern, error) {
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

	p, err := s.store.GetPattern(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State == models.PatternArchived {
		return nil, models.ErrPatternArchived
	}
	if in.EndDate != nil && in.EndDate.Before(p.PatternStartDate) {
		return nil, &models.InvalidPatternError{Field: "pattern_end_date", Reason: "must not precede pattern_start_date"}
	}

	var endDate *time.Time
	if in.EndDate != nil {
		d := util.StartOfDay(*in.EndDate)
		endDate = &d
	}
	reshaped := time.Weekday(in.DayOfWeek) != p.DayOfWeek ||
		in.StartTime != p.StartTime ||
		in.EndTime != p.EndTime ||
		!sameDatePtr(endDate, p.PatternEndDate)

	p.DayOfWeek = time.Weekday(in.DayOfWeek)
	p.StartTime = in.StartTime
	p.EndTime = in.EndTime
	p.PatternEndDate = endDate
	p.StudentIDs = in.StudentIDs
	p.Notes = in.Notes

	if reshaped {
		now := s.now()
		today := util.StartOfDay(now)
		if _, err := s.store.DeleteFutureLessons(ctx, id, today, now.Format("15:04")); err != nil {
			return nil, err
		}
		// Rewind the frontier over the freed dates so generation revisits
		// them with the new definition. Past dates stay behind it.
		yesterday := today.AddDate(0, 0, -1)
		switch {
		case yesterday.Before(p.PatternStartDate):
			p.LastGeneratedThrough = nil
		case p.LastGeneratedThrough != nil && p.LastGeneratedThrough.After(yesterday):
			d := yesterday
			p.LastGeneratedThrough = &d
		}
	}

	if err := s.store.UpdatePattern(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}

	if reshaped && p.State == models.PatternActive {
		horizon := util.StartOfDay(s.now()).AddDate(0, 0, s.horizonDays)
		if _, err := s.generate(ctx, p, horizon); err != nil {
			return nil, fmt.Errorf("pattern updated but regeneration failed: %w", err)
		}
	}
	return s.store.GetPattern(ctx, id)
}

func sameDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *Service) GetPattern(ctx context.Context, id uuid.UUID) (*models.RecurringPattern, error) {
	return s.store.GetPattern(ctx, id)
}

func (s *Service) ListPatterns(ctx context.Context, scope store.Scope) ([]*models.RecurringPattern, error) {
	return s.store.ListPatterns(ctx, scope)
}

// PausePattern halts generation and cancels the pattern's lessons that have
// not yet started. The generation frontier is left untouched so resuming
// picks up where it stopped.
func (s *Service) PausePattern(ctx context.Context, id uuid.UUID) (int, error) {
	p, err := s.store.GetPattern(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.State == models.PatternArchived {
		return 0, models.ErrPatternArchived
	}
	if err := s.store.UpdatePatternState(ctx, id, models.PatternPaused); err != nil {
		return 0, err
	}
	return s.cancelUpcoming(ctx, id)
}

// ResumePattern reactivates a paused pattern and backfills lessons up to the
// standard horizon.
func (s *Service) ResumePattern(ctx context.Context, id uuid.UUID) (*GenerateResult, error) {
	p, err := s.store.GetPattern(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State == models.PatternArchived {
		return nil, models.ErrPatternArchived
	}
	if err := s.store.UpdatePatternState(ctx, id, models.PatternActive); err != nil {
		return nil, err
	}
	p.State = models.PatternActive
	horizon := util.StartOfDay(s.now()).AddDate(0, 0, s.horizonDays)
	return s.generate(ctx, p, horizon)
}

// ArchivePattern is terminal: generation stops for good and lessons that
// have not started are cancelled.
func (s *Service) ArchivePattern(ctx context.Context, id uuid.UUID) (int, error) {
	if _, err := s.store.GetPattern(ctx, id); err != nil {
		return 0, err
	}
	if err := s.store.UpdatePatternState(ctx, id, models.PatternArchived); err != nil {
		return 0, err
	}
	return s.cancelUpcoming(ctx, id)
}

func (s *Service) cancelUpcoming(ctx context.Context, patternID uuid.UUID) (int, error) {
	now := s.now()
	return s.store.CancelFutureLessons(ctx, patternID, util.StartOfDay(now), now.Format("15:04"))
}
