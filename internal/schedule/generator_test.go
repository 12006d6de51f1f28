package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store/memory"
	"studio-schedule/internal/util"
)

// rawPattern inserts a pattern straight into the store so tests control
// generation explicitly.
func rawPattern(t *testing.T, st *memory.Store, mutate func(*models.RecurringPattern)) *models.RecurringPattern {
	t.Helper()
	p := &models.RecurringPattern{
		ID:               uuid.New(),
		StudioID:         uuid.New(),
		TeacherID:        uuid.New(),
		ClassroomID:      uuid.New(),
		DayOfWeek:        time.Monday,
		StartTime:        "10:00",
		EndTime:          "11:00",
		PatternStartDate: date(t, "2025-01-06"),
		State:            models.PatternActive,
		StudentIDs:       []uuid.UUID{uuid.New()},
	}
	if mutate != nil {
		mutate(p)
	}
	if err := st.CreatePattern(context.Background(), p); err != nil {
		t.Fatalf("CreatePattern: %v", err)
	}
	return p
}

func occurrenceDates(lessons []*models.Lesson) []string {
	var out []string
	for _, l := range lessons {
		out = append(out, util.FormatDate(l.OccurrenceDate))
	}
	return out
}

func TestGenerateMondayPattern(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, nil)

	res, err := svc.GenerateLessons(context.Background(), p.ID, date(t, "2025-01-14"))
	if err != nil {
		t.Fatalf("GenerateLessons returned error: %v", err)
	}
	if res.Created() != 2 || res.Confirmed() != 0 {
		t.Fatalf("created=%d confirmed=%d, want 2/0", res.Created(), res.Confirmed())
	}

	lessons := allLessons(t, st, p)
	got := occurrenceDates(lessons)
	want := []string{"2025-01-06", "2025-01-13"}
	if len(got) != len(want) {
		t.Fatalf("occurrence dates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("occurrence dates = %v, want %v", got, want)
		}
	}
	for _, l := range lessons {
		if l.Status != models.LessonScheduled {
			t.Errorf("lesson %s status = %s, want scheduled", l.ID, l.Status)
		}
		if l.StartTime != "10:00" || l.EndTime != "11:00" {
			t.Errorf("lesson %s times = %s-%s, want 10:00-11:00", l.ID, l.StartTime, l.EndTime)
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, nil)
	ctx := context.Background()
	horizon := date(t, "2025-01-20")

	first, err := svc.GenerateLessons(ctx, p.ID, horizon)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.GenerateLessons(ctx, p.ID, horizon)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Created() != 3 {
		t.Errorf("first run created %d, want 3", first.Created())
	}
	if second.Created() != 0 {
		t.Errorf("second run created %d, want 0", second.Created())
	}
	if len(allLessons(t, st, p)) != 3 {
		t.Errorf("lesson count changed after repeat run")
	}
}

func TestGenerateResumesFromFrontier(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, nil)
	ctx := context.Background()

	if _, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-01-13")); err != nil {
		t.Fatalf("first window: %v", err)
	}
	res, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-01-27"))
	if err != nil {
		t.Fatalf("second window: %v", err)
	}
	if res.Created() != 2 {
		t.Errorf("second window created %d, want 2 (Jan 20 and 27)", res.Created())
	}

	got, err := st.GetPattern(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LastGeneratedThrough == nil || !got.LastGeneratedThrough.Equal(date(t, "2025-01-27")) {
		t.Errorf("frontier = %v, want 2025-01-27", got.LastGeneratedThrough)
	}
}

func TestGeneratePastHorizonNoOp(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, nil)
	ctx := context.Background()

	if _, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-01-20")); err != nil {
		t.Fatal(err)
	}
	res, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-01-10"))
	if err != nil {
		t.Fatalf("past horizon: %v", err)
	}
	if res.Created() != 0 || res.Confirmed() != 0 {
		t.Errorf("past horizon created=%d confirmed=%d, want 0/0", res.Created(), res.Confirmed())
	}

	got, _ := st.GetPattern(ctx, p.ID)
	if !got.LastGeneratedThrough.Equal(date(t, "2025-01-20")) {
		t.Errorf("frontier moved backward to %v", got.LastGeneratedThrough)
	}
}

func TestGenerateRespectsEndDate(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, func(p *models.RecurringPattern) {
		end := date(t, "2025-01-13")
		p.PatternEndDate = &end
	})

	res, err := svc.GenerateLessons(context.Background(), p.ID, date(t, "2025-02-28"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Created() != 2 {
		t.Errorf("created %d, want 2 (end date caps the window)", res.Created())
	}
}

func TestGeneratePausedSkipped(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, func(p *models.RecurringPattern) {
		p.State = models.PatternPaused
	})

	res, err := svc.GenerateLessons(context.Background(), p.ID, date(t, "2025-01-20"))
	if err != nil {
		t.Fatalf("paused pattern should not error: %v", err)
	}
	if res.Created() != 0 {
		t.Errorf("paused pattern created %d lessons", res.Created())
	}
	got, _ := st.GetPattern(context.Background(), p.ID)
	if got.LastGeneratedThrough != nil {
		t.Error("paused pattern frontier moved")
	}
}

func TestGenerateArchivedRejected(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, func(p *models.RecurringPattern) {
		p.State = models.PatternArchived
	})

	_, err := svc.GenerateLessons(context.Background(), p.ID, date(t, "2025-01-20"))
	if !errors.Is(err, models.ErrPatternArchived) {
		t.Errorf("expected ErrPatternArchived, got %v", err)
	}
}

func TestGenerateUnknownPattern(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-06")
	_, err := svc.GenerateLessons(context.Background(), uuid.New(), date(t, "2025-01-20"))
	if !errors.Is(err, models.ErrPatternNotFound) {
		t.Errorf("expected ErrPatternNotFound, got %v", err)
	}
}

func TestGenerateConcurrentSingleLessonPerDate(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	p := rawPattern(t, st, nil)
	horizon := date(t, "2025-03-03")

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GenerateLessons(context.Background(), p.ID, horizon); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent generation error: %v", err)
	}

	lessons := allLessons(t, st, p)
	seen := make(map[string]int)
	for _, l := range lessons {
		seen[util.FormatDate(l.OccurrenceDate)]++
	}
	for d, n := range seen {
		if n != 1 {
			t.Errorf("date %s has %d lessons, want exactly 1", d, n)
		}
	}
	// Mondays from Jan 6 through Mar 3 inclusive.
	if len(seen) != 9 {
		t.Errorf("got %d occurrence dates, want 9", len(seen))
	}
}

func TestGenerateAllCoversActivePatternsOnly(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	active := rawPattern(t, st, nil)
	paused := rawPattern(t, st, func(p *models.RecurringPattern) {
		p.State = models.PatternPaused
	})

	created, err := svc.GenerateAll(context.Background(), date(t, "2025-01-20"))
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if created != 3 {
		t.Errorf("created %d, want 3", created)
	}
	if n := len(allLessons(t, st, paused)); n != 0 {
		t.Errorf("paused pattern has %d lessons, want 0", n)
	}
	if n := len(allLessons(t, st, active)); n != 3 {
		t.Errorf("active pattern has %d lessons, want 3", n)
	}
}
