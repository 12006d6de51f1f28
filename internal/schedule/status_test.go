package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/util"
)

func insertLesson(t *testing.T, st interface {
	CreateLesson(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) error
}, day, start, end string, status models.LessonStatus) *models.Lesson {
	t.Helper()
	l := &models.Lesson{
		ID:             uuid.New(),
		StudioID:       uuid.New(),
		TeacherID:      uuid.New(),
		ClassroomID:    uuid.New(),
		OccurrenceDate: date(t, day),
		StartTime:      start,
		EndTime:        end,
		Status:         status,
	}
	if err := st.CreateLesson(context.Background(), l, nil); err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return l
}

// Clock is pinned to 09:00 on 2025-01-06 in all of these.
func TestTransitionLesson(t *testing.T) {
	tests := []struct {
		name    string
		day     string
		start   string
		end     string
		from    models.LessonStatus
		to      models.LessonStatus
		wantErr bool
	}{
		{"cancel before start", "2025-01-06", "10:00", "11:00", models.LessonScheduled, models.LessonCancelled, false},
		{"cancel after start", "2025-01-06", "08:00", "09:30", models.LessonScheduled, models.LessonCancelled, true},
		{"cancel past lesson", "2025-01-05", "10:00", "11:00", models.LessonScheduled, models.LessonCancelled, true},
		{"complete after start", "2025-01-06", "08:00", "09:30", models.LessonScheduled, models.LessonCompleted, false},
		{"complete past lesson", "2025-01-05", "10:00", "11:00", models.LessonScheduled, models.LessonCompleted, false},
		{"complete before start", "2025-01-06", "10:00", "11:00", models.LessonScheduled, models.LessonCompleted, true},
		{"miss after end", "2025-01-05", "10:00", "11:00", models.LessonScheduled, models.LessonMissed, false},
		{"miss before end", "2025-01-06", "08:00", "10:00", models.LessonScheduled, models.LessonMissed, true},
		{"completed is terminal", "2025-01-05", "10:00", "11:00", models.LessonCompleted, models.LessonCancelled, true},
		{"cancelled is terminal", "2025-01-05", "10:00", "11:00", models.LessonCancelled, models.LessonCompleted, true},
		{"missed is terminal", "2025-01-05", "10:00", "11:00", models.LessonMissed, models.LessonCompleted, true},
		{"no-op transition", "2025-01-06", "10:00", "11:00", models.LessonScheduled, models.LessonScheduled, true},
		{"unknown target", "2025-01-06", "10:00", "11:00", models.LessonScheduled, models.LessonStatus("done"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t, "2025-01-06")
			l := insertLesson(t, st, tt.day, tt.start, tt.end, tt.from)

			got, err := svc.TransitionLesson(context.Background(), l.ID, tt.to)
			if tt.wantErr {
				if !models.IsInvalidTransition(err) {
					t.Fatalf("expected InvalidTransitionError, got %v", err)
				}
				stored, _ := st.GetLesson(context.Background(), l.ID)
				if stored.Status != tt.from {
					t.Errorf("failed transition mutated status to %s", stored.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("TransitionLesson: %v", err)
			}
			if got.Status != tt.to {
				t.Errorf("status = %s, want %s", got.Status, tt.to)
			}
		})
	}
}

func TestTransitionUnknownLesson(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-06")
	_, err := svc.TransitionLesson(context.Background(), uuid.New(), models.LessonCancelled)
	if !errors.Is(err, models.ErrLessonNotFound) {
		t.Errorf("expected ErrLessonNotFound, got %v", err)
	}
}

// Pausing cancels upcoming lessons, leaves past ones alone, and freezes the
// generation frontier.
func TestPauseCascade(t *testing.T) {
	svc, st := newTestService(t, "2025-01-10")
	ctx := context.Background()

	p := rawPattern(t, st, nil)
	if _, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-01-27")); err != nil {
		t.Fatal(err)
	}

	cancelled, err := svc.PausePattern(ctx, p.ID)
	if err != nil {
		t.Fatalf("PausePattern: %v", err)
	}
	if cancelled != 3 {
		t.Errorf("cancelled %d lessons, want 3 (Jan 13, 20, 27)", cancelled)
	}

	for _, l := range allLessons(t, st, p) {
		wantStatus := models.LessonCancelled
		if l.OccurrenceDate.Before(date(t, "2025-01-10")) {
			wantStatus = models.LessonScheduled
		}
		if l.Status != wantStatus {
			t.Errorf("lesson on %s has status %s, want %s",
				util.FormatDate(l.OccurrenceDate), l.Status, wantStatus)
		}
	}

	got, _ := st.GetPattern(ctx, p.ID)
	if got.State != models.PatternPaused {
		t.Errorf("pattern state = %s, want paused", got.State)
	}
	if got.LastGeneratedThrough == nil || !got.LastGeneratedThrough.Equal(date(t, "2025-01-27")) {
		t.Errorf("frontier = %v, want frozen at 2025-01-27", got.LastGeneratedThrough)
	}

	// Paused pattern stops generating until resumed.
	res, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-02-10"))
	if err != nil || res.Created() != 0 {
		t.Errorf("paused pattern generated %d lessons (err %v)", res.Created(), err)
	}

	if _, err := svc.ResumePattern(ctx, p.ID); err != nil {
		t.Fatalf("ResumePattern: %v", err)
	}
	got, _ = st.GetPattern(ctx, p.ID)
	if got.State != models.PatternActive {
		t.Errorf("resumed pattern state = %s", got.State)
	}
}

func TestArchiveIsTerminal(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	ctx := context.Background()
	p := rawPattern(t, st, nil)

	if _, err := svc.ArchivePattern(ctx, p.ID); err != nil {
		t.Fatalf("ArchivePattern: %v", err)
	}
	if _, err := svc.PausePattern(ctx, p.ID); !errors.Is(err, models.ErrPatternArchived) {
		t.Errorf("pause after archive: %v", err)
	}
	if _, err := svc.ResumePattern(ctx, p.ID); !errors.Is(err, models.ErrPatternArchived) {
		t.Errorf("resume after archive: %v", err)
	}
	if _, err := svc.GenerateLessons(ctx, p.ID, date(t, "2025-02-01")); !errors.Is(err, models.ErrPatternArchived) {
		t.Errorf("generate after archive: %v", err)
	}
}

// A scheduled lesson whose end has passed is found missed after the sweep.
func TestSweepMissed(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	ctx := context.Background()

	ended := insertLesson(t, st, "2025-01-05", "10:00", "11:00", models.LessonScheduled)
	endedToday := insertLesson(t, st, "2025-01-06", "07:00", "08:00", models.LessonScheduled)
	upcoming := insertLesson(t, st, "2025-01-06", "10:00", "11:00", models.LessonScheduled)
	done := insertLesson(t, st, "2025-01-04", "10:00", "11:00", models.LessonCompleted)

	n, err := svc.SweepMissed(ctx)
	if err != nil {
		t.Fatalf("SweepMissed: %v", err)
	}
	if n != 2 {
		t.Errorf("swept %d lessons, want 2", n)
	}

	check := func(id uuid.UUID, want models.LessonStatus) {
		t.Helper()
		l, err := st.GetLesson(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if l.Status != want {
			t.Errorf("lesson %s status = %s, want %s", id, l.Status, want)
		}
	}
	check(ended.ID, models.LessonMissed)
	check(endedToday.ID, models.LessonMissed)
	check(upcoming.ID, models.LessonScheduled)
	check(done.ID, models.LessonCompleted)

	// Sweeping again finds nothing new.
	n, err = svc.SweepMissed(ctx)
	if err != nil || n != 0 {
		t.Errorf("second sweep = %d (err %v), want 0", n, err)
	}
}

func TestSetAttendance(t *testing.T) {
	svc, st := newTestService(t, "2025-01-06")
	ctx := context.Background()

	student := uuid.New()
	l := &models.Lesson{
		ID:             uuid.New(),
		StudioID:       uuid.New(),
		TeacherID:      uuid.New(),
		ClassroomID:    uuid.New(),
		OccurrenceDate: date(t, "2025-01-06"),
		StartTime:      "10:00",
		EndTime:        "11:00",
		Status:         models.LessonScheduled,
	}
	if err := st.CreateLesson(ctx, l, []uuid.UUID{student}); err != nil {
		t.Fatal(err)
	}

	if err := svc.SetAttendance(ctx, l.ID, student, models.AttendanceAttended); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	students, err := svc.LessonStudents(ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].AttendanceStatus != models.AttendanceAttended {
		t.Errorf("students = %+v, want one attended row", students)
	}

	if err := svc.SetAttendance(ctx, l.ID, student, models.AttendanceStatus("present")); !models.IsInvalidPattern(err) {
		t.Errorf("unknown attendance value accepted: %v", err)
	}
	if err := svc.SetAttendance(ctx, uuid.New(), student, models.AttendanceAttended); !errors.Is(err, models.ErrLessonNotFound) {
		t.Errorf("unknown lesson: %v", err)
	}
	if err := svc.SetAttendance(ctx, l.ID, uuid.New(), models.AttendanceAttended); !errors.Is(err, models.ErrStudentNotEnrolled) {
		t.Errorf("unenrolled student: %v", err)
	}
}
