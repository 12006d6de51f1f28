// Package memory provides an in-memory Store used by tests. It enforces the
// same uniqueness and ordering guarantees the Postgres schema does.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

type occurrenceKey struct {
	patternID uuid.UUID
	date      string
}

type Store struct {
	mu          sync.Mutex
	patterns    map[uuid.UUID]*models.RecurringPattern
	lessons     map[uuid.UUID]*models.Lesson
	students    map[uuid.UUID][]*models.LessonStudent
	occurrences map[occurrenceKey]uuid.UUID
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		patterns:    make(map[uuid.UUID]*models.RecurringPattern),
		lessons:     make(map[uuid.UUID]*models.Lesson),
		students:    make(map[uuid.UUID][]*models.LessonStudent),
		occurrences: make(map[occurrenceKey]uuid.UUID),
	}
}

func clonePattern(p *models.RecurringPattern) *models.RecurringPattern {
	cp := *p
	if p.PatternEndDate != nil {
		d := *p.PatternEndDate
		cp.PatternEndDate = &d
	}
	if p.LastGeneratedThrough != nil {
		d := *p.LastGeneratedThrough
		cp.LastGeneratedThrough = &d
	}
	cp.StudentIDs = append([]uuid.UUID(nil), p.StudentIDs...)
	return &cp
}

func cloneLesson(l *models.Lesson) *models.Lesson {
	cl := *l
	if l.PatternID != nil {
		id := *l.PatternID
		cl.PatternID = &id
	}
	return &cl
}

func (s *Store) CreatePattern(ctx context.Context, p *models.RecurringPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[p.ID] = clonePattern(p)
	return nil
}

func (s *Store) GetPattern(ctx context.Context, id uuid.UUID) (*models.RecurringPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[id]
	if !ok {
		return nil, models.ErrPatternNotFound
	}
	return clonePattern(p), nil
}

func (s *Store) ListPatterns(ctx context.Context, scope store.Scope) ([]*models.RecurringPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RecurringPattern
	for _, p := range s.patterns {
		if patternInScope(p, scope) {
			out = append(out, clonePattern(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func patternInScope(p *models.RecurringPattern, scope store.Scope) bool {
	switch {
	case scope.StudioID != nil:
		return p.StudioID == *scope.StudioID
	case scope.TeacherID != nil:
		return p.TeacherID == *scope.TeacherID
	case scope.ClassroomID != nil:
		return p.ClassroomID == *scope.ClassroomID
	case scope.StudentID != nil:
		for _, sid := range p.StudentIDs {
			if sid == *scope.StudentID {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Store) ListActivePatterns(ctx context.Context) ([]*models.RecurringPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RecurringPattern
	for _, p := range s.patterns {
		if p.State == models.PatternActive {
			out = append(out, clonePattern(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) UpdatePatternState(ctx context.Context, id uuid.UUID, state models.PatternState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[id]
	if !ok {
		return models.ErrPatternNotFound
	}
	p.State = state
	p.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdatePattern(ctx context.Context, p *models.RecurringPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.patterns[p.ID]
	if !ok {
		return models.ErrPatternNotFound
	}
	cp := clonePattern(p)
	cp.State = cur.State
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()
	s.patterns[p.ID] = cp
	return nil
}

func (s *Store) AdvanceFrontier(ctx context.Context, id uuid.UUID, through time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patterns[id]
	if !ok {
		return models.ErrPatternNotFound
	}
	if p.LastGeneratedThrough == nil || p.LastGeneratedThrough.Before(through) {
		t := through
		p.LastGeneratedThrough = &t
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (s *Store) CreateLessonIfAbsent(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.PatternID != nil {
		key := occurrenceKey{patternID: *l.PatternID, date: util.FormatDate(l.OccurrenceDate)}
		if _, exists := s.occurrences[key]; exists {
			return false, nil
		}
		s.occurrences[key] = l.ID
	}
	s.insertLessonLocked(l, studentIDs)
	return true, nil
}

func (s *Store) CreateLesson(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLessonLocked(l, studentIDs)
	return nil
}

func (s *Store) insertLessonLocked(l *models.Lesson, studentIDs []uuid.UUID) {
	s.lessons[l.ID] = cloneLesson(l)
	for _, sid := range studentIDs {
		s.students[l.ID] = append(s.students[l.ID], &models.LessonStudent{
			LessonID:         l.ID,
			StudentID:        sid,
			AttendanceStatus: models.AttendanceScheduled,
		})
	}
}

func (s *Store) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return nil, models.ErrLessonNotFound
	}
	return cloneLesson(l), nil
}

func (s *Store) GetLessonByOccurrence(ctx context.Context, patternID uuid.UUID, date time.Time) (*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := occurrenceKey{patternID: patternID, date: util.FormatDate(date)}
	id, ok := s.occurrences[key]
	if !ok {
		return nil, models.ErrLessonNotFound
	}
	return cloneLesson(s.lessons[id]), nil
}

func (s *Store) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return models.ErrLessonNotFound
	}
	if l.PatternID != nil {
		delete(s.occurrences, occurrenceKey{patternID: *l.PatternID, date: util.FormatDate(l.OccurrenceDate)})
	}
	delete(s.lessons, id)
	delete(s.students, id)
	return nil
}

func (s *Store) LessonsInRange(ctx context.Context, scope store.Scope, from, to time.Time) ([]*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Lesson
	for _, l := range s.lessons {
		if l.OccurrenceDate.Before(from) || l.OccurrenceDate.After(to) {
			continue
		}
		if !s.lessonInScopeLocked(l, scope) {
			continue
		}
		out = append(out, cloneLesson(l))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.OccurrenceDate.Equal(b.OccurrenceDate) {
			return a.OccurrenceDate.Before(b.OccurrenceDate)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *Store) lessonInScopeLocked(l *models.Lesson, scope store.Scope) bool {
	switch {
	case scope.StudioID != nil:
		return l.StudioID == *scope.StudioID
	case scope.TeacherID != nil:
		return l.TeacherID == *scope.TeacherID
	case scope.ClassroomID != nil:
		return l.ClassroomID == *scope.ClassroomID
	case scope.StudentID != nil:
		for _, ls := range s.students[l.ID] {
			if ls.StudentID == *scope.StudentID {
				return true
			}
		}
		return false
	}
	return true
}

func (s *Store) UpdateLessonStatus(ctx context.Context, id uuid.UUID, status models.LessonStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return models.ErrLessonNotFound
	}
	l.Status = status
	l.UpdatedAt = time.Now()
	return nil
}

func (s *Store) CancelFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today = util.StartOfDay(today)
	count := 0
	for _, l := range s.lessons {
		if l.PatternID == nil || *l.PatternID != patternID {
			continue
		}
		if l.Status != models.LessonScheduled {
			continue
		}
		notStarted := l.OccurrenceDate.After(today) ||
			(l.OccurrenceDate.Equal(today) && l.StartTime > nowHHMM)
		if !notStarted {
			continue
		}
		l.Status = models.LessonCancelled
		l.UpdatedAt = time.Now()
		count++
	}
	return count, nil
}

func (s *Store) DeleteFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today = util.StartOfDay(today)
	count := 0
	for id, l := range s.lessons {
		if l.PatternID == nil || *l.PatternID != patternID {
			continue
		}
		if l.Status != models.LessonScheduled {
			continue
		}
		notStarted := l.OccurrenceDate.After(today) ||
			(l.OccurrenceDate.Equal(today) && l.StartTime > nowHHMM)
		if !notStarted {
			continue
		}
		delete(s.occurrences, occurrenceKey{patternID: patternID, date: util.FormatDate(l.OccurrenceDate)})
		delete(s.lessons, id)
		delete(s.students, id)
		count++
	}
	return count, nil
}

func (s *Store) MarkMissedEnded(ctx context.Context, today time.Time, nowHHMM string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today = util.StartOfDay(today)
	count := 0
	for _, l := range s.lessons {
		if l.Status != models.LessonScheduled {
			continue
		}
		ended := l.OccurrenceDate.Before(today) ||
			(l.OccurrenceDate.Equal(today) && l.EndTime <= nowHHMM)
		if !ended {
			continue
		}
		l.Status = models.LessonMissed
		l.UpdatedAt = time.Now()
		count++
	}
	return count, nil
}

func (s *Store) SetConflictFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lessons[id]
	if !ok {
		return models.ErrLessonNotFound
	}
	l.ConflictFlag = flagged
	l.UpdatedAt = time.Now()
	return nil
}

func (s *Store) FindOverlapping(ctx context.Context, slot store.Slot) ([]*models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Lesson
	for _, l := range s.lessons {
		if slot.ExcludeLessonID != nil && l.ID == *slot.ExcludeLessonID {
			continue
		}
		if l.Status == models.LessonCancelled {
			continue
		}
		if !l.OccurrenceDate.Equal(util.StartOfDay(slot.Date)) {
			continue
		}
		if l.ClassroomID != slot.ClassroomID {
			continue
		}
		if !store.TimesOverlap(slot.StartTime, slot.EndTime, l.StartTime, l.EndTime) {
			continue
		}
		out = append(out, cloneLesson(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) ListLessonStudents(ctx context.Context, lessonID uuid.UUID) ([]*models.LessonStudent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[lessonID]; !ok {
		return nil, models.ErrLessonNotFound
	}
	out := make([]*models.LessonStudent, 0, len(s.students[lessonID]))
	for _, ls := range s.students[lessonID] {
		cp := *ls
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) SetAttendance(ctx context.Context, lessonID, studentID uuid.UUID, status models.AttendanceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[lessonID]; !ok {
		return models.ErrLessonNotFound
	}
	for _, ls := range s.students[lessonID] {
		if ls.StudentID == studentID {
			ls.AttendanceStatus = status
			return nil
		}
	}
	return models.ErrStudentNotEnrolled
}
