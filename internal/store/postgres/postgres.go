// Package postgres implements store.Store on a Postgres database. Duplicate
// occurrence inserts are absorbed by the partial unique index on
// (pattern_id, occurrence_date) rather than application-level locking.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studio-schedule/internal/models"
	"studio-schedule/internal/store"
	"studio-schedule/internal/util"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const patternColumns = `id, studio_id, teacher_id, classroom_id, day_of_week,
	start_time, end_time, pattern_start_date, pattern_end_date, state,
	last_generated_through, notes, created_at, updated_at`

func scanPattern(row interface{ Scan(...interface{}) error }) (*models.RecurringPattern, error) {
	var p models.RecurringPattern
	var dayOfWeek int
	var endDate, frontier sql.NullTime
	var notes sql.NullString
	err := row.Scan(&p.ID, &p.StudioID, &p.TeacherID, &p.ClassroomID, &dayOfWeek,
		&p.StartTime, &p.EndTime, &p.PatternStartDate, &endDate, &p.State,
		&frontier, &notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DayOfWeek = time.Weekday(dayOfWeek)
	p.PatternStartDate = util.RebindDate(p.PatternStartDate)
	if endDate.Valid {
		d := util.RebindDate(endDate.Time)
		p.PatternEndDate = &d
	}
	if frontier.Valid {
		d := util.RebindDate(frontier.Time)
		p.LastGeneratedThrough = &d
	}
	p.Notes = notes.String
	return &p, nil
}

func (s *Store) CreatePattern(ctx context.Context, p *models.RecurringPattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recurring_patterns
			(id, studio_id, teacher_id, classroom_id, day_of_week, start_time,
			 end_time, pattern_start_date, pattern_end_date, state, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.StudioID, p.TeacherID, p.ClassroomID, int(p.DayOfWeek),
		p.StartTime, p.EndTime, p.PatternStartDate, p.PatternEndDate, p.State, nullString(p.Notes))
	if err != nil {
		return fmt.Errorf("failed to insert pattern: %w", err)
	}

	for _, sid := range p.StudentIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pattern_students (pattern_id, student_id) VALUES ($1, $2)`,
			p.ID, sid)
		if err != nil {
			return fmt.Errorf("failed to insert pattern student: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetPattern(ctx context.Context, id uuid.UUID) (*models.RecurringPattern, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns WHERE id = $1`, id)
	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPatternNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern: %w", err)
	}
	if p.StudentIDs, err = s.patternStudents(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) patternStudents(ctx context.Context, patternID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id FROM pattern_students WHERE pattern_id = $1 ORDER BY student_id`,
		patternID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern students: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListPatterns(ctx context.Context, scope store.Scope) ([]*models.RecurringPattern, error) {
	query := `SELECT ` + patternColumns + ` FROM recurring_patterns`
	var args []interface{}
	switch {
	case scope.StudioID != nil:
		query += ` WHERE studio_id = $1`
		args = append(args, *scope.StudioID)
	case scope.TeacherID != nil:
		query += ` WHERE teacher_id = $1`
		args = append(args, *scope.TeacherID)
	case scope.ClassroomID != nil:
		query += ` WHERE classroom_id = $1`
		args = append(args, *scope.ClassroomID)
	case scope.StudentID != nil:
		query += ` WHERE id IN (SELECT pattern_id FROM pattern_students WHERE student_id = $1)`
		args = append(args, *scope.StudentID)
	}
	query += ` ORDER BY id`
	return s.queryPatterns(ctx, query, args...)
}

func (s *Store) ListActivePatterns(ctx context.Context) ([]*models.RecurringPattern, error) {
	return s.queryPatterns(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns WHERE state = $1 ORDER BY id`,
		models.PatternActive)
}

func (s *Store) queryPatterns(ctx context.Context, query string, args ...interface{}) ([]*models.RecurringPattern, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var out []*models.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range out {
		if p.StudentIDs, err = s.patternStudents(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) UpdatePatternState(ctx context.Context, id uuid.UUID, state models.PatternState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurring_patterns
		SET state = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id, state)
	if err != nil {
		return fmt.Errorf("failed to update pattern state: %w", err)
	}
	return checkFound(res, models.ErrPatternNotFound)
}

func (s *Store) UpdatePattern(ctx context.Context, p *models.RecurringPattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recurring_patterns
		SET day_of_week = $2, start_time = $3, end_time = $4,
		    pattern_start_date = $5, pattern_end_date = $6,
		    last_generated_through = $7, notes = $8,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		p.ID, int(p.DayOfWeek), p.StartTime, p.EndTime,
		p.PatternStartDate, p.PatternEndDate, p.LastGeneratedThrough, nullString(p.Notes))
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	if err := checkFound(res, models.ErrPatternNotFound); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pattern_students WHERE pattern_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear pattern students: %w", err)
	}
	for _, sid := range p.StudentIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pattern_students (pattern_id, student_id) VALUES ($1, $2)`,
			p.ID, sid)
		if err != nil {
			return fmt.Errorf("failed to insert pattern student: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) AdvanceFrontier(ctx context.Context, id uuid.UUID, through time.Time) error {
	// The WHERE clause keeps the frontier monotonic under concurrent
	// generation runs; a stale writer simply updates zero rows.
	_, err := s.db.ExecContext(ctx, `
		UPDATE recurring_patterns
		SET last_generated_through = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		  AND (last_generated_through IS NULL OR last_generated_through < $2)`,
		id, through)
	if err != nil {
		return fmt.Errorf("failed to advance generation frontier: %w", err)
	}
	return nil
}

func (s *Store) CreateLessonIfAbsent(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO lessons
			(id, pattern_id, studio_id, teacher_id, classroom_id,
			 occurrence_date, start_time, end_time, status, conflict_flag, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (pattern_id, occurrence_date) WHERE pattern_id IS NOT NULL
		DO NOTHING`,
		l.ID, l.PatternID, l.StudioID, l.TeacherID, l.ClassroomID,
		l.OccurrenceDate, l.StartTime, l.EndTime, l.Status, l.ConflictFlag, nullString(l.Notes))
	if err != nil {
		return false, fmt.Errorf("failed to insert lesson: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := insertLessonStudents(ctx, tx, l.ID, studentIDs); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) CreateLesson(ctx context.Context, l *models.Lesson, studentIDs []uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lessons
			(id, pattern_id, studio_id, teacher_id, classroom_id,
			 occurrence_date, start_time, end_time, status, conflict_flag, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.PatternID, l.StudioID, l.TeacherID, l.ClassroomID,
		l.OccurrenceDate, l.StartTime, l.EndTime, l.Status, l.ConflictFlag, nullString(l.Notes))
	if err != nil {
		return fmt.Errorf("failed to insert lesson: %w", err)
	}
	if err := insertLessonStudents(ctx, tx, l.ID, studentIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertLessonStudents(ctx context.Context, tx *sql.Tx, lessonID uuid.UUID, studentIDs []uuid.UUID) error {
	for _, sid := range studentIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lesson_students (lesson_id, student_id, attendance_status)
			VALUES ($1, $2, $3)`,
			lessonID, sid, models.AttendanceScheduled)
		if err != nil {
			return fmt.Errorf("failed to insert lesson student: %w", err)
		}
	}
	return nil
}

const lessonColumns = `id, pattern_id, studio_id, teacher_id, classroom_id,
	occurrence_date, start_time, end_time, status, conflict_flag, notes,
	created_at, updated_at`

func scanLesson(row interface{ Scan(...interface{}) error }) (*models.Lesson, error) {
	var l models.Lesson
	var patternID uuid.NullUUID
	var notes sql.NullString
	err := row.Scan(&l.ID, &patternID, &l.StudioID, &l.TeacherID, &l.ClassroomID,
		&l.OccurrenceDate, &l.StartTime, &l.EndTime, &l.Status, &l.ConflictFlag,
		&notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if patternID.Valid {
		l.PatternID = &patternID.UUID
	}
	l.OccurrenceDate = util.RebindDate(l.OccurrenceDate)
	l.Notes = notes.String
	return &l, nil
}

func (s *Store) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson: %w", err)
	}
	return l, nil
}

func (s *Store) GetLessonByOccurrence(ctx context.Context, patternID uuid.UUID, date time.Time) (*models.Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE pattern_id = $1 AND occurrence_date = $2`,
		patternID, date)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson occurrence: %w", err)
	}
	return l, nil
}

func (s *Store) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return checkFound(res, models.ErrLessonNotFound)
}

func (s *Store) LessonsInRange(ctx context.Context, scope store.Scope, from, to time.Time) ([]*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons
		WHERE occurrence_date >= $1 AND occurrence_date <= $2`
	args := []interface{}{from, to}
	switch {
	case scope.StudioID != nil:
		query += ` AND studio_id = $3`
		args = append(args, *scope.StudioID)
	case scope.TeacherID != nil:
		query += ` AND teacher_id = $3`
		args = append(args, *scope.TeacherID)
	case scope.ClassroomID != nil:
		query += ` AND classroom_id = $3`
		args = append(args, *scope.ClassroomID)
	case scope.StudentID != nil:
		query += ` AND id IN (SELECT lesson_id FROM lesson_students WHERE student_id = $3)`
		args = append(args, *scope.StudentID)
	}
	query += ` ORDER BY occurrence_date, start_time, id`
	return s.queryLessons(ctx, query, args...)
}

func (s *Store) queryLessons(ctx context.Context, query string, args ...interface{}) ([]*models.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var out []*models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) UpdateLessonStatus(ctx context.Context, id uuid.UUID, status models.LessonStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lessons SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("failed to update lesson status: %w", err)
	}
	return checkFound(res, models.ErrLessonNotFound)
}

func (s *Store) CancelFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lessons
		SET status = $4, updated_at = CURRENT_TIMESTAMP
		WHERE pattern_id = $1 AND status = $5
		  AND (occurrence_date > $2 OR (occurrence_date = $2 AND start_time > $3))`,
		patternID, today, nowHHMM, models.LessonCancelled, models.LessonScheduled)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel future lessons: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) DeleteFutureLessons(ctx context.Context, patternID uuid.UUID, today time.Time, nowHHMM string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM lessons
		WHERE pattern_id = $1 AND status = $4
		  AND (occurrence_date > $2 OR (occurrence_date = $2 AND start_time > $3))`,
		patternID, today, nowHHMM, models.LessonScheduled)
	if err != nil {
		return 0, fmt.Errorf("failed to delete future lessons: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) MarkMissedEnded(ctx context.Context, today time.Time, nowHHMM string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lessons
		SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE status = $4
		  AND (occurrence_date < $1 OR (occurrence_date = $1 AND end_time <= $2))`,
		today, nowHHMM, models.LessonMissed, models.LessonScheduled)
	if err != nil {
		return 0, fmt.Errorf("failed to mark missed lessons: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) SetConflictFlag(ctx context.Context, id uuid.UUID, flagged bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lessons SET conflict_flag = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, flagged)
	if err != nil {
		return fmt.Errorf("failed to set conflict flag: %w", err)
	}
	return checkFound(res, models.ErrLessonNotFound)
}

func (s *Store) FindOverlapping(ctx context.Context, slot store.Slot) ([]*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons
		WHERE occurrence_date = $1
		  AND classroom_id = $2
		  AND status <> $3
		  AND start_time < $4 AND $5 < end_time`
	args := []interface{}{slot.Date, slot.ClassroomID,
		models.LessonCancelled, slot.EndTime, slot.StartTime}
	if slot.ExcludeLessonID != nil {
		query += ` AND id <> $6`
		args = append(args, *slot.ExcludeLessonID)
	}
	query += ` ORDER BY start_time, id`
	return s.queryLessons(ctx, query, args...)
}

func (s *Store) ListLessonStudents(ctx context.Context, lessonID uuid.UUID) ([]*models.LessonStudent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lesson_id, student_id, attendance_status
		FROM lesson_students WHERE lesson_id = $1 ORDER BY student_id`,
		lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lesson students: %w", err)
	}
	defer rows.Close()

	var out []*models.LessonStudent
	for rows.Next() {
		var ls models.LessonStudent
		if err := rows.Scan(&ls.LessonID, &ls.StudentID, &ls.AttendanceStatus); err != nil {
			return nil, err
		}
		out = append(out, &ls)
	}
	return out, rows.Err()
}

func (s *Store) SetAttendance(ctx context.Context, lessonID, studentID uuid.UUID, status models.AttendanceStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE lesson_students SET attendance_status = $3
		WHERE lesson_id = $1 AND student_id = $2`,
		lessonID, studentID, status)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	return checkFound(res, models.ErrStudentNotEnrolled)
}

func checkFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
