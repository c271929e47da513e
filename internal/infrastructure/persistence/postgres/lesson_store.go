package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tutorhub/tutorhub-core/internal/domain/lesson"
	"github.com/tutorhub/tutorhub-core/internal/domain/recurrence"
	"github.com/tutorhub/tutorhub-core/internal/domain/shared"
	"github.com/tutorhub/tutorhub-core/pkg/logger"
)

// LessonStore persists series, lessons and rosters.
// Each Save/Apply call runs in a single transaction.
type LessonStore struct {
	conn *Connection
	log  *zap.Logger
}

// NewLessonStore creates a new LessonStore.
func NewLessonStore(conn *Connection, log *zap.Logger) *LessonStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &LessonStore{conn: conn, log: log.Named("lesson_store")}
}

const lessonColumns = `
	l.id::text, l.teacher_id::text, COALESCE(u.display_name, ''), l.subject_id::text,
	COALESCE(s.name, ''), l.series_id::text, l.start_at, l.duration_minutes, l.price_rub,
	l.is_free, l.status, l.cancelled_by, l.cancellation_reason, l.teacher_note,
	l.student_note, l.report, l.created_at, l.updated_at`

const lessonFrom = `
	FROM lessons l
	LEFT JOIN users u ON u.id = l.teacher_id
	LEFT JOIN subjects s ON s.id = l.subject_id`

// ══════════════════════════════════════════════════════════════════════════════
// READS
// ══════════════════════════════════════════════════════════════════════════════

// GetLesson returns a lesson with its roster.
func (s *LessonStore) GetLesson(ctx context.Context, id string) (*lesson.Lesson, error) {
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	row := s.conn.QueryRow(ctx, "SELECT "+lessonColumns+lessonFrom+" WHERE l.id = $1", id)
	l, err := scanLesson(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson %s: %w", id, err)
	}

	lessons := []lesson.Lesson{l}
	if err := s.attachStudents(ctx, s.conn, lessons); err != nil {
		return nil, err
	}
	return &lessons[0], nil
}

// GetSeries returns a series template.
func (s *LessonStore) GetSeries(ctx context.Context, id string) (*lesson.Series, error) {
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id::text, teacher_id::text, subject_id::text, frequency, day_of_week, time_of_day,
			   duration_minutes, price_rub, is_free, max_occurrences, end_date, created_at, updated_at
		FROM lesson_series
		WHERE id = $1`

	var (
		series    lesson.Series
		frequency string
	)
	err := s.conn.QueryRow(ctx, query, id).Scan(
		&series.ID,
		&series.TeacherID,
		&series.SubjectID,
		&frequency,
		&series.DayOfWeek,
		&series.TimeOfDay,
		&series.DurationMinutes,
		&series.PriceRub,
		&series.IsFree,
		&series.MaxOccurrences,
		&series.EndDate,
		&series.CreatedAt,
		&series.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to get series %s: %w", id, err)
	}
	series.Frequency = lesson.Frequency(frequency)
	return &series, nil
}

// ListSeriesLessons returns every lesson of a series ordered by start time.
func (s *LessonStore) ListSeriesLessons(ctx context.Context, seriesID string) ([]lesson.Lesson, error) {
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	rows, err := s.conn.Query(ctx, "SELECT "+lessonColumns+lessonFrom+" WHERE l.series_id = $1 ORDER BY l.start_at", seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to list series lessons: %w", err)
	}
	defer rows.Close()

	var lessons []lesson.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachStudents(ctx, s.conn, lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

// ListStudentLessons returns the per-student projection ordered by start time.
func (s *LessonStore) ListStudentLessons(ctx context.Context, studentID string, filter lesson.StudentFilter) ([]lesson.StudentLesson, error) {
	ctx, cancel := s.conn.withTimeout(ctx)
	defer cancel()

	conditions := []string{"ls.student_id = $1"}
	args := []interface{}{studentID}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("l.teacher_id = $%d", len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("l.subject_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("l.start_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("l.start_at < $%d", len(args)))
	}

	query := `
		SELECT l.id::text, ls.student_id::text, l.teacher_id::text, COALESCE(u.display_name, ''),
			   l.subject_id::text, COALESCE(s.name, ''), l.start_at, l.status, l.cancelled_by,
			   l.cancellation_reason, ls.price_rub, ls.attendance, ls.payment_status, ls.rating
		FROM lesson_students ls
		JOIN lessons l ON l.id = ls.lesson_id
		LEFT JOIN users u ON u.id = l.teacher_id
		LEFT JOIN subjects s ON s.id = l.subject_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY l.start_at`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list student lessons: %w", err)
	}
	defer rows.Close()

	out := make([]lesson.StudentLesson, 0)
	for rows.Next() {
		var (
			sl                          lesson.StudentLesson
			status, attendance, payment string
			cancelledBy, reason         *string
			rating                      *int16
		)
		if err := rows.Scan(
			&sl.LessonID,
			&sl.StudentID,
			&sl.TeacherID,
			&sl.TeacherName,
			&sl.SubjectID,
			&sl.SubjectName,
			&sl.StartAt,
			&status,
			&cancelledBy,
			&reason,
			&sl.PriceRub,
			&attendance,
			&payment,
			&rating,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student lesson: %w", err)
		}
		sl.Status = lesson.Status(status)
		sl.CancelledBy = toCancelledBy(cancelledBy)
		sl.CancellationReason = toReason(reason)
		sl.Attendance = lesson.Attendance(attendance)
		sl.PaymentStatus = lesson.PaymentStatus(payment)
		sl.Rating = toRating(rating)
		out = append(out, sl)
	}
	return out, rows.Err()
}

func (s *LessonStore) attachStudents(ctx context.Context, q Querier, lessons []lesson.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	ids := make([]string, len(lessons))
	index := make(map[string]int, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
		index[l.ID] = i
		lessons[i].Students = make([]lesson.LessonStudent, 0)
	}

	rows, err := q.Query(ctx, `
		SELECT lesson_id::text, student_id::text, price_rub, attendance, payment_status, rating
		FROM lesson_students
		WHERE lesson_id = ANY($1::uuid[])
		ORDER BY lesson_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to load lesson students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ls                  lesson.LessonStudent
			attendance, payment string
			rating              *int16
		)
		if err := rows.Scan(&ls.LessonID, &ls.StudentID, &ls.PriceRub, &attendance, &payment, &rating); err != nil {
			return fmt.Errorf("failed to scan lesson student: %w", err)
		}
		ls.Attendance = lesson.Attendance(attendance)
		ls.PaymentStatus = lesson.PaymentStatus(payment)
		ls.Rating = toRating(rating)

		i := index[ls.LessonID]
		lessons[i].Students = append(lessons[i].Students, ls)
	}
	return rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITES
// ══════════════════════════════════════════════════════════════════════════════

// SaveCreatePlan inserts the series, its roster and every generated lesson.
func (s *LessonStore) SaveCreatePlan(ctx context.Context, plan *recurrence.CreatePlan) error {
	err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := insertSeries(ctx, tx, plan.Series); err != nil {
			return err
		}
		if err := insertSeriesRoster(ctx, tx, plan.Series.ID, plan.Roster); err != nil {
			return err
		}
		return copyLessons(ctx, tx, plan.Lessons)
	})
	if err != nil {
		return fmt.Errorf("failed to save series %s: %w", plan.Series.ID, writeError(err))
	}

	s.log.Info("series created",
		logger.SeriesID(plan.Series.ID),
		logger.TeacherID(plan.Series.TeacherID),
		logger.Occurrences(len(plan.Lessons)),
	)
	return nil
}

// ApplyConversion stores a new series around an existing lesson.
func (s *LessonStore) ApplyConversion(ctx context.Context, plan *recurrence.ConvertPlan) error {
	err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := lockLesson(ctx, tx, plan.First.ID); err != nil {
			return err
		}
		if err := insertSeries(ctx, tx, plan.Series); err != nil {
			return err
		}
		if err := insertSeriesRoster(ctx, tx, plan.Series.ID, plan.Roster); err != nil {
			return err
		}
		if err := updateLesson(ctx, tx, plan.First, plan.Version); err != nil {
			return err
		}
		if err := replaceLessonStudents(ctx, tx, plan.First); err != nil {
			return err
		}
		return copyLessons(ctx, tx, plan.Generated)
	})
	if err != nil {
		return fmt.Errorf("failed to convert lesson %s: %w", plan.First.ID, writeError(err))
	}

	s.log.Info("lesson converted to series",
		logger.LessonID(plan.First.ID),
		logger.SeriesID(plan.Series.ID),
		logger.Occurrences(len(plan.Generated)+1),
	)
	return nil
}

// ApplyUpdate writes the target lesson in full and only the series-shared
// columns of the other lessons, together with every roster in the plan.
// Writes to one series are serialised with a row lock on the series; a lesson
// whose updated_at moved past its plan version fails the whole update with
// shared.ErrLessonModified.
func (s *LessonStore) ApplyUpdate(ctx context.Context, plan *recurrence.UpdatePlan) error {
	err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := lockTarget(ctx, tx, plan.SeriesID, plan.TargetID); err != nil {
			return err
		}
		for _, l := range plan.Lessons {
			version := plan.Versions[l.ID]
			if l.ID == plan.TargetID {
				if err := updateLesson(ctx, tx, l, version); err != nil {
					return err
				}
			} else if err := updateSharedColumns(ctx, tx, l, version); err != nil {
				return err
			}
			if err := replaceLessonStudents(ctx, tx, l); err != nil {
				return err
			}
		}
		if plan.Series != nil {
			if err := updateSeries(ctx, tx, *plan.Series); err != nil {
				return err
			}
		}
		if plan.SeriesRoster != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM series_students WHERE series_id = $1`, plan.SeriesID); err != nil {
				return fmt.Errorf("failed to clear series roster: %w", err)
			}
			if err := insertSeriesRoster(ctx, tx, plan.SeriesID, plan.SeriesRoster); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply update to lesson %s: %w", plan.TargetID, writeError(err))
	}

	s.log.Debug("scoped update applied",
		logger.LessonID(plan.TargetID),
		logger.SeriesID(plan.SeriesID),
		logger.Scope(string(plan.Scope)),
		zap.Int("lessons", len(plan.Lessons)),
	)
	return nil
}

// ApplyDelete removes the lessons matched by the plan and, for scope all, the series.
func (s *LessonStore) ApplyDelete(ctx context.Context, plan *recurrence.DeletePlan) (*recurrence.DeleteResult, error) {
	where, args := deleteCondition(plan)
	result := &recurrence.DeleteResult{}

	err := s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := lockTarget(ctx, tx, plan.SeriesID, plan.LessonID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT DISTINCT ls.student_id::text
			FROM lesson_students ls
			JOIN lessons l ON l.id = ls.lesson_id
			WHERE `+where, args...)
		if err != nil {
			return fmt.Errorf("failed to collect affected students: %w", err)
		}
		studentIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to scan affected students: %w", err)
		}
		result.StudentIDs = studentIDs

		tag, err := tx.Exec(ctx, `DELETE FROM lessons l WHERE `+where, args...)
		if err != nil {
			return fmt.Errorf("failed to delete lessons: %w", err)
		}
		result.LessonsDeleted = int(tag.RowsAffected())

		if plan.DeleteSeries {
			if _, err := tx.Exec(ctx, `DELETE FROM lesson_series WHERE id = $1`, plan.SeriesID); err != nil {
				return fmt.Errorf("failed to delete series: %w", err)
			}
			result.SeriesDeleted = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply delete for lesson %s: %w", plan.LessonID, err)
	}

	s.log.Info("lessons deleted",
		logger.LessonID(plan.LessonID),
		logger.SeriesID(plan.SeriesID),
		logger.Scope(string(plan.Scope)),
		zap.Int("lessons", result.LessonsDeleted),
		zap.Bool("series_deleted", result.SeriesDeleted),
	)
	return result, nil
}

func deleteCondition(plan *recurrence.DeletePlan) (string, []interface{}) {
	switch plan.Scope {
	case recurrence.ScopeFuture:
		return "l.series_id = $1 AND l.start_at >= $2", []interface{}{plan.SeriesID, plan.From}
	case recurrence.ScopeAll:
		return "l.series_id = $1", []interface{}{plan.SeriesID}
	default:
		return "l.id = $1", []interface{}{plan.LessonID}
	}
}

// lockTarget takes a row lock on the series, or on the lesson when it has no series.
func lockTarget(ctx context.Context, tx pgx.Tx, seriesID, lessonID string) error {
	if seriesID == "" {
		return lockLesson(ctx, tx, lessonID)
	}
	var id string
	err := tx.QueryRow(ctx, `SELECT id::text FROM lesson_series WHERE id = $1 FOR UPDATE`, seriesID).Scan(&id)
	if IsNoRows(err) {
		return shared.ErrSeriesNotFound
	}
	return err
}

func lockLesson(ctx context.Context, tx pgx.Tx, lessonID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id::text FROM lessons WHERE id = $1 FOR UPDATE`, lessonID).Scan(&id)
	if IsNoRows(err) {
		return shared.ErrLessonNotFound
	}
	return err
}

func insertSeries(ctx context.Context, tx pgx.Tx, series lesson.Series) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lesson_series (
			id, teacher_id, subject_id, frequency, day_of_week, time_of_day, duration_minutes,
			price_rub, is_free, max_occurrences, end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		series.ID,
		series.TeacherID,
		series.SubjectID,
		string(series.Frequency),
		series.DayOfWeek,
		series.TimeOfDay,
		series.DurationMinutes,
		series.PriceRub,
		series.IsFree,
		series.MaxOccurrences,
		series.EndDate,
		series.CreatedAt,
		series.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert series: %w", err)
	}
	return nil
}

func updateSeries(ctx context.Context, tx pgx.Tx, series lesson.Series) error {
	tag, err := tx.Exec(ctx, `
		UPDATE lesson_series
		SET subject_id = $2, duration_minutes = $3, price_rub = $4, is_free = $5, updated_at = $6
		WHERE id = $1`,
		series.ID,
		series.SubjectID,
		series.DurationMinutes,
		series.PriceRub,
		series.IsFree,
		series.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update series: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrSeriesNotFound
	}
	return nil
}

func insertSeriesRoster(ctx context.Context, tx pgx.Tx, seriesID string, roster []lesson.SeriesStudent) error {
	if len(roster) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, r := range roster {
		batch.Queue(`INSERT INTO series_students (series_id, student_id, price_rub, position) VALUES ($1, $2, $3, $4)`,
			seriesID, r.StudentID, r.PriceRub, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert series roster: %w", err)
	}
	return nil
}

// copyLessons bulk-inserts new lessons and their students with COPY.
func copyLessons(ctx context.Context, tx pgx.Tx, lessons []lesson.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}

	lessonRows := make([][]interface{}, 0, len(lessons))
	var studentRows [][]interface{}
	for _, l := range lessons {
		lessonRows = append(lessonRows, []interface{}{
			l.ID, l.TeacherID, l.SubjectID, l.SeriesID, l.StartAt, l.DurationMinutes, l.PriceRub,
			l.IsFree, string(l.Status), l.TeacherNote, l.StudentNote, l.Report, l.CreatedAt, l.UpdatedAt,
		})
		for i, st := range l.Students {
			studentRows = append(studentRows, studentRow(l.ID, st, i))
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"lessons"},
		[]string{"id", "teacher_id", "subject_id", "series_id", "start_at", "duration_minutes", "price_rub",
			"is_free", "status", "teacher_note", "student_note", "report", "created_at", "updated_at"},
		pgx.CopyFromRows(lessonRows),
	); err != nil {
		return fmt.Errorf("failed to copy lessons: %w", err)
	}

	if len(studentRows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"lesson_students"},
		lessonStudentColumns,
		pgx.CopyFromRows(studentRows),
	); err != nil {
		return fmt.Errorf("failed to copy lesson students: %w", err)
	}
	return nil
}

var lessonStudentColumns = []string{"lesson_id", "student_id", "price_rub", "attendance", "payment_status", "rating", "position"}

func studentRow(lessonID string, st lesson.LessonStudent, position int) []interface{} {
	var rating *int16
	if st.Rating != nil {
		r := int16(*st.Rating)
		rating = &r
	}
	return []interface{}{lessonID, st.StudentID, st.PriceRub, string(st.Attendance), string(st.PaymentStatus), rating, position}
}

// updateLesson rewrites every column of a lesson. A zero version skips the
// updated_at check.
func updateLesson(ctx context.Context, tx pgx.Tx, l lesson.Lesson, version time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE lessons
		SET subject_id = $2, series_id = $3, start_at = $4, duration_minutes = $5, price_rub = $6,
			is_free = $7, status = $8, cancelled_by = $9, cancellation_reason = $10,
			teacher_note = $11, student_note = $12, report = $13, updated_at = $14
		WHERE id = $1 AND ($15::timestamptz IS NULL OR updated_at = $15)`,
		l.ID,
		l.SubjectID,
		l.SeriesID,
		l.StartAt,
		l.DurationMinutes,
		l.PriceRub,
		l.IsFree,
		string(l.Status),
		fromCancelledBy(l.CancelledBy),
		fromReason(l.CancellationReason),
		l.TeacherNote,
		l.StudentNote,
		l.Report,
		l.UpdatedAt,
		versionArg(version),
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson %s: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return missedUpdate(ctx, tx, l.ID)
	}
	return nil
}

// updateSharedColumns writes only the fields a scoped edit carries across a series.
func updateSharedColumns(ctx context.Context, tx pgx.Tx, l lesson.Lesson, version time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE lessons
		SET subject_id = $2, duration_minutes = $3, price_rub = $4, is_free = $5, updated_at = $6
		WHERE id = $1 AND ($7::timestamptz IS NULL OR updated_at = $7)`,
		l.ID,
		l.SubjectID,
		l.DurationMinutes,
		l.PriceRub,
		l.IsFree,
		l.UpdatedAt,
		versionArg(version),
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson %s: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return missedUpdate(ctx, tx, l.ID)
	}
	return nil
}

func versionArg(version time.Time) *time.Time {
	if version.IsZero() {
		return nil
	}
	return &version
}

// missedUpdate tells a deleted lesson from one changed by another writer.
func missedUpdate(ctx context.Context, tx pgx.Tx, lessonID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`, lessonID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check lesson %s: %w", lessonID, err)
	}
	if !exists {
		return shared.ErrLessonNotFound
	}
	return shared.ErrLessonModified
}

// writeError maps constraint violations to invalid-input errors.
func writeError(err error) error {
	switch {
	case IsCheckViolation(err):
		return shared.WrapError("lesson", "Save", shared.ErrInvalidInput, "value violates a check constraint", err)
	case IsForeignKeyViolation(err):
		return shared.WrapError("lesson", "Save", shared.ErrInvalidInput, "unknown teacher, subject or student", err)
	}
	return err
}

// replaceLessonStudents rewrites the roster rows of one lesson.
func replaceLessonStudents(ctx context.Context, tx pgx.Tx, l lesson.Lesson) error {
	if _, err := tx.Exec(ctx, `DELETE FROM lesson_students WHERE lesson_id = $1`, l.ID); err != nil {
		return fmt.Errorf("failed to clear lesson students: %w", err)
	}
	if len(l.Students) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(l.Students))
	for i, st := range l.Students {
		rows = append(rows, studentRow(l.ID, st, i))
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"lesson_students"}, lessonStudentColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to insert lesson students: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func scanLesson(row pgx.Row) (lesson.Lesson, error) {
	var (
		l                   lesson.Lesson
		status              string
		cancelledBy, reason *string
		createdAt           time.Time
		updatedAt           time.Time
	)
	err := row.Scan(
		&l.ID,
		&l.TeacherID,
		&l.TeacherName,
		&l.SubjectID,
		&l.SubjectName,
		&l.SeriesID,
		&l.StartAt,
		&l.DurationMinutes,
		&l.PriceRub,
		&l.IsFree,
		&status,
		&cancelledBy,
		&reason,
		&l.TeacherNote,
		&l.StudentNote,
		&l.Report,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return lesson.Lesson{}, err
	}
	l.Status = lesson.Status(status)
	l.CancelledBy = toCancelledBy(cancelledBy)
	l.CancellationReason = toReason(reason)
	l.CreatedAt = createdAt
	l.UpdatedAt = updatedAt
	return l, nil
}

func toCancelledBy(v *string) *lesson.CancelledBy {
	if v == nil {
		return nil
	}
	by := lesson.CancelledBy(*v)
	return &by
}

func toReason(v *string) *lesson.CancellationReason {
	if v == nil {
		return nil
	}
	reason := lesson.CancellationReason(*v)
	return &reason
}

func fromCancelledBy(v *lesson.CancelledBy) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func fromReason(v *lesson.CancellationReason) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toRating(v *int16) *int {
	if v == nil {
		return nil
	}
	r := int(*v)
	return &r
}
