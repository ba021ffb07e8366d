package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecclesia/core/course"
)

type (
	courseRepository struct {
		db *sqlx.DB
	}

	courseRow struct {
		ID                string      `db:"id"`
		OrganizationID    string      `db:"organization_id"`
		TeacherID         null.String `db:"teacher_id"`
		Title             string      `db:"title"`
		Description       string      `db:"description"`
		ShareWithChildren bool        `db:"share_with_children"`
		Status            string      `db:"status"`
		CreatedAt         time.Time   `db:"created_at"`
		UpdatedAt         time.Time   `db:"updated_at"`
	}

	lessonRow struct {
		ID            string    `db:"id"`
		CourseID      string    `db:"course_id"`
		Title         string    `db:"title"`
		Content       string    `db:"content"`
		Type          string    `db:"lesson_type"`
		Order         int       `db:"sort_order"`
		PassThreshold null.Int  `db:"pass_threshold"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
	}

	questionRow struct {
		ID           string    `db:"id"`
		LessonID     string    `db:"lesson_id"`
		Prompt       string    `db:"prompt"`
		Options      string    `db:"options"`
		CorrectIndex int       `db:"correct_index"`
		Points       int       `db:"points"`
		Order        int       `db:"sort_order"`
		CreatedAt    time.Time `db:"created_at"`
	}

	answerRow struct {
		QuestionID    string    `db:"question_id"`
		LessonID      string    `db:"lesson_id"`
		MemberID      string    `db:"member_id"`
		ChosenIndex   int       `db:"chosen_index"`
		Correct       bool      `db:"correct"`
		PointsAwarded int       `db:"points_awarded"`
		AnsweredAt    time.Time `db:"answered_at"`
	}

	attendanceRow struct {
		LessonID   string    `db:"lesson_id"`
		MemberID   string    `db:"member_id"`
		Day        string    `db:"day"`
		Present    bool      `db:"present"`
		RecordedBy string    `db:"recorded_by"`
		UpdatedAt  time.Time `db:"updated_at"`
	}

	completionRow struct {
		LessonID    string    `db:"lesson_id"`
		CourseID    string    `db:"course_id"`
		MemberID    string    `db:"member_id"`
		Origin      string    `db:"origin"`
		CompletedAt time.Time `db:"completed_at"`
	}

	enrollmentRow struct {
		CourseID   string    `db:"course_id"`
		MemberID   string    `db:"member_id"`
		EnrolledAt time.Time `db:"enrolled_at"`
	}
)

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

const (
	courseColumns     = "id, organization_id, teacher_id, title, description, share_with_children, status, created_at, updated_at"
	lessonColumns     = "id, course_id, title, content, lesson_type, sort_order, pass_threshold, created_at, updated_at"
	questionColumns   = "id, lesson_id, prompt, options, correct_index, points, sort_order, created_at"
	answerColumns     = "question_id, lesson_id, member_id, chosen_index, correct, points_awarded, answered_at"
	attendanceColumns = "lesson_id, member_id, day, present, recorded_by, updated_at"
	completionColumns = "lesson_id, course_id, member_id, origin, completed_at"
	enrollmentColumns = "course_id, member_id, enrolled_at"
)

// Courses

func newCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:                c.ID,
		OrganizationID:    c.OrganizationID,
		TeacherID:         null.NewString(c.TeacherID, c.TeacherID != ""),
		Title:             c.Title,
		Description:       c.Description,
		ShareWithChildren: c.ShareWithChildren,
		Status:            string(c.Status),
		CreatedAt:         c.CreatedAt.UTC(),
		UpdatedAt:         c.UpdatedAt.UTC(),
	}
}

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:                r.ID,
		OrganizationID:    r.OrganizationID,
		TeacherID:         r.TeacherID.String,
		Title:             r.Title,
		Description:       r.Description,
		ShareWithChildren: r.ShareWithChildren,
		Status:            course.Status(r.Status),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := newCourseRow(c)
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO course (`+courseColumns+`) VALUES (
		:id, :organization_id, :teacher_id, :title, :description, :share_with_children, :status, :created_at, :updated_at)`, row)
	if err != nil {
		return course.Course{}, wrap(err, "inserting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+courseColumns+" FROM course WHERE id = ?"), id)
	if err != nil {
		return course.Course{}, notFound(err, course.ErrNotFound, "selecting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.OrganizationID != "" {
		conds = append(conds, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}
	if filter.SharedOnly {
		conds = append(conds, "share_with_children = ?")
		args = append(args, true)
	}

	q := "SELECT " + courseColumns + " FROM course"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at, id"

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := newCourseRow(c)
	res, err := repo.db.NamedExecContext(ctx, `UPDATE course SET teacher_id = :teacher_id, title = :title,
		description = :description, share_with_children = :share_with_children, status = :status,
		updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return course.Course{}, wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) TransitionCourseStatus(ctx context.Context, id string, from, to course.Status) error {
	res, err := repo.db.ExecContext(ctx,
		repo.db.Rebind("UPDATE course SET status = ?, updated_at = ? WHERE id = ? AND status = ?"),
		string(to), time.Now().UTC(), id, string(from),
	)
	if err != nil {
		return wrap(err, "updating course status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(err, "updating course status")
	}
	if n == 0 {
		return course.ErrStatusChanged
	}
	return nil
}

// Lessons

func newLessonRow(l course.Lesson) lessonRow {
	return lessonRow{
		ID:            l.ID,
		CourseID:      l.CourseID,
		Title:         l.Title,
		Content:       l.Content,
		Type:          string(l.Type),
		Order:         l.Order,
		PassThreshold: null.NewInt(l.PassThreshold, l.IsQuiz()),
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
	}
}

func (r lessonRow) toLesson() course.Lesson {
	return course.Lesson{
		ID:            r.ID,
		CourseID:      r.CourseID,
		Title:         r.Title,
		Content:       r.Content,
		Type:          course.LessonType(r.Type),
		Order:         r.Order,
		PassThreshold: r.PassThreshold.Int,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (repo *courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	row := newLessonRow(l)
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO lesson (`+lessonColumns+`) VALUES (
		:id, :course_id, :title, :content, :lesson_type, :sort_order, :pass_threshold, :created_at, :updated_at)`, row)
	if err != nil {
		return course.Lesson{}, wrap(err, "inserting lesson")
	}
	return row.toLesson(), nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+lessonColumns+" FROM lesson WHERE id = ?"), id)
	if err != nil {
		return course.Lesson{}, notFound(err, course.ErrNotFound, "selecting lesson")
	}
	return row.toLesson(), nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error) {
	var rows []lessonRow
	q := "SELECT " + lessonColumns + " FROM lesson WHERE course_id = ? ORDER BY sort_order, created_at, id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), courseID); err != nil {
		return nil, wrap(err, "selecting lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.toLesson())
	}
	return lessons, nil
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	row := newLessonRow(l)
	res, err := repo.db.NamedExecContext(ctx, `UPDATE lesson SET title = :title, content = :content,
		sort_order = :sort_order, pass_threshold = :pass_threshold, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return course.Lesson{}, wrap(err, "updating lesson")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Lesson{}, course.ErrNotFound
	}
	return repo.GetLesson(ctx, l.ID)
}

// DeleteLesson deletes the lesson with its questions, answers, attendance and completions.
func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, q := range []string{
			"DELETE FROM quiz_answer WHERE lesson_id = ?",
			"DELETE FROM quiz_question WHERE lesson_id = ?",
			"DELETE FROM attendance WHERE lesson_id = ?",
			"DELETE FROM lesson_completion WHERE lesson_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), id); err != nil {
				return wrap(err, "deleting lesson dependents")
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM lesson WHERE id = ?"), id)
		if err != nil {
			return wrap(err, "deleting lesson")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return course.ErrNotFound
		}
		return nil
	})
}

// Questions & Answers

func (r questionRow) toQuestion() (course.QuizQuestion, error) {
	var options []string
	if err := json.Unmarshal([]byte(r.Options), &options); err != nil {
		return course.QuizQuestion{}, errors.Wrapf(err, "decoding options of question %s", r.ID)
	}
	return course.QuizQuestion{
		ID:           r.ID,
		LessonID:     r.LessonID,
		Prompt:       r.Prompt,
		Options:      options,
		CorrectIndex: r.CorrectIndex,
		Points:       r.Points,
		Order:        r.Order,
		CreatedAt:    r.CreatedAt.UTC(),
	}, nil
}

func (repo *courseRepository) CreateQuestion(ctx context.Context, q course.QuizQuestion) (course.QuizQuestion, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return course.QuizQuestion{}, errors.Wrap(err, "encoding options")
	}
	row := questionRow{
		ID:           q.ID,
		LessonID:     q.LessonID,
		Prompt:       q.Prompt,
		Options:      string(options),
		CorrectIndex: q.CorrectIndex,
		Points:       q.Points,
		Order:        q.Order,
		CreatedAt:    q.CreatedAt.UTC(),
	}
	_, err = repo.db.NamedExecContext(ctx, `INSERT INTO quiz_question (`+questionColumns+`) VALUES (
		:id, :lesson_id, :prompt, :options, :correct_index, :points, :sort_order, :created_at)`, row)
	if err != nil {
		return course.QuizQuestion{}, wrap(err, "inserting question")
	}
	return row.toQuestion()
}

func (repo *courseRepository) GetQuestion(ctx context.Context, id string) (course.QuizQuestion, error) {
	var row questionRow
	err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT "+questionColumns+" FROM quiz_question WHERE id = ?"), id)
	if err != nil {
		return course.QuizQuestion{}, notFound(err, course.ErrNotFound, "selecting question")
	}
	return row.toQuestion()
}

func (repo *courseRepository) QueryQuestions(ctx context.Context, lessonID string) ([]course.QuizQuestion, error) {
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM quiz_question WHERE lesson_id = ? ORDER BY sort_order, created_at"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), lessonID); err != nil {
		return nil, wrap(err, "selecting questions")
	}
	questions := make([]course.QuizQuestion, 0, len(rows))
	for _, row := range rows {
		question, err := row.toQuestion()
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// InsertAnswer returns course.ErrAlreadyAnswered when the member already answered the question.
func (repo *courseRepository) InsertAnswer(ctx context.Context, a course.QuizAnswer) error {
	row := answerRow{
		QuestionID:    a.QuestionID,
		LessonID:      a.LessonID,
		MemberID:      a.MemberID,
		ChosenIndex:   a.ChosenIndex,
		Correct:       a.Correct,
		PointsAwarded: a.PointsAwarded,
		AnsweredAt:    a.AnsweredAt.UTC(),
	}
	res, err := repo.db.NamedExecContext(ctx, `INSERT INTO quiz_answer (`+answerColumns+`) VALUES (
		:question_id, :lesson_id, :member_id, :chosen_index, :correct, :points_awarded, :answered_at)
		ON CONFLICT (question_id, member_id) DO NOTHING`, row)
	if err != nil {
		return wrap(err, "inserting answer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(err, "inserting answer")
	}
	if n == 0 {
		return course.ErrAlreadyAnswered
	}
	return nil
}

func (repo *courseRepository) QueryAnswers(ctx context.Context, lessonID, memberID string) ([]course.QuizAnswer, error) {
	q := "SELECT " + answerColumns + " FROM quiz_answer WHERE lesson_id = ?"
	args := []interface{}{lessonID}
	if memberID != "" {
		q += " AND member_id = ?"
		args = append(args, memberID)
	}
	q += " ORDER BY answered_at"

	var rows []answerRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrap(err, "selecting answers")
	}
	answers := make([]course.QuizAnswer, 0, len(rows))
	for _, r := range rows {
		answers = append(answers, course.QuizAnswer{
			QuestionID:    r.QuestionID,
			LessonID:      r.LessonID,
			MemberID:      r.MemberID,
			ChosenIndex:   r.ChosenIndex,
			Correct:       r.Correct,
			PointsAwarded: r.PointsAwarded,
			AnsweredAt:    r.AnsweredAt.UTC(),
		})
	}
	return answers, nil
}

// Attendance

func (r attendanceRow) toRecord() (course.AttendanceRecord, error) {
	day, err := time.Parse(dayLayout, r.Day)
	if err != nil {
		return course.AttendanceRecord{}, errors.Wrapf(err, "parsing attendance day %q", r.Day)
	}
	return course.AttendanceRecord{
		LessonID:   r.LessonID,
		MemberID:   r.MemberID,
		Date:       day,
		Present:    r.Present,
		RecordedBy: r.RecordedBy,
		UpdatedAt:  r.UpdatedAt.UTC(),
	}, nil
}

func (repo *courseRepository) UpsertAttendance(ctx context.Context, rec course.AttendanceRecord) (course.AttendanceRecord, error) {
	row := attendanceRow{
		LessonID:   rec.LessonID,
		MemberID:   rec.MemberID,
		Day:        rec.Date.UTC().Format(dayLayout),
		Present:    rec.Present,
		RecordedBy: rec.RecordedBy,
		UpdatedAt:  rec.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO attendance (`+attendanceColumns+`) VALUES (
		:lesson_id, :member_id, :day, :present, :recorded_by, :updated_at)
		ON CONFLICT (lesson_id, member_id, day) DO UPDATE SET
		present = excluded.present, recorded_by = excluded.recorded_by, updated_at = excluded.updated_at`, row)
	if err != nil {
		return course.AttendanceRecord{}, wrap(err, "upserting attendance")
	}
	return row.toRecord()
}

func (repo *courseRepository) QueryAttendance(ctx context.Context, lessonID, memberID string) ([]course.AttendanceRecord, error) {
	q := "SELECT " + attendanceColumns + " FROM attendance WHERE lesson_id = ?"
	args := []interface{}{lessonID}
	if memberID != "" {
		q += " AND member_id = ?"
		args = append(args, memberID)
	}
	q += " ORDER BY day, member_id"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrap(err, "selecting attendance")
	}
	records := make([]course.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (repo *courseRepository) DeleteAttendance(ctx context.Context, lessonID, memberID string, date time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		repo.db.Rebind("DELETE FROM attendance WHERE lesson_id = ? AND member_id = ? AND day = ?"),
		lessonID, memberID, date.UTC().Format(dayLayout),
	)
	return wrap(err, "deleting attendance")
}

// Completions

func (r completionRow) toCompletion() course.LessonCompletion {
	return course.LessonCompletion{
		LessonID:    r.LessonID,
		CourseID:    r.CourseID,
		MemberID:    r.MemberID,
		Origin:      course.Origin(r.Origin),
		CompletedAt: r.CompletedAt.UTC(),
	}
}

// UpsertCompletion inserts the completion unless the member already completed the lesson,
// in which case the stored one is returned untouched.
func (repo *courseRepository) UpsertCompletion(ctx context.Context, c course.LessonCompletion) (course.LessonCompletion, bool, error) {
	row := completionRow{
		LessonID:    c.LessonID,
		CourseID:    c.CourseID,
		MemberID:    c.MemberID,
		Origin:      string(c.Origin),
		CompletedAt: c.CompletedAt.UTC(),
	}
	res, err := repo.db.NamedExecContext(ctx, `INSERT INTO lesson_completion (`+completionColumns+`) VALUES (
		:lesson_id, :course_id, :member_id, :origin, :completed_at)
		ON CONFLICT (lesson_id, member_id) DO NOTHING`, row)
	if err != nil {
		return course.LessonCompletion{}, false, wrap(err, "inserting completion")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return course.LessonCompletion{}, false, wrap(err, "inserting completion")
	}
	if n > 0 {
		return row.toCompletion(), true, nil
	}
	existing, err := repo.GetCompletion(ctx, c.LessonID, c.MemberID)
	return existing, false, err
}

func (repo *courseRepository) GetCompletion(ctx context.Context, lessonID, memberID string) (course.LessonCompletion, error) {
	var row completionRow
	q := "SELECT " + completionColumns + " FROM lesson_completion WHERE lesson_id = ? AND member_id = ?"
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), lessonID, memberID); err != nil {
		return course.LessonCompletion{}, notFound(err, course.ErrNotFound, "selecting completion")
	}
	return row.toCompletion(), nil
}

func (repo *courseRepository) QueryCompletions(ctx context.Context, filter course.CompletionFilter) ([]course.LessonCompletion, error) {
	var (
		conds []string
		args  []interface{}
	)
	for col, val := range map[string]string{
		"course_id": filter.CourseID,
		"lesson_id": filter.LessonID,
		"member_id": filter.MemberID,
	} {
		if val != "" {
			conds = append(conds, col+" = ?")
			args = append(args, val)
		}
	}

	q := "SELECT " + completionColumns + " FROM lesson_completion"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY completed_at"

	var rows []completionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, wrap(err, "selecting completions")
	}
	comps := make([]course.LessonCompletion, 0, len(rows))
	for _, row := range rows {
		comps = append(comps, row.toCompletion())
	}
	return comps, nil
}

func (repo *courseRepository) DeleteCompletion(ctx context.Context, lessonID, memberID string, origin course.Origin) (bool, error) {
	res, err := repo.db.ExecContext(ctx,
		repo.db.Rebind("DELETE FROM lesson_completion WHERE lesson_id = ? AND member_id = ? AND origin = ?"),
		lessonID, memberID, string(origin),
	)
	if err != nil {
		return false, wrap(err, "deleting completion")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(err, "deleting completion")
	}
	return n > 0, nil
}

func (repo *courseRepository) PromoteCompletion(ctx context.Context, lessonID, memberID string, from, to course.Origin) (bool, error) {
	res, err := repo.db.ExecContext(ctx,
		repo.db.Rebind("UPDATE lesson_completion SET origin = ? WHERE lesson_id = ? AND member_id = ? AND origin = ?"),
		string(to), lessonID, memberID, string(from),
	)
	if err != nil {
		return false, wrap(err, "promoting completion")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(err, "promoting completion")
	}
	return n > 0, nil
}

// Enrollments

func (repo *courseRepository) UpsertEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	row := enrollmentRow{CourseID: e.CourseID, MemberID: e.MemberID, EnrolledAt: e.EnrolledAt.UTC()}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO enrollment (`+enrollmentColumns+`) VALUES (
		:course_id, :member_id, :enrolled_at) ON CONFLICT (course_id, member_id) DO NOTHING`, row)
	if err != nil {
		return course.Enrollment{}, wrap(err, "inserting enrollment")
	}
	return repo.GetEnrollment(ctx, e.CourseID, e.MemberID)
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, memberID string) (course.Enrollment, error) {
	var row enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM enrollment WHERE course_id = ? AND member_id = ?"
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), courseID, memberID); err != nil {
		return course.Enrollment{}, notFound(err, course.ErrNotFound, "selecting enrollment")
	}
	return course.Enrollment{CourseID: row.CourseID, MemberID: row.MemberID, EnrolledAt: row.EnrolledAt.UTC()}, nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	q := "SELECT " + enrollmentColumns + " FROM enrollment WHERE course_id = ? ORDER BY enrolled_at, member_id"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), courseID); err != nil {
		return nil, wrap(err, "selecting enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, course.Enrollment{CourseID: row.CourseID, MemberID: row.MemberID, EnrolledAt: row.EnrolledAt.UTC()})
	}
	return enrollments, nil
}
