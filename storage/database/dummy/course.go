package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core/course"
)

type courseRepository struct {
	db *courseTables
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.course}
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; ok {
		return course.Course{}, errors.Errorf("course %s already exists", c.ID)
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range repo.db.courses {
		if filter.OrganizationID != "" && c.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.SharedOnly && !c.ShareWithChildren {
			continue
		}
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) TransitionCourseStatus(ctx context.Context, id string, from, to course.Status) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.courses[id]
	if !ok || c.Status != from {
		return course.ErrStatusChanged
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Lessons

func (repo *courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return *l, nil
	}
	return course.Lesson{}, course.ErrNotFound
}

func (repo *courseRepository) QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]course.Lesson, 0)
	for _, l := range repo.db.lessons {
		if l.CourseID == courseID {
			lessons = append(lessons, *l)
		}
	}
	course.SortLessons(lessons)
	return lessons, nil
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[l.ID]; !ok {
		return course.Lesson{}, course.ErrNotFound
	}
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[id]; !ok {
		return course.ErrNotFound
	}
	for qid, q := range repo.db.questions {
		if q.LessonID == id {
			delete(repo.db.questions, qid)
		}
	}
	for k, a := range repo.db.answers {
		if a.LessonID == id {
			delete(repo.db.answers, k)
		}
	}
	for k := range repo.db.attendance {
		if k.lessonID == id {
			delete(repo.db.attendance, k)
		}
	}
	for k := range repo.db.completions {
		if k.id == id {
			delete(repo.db.completions, k)
		}
	}
	delete(repo.db.lessons, id)
	return nil
}

// Questions & Answers

func (repo *courseRepository) CreateQuestion(ctx context.Context, q course.QuizQuestion) (course.QuizQuestion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.Options = append([]string(nil), q.Options...)
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *courseRepository) GetQuestion(ctx context.Context, id string) (course.QuizQuestion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return copyQuestion(*q), nil
	}
	return course.QuizQuestion{}, course.ErrNotFound
}

func (repo *courseRepository) QueryQuestions(ctx context.Context, lessonID string) ([]course.QuizQuestion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]course.QuizQuestion, 0)
	for _, q := range repo.db.questions {
		if q.LessonID == lessonID {
			questions = append(questions, copyQuestion(*q))
		}
	}
	course.SortQuestions(questions)
	return questions, nil
}

func (repo *courseRepository) InsertAnswer(ctx context.Context, a course.QuizAnswer) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := memberKey{a.QuestionID, a.MemberID}
	if _, ok := repo.db.answers[key]; ok {
		return course.ErrAlreadyAnswered
	}
	repo.db.answers[key] = &a
	return nil
}

func (repo *courseRepository) QueryAnswers(ctx context.Context, lessonID, memberID string) ([]course.QuizAnswer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	answers := make([]course.QuizAnswer, 0)
	for _, a := range repo.db.answers {
		if a.LessonID == lessonID && (memberID == "" || a.MemberID == memberID) {
			answers = append(answers, *a)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].AnsweredAt.Before(answers[j].AnsweredAt) })
	return answers, nil
}

// Attendance

func (repo *courseRepository) UpsertAttendance(ctx context.Context, rec course.AttendanceRecord) (course.AttendanceRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.attendance[attendanceKey{rec.LessonID, rec.MemberID, rec.Date}] = &rec
	return rec, nil
}

func (repo *courseRepository) QueryAttendance(ctx context.Context, lessonID, memberID string) ([]course.AttendanceRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]course.AttendanceRecord, 0)
	for k, rec := range repo.db.attendance {
		if k.lessonID == lessonID && (memberID == "" || k.memberID == memberID) {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *courseRepository) DeleteAttendance(ctx context.Context, lessonID, memberID string, date time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	delete(repo.db.attendance, attendanceKey{lessonID, memberID, date})
	return nil
}

// Completions

func (repo *courseRepository) UpsertCompletion(ctx context.Context, c course.LessonCompletion) (course.LessonCompletion, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := memberKey{c.LessonID, c.MemberID}
	if existing, ok := repo.db.completions[key]; ok {
		return *existing, false, nil
	}
	repo.db.completions[key] = &c
	return c, true, nil
}

func (repo *courseRepository) GetCompletion(ctx context.Context, lessonID, memberID string) (course.LessonCompletion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.completions[memberKey{lessonID, memberID}]; ok {
		return *c, nil
	}
	return course.LessonCompletion{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCompletions(ctx context.Context, filter course.CompletionFilter) ([]course.LessonCompletion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	comps := make([]course.LessonCompletion, 0)
	for _, c := range repo.db.completions {
		if filter.CourseID != "" && c.CourseID != filter.CourseID {
			continue
		}
		if filter.LessonID != "" && c.LessonID != filter.LessonID {
			continue
		}
		if filter.MemberID != "" && c.MemberID != filter.MemberID {
			continue
		}
		comps = append(comps, *c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].CompletedAt.Before(comps[j].CompletedAt) })
	return comps, nil
}

func (repo *courseRepository) DeleteCompletion(ctx context.Context, lessonID, memberID string, origin course.Origin) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := memberKey{lessonID, memberID}
	if c, ok := repo.db.completions[key]; ok && c.Origin == origin {
		delete(repo.db.completions, key)
		return true, nil
	}
	return false, nil
}

func (repo *courseRepository) PromoteCompletion(ctx context.Context, lessonID, memberID string, from, to course.Origin) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c, ok := repo.db.completions[memberKey{lessonID, memberID}]; ok && c.Origin == from {
		c.Origin = to
		return true, nil
	}
	return false, nil
}

// Enrollments

func (repo *courseRepository) UpsertEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := memberKey{e.CourseID, e.MemberID}
	if existing, ok := repo.db.enrollments[key]; ok {
		return *existing, nil
	}
	repo.db.enrollments[key] = &e
	return e, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, memberID string) (course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.enrollments[memberKey{courseID, memberID}]; ok {
		return *e, nil
	}
	return course.Enrollment{}, course.ErrNotFound
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if e.CourseID == courseID {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool {
		if !enrollments[i].EnrolledAt.Equal(enrollments[j].EnrolledAt) {
			return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
		}
		return enrollments[i].MemberID < enrollments[j].MemberID
	})
	return enrollments, nil
}

func copyQuestion(q course.QuizQuestion) course.QuizQuestion {
	q.Options = append([]string(nil), q.Options...)
	return q
}
