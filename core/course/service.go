package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

var (
	// errors
	ErrNotFound           = errors.New("not found")
	ErrLocked             = errors.New("lesson is locked")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrAlreadyCompleted   = errors.New("lesson already completed")
	ErrIncompleteQuiz     = errors.New("all quiz questions must be answered")
	ErrBelowPassThreshold = errors.New("quiz score is below the pass threshold")
	ErrCourseNotOpen      = errors.New("course is not open")
	ErrNotEnrolled        = errors.New("member is not enrolled in this course")
	ErrWrongLessonType    = errors.New("action not supported by this lesson type")
	ErrHasProgress        = errors.New("members already have progress on this content")
	ErrTooManyQuestions   = errors.New("a quiz cannot have more than 10 questions")

	// ErrStatusChanged is returned by Repository.TransitionCourseStatus when the course is no longer in the expected status.
	ErrStatusChanged = errors.New("course status changed")

	nowFunc = time.Now // mockable
)

const defaultGraduationConcurrency = 8

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter Filter) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// TransitionCourseStatus sets the status to `to` only if it currently is `from`, else returns ErrStatusChanged.
		TransitionCourseStatus(ctx context.Context, id string, from, to Status) error

		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		QueryLessons(ctx context.Context, courseID string) ([]Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		// DeleteLesson deletes the lesson with its questions, answers, attendance and completions.
		DeleteLesson(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, q QuizQuestion) (QuizQuestion, error)
		GetQuestion(ctx context.Context, id string) (QuizQuestion, error)
		QueryQuestions(ctx context.Context, lessonID string) ([]QuizQuestion, error)

		// InsertAnswer is first-write-wins: returns ErrAlreadyAnswered if (questionID, memberID) exists.
		InsertAnswer(ctx context.Context, a QuizAnswer) error
		// QueryAnswers returns all answers of a lesson; memberID is optional.
		QueryAnswers(ctx context.Context, lessonID, memberID string) ([]QuizAnswer, error)

		// UpsertAttendance is last-write-wins on (lessonID, memberID, date).
		UpsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
		QueryAttendance(ctx context.Context, lessonID, memberID string) ([]AttendanceRecord, error)
		DeleteAttendance(ctx context.Context, lessonID, memberID string, date time.Time) error

		// UpsertCompletion inserts the completion unless (lessonID, memberID) already exists,
		// in which case the existing one is returned untouched. created reports an insert.
		UpsertCompletion(ctx context.Context, c LessonCompletion) (comp LessonCompletion, created bool, err error)
		GetCompletion(ctx context.Context, lessonID, memberID string) (LessonCompletion, error)
		QueryCompletions(ctx context.Context, filter CompletionFilter) ([]LessonCompletion, error)
		// DeleteCompletion deletes the completion only if it was produced by `origin`.
		DeleteCompletion(ctx context.Context, lessonID, memberID string, origin Origin) (deleted bool, err error)
		// PromoteCompletion changes the origin of the completion from `from` to `to`, only if it is still `from`.
		PromoteCompletion(ctx context.Context, lessonID, memberID string, from, to Origin) (promoted bool, err error)

		UpsertEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, courseID, memberID string) (Enrollment, error)
		QueryEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		notifier core.Notifier
		logger   core.Logger
		conf     core.ProgressionConfig
	}
)

func NewService(
	repo Repository,
	validate *validator.Validate,
	notifier core.Notifier,
	logger core.Logger,
	conf core.ProgressionConfig,
) *Service {
	if conf.DefaultPassThreshold <= 0 {
		conf.DefaultPassThreshold = 70
	}
	if conf.GraduationConcurrency <= 0 {
		conf.GraduationConcurrency = defaultGraduationConcurrency
	}
	return &Service{
		repo:     repo,
		validate: validate,
		notifier: notifier,
		logger:   logger,
		conf:     conf,
	}
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, errors.Wrapf(err, "course %s", id)
	}
	return c, nil
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, errors.Wrapf(err, "lesson %s", id)
	}
	return l, nil
}

// Lessons returns the lessons of a course in gating order.
func (svc *Service) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	if _, err := svc.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	SortLessons(lessons)
	return lessons, nil
}

func (svc *Service) Questions(ctx context.Context, lessonID string) ([]QuizQuestion, error) {
	if _, err := svc.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, lessonID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	SortQuestions(questions)
	return questions, nil
}

// Enroll enrolls a member in an open course. Enrolling twice is a no-op.
func (svc *Service) Enroll(ctx context.Context, caller core.Caller, courseID, memberID string) (Enrollment, error) {
	if !caller.ActsFor(memberID) {
		return Enrollment{}, core.ErrPermissionDenied
	}
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !c.IsOpen() {
		return Enrollment{}, ErrCourseNotOpen
	}
	e, err := svc.repo.UpsertEnrollment(ctx, Enrollment{
		CourseID:   courseID,
		MemberID:   memberID,
		EnrolledAt: nowFunc().UTC(),
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "upserting enrollment")
	}
	return e, nil
}

func (svc *Service) Enrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	if _, err := svc.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, courseID)
	return enrollments, errors.Wrap(err, "querying enrollments")
}

func (svc *Service) checkEnrolled(ctx context.Context, courseID, memberID string) error {
	if _, err := svc.repo.GetEnrollment(ctx, courseID, memberID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrNotEnrolled
		}
		return errors.Wrap(err, "getting enrollment")
	}
	return nil
}

// notifyCompleted emits a lesson.completed event; the completion must have just been created.
func (svc *Service) notifyCompleted(c Course, comp LessonCompletion) {
	svc.notifier.Notify(core.Event{
		Kind:           core.EventLessonCompleted,
		OrganizationID: c.OrganizationID,
		CourseID:       c.ID,
		LessonID:       comp.LessonID,
		MemberID:       comp.MemberID,
		OccurredAt:     comp.CompletedAt,
	})
}
