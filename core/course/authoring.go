package course

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
)

type (
	NewCourse struct {
		TeacherID         string `json:"teacherId"`
		Title             string `json:"title" validate:"required,notblank,max=200"`
		Description       string `json:"description" validate:"max=5000"`
		ShareWithChildren bool   `json:"shareWithChildren"`
	}

	// UpdateCourse holds the non-structural edits of a course. Nil fields are left unchanged.
	UpdateCourse struct {
		TeacherID         *string `json:"teacherId"`
		Title             *string `json:"title" validate:"omitempty,notblank,max=200"`
		Description       *string `json:"description" validate:"omitempty,max=5000"`
		ShareWithChildren *bool   `json:"shareWithChildren"`
		Status            *Status `json:"status" validate:"omitempty,oneof=open closed"`
	}

	NewLesson struct {
		Title         string     `json:"title" validate:"required,notblank,max=200"`
		Content       string     `json:"content"`
		Type          LessonType `json:"type" validate:"required,oneof=text video quiz in-person"`
		Order         int        `json:"order" validate:"min=0"` // 0 appends the lesson
		PassThreshold *int       `json:"passThreshold" validate:"omitempty,min=0,max=100"`
	}

	UpdateLesson struct {
		Title         *string `json:"title" validate:"omitempty,notblank,max=200"`
		Content       *string `json:"content"`
		PassThreshold *int    `json:"passThreshold" validate:"omitempty,min=0,max=100"`
	}

	NewQuestion struct {
		Prompt       string   `json:"prompt" validate:"required,notblank"`
		Options      []string `json:"options" validate:"len=4,dive,required,notblank"`
		CorrectIndex int      `json:"correctIndex" validate:"min=0,max=3"`
		Points       int      `json:"points" validate:"min=1"`
	}
)

func (svc *Service) CreateCourse(ctx context.Context, caller core.Caller, nc NewCourse) (Course, error) {
	if !caller.Can(core.CapManageContent) {
		return Course{}, core.ErrPermissionDenied
	}
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}
	now := nowFunc().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		ID:                uuid.New().String(),
		OrganizationID:    caller.OrganizationID,
		TeacherID:         core.CleanString(nc.TeacherID),
		Title:             core.CleanString(nc.Title),
		Description:       nc.Description,
		ShareWithChildren: nc.ShareWithChildren,
		Status:            StatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	return c, errors.Wrap(err, "creating course")
}

// UpdateCourse applies non-structural edits. A completed course only accepts title and description edits.
func (svc *Service) UpdateCourse(ctx context.Context, caller core.Caller, id string, uc UpdateCourse) (Course, error) {
	if err := svc.validate.Struct(uc); err != nil {
		return Course{}, err
	}
	c, err := svc.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !caller.Administers(c.OrganizationID, core.CapManageContent) {
		return Course{}, core.ErrPermissionDenied
	}
	if c.Status == StatusCompleted && (uc.Status != nil || uc.ShareWithChildren != nil || uc.TeacherID != nil) {
		return Course{}, ErrCourseNotOpen
	}

	if uc.Title != nil {
		c.Title = core.CleanString(*uc.Title)
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.TeacherID != nil {
		c.TeacherID = core.CleanString(*uc.TeacherID)
	}
	if uc.ShareWithChildren != nil {
		c.ShareWithChildren = *uc.ShareWithChildren
	}
	if uc.Status != nil {
		c.Status = *uc.Status
	}
	c.UpdatedAt = nowFunc().UTC()
	c, err = svc.repo.UpdateCourse(ctx, c)
	return c, errors.Wrap(err, "updating course")
}

// AddLesson adds a lesson to a course that is not completed yet. Inserting a lesson before existing ones
// reorders the course, which is refused once members have progress.
func (svc *Service) AddLesson(ctx context.Context, caller core.Caller, courseID string, nl NewLesson) (Lesson, error) {
	if err := svc.validate.Struct(nl); err != nil {
		return Lesson{}, err
	}
	c, err := svc.GetCourse(ctx, courseID)
	if err != nil {
		return Lesson{}, err
	}
	if !caller.Administers(c.OrganizationID, core.CapManageContent) {
		return Lesson{}, core.ErrPermissionDenied
	}
	if c.Status == StatusCompleted {
		return Lesson{}, ErrCourseNotOpen
	}

	lessons, err := svc.repo.QueryLessons(ctx, c.ID)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "querying lessons")
	}
	var last int
	for _, l := range lessons {
		if l.Order == nl.Order {
			return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "order", Error: "another lesson already has this order"})
		}
		if l.Order > last {
			last = l.Order
		}
	}
	order := nl.Order
	if order == 0 {
		order = last + 1
	} else if order < last {
		if err = svc.checkNoCourseProgress(ctx, c.ID); err != nil {
			return Lesson{}, err
		}
	}

	now := nowFunc().UTC()
	l := Lesson{
		ID:        uuid.New().String(),
		CourseID:  c.ID,
		Title:     core.CleanString(nl.Title),
		Content:   nl.Content,
		Type:      nl.Type,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if l.IsQuiz() {
		l.PassThreshold = svc.conf.DefaultPassThreshold
		if nl.PassThreshold != nil {
			l.PassThreshold = *nl.PassThreshold
		}
	}
	l, err = svc.repo.CreateLesson(ctx, l)
	return l, errors.Wrap(err, "creating lesson")
}

// UpdateLesson applies non-structural edits to a lesson.
func (svc *Service) UpdateLesson(ctx context.Context, caller core.Caller, id string, ul UpdateLesson) (Lesson, error) {
	if err := svc.validate.Struct(ul); err != nil {
		return Lesson{}, err
	}
	l, c, err := svc.lessonForAdmin(ctx, caller, id)
	if err != nil {
		return Lesson{}, err
	}
	if ul.PassThreshold != nil && !l.IsQuiz() {
		return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "passThreshold", Error: "only quiz lessons have a pass threshold"})
	}
	if ul.PassThreshold != nil && c.Status == StatusCompleted {
		return Lesson{}, ErrCourseNotOpen
	}

	if ul.Title != nil {
		l.Title = core.CleanString(*ul.Title)
	}
	if ul.Content != nil {
		l.Content = *ul.Content
	}
	if ul.PassThreshold != nil {
		l.PassThreshold = *ul.PassThreshold
	}
	l.UpdatedAt = nowFunc().UTC()
	l, err = svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "updating lesson")
}

// MoveLesson changes the order of a lesson. Reordering is refused once any member has progress in the course.
func (svc *Service) MoveLesson(ctx context.Context, caller core.Caller, id string, order int) (Lesson, error) {
	if order < 1 {
		return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "order", Error: "must be greater than 0"})
	}
	l, c, err := svc.lessonForAdmin(ctx, caller, id)
	if err != nil {
		return Lesson{}, err
	}
	if c.Status == StatusCompleted {
		return Lesson{}, ErrCourseNotOpen
	}
	if err = svc.checkNoCourseProgress(ctx, c.ID); err != nil {
		return Lesson{}, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, c.ID)
	if err != nil {
		return Lesson{}, errors.Wrap(err, "querying lessons")
	}
	for _, other := range lessons {
		if other.ID != l.ID && other.Order == order {
			return Lesson{}, core.NewValidationError(nil, core.FieldError{Field: "order", Error: "another lesson already has this order"})
		}
	}

	l.Order = order
	l.UpdatedAt = nowFunc().UTC()
	l, err = svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "updating lesson")
}

// DeleteLesson deletes a lesson. A lesson members have completed is only deleted when `force` is set,
// in which case their completions, answers and attendance for it are deleted too.
func (svc *Service) DeleteLesson(ctx context.Context, caller core.Caller, id string, force bool) error {
	l, c, err := svc.lessonForAdmin(ctx, caller, id)
	if err != nil {
		return err
	}
	if c.Status == StatusCompleted && !force {
		return ErrCourseNotOpen
	}
	if !force {
		comps, err := svc.repo.QueryCompletions(ctx, CompletionFilter{LessonID: l.ID})
		if err != nil {
			return errors.Wrap(err, "querying completions")
		}
		if len(comps) > 0 {
			return ErrHasProgress
		}
	}
	if err = svc.repo.DeleteLesson(ctx, l.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	svc.logger.Info("lesson deleted", map[string]interface{}{"lesson": l.ID, "course": c.ID, "force": force}, caller)
	return nil
}

// AddQuestion adds a question to a quiz lesson nobody answered yet.
func (svc *Service) AddQuestion(ctx context.Context, caller core.Caller, lessonID string, nq NewQuestion) (QuizQuestion, error) {
	if err := svc.validate.Struct(nq); err != nil {
		return QuizQuestion{}, err
	}
	l, c, err := svc.lessonForAdmin(ctx, caller, lessonID)
	if err != nil {
		return QuizQuestion{}, err
	}
	if !l.IsQuiz() {
		return QuizQuestion{}, ErrWrongLessonType
	}
	if c.Status == StatusCompleted {
		return QuizQuestion{}, ErrCourseNotOpen
	}

	questions, err := svc.repo.QueryQuestions(ctx, l.ID)
	if err != nil {
		return QuizQuestion{}, errors.Wrap(err, "querying questions")
	}
	if len(questions) >= MaxQuestionsPerLesson {
		return QuizQuestion{}, ErrTooManyQuestions
	}
	answers, err := svc.repo.QueryAnswers(ctx, l.ID, "")
	if err != nil {
		return QuizQuestion{}, errors.Wrap(err, "querying answers")
	}
	if len(answers) > 0 {
		return QuizQuestion{}, ErrHasProgress
	}

	var order int
	for _, q := range questions {
		if q.Order > order {
			order = q.Order
		}
	}
	options := make([]string, 0, len(nq.Options))
	for _, o := range nq.Options {
		options = append(options, core.CleanString(o))
	}
	q, err := svc.repo.CreateQuestion(ctx, QuizQuestion{
		ID:           uuid.New().String(),
		LessonID:     l.ID,
		Prompt:       core.CleanString(nq.Prompt),
		Options:      options,
		CorrectIndex: nq.CorrectIndex,
		Points:       nq.Points,
		Order:        order + 1,
		CreatedAt:    nowFunc().UTC(),
	})
	return q, errors.Wrap(err, "creating question")
}

func (svc *Service) lessonForAdmin(ctx context.Context, caller core.Caller, lessonID string) (Lesson, Course, error) {
	l, err := svc.GetLesson(ctx, lessonID)
	if err != nil {
		return Lesson{}, Course{}, err
	}
	c, err := svc.GetCourse(ctx, l.CourseID)
	if err != nil {
		return Lesson{}, Course{}, err
	}
	if !caller.Administers(c.OrganizationID, core.CapManageContent) {
		return Lesson{}, Course{}, core.ErrPermissionDenied
	}
	return l, c, nil
}

func (svc *Service) checkNoCourseProgress(ctx context.Context, courseID string) error {
	comps, err := svc.repo.QueryCompletions(ctx, CompletionFilter{CourseID: courseID})
	if err != nil {
		return errors.Wrap(err, "querying completions")
	}
	if len(comps) > 0 {
		return ErrHasProgress
	}
	return nil
}
