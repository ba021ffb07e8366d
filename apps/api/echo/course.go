package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
)

type (
	courseApi struct {
		svc    *course.Service
		orgSvc *org.Service
	}

	// questionView hides the correct option from the members taking the quiz.
	questionView struct {
		course.QuizQuestion
		CorrectIndex *int `json:"correctIndex,omitempty"`
	}

	graduationConflict struct {
		Error  string                  `json:"error"`
		Result course.GraduationResult `json:"result"`
	}
)

func registerCourseAPI(g *echo.Group, svc *course.Service, orgSvc *org.Service) {
	api := courseApi{svc: svc, orgSvc: orgSvc}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.POST("", api.create)
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update)
	cg.GET("/:id/lessons", api.queryLessons)
	cg.POST("/:id/lessons", api.addLesson)
	cg.GET("/:id/progress", api.progress)
	cg.POST("/:id/enrollments", api.enroll)
	cg.POST("/:id/graduate", api.graduate)
	cg.POST("/:id/graduate/retry", api.retryGraduation)

	lg := g.Group("/lessons/:id")
	lg.PATCH("", api.updateLesson)
	lg.DELETE("", api.deleteLesson)
	lg.POST("/complete", api.completeLesson)
	lg.GET("/questions", api.queryQuestions)
	lg.POST("/questions", api.addQuestion)
	lg.GET("/score", api.score)
	lg.PUT("/attendance", api.setAttendance)
	lg.DELETE("/attendance", api.deleteAttendance)

	g.POST("/questions/:id/answers", api.answer)
}

// visibleCourse returns the course if the caller's organization owns or inherits it.
func (api *courseApi) visibleCourse(ctx echo.Context, caller core.Caller, id string) (course.Course, error) {
	visible, err := api.orgSvc.CourseVisible(ctx.Request().Context(), caller.OrganizationID, id)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "checking course visibility")
	}
	if !visible {
		return course.Course{}, course.ErrNotFound
	}
	return api.svc.GetCourse(ctx.Request().Context(), id)
}

func (api *courseApi) visibleLesson(ctx echo.Context, caller core.Caller, id string) (course.Lesson, course.Course, error) {
	l, err := api.svc.GetLesson(ctx.Request().Context(), id)
	if err != nil {
		return course.Lesson{}, course.Course{}, err
	}
	c, err := api.visibleCourse(ctx, caller, l.CourseID)
	if err != nil {
		return course.Lesson{}, course.Course{}, err
	}
	return l, c, nil
}

// Courses

func (api *courseApi) query(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	courses, err := api.orgSvc.VisibleCourses(ctx.Request().Context(), caller.OrganizationID)
	if err != nil {
		return errors.Wrap(err, "listing visible courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	c, err := api.svc.CreateCourse(ctx.Request().Context(), caller, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	c, err := api.visibleCourse(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	c, err := api.svc.UpdateCourse(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) queryLessons(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	c, err := api.visibleCourse(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	lessons, err := api.svc.Lessons(ctx.Request().Context(), c.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) addLesson(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data course.NewLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	l, err := api.svc.AddLesson(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *courseApi) progress(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	memberID := bindMember(ctx, caller)
	if !caller.ActsFor(memberID) {
		return core.ErrPermissionDenied
	}
	c, err := api.visibleCourse(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	states, err := api.svc.MemberLessons(ctx.Request().Context(), c.ID, memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, states)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data memberRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to memberRequest")
	}
	c, err := api.visibleCourse(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	e, err := api.svc.Enroll(ctx.Request().Context(), caller, c.ID, data.member(caller))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *courseApi) graduate(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	concurrency, err := bindInt(ctx, concurrencyParam)
	if err != nil {
		return err
	}
	res, err := api.svc.GraduateCourse(ctx.Request().Context(), caller, ctx.Param("id"), concurrency)
	return api.graduationResponse(ctx, res, err)
}

func (api *courseApi) retryGraduation(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	concurrency, err := bindInt(ctx, concurrencyParam)
	if err != nil {
		return err
	}
	var data retryRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to retryRequest")
	}
	res, err := api.svc.RetryGraduation(ctx.Request().Context(), caller, ctx.Param("id"), data.MemberIDs, concurrency)
	return api.graduationResponse(ctx, res, err)
}

// graduationResponse keeps the partial result of a cascade interrupted by a status change.
func (api *courseApi) graduationResponse(ctx echo.Context, res course.GraduationResult, err error) error {
	if err != nil {
		if errors.Cause(err) == course.ErrCourseNotOpen && res.CourseID != "" {
			return ctx.JSON(http.StatusConflict, graduationConflict{Error: course.ErrCourseNotOpen.Error(), Result: res})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// Lessons

func (api *courseApi) updateLesson(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data updateLessonRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to updateLessonRequest")
	}

	id := ctx.Param("id")
	var l course.Lesson
	if data.Title != nil || data.Content != nil || data.PassThreshold != nil {
		l, err = api.svc.UpdateLesson(ctx.Request().Context(), caller, id, course.UpdateLesson{
			Title:         data.Title,
			Content:       data.Content,
			PassThreshold: data.PassThreshold,
		})
		if err != nil {
			return err
		}
	}
	if data.Order != nil {
		if l, err = api.svc.MoveLesson(ctx.Request().Context(), caller, id, *data.Order); err != nil {
			return err
		}
	}
	if l.ID == "" {
		if l, _, err = api.visibleLesson(ctx, caller, id); err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *courseApi) deleteLesson(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	force, err := bindBool(ctx, forceParam)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteLesson(ctx.Request().Context(), caller, ctx.Param("id"), force); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) completeLesson(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data memberRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to memberRequest")
	}
	l, _, err := api.visibleLesson(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	comp, err := api.svc.CompleteLesson(ctx.Request().Context(), caller, l.ID, data.member(caller))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, comp)
}

func (api *courseApi) queryQuestions(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	l, c, err := api.visibleLesson(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	questions, err := api.svc.Questions(ctx.Request().Context(), l.ID)
	if err != nil {
		return err
	}

	author := caller.Administers(c.OrganizationID, core.CapManageContent)
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		v := questionView{QuizQuestion: q}
		if author {
			idx := q.CorrectIndex
			v.CorrectIndex = &idx
		}
		views = append(views, v)
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *courseApi) addQuestion(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data course.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	q, err := api.svc.AddQuestion(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *courseApi) score(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	memberID := bindMember(ctx, caller)
	if !caller.ActsFor(memberID) {
		return core.ErrPermissionDenied
	}
	l, _, err := api.visibleLesson(ctx, caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	score, err := api.svc.QuizScore(ctx.Request().Context(), l.ID, memberID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"earned":     score.Earned,
		"possible":   score.Possible,
		"answered":   score.Answered,
		"questions":  score.Questions,
		"percentage": score.Percentage(),
		"passed":     score.Complete() && score.Passes(l.PassThreshold),
	})
}

func (api *courseApi) setAttendance(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data attendanceRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to attendanceRequest")
	}
	if data.MemberID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "memberId", Error: "this field is required"})
	}
	date, err := parseDate(data.Date)
	if err != nil {
		return err
	}
	rec, err := api.svc.SetAttendance(ctx.Request().Context(), caller, ctx.Param("id"), data.MemberID, date, data.Present)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *courseApi) deleteAttendance(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	memberID := ctx.QueryParam(memberParam)
	if memberID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: memberParam, Error: "this field is required"})
	}
	date, err := parseDate(ctx.QueryParam(dateParam))
	if err != nil {
		return err
	}
	if err = api.svc.DeleteAttendance(ctx.Request().Context(), caller, ctx.Param("id"), memberID, date); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions

func (api *courseApi) answer(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}
	var data answerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to answerRequest")
	}
	if data.ChosenIndex == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "chosenIndex", Error: "this field is required"})
	}
	memberID := memberRequest{MemberID: data.MemberID}.member(caller)
	a, err := api.svc.SubmitAnswer(ctx.Request().Context(), caller, ctx.Param("id"), memberID, *data.ChosenIndex)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}
