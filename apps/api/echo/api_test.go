package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	"github.com/trezcool/ecclesia/tests"
)

func TestServer_home(t *testing.T) {
	f := setup(t)
	req, rec := newAuthRequest(http.MethodGet, "/", "")
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Ecclesia API!", rec.Body.String())
}

func TestServer_authentication(t *testing.T) {
	f := setup(t)

	otherConf := testutil.Config()
	otherConf.SecretKey = "another-secret"

	tests := []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/v1/courses",
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"error":"missing or malformed jwt"}`),
		},
		{
			name:     "malformed token",
			method:   http.MethodGet,
			path:     "/v1/courses",
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "foreign signature",
			method:   http.MethodGet,
			path:     "/v1/courses",
			token:    getToken(t, otherConf, testutil.Caller(f.root.ID, "member-1")),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no organization",
			method:   http.MethodGet,
			path:     "/v1/courses",
			token:    getToken(t, f.conf, testutil.Caller("", "member-1")),
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"error":"caller not authenticated"}`),
		},
		{
			name:     "valid token",
			method:   http.MethodGet,
			path:     "/v1/courses",
			token:    getToken(t, f.conf, testutil.Caller(f.root.ID, "member-1")),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(t, tt))
		})
	}
}

func TestCourseAPI_progression(t *testing.T) {
	f := setup(t)
	adminToken := getToken(t, f.conf, testutil.Admin(f.root.ID))
	memberToken := getToken(t, f.conf, testutil.Caller(f.root.ID, "member-1"))

	c := testutil.CreateCourse(t, f.courses, f.root.ID, "Foundations", false)
	text := testutil.CreateLesson(t, f.courses, c.ID, course.LessonText, 1)
	quiz := testutil.CreateLesson(t, f.courses, c.ID, course.LessonQuiz, 2, 70)
	meeting := testutil.CreateLesson(t, f.courses, c.ID, course.LessonInPerson, 3)
	q1 := testutil.CreateQuestion(t, f.courses, quiz.ID, 1, 0, 8)
	q2 := testutil.CreateQuestion(t, f.courses, quiz.ID, 2, 1, 2)

	steps := []httpTest{
		{
			name:     "enroll",
			method:   http.MethodPost,
			path:     "/v1/courses/" + c.ID + "/enrollments",
			token:    memberToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "quiz locked",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + quiz.ID + "/complete",
			token:    memberToken,
			wantCode: http.StatusConflict,
			wantData: []byte(`{"error":"lesson is locked"}`),
		},
		{
			name:     "complete text",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + text.ID + "/complete",
			token:    memberToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "answer first question",
			method:   http.MethodPost,
			path:     "/v1/questions/" + q1.ID + "/answers",
			body:     []byte(`{"chosenIndex":0}`),
			token:    memberToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "answers are final",
			method:   http.MethodPost,
			path:     "/v1/questions/" + q1.ID + "/answers",
			body:     []byte(`{"chosenIndex":1}`),
			token:    memberToken,
			wantCode: http.StatusConflict,
			wantData: []byte(`{"error":"question already answered"}`),
		},
		{
			name:     "incomplete quiz",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + quiz.ID + "/complete",
			token:    memberToken,
			wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"error":"all quiz questions must be answered"}`),
		},
		{
			name:     "answer second question wrong",
			method:   http.MethodPost,
			path:     "/v1/questions/" + q2.ID + "/answers",
			body:     []byte(`{"chosenIndex":3}`),
			token:    memberToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "score",
			method:   http.MethodGet,
			path:     "/v1/lessons/" + quiz.ID + "/score",
			token:    memberToken,
			wantCode: http.StatusOK,
			wantData: []byte(`{"earned":8,"possible":10,"answered":2,"questions":2,"percentage":80,"passed":true}`),
		},
		{
			name:     "complete quiz",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + quiz.ID + "/complete",
			token:    memberToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "members cannot record attendance",
			method:   http.MethodPut,
			path:     "/v1/lessons/" + meeting.ID + "/attendance",
			body:     []byte(`{"memberId":"member-1","date":"2025-01-01","present":true}`),
			token:    memberToken,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
		{
			name:     "record attendance",
			method:   http.MethodPut,
			path:     "/v1/lessons/" + meeting.ID + "/attendance",
			body:     []byte(`{"memberId":"member-1","date":"2025-01-01","present":true}`),
			token:    adminToken,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range steps {
		rec := f.do(t, tt)
		if !assert.Equal(t, tt.wantCode, rec.Code, "%s: %s", tt.name, rec.Body.String()) {
			t.FailNow()
		}
		if tt.wantData != nil {
			assert.JSONEq(t, string(tt.wantData), rec.Body.String(), tt.name)
		}
	}

	rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/courses/" + c.ID + "/progress", token: memberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var states []course.LessonState
	unmarshalBody(t, rec, &states)
	require.Len(t, states, 3)
	origins := make([]course.Origin, 0, len(states))
	for _, st := range states {
		assert.True(t, st.Completed, st.Lesson.Title)
		origins = append(origins, st.Origin)
	}
	assert.Equal(t, []course.Origin{course.OriginManual, course.OriginQuiz, course.OriginAttendance}, origins)

	t.Run("questions hide the answer from members", func(t *testing.T) {
		var questions []map[string]interface{}
		rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/lessons/" + quiz.ID + "/questions", token: memberToken})
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshalBody(t, rec, &questions)
		require.Len(t, questions, 2)
		assert.NotContains(t, questions[0], "correctIndex")

		rec = f.do(t, httpTest{method: http.MethodGet, path: "/v1/lessons/" + quiz.ID + "/questions", token: adminToken})
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshalBody(t, rec, &questions)
		assert.EqualValues(t, 0, questions[0]["correctIndex"])
		assert.EqualValues(t, 1, questions[1]["correctIndex"])
	})

	t.Run("graduate", func(t *testing.T) {
		testutil.Enroll(t, f.courses, c.ID, "member-2")

		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/courses/" + c.ID + "/graduate?concurrency=2",
			token:    memberToken,
			wantCode: http.StatusForbidden,
		}
		checkCodeAndData(t, tt, f.do(t, tt))

		tt.token = adminToken
		rec := f.do(t, tt)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res course.GraduationResult
		unmarshalBody(t, rec, &res)
		assert.Equal(t, course.StatusCompleted, res.Status)
		assert.ElementsMatch(t, []string{"member-1", "member-2"}, res.Succeeded)
		assert.Empty(t, res.Failed)
		assert.Len(t, f.notifier.Events(core.EventCourseGraduated), 1)

		tt = httpTest{
			method:   http.MethodPost,
			path:     "/v1/courses/" + c.ID + "/graduate/retry",
			body:     []byte(`{"memberIds":["member-2","stranger"]}`),
			token:    adminToken,
			wantCode: http.StatusOK,
		}
		rec = f.do(t, tt)
		require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		unmarshalBody(t, rec, &res)
		assert.Equal(t, []string{"member-2"}, res.Succeeded)
		if assert.Len(t, res.Failed, 1) {
			assert.Equal(t, "stranger", res.Failed[0].MemberID)
		}
	})
}

func TestCourseAPI_errors(t *testing.T) {
	f := setup(t)
	adminToken := getToken(t, f.conf, testutil.Admin(f.root.ID))
	memberToken := getToken(t, f.conf, testutil.Caller(f.root.ID, "member-1"))

	c := testutil.CreateCourse(t, f.courses, f.root.ID, "Foundations", false)
	text := testutil.CreateLesson(t, f.courses, c.ID, course.LessonText, 1)
	quiz := testutil.CreateLesson(t, f.courses, c.ID, course.LessonQuiz, 2)
	for i := 1; i <= course.MaxQuestionsPerLesson; i++ {
		testutil.CreateQuestion(t, f.courses, quiz.ID, i, 0, 1)
	}

	question := marchallObj(t, course.NewQuestion{Prompt: "Who?", Options: []string{"A", "B", "C", "D"}, Points: 1})

	tests := []httpTest{
		{
			name:     "unknown course",
			method:   http.MethodGet,
			path:     "/v1/courses/unknown",
			token:    memberToken,
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"not found"}`),
		},
		{
			name:     "unknown lesson",
			method:   http.MethodPost,
			path:     "/v1/lessons/unknown/complete",
			token:    memberToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "not enrolled",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + text.ID + "/complete",
			token:    memberToken,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"member is not enrolled in this course"}`),
		},
		{
			name:     "someone else's progress",
			method:   http.MethodGet,
			path:     "/v1/courses/" + c.ID + "/progress?member=member-2",
			token:    memberToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "attendance on a text lesson",
			method:   http.MethodPut,
			path:     "/v1/lessons/" + text.ID + "/attendance",
			body:     []byte(`{"memberId":"member-1","present":true}`),
			token:    adminToken,
			wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"error":"action not supported by this lesson type"}`),
		},
		{
			name:     "attendance without member",
			method:   http.MethodPut,
			path:     "/v1/lessons/" + text.ID + "/attendance",
			body:     []byte(`{"present":true}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"memberId":"this field is required"}`),
		},
		{
			name:     "malformed date",
			method:   http.MethodDelete,
			path:     "/v1/lessons/" + text.ID + "/attendance?member=member-1&date=01/01/2025",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"must be formatted as YYYY-MM-DD"}`),
		},
		{
			name:     "answer without choice",
			method:   http.MethodPost,
			path:     "/v1/questions/unknown/answers",
			body:     []byte(`{}`),
			token:    memberToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"chosenIndex":"this field is required"}`),
		},
		{
			name:     "too many questions",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + quiz.ID + "/questions",
			body:     question,
			token:    adminToken,
			wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"error":"a quiz cannot have more than 10 questions"}`),
		},
		{
			name:     "duplicate lesson order",
			method:   http.MethodPost,
			path:     "/v1/courses/" + c.ID + "/lessons",
			body:     []byte(`{"title":"Again","type":"text","order":1}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"order":"another lesson already has this order"}`),
		},
		{
			name:     "invalid force",
			method:   http.MethodDelete,
			path:     "/v1/lessons/" + text.ID + "?force=maybe",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid concurrency",
			method:   http.MethodPost,
			path:     "/v1/courses/" + c.ID + "/graduate?concurrency=-2",
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "blank course title",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title":"  "}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "members cannot author",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title":"Mine"}`),
			token:    memberToken,
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(t, tt))
		})
	}
}

func TestCourseAPI_authoring(t *testing.T) {
	f := setup(t)
	adminToken := getToken(t, f.conf, testutil.Admin(f.root.ID))

	rec := f.do(t, httpTest{
		method: http.MethodPost,
		path:   "/v1/courses",
		body:   []byte(`{"title":" Foundations ","shareWithChildren":true}`),
		token:  adminToken,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c course.Course
	unmarshalBody(t, rec, &c)
	assert.Equal(t, "Foundations", c.Title)
	assert.Equal(t, f.root.ID, c.OrganizationID)
	assert.Equal(t, course.StatusOpen, c.Status)

	rec = f.do(t, httpTest{
		method: http.MethodPost,
		path:   "/v1/courses/" + c.ID + "/lessons",
		body:   []byte(`{"title":"Quiz","type":"quiz"}`),
		token:  adminToken,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var l course.Lesson
	unmarshalBody(t, rec, &l)
	assert.Equal(t, 1, l.Order)
	assert.Equal(t, f.conf.Progression.DefaultPassThreshold, l.PassThreshold)

	rec = f.do(t, httpTest{
		method: http.MethodPatch,
		path:   "/v1/lessons/" + l.ID,
		body:   []byte(`{"title":"Final quiz","passThreshold":90,"order":4}`),
		token:  adminToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &l)
	assert.Equal(t, "Final quiz", l.Title)
	assert.Equal(t, 90, l.PassThreshold)
	assert.Equal(t, 4, l.Order)

	rec = f.do(t, httpTest{
		method: http.MethodPatch,
		path:   "/v1/courses/" + c.ID,
		body:   []byte(`{"status":"closed"}`),
		token:  adminToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &c)
	assert.Equal(t, course.StatusClosed, c.Status)

	tt := httpTest{
		method:   http.MethodPost,
		path:     "/v1/courses/" + c.ID + "/graduate",
		token:    adminToken,
		wantCode: http.StatusConflict,
		wantData: []byte(`{"error":"course is not open"}`),
	}
	checkCodeAndData(t, tt, f.do(t, tt))

	tt = httpTest{method: http.MethodDelete, path: "/v1/lessons/" + l.ID, token: adminToken, wantCode: http.StatusNoContent}
	checkCodeAndData(t, tt, f.do(t, tt))

	rec = f.do(t, httpTest{method: http.MethodGet, path: "/v1/courses/" + c.ID + "/lessons", token: adminToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCourseAPI_inheritance(t *testing.T) {
	f := setup(t)
	childAdmin := testutil.Admin(f.child.ID)
	childMemberToken := getToken(t, f.conf, testutil.Caller(f.child.ID, "member-9"))

	shared := testutil.CreateCourse(t, f.courses, f.root.ID, "Shared", true, time.Now().Add(-time.Hour))
	private := testutil.CreateCourse(t, f.courses, f.root.ID, "Private", false)
	own := testutil.CreateCourse(t, f.courses, f.child.ID, "Own", false)

	rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/courses", token: childMemberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []course.Course
	unmarshalBody(t, rec, &courses)
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{shared.ID, own.ID}, ids)

	tests := []httpTest{
		{
			name:     "private parent course",
			method:   http.MethodGet,
			path:     "/v1/courses/" + private.ID,
			token:    childMemberToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "enroll in an inherited course",
			method:   http.MethodPost,
			path:     "/v1/courses/" + shared.ID + "/enrollments",
			token:    childMemberToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "enroll in a private parent course",
			method:   http.MethodPost,
			path:     "/v1/courses/" + private.ID + "/enrollments",
			token:    childMemberToken,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "cannot change the parent's sharing",
			method:   http.MethodPut,
			path:     "/v1/organizations/" + f.root.ID + "/sharing",
			body:     []byte(`{"push":{"courses":false}}`),
			token:    getToken(t, f.conf, childAdmin),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "stop pulling courses",
			method:   http.MethodPut,
			path:     "/v1/organizations/" + f.child.ID + "/sharing",
			body:     marchallObj(t, org.UpdateSharing{Pull: &org.Sharing{Trails: true}}),
			token:    getToken(t, f.conf, childAdmin),
			wantCode: http.StatusOK,
		},
		{
			name:     "inherited course hidden",
			method:   http.MethodGet,
			path:     "/v1/courses/" + shared.ID,
			token:    childMemberToken,
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(t, tt))
		})
	}
}

func TestTrailAPI(t *testing.T) {
	f := setup(t)
	childAdminToken := getToken(t, f.conf, testutil.Admin(f.child.ID))
	memberToken := getToken(t, f.conf, testutil.Caller(f.child.ID, "member-1"))

	inherited := testutil.CreateTrail(t, f.trails, f.root.ID, "Discipleship", true)
	stage := testutil.CreateStage(t, f.trails, inherited.ID, 1)
	step1 := testutil.CreateStep(t, f.trails, stage, 1)
	testutil.CreateStep(t, f.trails, stage, 2)

	activeProgress := func(t *testing.T) trail.Progress {
		rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/trails/active/progress", token: memberToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var prog trail.Progress
		unmarshalBody(t, rec, &prog)
		return prog
	}

	prog := activeProgress(t)
	assert.Equal(t, inherited.ID, prog.TrailID)
	assert.Equal(t, 2, prog.TotalSteps)
	assert.Zero(t, prog.CompletedSteps)

	tt := httpTest{method: http.MethodPost, path: "/v1/steps/" + step1.ID + "/completion", token: memberToken, wantCode: http.StatusOK}
	checkCodeAndData(t, tt, f.do(t, tt))
	checkCodeAndData(t, tt, f.do(t, tt)) // idempotent

	prog = activeProgress(t)
	assert.Equal(t, 1, prog.CompletedSteps)
	assert.InDelta(t, 50, prog.Percentage, 1e-9)

	tt = httpTest{
		method:   http.MethodPost,
		path:     "/v1/steps/" + step1.ID + "/completion?member=member-2",
		token:    memberToken,
		wantCode: http.StatusForbidden,
	}
	checkCodeAndData(t, tt, f.do(t, tt))

	tt = httpTest{method: http.MethodDelete, path: "/v1/steps/" + step1.ID + "/completion", token: memberToken, wantCode: http.StatusNoContent}
	checkCodeAndData(t, tt, f.do(t, tt))
	assert.Zero(t, activeProgress(t).CompletedSteps)

	rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/trails/" + inherited.ID, token: memberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		ID     string        `json:"id"`
		Stages []trail.Stage `json:"stages"`
		Steps  []trail.Step  `json:"steps"`
	}
	unmarshalBody(t, rec, &detail)
	assert.Equal(t, inherited.ID, detail.ID)
	assert.Len(t, detail.Stages, 1)
	assert.Len(t, detail.Steps, 2)

	t.Run("own trail takes over", func(t *testing.T) {
		rec := f.do(t, httpTest{method: http.MethodPost, path: "/v1/trails", body: []byte(`{"title":"Local"}`), token: childAdminToken})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var own trail.Trail
		unmarshalBody(t, rec, &own)

		rec = f.do(t, httpTest{method: http.MethodPost, path: "/v1/trails/" + own.ID + "/stages", body: []byte(`{"title":"First"}`), token: childAdminToken})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var st trail.Stage
		unmarshalBody(t, rec, &st)

		rec = f.do(t, httpTest{method: http.MethodPost, path: "/v1/stages/" + st.ID + "/steps", body: []byte(`{"title":"Pray"}`), token: childAdminToken})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		tt := httpTest{method: http.MethodPost, path: "/v1/trails/" + own.ID + "/activate", token: memberToken, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, f.do(t, tt))
		tt.token, tt.wantCode = childAdminToken, http.StatusOK
		checkCodeAndData(t, tt, f.do(t, tt))

		prog := activeProgress(t)
		assert.Equal(t, own.ID, prog.TrailID)
		assert.Equal(t, 1, prog.TotalSteps)
	})

	t.Run("invisible trail", func(t *testing.T) {
		hidden := testutil.CreateTrail(t, f.trails, "elsewhere", "Hidden", true)
		tt := httpTest{method: http.MethodGet, path: "/v1/trails/" + hidden.ID + "/progress", token: memberToken, wantCode: http.StatusNotFound}
		checkCodeAndData(t, tt, f.do(t, tt))
	})
}

func TestOrgAPI(t *testing.T) {
	f := setup(t)
	rootAdminToken := getToken(t, f.conf, testutil.Admin(f.root.ID))
	memberToken := getToken(t, f.conf, testutil.Caller(f.child.ID, "member-1"))

	tests := []httpTest{
		{
			name:     "create event",
			method:   http.MethodPost,
			path:     "/v1/events",
			body:     []byte(`{"title":"Conference","startsAt":"2025-03-01T18:00:00Z"}`),
			token:    rootAdminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "event without start",
			method:   http.MethodPost,
			path:     "/v1/events",
			body:     []byte(`{"title":"Someday"}`),
			token:    rootAdminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "members cannot publish",
			method:   http.MethodPost,
			path:     "/v1/devotionals",
			body:     []byte(`{"title":"Morning","body":"Psalm 23"}`),
			token:    memberToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "create devotional",
			method:   http.MethodPost,
			path:     "/v1/devotionals",
			body:     []byte(`{"title":"Morning","body":"Psalm 23"}`),
			token:    rootAdminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "another organization",
			method:   http.MethodGet,
			path:     "/v1/organizations/" + f.root.ID,
			token:    memberToken,
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(t, tt))
		})
	}

	var events []org.Event
	rec := f.do(t, httpTest{method: http.MethodGet, path: "/v1/events", token: memberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshalBody(t, rec, &events)
	if assert.Len(t, events, 1) {
		assert.Equal(t, "Conference", events[0].Title)
		assert.Equal(t, f.root.ID, events[0].OrganizationID)
	}

	var devotionals []org.Devotional
	rec = f.do(t, httpTest{method: http.MethodGet, path: "/v1/devotionals", token: memberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshalBody(t, rec, &devotionals)
	assert.Len(t, devotionals, 1)

	rec = f.do(t, httpTest{method: http.MethodGet, path: "/v1/organizations/" + f.child.ID, token: memberToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var o org.Organization
	unmarshalBody(t, rec, &o)
	assert.Equal(t, f.root.ID, o.ParentID)
}
