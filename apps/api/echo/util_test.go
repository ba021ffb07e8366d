package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/ecclesia/apps/api/echo"
	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/core/org"
	"github.com/trezcool/ecclesia/core/trail"
	"github.com/trezcool/ecclesia/services/notify"
	"github.com/trezcool/ecclesia/storage/database/dummy"
	"github.com/trezcool/ecclesia/tests"
)

var allSharing = org.Sharing{Trails: true, Courses: true, Events: true, Devotionals: true}

type (
	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
	}

	fixture struct {
		conf     *core.Config
		server   *echoapi.Server
		courses  course.Repository
		trails   trail.Repository
		orgs     org.Repository
		notifier *notifysvc.NotifierMock
		root     org.Organization
		child    org.Organization
	}
)

func setup(t *testing.T) fixture {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := testutil.Config()
	conf.Debug = false

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	f := fixture{
		conf:     conf,
		courses:  dummydb.NewCourseRepository(db),
		trails:   dummydb.NewTrailRepository(db),
		orgs:     dummydb.NewOrgRepository(db),
		notifier: notifysvc.NewNotifierMock(),
	}
	orgSvc := org.NewService(f.orgs, f.trails, f.courses, validate)
	f.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         testutil.NewLogger(),
		CourseSvc:      course.NewService(f.courses, validate, f.notifier, testutil.NewLogger(), conf.Progression),
		TrailSvc:       trail.NewService(f.trails, orgSvc, validate),
		OrgSvc:         orgSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = f.server.Close() })

	f.root = testutil.CreateOrganization(t, f.orgs, "Central", "", allSharing, org.Sharing{})
	f.child = testutil.CreateOrganization(t, f.orgs, "North", f.root.ID, org.Sharing{}, allSharing)
	return f
}

func (f fixture) do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	f.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, caller core.Caller) string {
	token, err := echoapi.GenerateToken(conf, echoapi.NewClaims(conf, caller, time.Hour))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshalBody() failed: %v; body %s", err, rec.Body.String())
	}
}

// checkCodeAndData checks the status code, and the body when wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
