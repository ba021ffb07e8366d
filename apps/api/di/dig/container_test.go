package dig_container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/ecclesia/apps/api/echo"
	"github.com/trezcool/ecclesia/core/course"
	"github.com/trezcool/ecclesia/tests"
)

func TestContainer(t *testing.T) {
	c := build(testutil.Config)

	err := c.Invoke(func(server *echoapi.Server, courseSvc *course.Service, db *sqlx.DB) {
		defer func() { _ = db.Close() }()
		defer func() { _ = server.Close() }()

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/courses", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		assert.NotNil(t, courseSvc)
	})
	assert.NoError(t, err)
}
