package notifysvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecclesia/core"
	"github.com/trezcool/ecclesia/services/email"
	"github.com/trezcool/ecclesia/services/notify"
	"github.com/trezcool/ecclesia/tests"
)

var (
	completed = core.Event{Kind: core.EventLessonCompleted, OrganizationID: "org-1", CourseID: "c1", LessonID: "l1", MemberID: "m1"}
	graduated = core.Event{Kind: core.EventCourseGraduated, OrganizationID: "org-1", CourseID: "c1", Graduated: 49, Failed: 1}
)

func TestWebhookNotifier(t *testing.T) {
	var calls int32
	received := make(chan []core.Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var payload struct {
			Events []core.Event `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- payload.Events
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	conf := testutil.Config().Notifications
	conf.WebhookURL = srv.URL
	n := notifysvc.NewWebhookNotifier(testutil.NewLogger(), conf)
	n.Notify(completed, graduated)

	select {
	case events := <-received:
		require.Len(t, events, 2)
		assert.Equal(t, core.EventLessonCompleted, events[0].Kind)
		assert.Equal(t, 49, events[1].Graduated)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls), "5xx responses are retried")
}

func TestEmailNotifier(t *testing.T) {
	mailSvc := emailsvc.NewConsoleServiceMock(testutil.Config())
	operator := mail.Address{Address: testutil.Config().Notifications.OperatorEmail}
	n := notifysvc.NewEmailNotifier(mailSvc, operator)

	n.Notify(completed)
	assert.Empty(t, mailSvc.SentMessages(), "only graduations are emailed")

	n.Notify(completed, graduated)
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, []mail.Address{operator}, sent[0].To)
	assert.Contains(t, sent[0].Subject, "c1")
	assert.Contains(t, sent[0].TextContent, "Members graduated: 49")
	assert.Contains(t, sent[0].TextContent, "Members failed: 1")
}

func TestFanout(t *testing.T) {
	first, second := notifysvc.NewNotifierMock(), notifysvc.NewNotifierMock()
	n := notifysvc.Fanout(first, nil, second)

	n.Notify()
	n.Notify(completed, graduated)

	for _, m := range []*notifysvc.NotifierMock{first, second} {
		assert.Len(t, m.Events(), 2)
		assert.Len(t, m.Events(core.EventCourseGraduated), 1)
	}
	first.Reset()
	assert.Empty(t, first.Events())
}
