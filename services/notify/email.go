package notifysvc

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/trezcool/ecclesia/core"
)

type emailNotifier struct {
	mailSvc  core.EmailService
	operator mail.Address
}

var _ core.Notifier = (*emailNotifier)(nil)

// NewEmailNotifier emails graduation summaries to the operator. Other events are ignored.
func NewEmailNotifier(mailSvc core.EmailService, operator mail.Address) core.Notifier {
	return &emailNotifier{mailSvc: mailSvc, operator: operator}
}

func (n emailNotifier) Notify(events ...core.Event) {
	messages := make([]*core.EmailMessage, 0)
	for _, e := range events {
		if e.Kind != core.EventCourseGraduated {
			continue
		}
		messages = append(messages, n.graduationSummary(e))
	}
	if len(messages) > 0 {
		n.mailSvc.SendMessages(messages...)
	}
}

func (n emailNotifier) graduationSummary(e core.Event) *core.EmailMessage {
	text := new(strings.Builder)
	_, _ = fmt.Fprintf(text, "Course %s has been graduated on %s.\n\n", e.CourseID, e.OccurredAt.UTC().Format(time.RFC1123))
	_, _ = fmt.Fprintf(text, "Members graduated: %d\n", e.Graduated)
	_, _ = fmt.Fprintf(text, "Members failed: %d\n", e.Failed)
	if e.Failed > 0 {
		_, _ = fmt.Fprint(text, "\nFailed members can be retried with: admin retry -course "+e.CourseID+" -members <ids>\n")
	}

	return &core.EmailMessage{
		To:          []mail.Address{n.operator},
		Subject:     "Course graduated: " + e.CourseID,
		TextContent: text.String(),
	}
}
