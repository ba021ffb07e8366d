package notifysvc

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trezcool/ecclesia/core"
)

type webhookNotifier struct {
	client *resty.Client
	url    string
	logger core.Logger
}

var _ core.Notifier = (*webhookNotifier)(nil)

// NewWebhookNotifier POSTs event batches as JSON to the configured URL.
// Network errors and 5xx responses are retried; failures are only logged.
func NewWebhookNotifier(logger core.Logger, conf core.NotificationConfig) core.Notifier {
	client := resty.New().
		SetTimeout(conf.WebhookTimeout).
		SetRetryCount(conf.WebhookRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(res *resty.Response, err error) bool {
			return err != nil || res.StatusCode() >= http.StatusInternalServerError
		})
	return &webhookNotifier{client: client, url: conf.WebhookURL, logger: logger}
}

type webhookPayload struct {
	Events []core.Event `json:"events"`
}

func (n webhookNotifier) Notify(events ...core.Event) {
	if len(events) == 0 {
		return
	}
	batch := append([]core.Event(nil), events...)
	go n.post(batch)
}

func (n webhookNotifier) post(events []core.Event) {
	res, err := n.client.R().SetBody(webhookPayload{Events: events}).Post(n.url)
	if err != nil {
		n.logger.Error(fmt.Sprintf("posting webhook: %v", err), err)
		return
	}
	if res.IsError() {
		n.logger.Error(fmt.Sprintf("posting webhook - status: %d - Body: %s", res.StatusCode(), res.String()))
	}
}
