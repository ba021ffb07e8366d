package notifysvc

import (
	"sync"

	"github.com/trezcool/ecclesia/core"
)

type consoleNotifier struct {
	logger core.Logger
}

var _ core.Notifier = (*consoleNotifier)(nil)

// NewConsoleNotifier logs events instead of delivering them.
func NewConsoleNotifier(logger core.Logger) core.Notifier {
	return &consoleNotifier{logger: logger}
}

func (n consoleNotifier) Notify(events ...core.Event) {
	for _, e := range events {
		n.logger.Info("event: "+string(e.Kind), e)
	}
}

// NotifierMock records events synchronously.
type NotifierMock struct {
	mu     sync.Mutex
	events []core.Event
}

var _ core.Notifier = (*NotifierMock)(nil)

func NewNotifierMock() *NotifierMock {
	return new(NotifierMock)
}

func (n *NotifierMock) Notify(events ...core.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *NotifierMock) Events(kind ...core.EventKind) []core.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	events := make([]core.Event, 0, len(n.events))
	for _, e := range n.events {
		if len(kind) == 0 || e.Kind == kind[0] {
			events = append(events, e)
		}
	}
	return events
}

func (n *NotifierMock) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}
