package notifysvc

import "github.com/trezcool/ecclesia/core"

type fanout []core.Notifier

// Fanout delivers every event to each of the given notifiers. Nil notifiers are skipped.
func Fanout(notifiers ...core.Notifier) core.Notifier {
	f := make(fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			f = append(f, n)
		}
	}
	return f
}

func (f fanout) Notify(events ...core.Event) {
	if len(events) == 0 {
		return
	}
	for _, n := range f {
		n.Notify(events...)
	}
}
