package notifsvc

import "github.com/healthymentoring/backend/core"

type multiNotifier struct {
	notifiers []core.Notifier
}

var _ core.Notifier = (*multiNotifier)(nil)

// Multi fans every notification out to all the given notifiers (email +
// message bus in production).
func Multi(notifiers ...core.Notifier) core.Notifier {
	return &multiNotifier{notifiers: notifiers}
}

func (n *multiNotifier) Dispatch(notifs ...core.Notification) {
	for _, notifier := range n.notifiers {
		notifier.Dispatch(notifs...)
	}
}
