package dummynotif

import (
	"sync"

	"github.com/healthymentoring/backend/core"
)

// Notifier records dispatched notifications for assertions in tests.
type Notifier struct {
	mu   sync.Mutex
	sent []core.Notification
}

var _ core.Notifier = (*Notifier)(nil)

func NewNotifier() *Notifier { return &Notifier{} }

func (n *Notifier) Dispatch(notifs ...core.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notifs...)
}

func (n *Notifier) Sent() []core.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]core.Notification(nil), n.sent...)
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}
