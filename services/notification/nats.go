package notifsvc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/healthymentoring/backend/core"
)

// notificationEvent is the wire format consumed by the in-app notification
// worker.
type notificationEvent struct {
	EventType    string                 `json:"event_type"`
	RecipientIDs []uuid.UUID            `json:"recipient_ids"`
	Context      map[string]interface{} `json:"context,omitempty"`
	EmittedAt    time.Time              `json:"emitted_at"`
}

type natsNotifier struct {
	conn   *nats.Conn
	logger core.Logger
}

var _ core.Notifier = (*natsNotifier)(nil)

func NewNatsNotifier(url string, logger core.Logger) (core.Notifier, error) {
	nc, err := nats.Connect(url, nats.Name("healthymentoring-backend"))
	if err != nil {
		return nil, err
	}
	return &natsNotifier{conn: nc, logger: logger}, nil
}

func (n *natsNotifier) Dispatch(notifs ...core.Notification) {
	for _, notif := range notifs {
		ids := make([]uuid.UUID, 0, len(notif.Recipients))
		for _, rcpt := range notif.Recipients {
			ids = append(ids, rcpt.ID)
		}
		event := notificationEvent{
			EventType:    string(notif.Kind),
			RecipientIDs: ids,
			Context:      notif.Context,
			EmittedAt:    time.Now().UTC(),
		}

		payload, err := json.Marshal(event)
		if err != nil {
			n.logger.Error(fmt.Sprintf("marshalling %s event: %v", notif.Kind, err), err)
			continue
		}

		subject := "notification." + string(notif.Kind)
		if err = n.conn.Publish(subject, payload); err != nil {
			n.logger.Error(fmt.Sprintf("publishing to %s: %v", subject, err), err)
		}
	}
}
