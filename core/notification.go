package core

import "github.com/google/uuid"

// NotificationKind identifies a notification template. The dispatcher is
// responsible for rendering and delivery; the core only ever decides
// kind + recipients + context.
type NotificationKind string

const (
	// NotifSessionCancelled is sent to attendees when a mentor cancels a
	// session for everyone (the session row is deleted).
	NotifSessionCancelled NotificationKind = "session_cancelled"
	// NotifSessionCancelledByClient is sent to mentors when the only
	// attendee cancels (the session row is retained as cancelled).
	NotifSessionCancelledByClient NotificationKind = "session_cancelled_by_client"
	// NotifMentorLeft is sent to the remaining parties when a mentor leaves
	// a multi-mentor session.
	NotifMentorLeft NotificationKind = "mentor_left_session"
	// NotifClientLeft is sent to the remaining parties when an attendee
	// leaves a multi-attendee session.
	NotifClientLeft NotificationKind = "client_left_session"
	// NotifTimezoneChanged is sent to a profile owner when their selected
	// timezone changes.
	NotifTimezoneChanged NotificationKind = "timezone_changed"
)

type (
	// Recipient carries everything a dispatcher needs to address one party:
	// the id for in-app/push channels and the name/email for mail.
	Recipient struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Email string    `json:"email"`
	}

	Notification struct {
		Kind       NotificationKind       `json:"kind"`
		Recipients []Recipient            `json:"recipients"`
		Context    map[string]interface{} `json:"context,omitempty"`
	}

	// Notifier delivers notifications on a best-effort, fire-and-forget
	// basis. Delivery failure must never roll back committed state; it is
	// logged, not retried.
	Notifier interface {
		Dispatch(notifs ...Notification)
	}
)
