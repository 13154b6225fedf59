package session

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core"
)

// Status of a session. A live session is always `scheduled`; `cancelled`
// only ever results from the single-attendee cancellation path (the row is
// kept for history), and `completed` from the cleanup pass. Mentor-initiated
// whole-session cancellation deletes the row instead of flagging it.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Session is a booked mentoring session between a set of mentor parties and
// a set of attendee parties. Ordering within the party sets is irrelevant.
//
// Invariant: a live (non-deleted) session always has at least one mentor and
// at least one attendee; membership is only ever mutated through the cancel
// operations, which preserve the invariant or delete the session entirely.
type Session struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Note      string      `json:"note,omitempty"`
	StartAt   time.Time   `json:"start_at"` // UTC
	EndAt     time.Time   `json:"end_at"`   // UTC
	Status    Status      `json:"status"`
	Mentors   []uuid.UUID `json:"mentors"`
	Attendees []uuid.UUID `json:"attendees"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

func (s *Session) HasMentor(id uuid.UUID) bool   { return containsID(s.Mentors, id) }
func (s *Session) HasAttendee(id uuid.UUID) bool { return containsID(s.Attendees, id) }

// Parties returns the union of both party sets.
func (s *Session) Parties() []uuid.UUID {
	all := make([]uuid.UUID, 0, len(s.Mentors)+len(s.Attendees))
	all = append(all, s.Mentors...)
	all = append(all, s.Attendees...)
	return all
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// NewSession contains information needed to book a new Session.
type NewSession struct {
	Title     string      `json:"title" validate:"required"`
	Note      string      `json:"note"`
	StartAt   time.Time   `json:"start_at" validate:"required"`
	EndAt     time.Time   `json:"end_at" validate:"required,gtfield=StartAt"`
	Mentors   []uuid.UUID `json:"mentors" validate:"required,min=1"`
	Attendees []uuid.UUID `json:"attendees" validate:"required,min=1"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Note = core.CleanString(ns.Note)
	return validate.Struct(ns)
}
