package session

import (
	"testing"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core"
)

func boolPtr(b bool) *bool { return &b }

func TestMentorCancel(t *testing.T) {
	mentor1 := uuid.New()
	mentor2 := uuid.New()
	attendee1 := uuid.New()
	attendee2 := uuid.New()
	stranger := uuid.New()

	newSess := func(mentors, attendees []uuid.UUID) *Session {
		return &Session{
			ID:        uuid.New(),
			Title:     "Intro call",
			Status:    StatusScheduled,
			Mentors:   mentors,
			Attendees: attendees,
		}
	}

	t.Run("non-member is rejected", func(t *testing.T) {
		sess := newSess([]uuid.UUID{mentor1}, []uuid.UUID{attendee1})
		if _, err := mentorCancel(sess, stranger, nil); err != ErrNotAMember {
			t.Errorf("mentorCancel() error = %v, want %v", err, ErrNotAMember)
		}
	})

	t.Run("concluded sessions are immutable", func(t *testing.T) {
		for _, status := range []Status{StatusCancelled, StatusCompleted} {
			sess := newSess([]uuid.UUID{mentor1}, []uuid.UUID{attendee1})
			sess.Status = status
			if _, err := mentorCancel(sess, mentor1, nil); err != ErrSessionConcluded {
				t.Errorf("mentorCancel() on %s session error = %v, want %v", status, err, ErrSessionConcluded)
			}
			if sess.Status != status || len(sess.Mentors) != 1 {
				t.Errorf("mentorCancel() mutated a %s session: %+v", status, sess)
			}
		}
	})

	t.Run("sole mentor deletes regardless of leave_only", func(t *testing.T) {
		for _, leaveOnly := range []*bool{nil, boolPtr(true), boolPtr(false)} {
			sess := newSess([]uuid.UUID{mentor1}, []uuid.UUID{attendee1, attendee2})
			outcome, err := mentorCancel(sess, mentor1, leaveOnly)
			if err != nil {
				t.Fatalf("mentorCancel() failed: %v", err)
			}
			if outcome.Change != ChangeDelete {
				t.Errorf("mentorCancel() change = %v, want delete", outcome.Change)
			}
			if len(outcome.Notices) != 1 || outcome.Notices[0].Kind != core.NotifSessionCancelled {
				t.Errorf("mentorCancel() notices = %+v, want one %s", outcome.Notices, core.NotifSessionCancelled)
			}
			if got := outcome.Notices[0].PartyIDs; len(got) != 2 {
				t.Errorf("mentorCancel() notified %d parties, want the 2 attendees", len(got))
			}
		}
	})

	t.Run("multiple mentors without leave_only is ambiguous", func(t *testing.T) {
		sess := newSess([]uuid.UUID{mentor1, mentor2}, []uuid.UUID{attendee1})
		if _, err := mentorCancel(sess, mentor1, nil); err != ErrAmbiguousIntent {
			t.Errorf("mentorCancel() error = %v, want %v", err, ErrAmbiguousIntent)
		}
		if len(sess.Mentors) != 2 {
			t.Error("mentorCancel() mutated the session on a rejected request")
		}
	})

	t.Run("multiple mentors leave_only removes the actor", func(t *testing.T) {
		sess := newSess([]uuid.UUID{mentor1, mentor2}, []uuid.UUID{attendee1})
		outcome, err := mentorCancel(sess, mentor1, boolPtr(true))
		if err != nil {
			t.Fatalf("mentorCancel() failed: %v", err)
		}
		if outcome.Change != ChangeUpdate {
			t.Errorf("mentorCancel() change = %v, want update", outcome.Change)
		}
		if len(sess.Mentors) != 1 || sess.Mentors[0] != mentor2 {
			t.Errorf("mentorCancel() mentors = %v, want [%s]", sess.Mentors, mentor2)
		}
		if sess.Status != StatusScheduled {
			t.Errorf("mentorCancel() status = %v, want scheduled", sess.Status)
		}
		if len(outcome.Notices) != 1 || outcome.Notices[0].Kind != core.NotifMentorLeft {
			t.Errorf("mentorCancel() notices = %+v, want one %s", outcome.Notices, core.NotifMentorLeft)
		}
		// remaining mentor + attendee both hear about the departure
		if got := outcome.Notices[0].PartyIDs; len(got) != 2 {
			t.Errorf("mentorCancel() notified %d parties, want 2", len(got))
		}
	})

	t.Run("multiple mentors explicit cancel deletes for everyone", func(t *testing.T) {
		sess := newSess([]uuid.UUID{mentor1, mentor2}, []uuid.UUID{attendee1})
		outcome, err := mentorCancel(sess, mentor1, boolPtr(false))
		if err != nil {
			t.Fatalf("mentorCancel() failed: %v", err)
		}
		if outcome.Change != ChangeDelete {
			t.Errorf("mentorCancel() change = %v, want delete", outcome.Change)
		}
		if len(outcome.Notices) != 1 || outcome.Notices[0].Kind != core.NotifSessionCancelled {
			t.Errorf("mentorCancel() notices = %+v, want one %s", outcome.Notices, core.NotifSessionCancelled)
		}
	})
}

func TestAttendeeCancel(t *testing.T) {
	mentor1 := uuid.New()
	attendee1 := uuid.New()
	attendee2 := uuid.New()
	stranger := uuid.New()

	newSess := func(attendees []uuid.UUID) *Session {
		return &Session{
			ID:        uuid.New(),
			Title:     "Intro call",
			Status:    StatusScheduled,
			Mentors:   []uuid.UUID{mentor1},
			Attendees: attendees,
		}
	}

	t.Run("non-member is rejected", func(t *testing.T) {
		sess := newSess([]uuid.UUID{attendee1})
		if _, err := attendeeCancel(sess, stranger, nil); err != ErrNotAMember {
			t.Errorf("attendeeCancel() error = %v, want %v", err, ErrNotAMember)
		}
	})

	t.Run("concluded sessions are immutable", func(t *testing.T) {
		for _, status := range []Status{StatusCancelled, StatusCompleted} {
			sess := newSess([]uuid.UUID{attendee1, attendee2})
			sess.Status = status
			if _, err := attendeeCancel(sess, attendee1, boolPtr(true)); err != ErrSessionConcluded {
				t.Errorf("attendeeCancel() on %s session error = %v, want %v", status, err, ErrSessionConcluded)
			}
			if sess.Status != status || len(sess.Attendees) != 2 {
				t.Errorf("attendeeCancel() mutated a %s session: %+v", status, sess)
			}
		}
	})

	t.Run("sole attendee cancels the session in place", func(t *testing.T) {
		for _, leaveOnly := range []*bool{nil, boolPtr(true), boolPtr(false)} {
			sess := newSess([]uuid.UUID{attendee1})
			outcome, err := attendeeCancel(sess, attendee1, leaveOnly)
			if err != nil {
				t.Fatalf("attendeeCancel() failed: %v", err)
			}
			if outcome.Change != ChangeUpdate {
				t.Errorf("attendeeCancel() change = %v, want update", outcome.Change)
			}
			if sess.Status != StatusCancelled {
				t.Errorf("attendeeCancel() status = %v, want cancelled", sess.Status)
			}
			// the row survives for history; the attendee stays on it
			if len(sess.Attendees) != 1 {
				t.Errorf("attendeeCancel() attendees = %v, want the actor retained", sess.Attendees)
			}
			if len(outcome.Notices) != 1 || outcome.Notices[0].Kind != core.NotifSessionCancelledByClient {
				t.Errorf("attendeeCancel() notices = %+v, want one %s", outcome.Notices, core.NotifSessionCancelledByClient)
			}
		}
	})

	t.Run("multiple attendees without confirmation mutates nothing", func(t *testing.T) {
		for _, leaveOnly := range []*bool{nil, boolPtr(false)} {
			sess := newSess([]uuid.UUID{attendee1, attendee2})
			outcome, err := attendeeCancel(sess, attendee1, leaveOnly)
			if err != nil {
				t.Fatalf("attendeeCancel() failed: %v", err)
			}
			if outcome.Change != ChangeNone || !outcome.NeedsConfirmation {
				t.Errorf("attendeeCancel() outcome = %+v, want confirmation request", outcome)
			}
			if len(sess.Attendees) != 2 || sess.Status != StatusScheduled {
				t.Error("attendeeCancel() mutated the session while asking for confirmation")
			}
		}
	})

	t.Run("multiple attendees confirmed leave removes the actor", func(t *testing.T) {
		sess := newSess([]uuid.UUID{attendee1, attendee2})
		outcome, err := attendeeCancel(sess, attendee1, boolPtr(true))
		if err != nil {
			t.Fatalf("attendeeCancel() failed: %v", err)
		}
		if outcome.Change != ChangeUpdate {
			t.Errorf("attendeeCancel() change = %v, want update", outcome.Change)
		}
		if len(sess.Attendees) != 1 || sess.Attendees[0] != attendee2 {
			t.Errorf("attendeeCancel() attendees = %v, want [%s]", sess.Attendees, attendee2)
		}
		if sess.Status != StatusScheduled {
			t.Errorf("attendeeCancel() status = %v, want scheduled", sess.Status)
		}
		if len(outcome.Notices) != 1 || outcome.Notices[0].Kind != core.NotifClientLeft {
			t.Errorf("attendeeCancel() notices = %+v, want one %s", outcome.Notices, core.NotifClientLeft)
		}
	})
}
