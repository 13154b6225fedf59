package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrNotAMember: the acting party is not currently in the session's
	// mentor/attendee set. A rejected request, never a silent no-op.
	ErrNotAMember = errors.New("acting party is not a member of this session")
	// ErrAmbiguousIntent: a multi-mentor cancel was invoked without an
	// explicit leave_only value; the caller must re-prompt the user.
	ErrAmbiguousIntent = errors.New("leave_only must be provided when the session has multiple mentors")
	// ErrInvariantViolation: a removal would empty a party set outside the
	// designated branches. Indicates a sequencing defect; the operation is
	// aborted before any mutation is committed.
	ErrInvariantViolation = errors.New("removal would leave the session without a required party")
	// ErrSessionConcluded: the session is cancelled or completed. Concluded
	// sessions are historical records; they cannot be cancelled, left or
	// deleted again.
	ErrSessionConcluded = errors.New("session has already been cancelled or completed")
)

// Change tells the repository how to commit a transition.
type Change int

const (
	ChangeNone Change = iota
	ChangeUpdate
	ChangeDelete
)

// Notice is a notification fan-out instruction produced by a transition:
// which template kind, addressed to which party ids. Recipient details are
// resolved by the service after commit.
type Notice struct {
	Kind     core.NotificationKind
	PartyIDs []uuid.UUID
}

// Outcome of a transition: how to persist the mutated session and what to
// fan out once committed.
type Outcome struct {
	Change            Change
	NeedsConfirmation bool
	Notices           []Notice
}

// mentorCancel mutates sess in response to a cancel/leave request from a
// mentor party. With a single mentor, "leave" and "cancel for everyone" are
// the same outcome and leaveOnly is irrelevant: the session is deleted.
func mentorCancel(sess *Session, actingMentor uuid.UUID, leaveOnly *bool) (Outcome, error) {
	if sess.Status != StatusScheduled {
		return Outcome{}, ErrSessionConcluded
	}
	if !sess.HasMentor(actingMentor) {
		return Outcome{}, ErrNotAMember
	}

	if len(sess.Mentors) > 1 {
		if leaveOnly == nil {
			return Outcome{}, ErrAmbiguousIntent
		}
		if *leaveOnly {
			sess.Mentors = removeID(sess.Mentors, actingMentor)
			if len(sess.Mentors) == 0 {
				// shouldn't occur given the guard above; the invariant is
				// non-negotiable, so fall through to full deletion
				return Outcome{
					Change:  ChangeDelete,
					Notices: []Notice{{Kind: core.NotifSessionCancelled, PartyIDs: sess.Attendees}},
				}, nil
			}
			return Outcome{
				Change:  ChangeUpdate,
				Notices: []Notice{{Kind: core.NotifMentorLeft, PartyIDs: sess.Parties()}},
			}, nil
		}
		// cancel for everyone; other mentors lose access to the deleted
		// session implicitly and are not separately notified
	}

	return Outcome{
		Change:  ChangeDelete,
		Notices: []Notice{{Kind: core.NotifSessionCancelled, PartyIDs: sess.Attendees}},
	}, nil
}

// attendeeCancel mutates sess in response to a cancel/leave request from an
// attendee party. The single-attendee path retains the row as cancelled
// (history/reporting reads it); with multiple attendees, any request
// without an explicit leaveOnly=true mutates nothing and asks the caller to
// confirm first.
func attendeeCancel(sess *Session, actingAttendee uuid.UUID, leaveOnly *bool) (Outcome, error) {
	if sess.Status != StatusScheduled {
		return Outcome{}, ErrSessionConcluded
	}
	if !sess.HasAttendee(actingAttendee) {
		return Outcome{}, ErrNotAMember
	}

	if len(sess.Attendees) == 1 {
		sess.Status = StatusCancelled
		return Outcome{
			Change:  ChangeUpdate,
			Notices: []Notice{{Kind: core.NotifSessionCancelledByClient, PartyIDs: sess.Mentors}},
		}, nil
	}

	if leaveOnly == nil || !*leaveOnly {
		return Outcome{Change: ChangeNone, NeedsConfirmation: true}, nil
	}

	sess.Attendees = removeID(sess.Attendees, actingAttendee)
	if len(sess.Attendees) == 0 {
		// unreachable given the single-attendee branch above
		return Outcome{}, ErrInvariantViolation
	}
	return Outcome{
		Change:  ChangeUpdate,
		Notices: []Notice{{Kind: core.NotifClientLeft, PartyIDs: sess.Parties()}},
	}, nil
}
