package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/user"
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session) (Session, error)
		GetSession(ctx context.Context, id uuid.UUID) (Session, error)
		// QuerySessionsByParty returns all sessions the given party belongs
		// to, on either side.
		QuerySessionsByParty(ctx context.Context, partyID uuid.UUID) ([]Session, error)
		// ApplySessionChange loads the session identified by id under a
		// row-level lock, calls apply on it and commits the returned change
		// (update or delete) within the same transaction. Concurrent calls
		// on one session serialize: the second caller observes the
		// post-first-change state.
		ApplySessionChange(ctx context.Context, id uuid.UUID, apply func(sess *Session) (Change, error)) (Session, error)
		// CompletePastSessions marks scheduled sessions whose end time has
		// passed as completed; returns the number of rows changed.
		CompletePastSessions(ctx context.Context, now time.Time) (int, error)
	}

	// CancelResult is the structured outcome of a cancel/leave operation, so
	// the calling layer can decide between "show error" and "re-prompt".
	CancelResult struct {
		// Session is the post-transition state; nil when the session was
		// deleted.
		Session *Session
		Deleted bool
		// NeedsConfirmation is set when a multi-attendee cancel arrived
		// without an explicit leave_only=true; nothing was mutated and the
		// caller must re-prompt for confirmation.
		NeedsConfirmation bool
	}

	Service interface {
		Create(ctx context.Context, ns NewSession) (Session, error)
		GetByID(ctx context.Context, id uuid.UUID) (Session, error)
		QueryByParty(ctx context.Context, partyID uuid.UUID) ([]Session, error)
		// QueryUpcomingByParty returns the party's scheduled sessions that
		// have not started yet, soonest first.
		QueryUpcomingByParty(ctx context.Context, partyID uuid.UUID) ([]Session, error)
		// MentorCancel handles a cancel/leave request from a mentor party.
		// leaveOnly may be nil (not provided); with multiple mentors that is
		// rejected as ErrAmbiguousIntent.
		MentorCancel(ctx context.Context, sessionID, mentorID uuid.UUID, leaveOnly *bool) (CancelResult, error)
		// AttendeeCancel handles a cancel/leave request from an attendee
		// party; see CancelResult.NeedsConfirmation for the two-phase
		// multi-attendee path.
		AttendeeCancel(ctx context.Context, sessionID, attendeeID uuid.UUID, leaveOnly *bool) (CancelResult, error)
		// CleanupExpired completes past scheduled sessions. Idempotent; run
		// periodically.
		CleanupExpired(ctx context.Context) (int, error)
	}

	service struct {
		repo     Repository
		usrRepo  user.Repository
		notifier core.Notifier
		conf     *core.Config
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, notifier core.Notifier, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:     repo,
		usrRepo:  usrRepo,
		notifier: notifier,
		conf:     conf,
		logger:   logger,
	}
}

func (svc *service) Create(ctx context.Context, ns NewSession) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.New(),
		Title:     ns.Title,
		Note:      ns.Note,
		StartAt:   ns.StartAt.UTC(),
		EndAt:     ns.EndAt.UTC(),
		Status:    StatusScheduled,
		Mentors:   ns.Mentors,
		Attendees: ns.Attendees,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSession(ctx, sess)
}

func (svc *service) GetByID(ctx context.Context, id uuid.UUID) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *service) QueryByParty(ctx context.Context, partyID uuid.UUID) ([]Session, error) {
	return svc.repo.QuerySessionsByParty(ctx, partyID)
}

func (svc *service) QueryUpcomingByParty(ctx context.Context, partyID uuid.UUID) ([]Session, error) {
	all, err := svc.repo.QuerySessionsByParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	upcoming := make([]Session, 0, len(all))
	for _, s := range all {
		if s.Status == StatusScheduled && s.StartAt.After(now) {
			upcoming = append(upcoming, s)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].StartAt.Before(upcoming[j].StartAt) })
	return upcoming, nil
}

func (svc *service) MentorCancel(ctx context.Context, sessionID, mentorID uuid.UUID, leaveOnly *bool) (CancelResult, error) {
	return svc.cancel(ctx, sessionID, mentorID, func(sess *Session) (Outcome, error) {
		return mentorCancel(sess, mentorID, leaveOnly)
	})
}

func (svc *service) AttendeeCancel(ctx context.Context, sessionID, attendeeID uuid.UUID, leaveOnly *bool) (CancelResult, error) {
	return svc.cancel(ctx, sessionID, attendeeID, func(sess *Session) (Outcome, error) {
		return attendeeCancel(sess, attendeeID, leaveOnly)
	})
}

// cancel runs a transition inside the repository's atomic boundary and
// dispatches the resulting notifications after commit. Dispatch is
// best-effort: a delivery failure never rolls back the membership mutation.
func (svc *service) cancel(ctx context.Context, sessionID, actingID uuid.UUID, transition func(sess *Session) (Outcome, error)) (CancelResult, error) {
	var outcome Outcome
	sess, err := svc.repo.ApplySessionChange(ctx, sessionID, func(sess *Session) (Change, error) {
		var tErr error
		outcome, tErr = transition(sess)
		if tErr != nil {
			return ChangeNone, tErr
		}
		if outcome.Change == ChangeUpdate {
			sess.UpdatedAt = time.Now().UTC()
		}
		return outcome.Change, nil
	})
	if err != nil {
		switch errors.Cause(err) {
		case ErrNotFound, ErrNotAMember, ErrAmbiguousIntent, ErrInvariantViolation, ErrSessionConcluded:
			return CancelResult{}, err
		}
		return CancelResult{}, errors.Wrap(err, "applying session change")
	}

	if outcome.NeedsConfirmation {
		return CancelResult{Session: &sess, NeedsConfirmation: true}, nil
	}

	svc.dispatch(ctx, sess, actingID, outcome.Notices)

	if outcome.Change == ChangeDelete {
		return CancelResult{Deleted: true}, nil
	}
	return CancelResult{Session: &sess}, nil
}

func (svc *service) CleanupExpired(ctx context.Context) (int, error) {
	n, err := svc.repo.CompletePastSessions(ctx, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "completing past sessions")
	}
	return n, nil
}

func (svc *service) dispatch(ctx context.Context, sess Session, actingID uuid.UUID, notices []Notice) {
	if len(notices) == 0 {
		return
	}

	acting := svc.resolveRecipient(ctx, actingID)

	notifs := make([]core.Notification, 0, len(notices))
	for _, notice := range notices {
		recipients := make([]core.Recipient, 0, len(notice.PartyIDs))
		for _, id := range notice.PartyIDs {
			recipients = append(recipients, svc.resolveRecipient(ctx, id))
		}
		notifs = append(notifs, core.Notification{
			Kind:       notice.Kind,
			Recipients: recipients,
			Context: map[string]interface{}{
				"session_id":    sess.ID,
				"session_title": sess.Title,
				"start_at":      sess.StartAt,
				"acting_party":  acting,
			},
		})
	}
	svc.notifier.Dispatch(notifs...)
}

// resolveRecipient is best-effort: an unresolvable party still gets an
// id-only recipient so in-app channels can address it.
func (svc *service) resolveRecipient(ctx context.Context, id uuid.UUID) core.Recipient {
	usr, err := svc.usrRepo.GetUserByID(ctx, id)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("resolving notification recipient %s: %v", id, err), err)
		return core.Recipient{ID: id}
	}
	return core.Recipient{ID: id, Name: usr.Name, Email: usr.Email}
}
