package timezone

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core"
)

var ErrNotFound = errors.New("timezone preference not found")

type (
	Repository interface {
		// GetPreference returns the stored triad, or an empty Preference for
		// the profile when no row exists yet (profiles start unconfigured).
		GetPreference(ctx context.Context, profileID uuid.UUID) (Preference, error)
		// UpdatePreference loads the row for profileID under a per-profile
		// mutual-exclusion boundary (row lock or equivalent), applies fn to
		// it and commits the result atomically. Missing rows are created
		// empty before fn runs. Two near-simultaneous observations therefore
		// serialize: the last committed one wins and no directive is ever
		// computed against a superseded detected value.
		UpdatePreference(ctx context.Context, profileID uuid.UUID, apply func(pref *Preference) error) (Preference, error)
	}

	// UpcomingSession is one row of the owner's schedule included in the
	// timezone-change notification, rendered in the new zone.
	UpcomingSession struct {
		Title   string    `json:"title"`
		StartAt time.Time `json:"start_at"`
	}

	// ScheduleSourceFunc lists a profile's upcoming sessions for
	// notification rendering. Wired to the session service at start-up.
	ScheduleSourceFunc func(ctx context.Context, profileID uuid.UUID) ([]UpcomingSession, error)

	// RecipientResolverFunc resolves a profile id to a notification
	// recipient. Wired to the user service at start-up.
	RecipientResolverFunc func(ctx context.Context, profileID uuid.UUID) (core.Recipient, error)

	Service interface {
		Get(ctx context.Context, profileID uuid.UUID) (Preference, error)
		// Reconcile records a freshly observed detected timezone and returns
		// the prompt directive owed to the user, if any.
		Reconcile(ctx context.Context, profileID uuid.UUID, observed string) (Preference, Directive, error)
		// AcceptDetected adopts the detected zone as the selection ("use
		// detected" response to either prompt kind).
		AcceptDetected(ctx context.Context, profileID uuid.UUID) (Preference, error)
		// ChooseSelected records an explicit zone choice from either prompt,
		// including re-asserting the current selection.
		ChooseSelected(ctx context.Context, profileID uuid.UUID, chosen string) (Preference, error)
		// DisplayTimezone resolves the zone all session-time rendering for
		// this profile must use.
		DisplayTimezone(ctx context.Context, profileID uuid.UUID) (string, error)
	}

	service struct {
		repo      Repository
		notifier  core.Notifier
		schedule  ScheduleSourceFunc
		recipient RecipientResolverFunc
		conf      *core.Config
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	notifier core.Notifier,
	schedule ScheduleSourceFunc,
	recipient RecipientResolverFunc,
	conf *core.Config,
	logger core.Logger,
) Service {
	return &service{
		repo:      repo,
		notifier:  notifier,
		schedule:  schedule,
		recipient: recipient,
		conf:      conf,
		logger:    logger,
	}
}

func (svc *service) Get(ctx context.Context, profileID uuid.UUID) (Preference, error) {
	return svc.repo.GetPreference(ctx, profileID)
}

func (svc *service) Reconcile(ctx context.Context, profileID uuid.UUID, observed string) (Preference, Directive, error) {
	var directive Directive
	pref, err := svc.repo.UpdatePreference(ctx, profileID, func(pref *Preference) error {
		*pref, directive = Reconcile(*pref, observed)
		pref.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return Preference{}, nil, errors.Wrap(err, "reconciling timezone preference")
	}
	return pref, directive, nil
}

func (svc *service) AcceptDetected(ctx context.Context, profileID uuid.UUID) (Preference, error) {
	return svc.updateSelection(ctx, profileID, func(pref Preference) Preference {
		return AcceptDetected(pref)
	})
}

func (svc *service) ChooseSelected(ctx context.Context, profileID uuid.UUID, chosen string) (Preference, error) {
	return svc.updateSelection(ctx, profileID, func(pref Preference) Preference {
		return ChooseSelected(pref, chosen)
	})
}

func (svc *service) DisplayTimezone(ctx context.Context, profileID uuid.UUID) (string, error) {
	pref, err := svc.repo.GetPreference(ctx, profileID)
	if err != nil {
		return "", errors.Wrap(err, "getting timezone preference")
	}
	return DisplayZone(pref, svc.conf.DefaultTimezone), nil
}

// updateSelection applies fn under the row lock and dispatches the
// timezone-change notification when the selection actually changed.
// Dispatch happens after commit and never affects the stored state.
func (svc *service) updateSelection(ctx context.Context, profileID uuid.UUID, fn func(Preference) Preference) (Preference, error) {
	var oldSelected string
	pref, err := svc.repo.UpdatePreference(ctx, profileID, func(pref *Preference) error {
		oldSelected = pref.Selected
		*pref = fn(*pref)
		pref.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return Preference{}, errors.Wrap(err, "updating timezone selection")
	}

	if pref.Selected != oldSelected && oldSelected != "" {
		svc.notifyTimezoneChanged(ctx, profileID, oldSelected, pref.Selected)
	}
	return pref, nil
}

func (svc *service) notifyTimezoneChanged(ctx context.Context, profileID uuid.UUID, oldZone, newZone string) {
	recipient, err := svc.recipient(ctx, profileID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("timezone change notification: resolving recipient %s: %v", profileID, err), err)
		return
	}

	upcoming, err := svc.schedule(ctx, profileID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("timezone change notification: listing sessions for %s: %v", profileID, err), err)
		upcoming = nil // still notify, without the schedule
	}

	// render the schedule in the new zone; DST-aware offsets are the tz
	// database's job, not ours
	loc, err := time.LoadLocation(newZone)
	if err != nil {
		loc = time.UTC
	}
	schedule := make([]UpcomingSession, 0, len(upcoming))
	for _, s := range upcoming {
		schedule = append(schedule, UpcomingSession{Title: s.Title, StartAt: s.StartAt.In(loc)})
	}

	svc.notifier.Dispatch(core.Notification{
		Kind:       core.NotifTimezoneChanged,
		Recipients: []core.Recipient{recipient},
		Context: map[string]interface{}{
			"old_timezone":      oldZone,
			"new_timezone":      newZone,
			"upcoming_sessions": schedule,
		},
	})
}
