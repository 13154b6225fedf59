package timezone

import (
	"time"

	"github.com/google/uuid"
)

// Preference is the timezone triad stored per profile. Detected tracks the
// latest observation from the owner's browser; Selected is the
// authoritative display zone once set (empty means never configured);
// ConfirmedMismatch records that the owner explicitly accepted a Selected
// zone that differs from Detected and must not be re-prompted.
//
// Invariants:
//   - Selected == Detected implies ConfirmedMismatch == false.
//   - ConfirmedMismatch is only meaningful when both zones are non-empty.
type Preference struct {
	ProfileID         uuid.UUID `json:"profile_id"`
	Detected          string    `json:"detected_timezone"`
	Selected          string    `json:"selected_timezone"`
	ConfirmedMismatch bool      `json:"confirmed_mismatch"`
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// Directive tells the caller what, if anything, to show the user after a
// reconciliation pass.
type Directive interface {
	directive()
}

type (
	// None: nothing to show.
	None struct{}

	// PromptFirstTime: the profile has never configured a timezone; the
	// caller must ask the user to confirm the suggested (detected) zone or
	// pick another. The engine never silently adopts the suggestion.
	PromptFirstTime struct {
		Suggested string `json:"suggested"`
	}

	// PromptMismatch: the detected zone differs from the selected one and
	// the owner has not confirmed the divergence yet.
	PromptMismatch struct {
		Detected string `json:"detected"`
		Selected string `json:"selected"`
	}
)

func (None) directive()            {}
func (PromptFirstTime) directive() {}
func (PromptMismatch) directive()  {}

// Reconcile applies a freshly observed detected timezone to the stored
// triad and decides what prompt, if any, the caller owes the user.
// The observed zone is assumed valid; unknown identifiers are rejected at
// the validation boundary before this point.
func Reconcile(pref Preference, observed string) (Preference, Directive) {
	// the detected value always tracks the latest observation,
	// independently of everything that follows
	pref.Detected = observed

	if pref.Selected == "" {
		return pref, PromptFirstTime{Suggested: observed}
	}

	if pref.Selected == observed {
		// the mismatch is moot now that the zones agree
		pref.ConfirmedMismatch = false
		return pref, None{}
	}

	if pref.ConfirmedMismatch {
		// the owner already decided to keep a divergent selection
		return pref, None{}
	}
	return pref, PromptMismatch{Detected: observed, Selected: pref.Selected}
}

// AcceptDetected adopts the detected zone as the selected one. Used for
// "use detected" responses to either prompt kind.
func AcceptDetected(pref Preference) Preference {
	pref.Selected = pref.Detected
	pref.ConfirmedMismatch = false
	return pref
}

// ChooseSelected records an explicit zone choice, which may re-assert the
// existing selection; the mismatch flag is set whenever the choice
// diverges from the detected zone.
func ChooseSelected(pref Preference, chosen string) Preference {
	pref.Selected = chosen
	pref.ConfirmedMismatch = chosen != pref.Detected && pref.Detected != ""
	return pref
}

// DisplayZone resolves the zone every timezone-sensitive read path must
// render with: selected, else detected, else the fixed fallback. Applying
// this identically everywhere is what keeps a dashboard and a booking view
// from showing different times for the same instant.
func DisplayZone(pref Preference, fallback string) string {
	if pref.Selected != "" {
		return pref.Selected
	}
	if pref.Detected != "" {
		return pref.Detected
	}
	return fallback
}
