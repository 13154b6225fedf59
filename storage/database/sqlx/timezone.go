package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core/timezone"
)

type preferenceRow struct {
	ProfileID         uuid.UUID `db:"profile_id"`
	Detected          string    `db:"detected_timezone"`
	Selected          string    `db:"selected_timezone"`
	ConfirmedMismatch bool      `db:"confirmed_mismatch"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r preferenceRow) toPreference() timezone.Preference {
	return timezone.Preference{
		ProfileID:         r.ProfileID,
		Detected:          r.Detected,
		Selected:          r.Selected,
		ConfirmedMismatch: r.ConfirmedMismatch,
		UpdatedAt:         r.UpdatedAt,
	}
}

type timezoneRepository struct {
	db *sqlx.DB
}

var _ timezone.Repository = (*timezoneRepository)(nil) // interface compliance check

func NewTimezoneRepository(db *sqlx.DB) timezone.Repository {
	return &timezoneRepository{db: db}
}

func (repo *timezoneRepository) GetPreference(ctx context.Context, profileID uuid.UUID) (timezone.Preference, error) {
	var rows []preferenceRow
	query := "SELECT * FROM timezone_preferences WHERE profile_id = $1"
	if err := repo.db.SelectContext(ctx, &rows, query, profileID); err != nil {
		return timezone.Preference{}, errors.Wrap(err, "getting timezone preference")
	}
	if len(rows) == 0 {
		// profiles start unconfigured
		return timezone.Preference{ProfileID: profileID}, nil
	}
	return rows[0].toPreference(), nil
}

// UpdatePreference serializes concurrent observations for one profile on the
// row lock taken by SELECT ... FOR UPDATE; the row is created first so there
// is always something to lock.
func (repo *timezoneRepository) UpdatePreference(ctx context.Context, profileID uuid.UUID, apply func(pref *timezone.Preference) error) (timezone.Preference, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return timezone.Preference{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO timezone_preferences (profile_id, updated_at)
		VALUES ($1, $2)
		ON CONFLICT (profile_id) DO NOTHING
	`
	if _, err = tx.ExecContext(ctx, insert, profileID, time.Now().UTC()); err != nil {
		return timezone.Preference{}, errors.Wrap(err, "ensuring timezone preference row")
	}

	var row preferenceRow
	lock := "SELECT * FROM timezone_preferences WHERE profile_id = $1 FOR UPDATE"
	if err = tx.GetContext(ctx, &row, lock, profileID); err != nil {
		return timezone.Preference{}, errors.Wrap(err, "locking timezone preference")
	}

	pref := row.toPreference()
	if err = apply(&pref); err != nil {
		return timezone.Preference{}, err
	}

	update := `
		UPDATE timezone_preferences
		SET detected_timezone = $2, selected_timezone = $3, confirmed_mismatch = $4, updated_at = $5
		WHERE profile_id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		profileID, pref.Detected, pref.Selected, pref.ConfirmedMismatch, pref.UpdatedAt)
	if err != nil {
		return timezone.Preference{}, errors.Wrap(err, "updating timezone preference")
	}

	if err = tx.Commit(); err != nil {
		return timezone.Preference{}, errors.Wrap(err, "committing timezone preference")
	}
	return pref, nil
}
