package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core/timezone"
)

type timezoneRepository struct {
	db *preferenceTable
}

var _ timezone.Repository = (*timezoneRepository)(nil) // interface compliance check

func NewTimezoneRepository(db *DB) timezone.Repository {
	return &timezoneRepository{db: db.preference}
}

func (repo *timezoneRepository) GetPreference(ctx context.Context, profileID uuid.UUID) (timezone.Preference, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if pref, ok := repo.db.table[profileID]; ok {
		return *pref, nil
	}
	// profiles start unconfigured
	return timezone.Preference{ProfileID: profileID}, nil
}

// UpdatePreference holds the table lock across the whole apply, which gives
// the same serialization a row lock does in Postgres.
func (repo *timezoneRepository) UpdatePreference(ctx context.Context, profileID uuid.UUID, apply func(pref *timezone.Preference) error) (timezone.Preference, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pref := timezone.Preference{ProfileID: profileID}
	if stored, ok := repo.db.table[profileID]; ok {
		pref = *stored
	}
	// apply works on a copy; a failed apply must leave the row untouched
	if err := apply(&pref); err != nil {
		return timezone.Preference{}, err
	}
	cp := pref
	repo.db.table[profileID] = &cp
	return pref, nil
}
