package dummydb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core/timezone"
	dummydb "github.com/healthymentoring/backend/storage/database/dummy"
)

func TestTimezoneRepository_UpdatePreference(t *testing.T) {
	ctx := context.Background()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewTimezoneRepository(db)
	profileID := uuid.New()

	if _, err = repo.UpdatePreference(ctx, profileID, func(pref *timezone.Preference) error {
		pref.Selected = "Europe/Paris"
		return nil
	}); err != nil {
		t.Fatalf("UpdatePreference() failed: %v", err)
	}

	// a failing apply must not leave a partial mutation behind
	applyErr := errors.New("boom")
	_, err = repo.UpdatePreference(ctx, profileID, func(pref *timezone.Preference) error {
		pref.Selected = "Asia/Tokyo"
		return applyErr
	})
	if err != applyErr {
		t.Fatalf("UpdatePreference() error = %v, want %v", err, applyErr)
	}

	got, err := repo.GetPreference(ctx, profileID)
	if err != nil {
		t.Fatalf("GetPreference() failed: %v", err)
	}
	if got.Selected != "Europe/Paris" {
		t.Errorf("GetPreference() Selected = %q, want the pre-failure value", got.Selected)
	}
}
