package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core"
	"github.com/healthymentoring/backend/core/session"
	"github.com/healthymentoring/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSession(
	t *testing.T,
	repo session.Repository,
	title string,
	startAt, endAt time.Time,
	mentors, attendees []uuid.UUID,
) session.Session {
	t.Helper()

	now := time.Now().UTC()
	sess := session.Session{
		ID:        uuid.New(),
		Title:     title,
		StartAt:   startAt.UTC(),
		EndAt:     endAt.UTC(),
		Status:    session.StatusScheduled,
		Mentors:   mentors,
		Attendees: attendees,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess, err := repo.CreateSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func (Logger) Enable(bool)                  {}
func (Logger) Debug(string, ...interface{}) {}
func (Logger) Info(string, ...interface{})  {}
func (Logger) Warn(string, ...interface{})  {}
func (Logger) Error(string, ...interface{}) {}
func (Logger) Fatal(string, ...interface{}) {}
