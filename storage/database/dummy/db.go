package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core/session"
	"github.com/healthymentoring/backend/core/timezone"
	"github.com/healthymentoring/backend/core/user"
)

type (
	DB struct {
		user       *userTable
		preference *preferenceTable
		session    *sessionTable
	}

	userTable struct {
		sync.RWMutex
		table map[uuid.UUID]*user.User
	}

	preferenceTable struct {
		sync.Mutex
		table map[uuid.UUID]*timezone.Preference
	}

	sessionTable struct {
		sync.Mutex
		table map[uuid.UUID]*session.Session
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[uuid.UUID]*user.User)},
		preference: &preferenceTable{table: make(map[uuid.UUID]*timezone.Preference)},
		session:    &sessionTable{table: make(map[uuid.UUID]*session.Session)},
	}
	return db, nil
}
