package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/healthymentoring/backend/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	cp := copySession(sess)
	repo.db.table[sess.ID] = &cp
	return sess, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id uuid.UUID) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if sess, ok := repo.db.table[id]; ok {
		return copySession(*sess), nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) QuerySessionsByParty(ctx context.Context, partyID uuid.UUID) ([]session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var sessions []session.Session
	for _, sess := range repo.db.table {
		if sess.HasMentor(partyID) || sess.HasAttendee(partyID) {
			sessions = append(sessions, copySession(*sess))
		}
	}
	return sessions, nil
}

// ApplySessionChange holds the table lock across the whole apply, which gives
// the same serialization a SELECT ... FOR UPDATE does in Postgres.
func (repo *sessionRepository) ApplySessionChange(ctx context.Context, id uuid.UUID, apply func(sess *session.Session) (session.Change, error)) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}

	sess := copySession(*stored)
	change, err := apply(&sess)
	if err != nil {
		return session.Session{}, err
	}

	switch change {
	case session.ChangeUpdate:
		cp := copySession(sess)
		repo.db.table[id] = &cp
	case session.ChangeDelete:
		delete(repo.db.table, id)
	}
	return sess, nil
}

func (repo *sessionRepository) CompletePastSessions(ctx context.Context, now time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, sess := range repo.db.table {
		if sess.Status == session.StatusScheduled && sess.EndAt.Before(now) {
			sess.Status = session.StatusCompleted
			sess.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func copySession(sess session.Session) session.Session {
	sess.Mentors = append([]uuid.UUID(nil), sess.Mentors...)
	sess.Attendees = append([]uuid.UUID(nil), sess.Attendees...)
	return sess
}
