package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/healthymentoring/backend/core/session"
)

type sessionRow struct {
	ID        uuid.UUID      `db:"id"`
	Title     string         `db:"title"`
	Note      string         `db:"note"`
	StartAt   time.Time      `db:"start_at"`
	EndAt     time.Time      `db:"end_at"`
	Status    session.Status `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r sessionRow) toSession(mentors, attendees []uuid.UUID) session.Session {
	return session.Session{
		ID:        r.ID,
		Title:     r.Title,
		Note:      r.Note,
		StartAt:   r.StartAt,
		EndAt:     r.EndAt,
		Status:    r.Status,
		Mentors:   mentors,
		Attendees: attendees,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, sess session.Session) (session.Session, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	insert := `
		INSERT INTO sessions (id, title, note, start_at, end_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, insert,
		sess.ID, sess.Title, sess.Note, sess.StartAt, sess.EndAt, sess.Status, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}

	if err = insertParties(ctx, tx, sess.ID, "session_mentors", sess.Mentors); err != nil {
		return session.Session{}, err
	}
	if err = insertParties(ctx, tx, sess.ID, "session_attendees", sess.Attendees); err != nil {
		return session.Session{}, err
	}

	if err = tx.Commit(); err != nil {
		return session.Session{}, errors.Wrap(err, "committing session")
	}
	return sess, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id uuid.UUID) (session.Session, error) {
	var row sessionRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM sessions WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}

	mentors, attendees, err := repo.getParties(ctx, repo.db, id)
	if err != nil {
		return session.Session{}, err
	}
	return row.toSession(mentors, attendees), nil
}

func (repo *sessionRepository) QuerySessionsByParty(ctx context.Context, partyID uuid.UUID) ([]session.Session, error) {
	var rows []sessionRow
	query := `
		SELECT s.* FROM sessions s
		WHERE EXISTS (SELECT 1 FROM session_mentors m WHERE m.session_id = s.id AND m.user_id = $1)
		   OR EXISTS (SELECT 1 FROM session_attendees a WHERE a.session_id = s.id AND a.user_id = $1)
		ORDER BY s.start_at
	`
	if err := repo.db.SelectContext(ctx, &rows, query, partyID); err != nil {
		return nil, errors.Wrap(err, "querying sessions by party")
	}

	sessions := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		mentors, attendees, err := repo.getParties(ctx, repo.db, row.ID)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, row.toSession(mentors, attendees))
	}
	return sessions, nil
}

// ApplySessionChange serializes concurrent cancels for one session on the row
// lock taken by SELECT ... FOR UPDATE.
func (repo *sessionRepository) ApplySessionChange(ctx context.Context, id uuid.UUID, apply func(sess *session.Session) (session.Change, error)) (session.Session, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row sessionRow
	if err = tx.GetContext(ctx, &row, "SELECT * FROM sessions WHERE id = $1 FOR UPDATE", id); err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "locking session")
	}

	mentors, attendees, err := repo.getParties(ctx, tx, id)
	if err != nil {
		return session.Session{}, err
	}
	sess := row.toSession(mentors, attendees)

	change, err := apply(&sess)
	if err != nil {
		return session.Session{}, err
	}

	switch change {
	case session.ChangeUpdate:
		update := `
			UPDATE sessions
			SET title = $2, note = $3, start_at = $4, end_at = $5, status = $6, updated_at = $7
			WHERE id = $1
		`
		_, err = tx.ExecContext(ctx, update,
			sess.ID, sess.Title, sess.Note, sess.StartAt, sess.EndAt, sess.Status, sess.UpdatedAt)
		if err != nil {
			return session.Session{}, errors.Wrap(err, "updating session")
		}
		if err = repo.replaceParties(ctx, tx, sess); err != nil {
			return session.Session{}, err
		}
	case session.ChangeDelete:
		// party rows go with it via ON DELETE CASCADE
		if _, err = tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", sess.ID); err != nil {
			return session.Session{}, errors.Wrap(err, "deleting session")
		}
	}

	if err = tx.Commit(); err != nil {
		return session.Session{}, errors.Wrap(err, "committing session change")
	}
	return sess, nil
}

func (repo *sessionRepository) CompletePastSessions(ctx context.Context, now time.Time) (int, error) {
	query := "UPDATE sessions SET status = $1, updated_at = $2 WHERE status = $3 AND end_at < $2"
	res, err := repo.db.ExecContext(ctx, query, session.StatusCompleted, now, session.StatusScheduled)
	if err != nil {
		return 0, errors.Wrap(err, "completing past sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting completed sessions")
	}
	return int(n), nil
}

func (repo *sessionRepository) getParties(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (mentors, attendees []uuid.UUID, err error) {
	if err = sqlx.SelectContext(ctx, q, &mentors,
		"SELECT user_id FROM session_mentors WHERE session_id = $1", id); err != nil {
		return nil, nil, errors.Wrap(err, "getting session mentors")
	}
	if err = sqlx.SelectContext(ctx, q, &attendees,
		"SELECT user_id FROM session_attendees WHERE session_id = $1", id); err != nil {
		return nil, nil, errors.Wrap(err, "getting session attendees")
	}
	return mentors, attendees, nil
}

func (repo *sessionRepository) replaceParties(ctx context.Context, tx *sqlx.Tx, sess session.Session) error {
	for _, table := range []string{"session_mentors", "session_attendees"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = $1", sess.ID); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}
	if err := insertParties(ctx, tx, sess.ID, "session_mentors", sess.Mentors); err != nil {
		return err
	}
	return insertParties(ctx, tx, sess.ID, "session_attendees", sess.Attendees)
}

func insertParties(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, table string, userIDs []uuid.UUID) error {
	for _, uid := range userIDs {
		query := "INSERT INTO " + table + " (session_id, user_id) VALUES ($1, $2)"
		if _, err := tx.ExecContext(ctx, query, sessionID, uid); err != nil {
			return errors.Wrapf(err, "inserting into %s", table)
		}
	}
	return nil
}
