package store

import (
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is one run of the frame loop.
type Session struct {
	ID        string         `json:"id"`
	CameraID  int            `json:"camera_id"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Frames    int64          `json:"frames"`
	Skipped   int64          `json:"skipped"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	EndReason string         `json:"end_reason,omitempty"`
	Features  []FeatureStats `json:"features,omitempty"`
}

// SessionRepository provides access to recorded sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new open session. StartedAt is set if zero.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_id, width, height, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.CameraID, sess.Width, sess.Height, sess.StartedAt,
	)
	return err
}

// Finish records the final counters and closes the session.
func (r *SessionRepository) Finish(id string, frames, skipped int64, reason string) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frames = ?, skipped = ?, ended_at = ?, end_reason = ?
		 WHERE id = ?`,
		frames, skipped, time.Now(), reason, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session and its feature statistics.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT id, camera_id, width, height, frames, skipped, started_at, ended_at, end_reason
		 FROM sessions WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stats, err := (&StatsRepository{db: r.db}).ListBySession(id)
	if err != nil {
		return nil, err
	}
	sess.Features = stats

	return sess, nil
}

// List returns the most recent sessions first. A limit of zero or less
// returns every session. Feature statistics are not loaded.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, camera_id, width, height, frames, skipped, started_at, ended_at, end_reason
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its statistics.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.CameraID, &sess.Width, &sess.Height,
		&sess.Frames, &sess.Skipped, &sess.StartedAt, &ended, &sess.EndReason)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
