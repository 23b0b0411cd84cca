package store

import (
	"database/sql"
	"fmt"
)

// FeatureStats are the counters for one feature kind in one session.
type FeatureStats struct {
	Kind       string `json:"kind"`
	Frames     int64  `json:"frames"`
	Detections int64  `json:"detections"`
	Pixels     int64  `json:"pixels"`
	Faults     int64  `json:"faults"`
	Toggles    int64  `json:"toggles"`
}

// StatsRepository provides access to per-feature statistics.
type StatsRepository struct {
	db *sql.DB
}

// Stats returns the statistics repository for this store.
func (s *Store) Stats() *StatsRepository {
	return &StatsRepository{db: s.db}
}

// Add accumulates stats into the session's rows in a single transaction.
func (r *StatsRepository) Add(sessionID string, stats []FeatureStats) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, st := range stats {
		_, err := tx.Exec(
			`INSERT INTO feature_stats (session_id, kind, frames, detections, pixels, faults, toggles)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id, kind) DO UPDATE SET
			   frames = frames + excluded.frames,
			   detections = detections + excluded.detections,
			   pixels = pixels + excluded.pixels,
			   faults = faults + excluded.faults,
			   toggles = toggles + excluded.toggles`,
			sessionID, st.Kind, st.Frames, st.Detections, st.Pixels, st.Faults, st.Toggles,
		)
		if err != nil {
			return fmt.Errorf("add stats for %s: %w", st.Kind, err)
		}
	}

	return tx.Commit()
}

// ListBySession returns the statistics for a session ordered by kind.
func (r *StatsRepository) ListBySession(sessionID string) ([]FeatureStats, error) {
	rows, err := r.db.Query(
		`SELECT kind, frames, detections, pixels, faults, toggles
		 FROM feature_stats WHERE session_id = ? ORDER BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []FeatureStats
	for rows.Next() {
		var st FeatureStats
		if err := rows.Scan(&st.Kind, &st.Frames, &st.Detections, &st.Pixels, &st.Faults, &st.Toggles); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
