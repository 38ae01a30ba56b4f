// Package history records completed match and tailoring operations in a
// local SQLite database. The core hands results over and has no further
// knowledge of how they are stored.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mpresser/tailorbot/internal/ai"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	resume_id TEXT NOT NULL,
	score REAL NOT NULL,
	recommendation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_job ON matches(job_id);

CREATE TABLE IF NOT EXISTS applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id TEXT NOT NULL,
	resume_id TEXT NOT NULL,
	resume_text TEXT NOT NULL,
	cover_letter TEXT NOT NULL,
	changes TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id);
`

// Store is the SQLite-backed history database.
type Store struct {
	db *sql.DB
}

// Application is one stored tailoring outcome.
type Application struct {
	ID          int64
	JobID       string
	ResumeID    string
	ResumeText  string
	CoverLetter string
	Changes     []string
	CreatedAt   time.Time
}

// Open creates or opens the history database at the given path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database %q: %w", path, err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveMatch records one computed match score.
func (s *Store) SaveMatch(ctx context.Context, jobID, resumeID string, score float64, recommendation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (job_id, resume_id, score, recommendation, created_at) VALUES (?, ?, ?, ?, ?)`,
		jobID, resumeID, score, recommendation, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving match: %w", err)
	}
	return nil
}

// SaveApplication records one completed tailoring result.
func (s *Store) SaveApplication(ctx context.Context, jobID, resumeID string, result *ai.TailoringResult) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("tailoring result is required")
	}

	changes := result.Changes
	if changes == nil {
		changes = []string{}
	}

	encoded, err := json.Marshal(changes)
	if err != nil {
		return 0, fmt.Errorf("encoding changes: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (job_id, resume_id, resume_text, cover_letter, changes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, resumeID, result.ResumeText, result.CoverLetter, string(encoded), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("saving application: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saving application: %w", err)
	}

	return id, nil
}

// RecentApplications returns the newest stored applications, most recent
// first. A non-positive limit defaults to 10.
func (s *Store) RecentApplications(ctx context.Context, limit int) ([]*Application, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, resume_id, resume_text, cover_letter, changes, created_at
		 FROM applications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	applications := make([]*Application, 0, limit)
	for rows.Next() {
		var (
			app     Application
			changes string
		)
		if err := rows.Scan(&app.ID, &app.JobID, &app.ResumeID, &app.ResumeText, &app.CoverLetter, &changes, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}

		if err := json.Unmarshal([]byte(changes), &app.Changes); err != nil {
			return nil, fmt.Errorf("decoding changes for application %d: %w", app.ID, err)
		}

		applications = append(applications, &app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}

	return applications, nil
}

// BestMatch returns the highest stored score for a job, or false when the
// job has no recorded matches.
func (s *Store) BestMatch(ctx context.Context, jobID string) (resumeID string, score float64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT resume_id, score FROM matches WHERE job_id = ? ORDER BY score DESC, id ASC LIMIT 1`, jobID)

	switch err := row.Scan(&resumeID, &score); err {
	case nil:
		return resumeID, score, true, nil
	case sql.ErrNoRows:
		return "", 0, false, nil
	default:
		return "", 0, false, fmt.Errorf("querying best match: %w", err)
	}
}
