package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/jobpulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_traces (
	job_id         TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	structured     TEXT,
	attempts       TEXT NOT NULL,
	location_text  TEXT,
	remote_policy  TEXT,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS job_skills (
	job_id TEXT NOT NULL,
	skill  TEXT NOT NULL,
	PRIMARY KEY (job_id, skill)
);

CREATE INDEX IF NOT EXISTS idx_extraction_traces_status ON extraction_traces(status);
CREATE INDEX IF NOT EXISTS idx_extraction_traces_finished_at ON extraction_traces(finished_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveOutcome upserts the trace row for outcome's job. Timestamps come from
// the outcome itself, so saving the same outcome twice writes identical rows.
func (s *SQLiteStore) SaveOutcome(ctx context.Context, outcome *model.ExtractionOutcome) error {
	attemptsJSON, err := json.Marshal(outcome.Attempts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal attempts")
	}

	var structuredJSON sql.NullString
	if outcome.StructuredData != nil {
		raw, err := json.Marshal(outcome.StructuredData)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal structured data")
		}
		structuredJSON = sql.NullString{String: string(raw), Valid: true}
	}

	location, remotePolicy := postingFacets(outcome.StructuredData)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extraction_traces
		 (job_id, status, schema_version, structured, attempts, location_text, remote_policy, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
		   status = excluded.status,
		   schema_version = excluded.schema_version,
		   structured = excluded.structured,
		   attempts = excluded.attempts,
		   location_text = excluded.location_text,
		   remote_policy = excluded.remote_policy,
		   started_at = excluded.started_at,
		   finished_at = excluded.finished_at`,
		outcome.JobID, string(outcome.Status), outcome.SchemaVersion,
		structuredJSON, string(attemptsJSON), location, remotePolicy,
		outcome.StartedAt.UTC(), outcome.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save outcome %s", outcome.JobID)
}

func (s *SQLiteStore) GetOutcome(ctx context.Context, jobID string) (*model.ExtractionOutcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT job_id, status, schema_version, structured, attempts, started_at, finished_at
		 FROM extraction_traces WHERE job_id = ?`,
		jobID,
	)

	var o model.ExtractionOutcome
	var status string
	var structuredJSON sql.NullString
	var attemptsJSON string
	err := row.Scan(&o.JobID, &status, &o.SchemaVersion, &structuredJSON, &attemptsJSON, &o.StartedAt, &o.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get outcome %s", jobID)
	}

	o.Status = model.OutcomeStatus(status)
	if err := json.Unmarshal([]byte(attemptsJSON), &o.Attempts); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal attempts")
	}
	if structuredJSON.Valid {
		if err := json.Unmarshal([]byte(structuredJSON.String), &o.StructuredData); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal structured data")
		}
	}
	return &o, nil
}

func (s *SQLiteStore) ListOutcomes(ctx context.Context, filter Filter) ([]model.ExtractionOutcome, error) {
	query := `SELECT job_id, status, schema_version, structured, attempts, started_at, finished_at
	          FROM extraction_traces WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY finished_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outcomes")
	}
	defer rows.Close()

	var outcomes []model.ExtractionOutcome
	for rows.Next() {
		var o model.ExtractionOutcome
		var status string
		var structuredJSON sql.NullString
		var attemptsJSON string
		if err := rows.Scan(&o.JobID, &status, &o.SchemaVersion, &structuredJSON, &attemptsJSON, &o.StartedAt, &o.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outcome")
		}
		o.Status = model.OutcomeStatus(status)
		if err := json.Unmarshal([]byte(attemptsJSON), &o.Attempts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal attempts")
		}
		if structuredJSON.Valid {
			if err := json.Unmarshal([]byte(structuredJSON.String), &o.StructuredData); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal structured data")
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "sqlite: list outcomes iterate")
}

func (s *SQLiteStore) ReplaceSkills(ctx context.Context, jobID string, skills []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace skills")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_skills WHERE job_id = ?`, jobID); err != nil {
		return eris.Wrapf(err, "sqlite: delete skills %s", jobID)
	}
	for _, skill := range skills {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO job_skills (job_id, skill) VALUES (?, ?)`,
			jobID, skill,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert skill %s", jobID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit replace skills")
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.OutcomeStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM extraction_traces GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by status")
	}
	defer rows.Close()

	counts := make(map[model.OutcomeStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.OutcomeStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by status iterate")
}

func (s *SQLiteStore) CountFinishedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM extraction_traces WHERE finished_at >= ?`,
		since.UTC(),
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count finished since")
}

func (s *SQLiteStore) CountRemote(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM extraction_traces
		 WHERE lower(coalesce(remote_policy, '')) = 'remote'
		    OR lower(coalesce(location_text, '')) LIKE '%remote%'`,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count remote")
}

func (s *SQLiteStore) TopSkills(ctx context.Context, limit int) ([]SkillCount, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT skill, COUNT(*) AS n FROM job_skills
		 GROUP BY skill ORDER BY n DESC, skill ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top skills")
	}
	defer rows.Close()

	var counts []SkillCount
	for rows.Next() {
		var sc SkillCount
		if err := rows.Scan(&sc.Skill, &sc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan skill count")
		}
		counts = append(counts, sc)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: top skills iterate")
}

func (s *SQLiteStore) TopLocations(ctx context.Context, limit int) ([]LocationCount, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_text, COUNT(*) AS n FROM extraction_traces
		 WHERE coalesce(location_text, '') != ''
		 GROUP BY location_text ORDER BY n DESC, location_text ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top locations")
	}
	defer rows.Close()

	var counts []LocationCount
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location count")
		}
		counts = append(counts, lc)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: top locations iterate")
}
