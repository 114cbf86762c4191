package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/jobpulse/internal/model"
)

// Pool abstracts the pgxpool operations the store uses, so tests can swap in
// a mock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extraction_traces (
	job_id         TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	structured     JSONB,
	attempts       JSONB NOT NULL,
	location_text  TEXT,
	remote_policy  TEXT,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS job_skills (
	job_id TEXT NOT NULL,
	skill  TEXT NOT NULL,
	PRIMARY KEY (job_id, skill)
);

CREATE INDEX IF NOT EXISTS idx_extraction_traces_status ON extraction_traces(status);
CREATE INDEX IF NOT EXISTS idx_extraction_traces_finished_at ON extraction_traces(finished_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveOutcome(ctx context.Context, outcome *model.ExtractionOutcome) error {
	attemptsJSON, err := json.Marshal(outcome.Attempts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal attempts")
	}

	var structuredJSON []byte
	if outcome.StructuredData != nil {
		structuredJSON, err = json.Marshal(outcome.StructuredData)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal structured data")
		}
	}

	location, remotePolicy := postingFacets(outcome.StructuredData)

	_, err = s.pool.Exec(ctx,
		`INSERT INTO extraction_traces
		 (job_id, status, schema_version, structured, attempts, location_text, remote_policy, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (job_id) DO UPDATE SET
		   status = $2, schema_version = $3, structured = $4, attempts = $5,
		   location_text = $6, remote_policy = $7, started_at = $8, finished_at = $9`,
		outcome.JobID, string(outcome.Status), outcome.SchemaVersion,
		structuredJSON, attemptsJSON, location, remotePolicy,
		outcome.StartedAt.UTC(), outcome.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save outcome %s", outcome.JobID)
}

func (s *PostgresStore) GetOutcome(ctx context.Context, jobID string) (*model.ExtractionOutcome, error) {
	var o model.ExtractionOutcome
	var status string
	var structuredJSON, attemptsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT job_id, status, schema_version, structured, attempts, started_at, finished_at
		 FROM extraction_traces WHERE job_id = $1`,
		jobID,
	).Scan(&o.JobID, &status, &o.SchemaVersion, &structuredJSON, &attemptsJSON, &o.StartedAt, &o.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get outcome %s", jobID)
	}

	o.Status = model.OutcomeStatus(status)
	if err := json.Unmarshal(attemptsJSON, &o.Attempts); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal attempts")
	}
	if structuredJSON != nil {
		if err := json.Unmarshal(structuredJSON, &o.StructuredData); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal structured data")
		}
	}
	return &o, nil
}

func (s *PostgresStore) ListOutcomes(ctx context.Context, filter Filter) ([]model.ExtractionOutcome, error) {
	query := `SELECT job_id, status, schema_version, structured, attempts, started_at, finished_at
	          FROM extraction_traces WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY finished_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outcomes")
	}
	defer rows.Close()

	var outcomes []model.ExtractionOutcome
	for rows.Next() {
		var o model.ExtractionOutcome
		var status string
		var structuredJSON, attemptsJSON []byte
		if err := rows.Scan(&o.JobID, &status, &o.SchemaVersion, &structuredJSON, &attemptsJSON, &o.StartedAt, &o.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outcome")
		}
		o.Status = model.OutcomeStatus(status)
		if err := json.Unmarshal(attemptsJSON, &o.Attempts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal attempts")
		}
		if structuredJSON != nil {
			if err := json.Unmarshal(structuredJSON, &o.StructuredData); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal structured data")
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: list outcomes iterate")
}

func (s *PostgresStore) ReplaceSkills(ctx context.Context, jobID string, skills []string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM job_skills WHERE job_id = $1`, jobID); err != nil {
		return eris.Wrapf(err, "postgres: delete skills %s", jobID)
	}
	for _, skill := range skills {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO job_skills (job_id, skill) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			jobID, skill,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert skill %s", jobID)
		}
	}
	return nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[model.OutcomeStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM extraction_traces GROUP BY status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by status")
	}
	defer rows.Close()

	counts := make(map[model.OutcomeStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.OutcomeStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by status iterate")
}

func (s *PostgresStore) CountFinishedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM extraction_traces WHERE finished_at >= $1`,
		since.UTC(),
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count finished since")
}

func (s *PostgresStore) CountRemote(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM extraction_traces
		 WHERE lower(coalesce(remote_policy, '')) = 'remote'
		    OR lower(coalesce(location_text, '')) LIKE '%remote%'`,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count remote")
}

func (s *PostgresStore) TopSkills(ctx context.Context, limit int) ([]SkillCount, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.pool.Query(ctx,
		`SELECT skill, COUNT(*) AS n FROM job_skills
		 GROUP BY skill ORDER BY n DESC, skill ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top skills")
	}
	defer rows.Close()

	var counts []SkillCount
	for rows.Next() {
		var sc SkillCount
		if err := rows.Scan(&sc.Skill, &sc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan skill count")
		}
		counts = append(counts, sc)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: top skills iterate")
}

func (s *PostgresStore) TopLocations(ctx context.Context, limit int) ([]LocationCount, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.pool.Query(ctx,
		`SELECT location_text, COUNT(*) AS n FROM extraction_traces
		 WHERE coalesce(location_text, '') != ''
		 GROUP BY location_text ORDER BY n DESC, location_text ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top locations")
	}
	defer rows.Close()

	var counts []LocationCount
	for rows.Next() {
		var lc LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan location count")
		}
		counts = append(counts, lc)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: top locations iterate")
}
