package history

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, so tests can
// substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS research_runs (
	id             TEXT PRIMARY KEY,
	query          TEXT NOT NULL,
	is_contextual  BOOLEAN NOT NULL DEFAULT FALSE,
	results_count  INTEGER NOT NULL DEFAULT 0,
	articles_count INTEGER NOT NULL DEFAULT 0,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_research_runs_created_at ON research_runs(created_at DESC);
`

// NewPostgres creates a PostgresStore with a connection pool and runs the
// migration.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "history: postgres connect")
	}
	s := &PostgresStore{pool: pool, closeFn: pool.Close}
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "history: postgres migrate")
	}
	return s, nil
}

// NewPostgresWithPool wraps an existing pool without migrating. Used by
// tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

func (s *PostgresStore) Save(ctx context.Context, result *model.ResearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "history: marshal result")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO research_runs (id, query, is_contextual, results_count, articles_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
		result.ID,
		result.Query,
		result.Contextual,
		result.Stats.SearchResults,
		result.Stats.Articles,
		payload,
		result.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "history: insert run")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.ResearchResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM research_runs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "history: get run")
	}

	var result model.ResearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, eris.Wrap(err, "history: unmarshal payload")
	}
	return &result, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, query, is_contextual, results_count, articles_count, created_at
		FROM research_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "history: list runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Query, &e.Contextual, &e.Results, &e.Articles, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "history: scan run")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM research_runs WHERE id = $1`, id); err != nil {
		return eris.Wrap(err, "history: delete run")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}
