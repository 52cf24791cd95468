package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/research-agent/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "history: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: sqlite exec %s", pragma)
		}
	}

	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "history: sqlite migrate")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS research_runs (
	id            TEXT PRIMARY KEY,
	query         TEXT NOT NULL,
	is_contextual INTEGER NOT NULL DEFAULT 0,
	results_count  INTEGER NOT NULL DEFAULT 0,
	articles_count INTEGER NOT NULL DEFAULT 0,
	payload       TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_research_runs_created_at ON research_runs(created_at DESC);
`

func (s *SQLiteStore) Save(ctx context.Context, result *model.ResearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "history: marshal result")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO research_runs (id, query, is_contextual, results_count, articles_count, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		result.ID,
		result.Query,
		boolToInt(result.Contextual),
		result.Stats.SearchResults,
		result.Stats.Articles,
		string(payload),
		result.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return eris.Wrap(err, "history: insert run")
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ResearchResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM research_runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "history: get run")
	}

	var result model.ResearchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, eris.Wrap(err, "history: unmarshal payload")
	}
	return &result, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, is_contextual, results_count, articles_count, created_at
		FROM research_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "history: list runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			contextual int
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.Query, &contextual, &e.Results, &e.Articles, &createdAt); err != nil {
			return nil, eris.Wrap(err, "history: scan run")
		}
		e.Contextual = contextual != 0
		if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM research_runs WHERE id = ?`, id); err != nil {
		return eris.Wrap(err, "history: delete run")
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
