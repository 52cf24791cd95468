// Package history persists completed research runs so past sessions can
// be listed, reopened, and exported. It is a convenience layer for the
// CLI and server; the pipeline itself never reads from it.
package history

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = eris.New("history: run not found")

// Entry is a listing row: enough to display without loading the full
// result payload.
type Entry struct {
	ID         string    `json:"id"`
	Query      string    `json:"query"`
	Contextual bool      `json:"is_contextual"`
	Results    int       `json:"search_results_count"`
	Articles   int       `json:"scraped_articles_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists research results.
type Store interface {
	// Save writes a completed result. Saving the same id twice replaces
	// the stored payload.
	Save(ctx context.Context, result *model.ResearchResult) error

	// Get loads a result by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*model.ResearchResult, error)

	// List returns the newest runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Delete removes a run. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying connection.
	Close() error
}
