// Package store persists graded search runs behind a driver-agnostic
// interface with SQLite and Postgres implementations.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/levelworks/rlistic/internal/model"
)

// ErrRunNotFound reports a lookup for a run ID the store does not hold.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Scenario string `json:"scenario,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for search run history.
type Store interface {
	SaveRun(ctx context.Context, run *model.SearchRun) error
	GetRun(ctx context.Context, runID string) (*model.SearchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.SearchRun, error)
	DeleteRun(ctx context.Context, runID string) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store for the configured driver and runs migrations.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// rowScanner abstracts database/sql and pgx row scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.SearchRun, error) {
	var (
		run         model.SearchRun
		resultsJSON []byte
	)
	if err := row.Scan(&run.ID, &run.Scenario, &run.Policy, &resultsJSON, &run.CreatedAt); err != nil {
		return nil, err
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &run.Results); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal results")
		}
	}
	return &run, nil
}
