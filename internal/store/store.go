// Package store persists graded results.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Mirzabek3555/Ustoziya-new/internal/config"
	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// ResultFilter specifies criteria for listing graded results.
type ResultFilter struct {
	TestID       string `json:"test_id,omitempty"`
	StudentClass string `json:"student_class,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for graded results.
type Store interface {
	SaveResult(ctx context.Context, result *model.GradedResult) error
	GetResult(ctx context.Context, id string) (*model.GradedResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.GradedResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open builds a Store from config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
