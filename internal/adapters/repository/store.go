// Package repository persists scoring sessions.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
)

// Record is the listing view of a stored session.
type Record struct {
	ID         string
	Revision   int64
	Student    string
	Department string
	UpdatedAt  time.Time
}

// Store provides durable access to sessions.
type Store interface {
	// SaveIfNewer stores s unless a revision >= s.Revision is already stored.
	// Returns true when s was written.
	SaveIfNewer(ctx context.Context, s *model.Session) (bool, error)

	// Get returns an independent copy of the stored session.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*model.Session, error)

	// Delete removes a session. Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// List returns every stored session, most recently updated first.
	List(ctx context.Context) ([]Record, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) int

	Close() error
}

// Driver names accepted by New.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New builds the store named by driver. dsn is ignored for the memory store.
func New(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return OpenSQL(ctx, driver, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func recordOf(s *model.Session) Record {
	return Record{
		ID:         s.ID,
		Revision:   s.Revision,
		Student:    s.Student.Name,
		Department: s.Student.Department,
		UpdatedAt:  s.UpdatedAt,
	}
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
