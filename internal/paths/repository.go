// Package paths stores and produces the initial conditions that steer a spin
// to a chosen segment.
//
// A Store looks paths up in an injectable Repository, records observed
// landings, exchanges records as JSON and, as a last resort, produces jittered
// candidates that are not guaranteed to land anywhere in particular. A Solver
// computes exact paths from the deterministic simulation.
package paths

import (
	"context"
	"slices"
	"sync"

	"github.com/vovakirdan/tui-roulette/internal/physics"
)

// Path is a set of spin initial conditions.
type Path = physics.Path

// Record is a path together with the number it was observed to land on.
type Record struct {
	Path
	LandingNumber int `json:"landingNumber"`
}

// Repository persists recorded paths keyed by landing number.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns the most recently recorded path for number.
	Get(ctx context.Context, number int) (Path, bool, error)
	// Put appends a record. Records are never evicted.
	Put(ctx context.Context, rec Record) error
	// All returns every record in insertion order.
	All(ctx context.Context) ([]Record, error)
}

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepository creates an empty repository seeded with the given records.
func NewMemoryRepository(seed ...Record) *MemoryRepository {
	return &MemoryRepository{records: slices.Clone(seed)}
}

func (m *MemoryRepository) Get(_ context.Context, number int) (Path, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].LandingNumber == number {
			return m.records[i].Path, true, nil
		}
	}
	return Path{}, false, nil
}

func (m *MemoryRepository) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, rec)
	return nil
}

func (m *MemoryRepository) All(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.records), nil
}

// Len returns the number of stored records.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
