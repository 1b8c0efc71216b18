package paths

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var (
	// ErrUnknownNumber is returned for numbers that are not printed on the wheel.
	ErrUnknownNumber = errors.New("paths: number is not on the wheel")
	// ErrInvalidRecord is returned when an imported or recorded entry is malformed.
	ErrInvalidRecord = errors.New("paths: invalid record")
)

// Options tunes a Store.
type Options struct {
	Seed           int64   // Seed for the jitter generator
	AngleJitter    float64 // Maximum absolute angle offset, radians
	VelocityJitter float64 // Maximum relative velocity offset, e.g. 0.02 for 2%
	OuterFrames    int     // Outer phase length of approximate paths
	MaxOuterFrames int     // Upper bound accepted by Record and ImportAll, 0 for none
}

// DefaultOptions returns the store tuning used by the shipped configuration.
func DefaultOptions() Options {
	return Options{
		Seed:           1,
		AngleJitter:    0.1,
		VelocityJitter: 0.02,
		OuterFrames:    120,
		MaxOuterFrames: 600,
	}
}

// Store is the path parameter store.
type Store struct {
	repo Repository
	opts Options

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewStore creates a store backed by repo.
func NewStore(repo Repository, opts Options) *Store {
	return &Store{
		repo: repo,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
}

// Repository returns the backing repository.
func (s *Store) Repository() Repository {
	return s.repo
}

// Lookup returns the stored path for number, if one was recorded.
func (s *Store) Lookup(ctx context.Context, number int) (Path, bool, error) {
	if _, ok := wheel.IndexOf(number); !ok {
		return Path{}, false, fmt.Errorf("%w: %d", ErrUnknownNumber, number)
	}
	p, ok, err := s.repo.Get(ctx, number)
	if err != nil {
		return Path{}, false, fmt.Errorf("paths: lookup %d: %w", number, err)
	}
	return p, ok, nil
}

// Approximate returns a jittered candidate aimed roughly at number.
// The result is not guaranteed to land on number.
func (s *Store) Approximate(number int, baseAngle, baseVelocity float64) Path {
	aim := 0.0
	if idx, ok := wheel.IndexOf(number); ok {
		aim = wheel.SegmentCenter(idx)
	}

	s.mu.Lock()
	da := (s.rng.Float64()*2 - 1) * s.opts.AngleJitter
	dv := (s.rng.Float64()*2 - 1) * s.opts.VelocityJitter
	s.mu.Unlock()

	return Path{
		InitialAngle:     wheel.NormalizeAngle(baseAngle + aim + da),
		InitialVelocity:  baseVelocity * (1 + dv),
		OuterPhaseFrames: max(s.opts.OuterFrames, 1),
	}
}

// Record appends an observed landing. The table only grows.
func (s *Store) Record(ctx context.Context, p Path, observedNumber int) error {
	rec := Record{Path: p, LandingNumber: observedNumber}
	if err := s.validate(rec); err != nil {
		return err
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return fmt.Errorf("paths: record %d: %w", observedNumber, err)
	}
	return nil
}

func (s *Store) validate(rec Record) error {
	if _, ok := wheel.IndexOf(rec.LandingNumber); !ok {
		return fmt.Errorf("%w: landing number %d", ErrInvalidRecord, rec.LandingNumber)
	}
	if err := rec.Path.Validate(s.opts.MaxOuterFrames); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// ExportAll writes every record as a JSON array.
func (s *Store) ExportAll(ctx context.Context, w io.Writer) error {
	records, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("paths: export: %w", err)
	}
	if records == nil {
		records = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("paths: export: %w", err)
	}
	return nil
}

// ImportAll reads a JSON array produced by ExportAll and appends every record.
// Nothing is stored unless every record is valid. It returns the number imported.
func (s *Store) ImportAll(ctx context.Context, r io.Reader) (int, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("paths: import: %w", err)
	}

	for i, rec := range records {
		if err := s.validate(rec); err != nil {
			return 0, fmt.Errorf("paths: import record %d: %w", i, err)
		}
	}

	for i, rec := range records {
		if err := s.repo.Put(ctx, rec); err != nil {
			return i, fmt.Errorf("paths: import record %d: %w", i, err)
		}
	}
	return len(records), nil
}
