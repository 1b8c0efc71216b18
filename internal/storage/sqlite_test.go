package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/physics"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestStoreReopenKeepsPaths(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	rec := paths.Record{Path: paths.Path{InitialAngle: 1.5, InitialVelocity: 0.2, OuterPhaseFrames: 100}, LandingNumber: 8}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	got, ok, err := store.Get(ctx, 8)
	if err != nil || !ok {
		t.Fatalf("Get(8) = (%v, %v) after reopen", ok, err)
	}
	if got != rec.Path {
		t.Errorf("Get(8) = %+v, expected %+v", got, rec.Path)
	}
}

func TestStorePathRepository(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if _, ok, err := store.Get(ctx, 3); err != nil || ok {
		t.Fatalf("Get on empty store = (%v, %v), expected miss", ok, err)
	}

	records := []paths.Record{
		{Path: paths.Path{InitialAngle: 0.1, InitialVelocity: 0.2, OuterPhaseFrames: 100}, LandingNumber: 3},
		{Path: paths.Path{InitialAngle: 0.2, InitialVelocity: 0.21, OuterPhaseFrames: 110}, LandingNumber: 26},
		{Path: paths.Path{InitialAngle: 0.3, InitialVelocity: 0.22, OuterPhaseFrames: 120}, LandingNumber: 3},
	}
	for _, r := range records {
		if err := store.Put(ctx, r); err != nil {
			t.Fatalf("Put() failed: %v", err)
		}
	}

	// Latest record for a number wins.
	got, ok, err := store.Get(ctx, 3)
	if err != nil || !ok {
		t.Fatalf("Get(3) = (%v, %v)", ok, err)
	}
	if got != records[2].Path {
		t.Errorf("Get(3) = %+v, expected %+v", got, records[2].Path)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(all) != len(records) {
		t.Fatalf("All() returned %d records, expected %d", len(all), len(records))
	}
	for i := range records {
		if all[i] != records[i] {
			t.Errorf("record %d = %+v, expected %+v", i, all[i], records[i])
		}
	}

	counts, err := store.PathCounts(ctx)
	if err != nil {
		t.Fatalf("PathCounts() failed: %v", err)
	}
	if counts[3] != 2 || counts[26] != 1 || len(counts) != 2 {
		t.Errorf("PathCounts() = %v", counts)
	}
}

func TestStoreBacksPathStore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	ps := paths.NewStore(store, paths.DefaultOptions())

	solver := paths.NewSolver(physics.DefaultParams(), paths.Path{InitialVelocity: 0.23, OuterPhaseFrames: 120}, 20000, 0.01)
	p, err := solver.SolveNumber(32)
	if err != nil {
		t.Fatalf("SolveNumber() failed: %v", err)
	}
	if err := ps.Record(ctx, p, 32); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, ok, err := ps.Lookup(ctx, 32)
	if err != nil || !ok {
		t.Fatalf("Lookup(32) = (%v, %v)", ok, err)
	}
	res, err := physics.Simulate(physics.DefaultParams(), got, 0, 20000)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if res.LandedNumber != 32 {
		t.Errorf("stored path landed on %d, expected 32", res.LandedNumber)
	}
}

func TestStoreSpinHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	entries := []SpinEntry{
		{WinningNumber: 17, LandedNumber: 17, Source: "solved", Ticks: 320, Balance: decimal.RequireFromString("1035.00")},
		{WinningNumber: 4, LandedNumber: 21, Mismatch: true, Source: "server", Ticks: 301, Balance: decimal.RequireFromString("1025.5")},
		{WinningNumber: 0, LandedNumber: 0, Source: "recorded", Ticks: 290, Balance: decimal.Zero},
	}
	for i := range entries {
		entries[i].SpinID = uuid.NewString()
		entries[i].Path = paths.Path{InitialAngle: float64(i), InitialVelocity: 0.2, OuterPhaseFrames: 120}
		if _, err := store.SaveSpin(ctx, entries[i]); err != nil {
			t.Fatalf("SaveSpin() failed: %v", err)
		}
	}

	recent, err := store.RecentSpins(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSpins() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 spins with limit, got %d", len(recent))
	}

	// Newest first
	if recent[0].SpinID != entries[2].SpinID || recent[1].SpinID != entries[1].SpinID {
		t.Errorf("spins not in expected order: %v, %v", recent[0].SpinID, recent[1].SpinID)
	}
	if !recent[1].Mismatch || recent[0].Mismatch {
		t.Error("mismatch flag not preserved")
	}
	if !recent[1].Balance.Equal(decimal.RequireFromString("1025.5")) {
		t.Errorf("balance = %s, expected 1025.5", recent[1].Balance)
	}
	if recent[1].Path != entries[1].Path || recent[1].Source != "server" || recent[1].Ticks != 301 {
		t.Errorf("spin fields not preserved: %+v", recent[1])
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Spins != 3 || stats.Mismatches != 1 {
		t.Errorf("Stats() = %+v, expected 3 spins and 1 mismatch", stats)
	}
}

func TestStoreDuplicateSpinID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	e := SpinEntry{SpinID: "fixed", Source: "solved", Balance: decimal.Zero}
	if _, err := store.SaveSpin(ctx, e); err != nil {
		t.Fatalf("SaveSpin() failed: %v", err)
	}
	if _, err := store.SaveSpin(ctx, e); err == nil {
		t.Error("SaveSpin() accepted a duplicate spin ID")
	}
}

func TestStoreEmptyStats(t *testing.T) {
	stats, err := openTestStore(t).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Spins != 0 || stats.Mismatches != 0 || !stats.LastSpin.IsZero() {
		t.Errorf("Stats() on empty history = %+v", stats)
	}
}
