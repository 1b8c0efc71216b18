package paths

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

const testMaxTicks = 20000

var testBase = Path{InitialVelocity: 0.22999430561133852, OuterPhaseFrames: 120}

func newTestStore(seed int64) (*Store, *MemoryRepository) {
	repo := NewMemoryRepository()
	opts := DefaultOptions()
	opts.Seed = seed
	return NewStore(repo, opts), repo
}

func TestSolverLandsOnEveryIndex(t *testing.T) {
	p := physics.DefaultParams()
	solver := NewSolver(p, testBase, testMaxTicks, 0.01)

	for idx := range wheel.SegmentCount {
		path, err := solver.Solve(idx)
		if err != nil {
			t.Fatalf("Solve(%d) failed: %v", idx, err)
		}
		if path.InitialVelocity != testBase.InitialVelocity || path.OuterPhaseFrames != testBase.OuterPhaseFrames {
			t.Errorf("Solve(%d) changed velocity or frames: %+v", idx, path)
		}

		// The landing must hold whatever the wheel's phase at spin start.
		for _, start := range []float64{0, 1.7, 4.4} {
			res, err := physics.Simulate(p, path, start, testMaxTicks)
			if err != nil {
				t.Fatalf("Simulate(index %d, start %v) failed: %v", idx, start, err)
			}
			if res.LandedIndex != idx {
				t.Errorf("path for index %d landed on %d (wheel start %v)", idx, res.LandedIndex, start)
			}
		}
	}
}

func TestSolverLandsNearCenter(t *testing.T) {
	p := physics.DefaultParams()
	solver := NewSolver(p, testBase, testMaxTicks, 0.01)

	for _, idx := range []int{0, 1, 18, 36} {
		path, err := solver.Solve(idx)
		if err != nil {
			t.Fatalf("Solve(%d) failed: %v", idx, err)
		}
		res, err := physics.Simulate(p, path, 0, testMaxTicks)
		if err != nil {
			t.Fatalf("Simulate() failed: %v", err)
		}
		if d := math.Abs(wheel.AngularDifference(res.SettleAngle, wheel.SegmentCenter(idx))); d > 1e-6 {
			t.Errorf("index %d settled %v rad from the segment center", idx, d)
		}
	}
}

func TestSolverRejects(t *testing.T) {
	solver := NewSolver(physics.DefaultParams(), testBase, testMaxTicks, 0.01)

	tests := []struct {
		name  string
		solve func() error
		want  error
	}{
		{"negative index", func() error { _, err := solver.Solve(-1); return err }, ErrUnsolvable},
		{"index past end", func() error { _, err := solver.Solve(37); return err }, ErrUnsolvable},
		{"unknown number", func() error { _, err := solver.SolveNumber(99); return err }, ErrUnknownNumber},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.solve(); !errors.Is(err, tc.want) {
				t.Errorf("got %v, expected %v", err, tc.want)
			}
		})
	}
}

func TestSolverMarginTooWide(t *testing.T) {
	// No landing can be further than half a segment from an edge.
	solver := NewSolver(physics.DefaultParams(), testBase, testMaxTicks, wheel.SegmentAngleWidth())
	if _, err := solver.Solve(4); !errors.Is(err, ErrUnsolvable) {
		t.Errorf("Solve() = %v, expected ErrUnsolvable", err)
	}
}

func TestSolverTickBudget(t *testing.T) {
	solver := NewSolver(physics.DefaultParams(), testBase, 10, 0.01)
	if _, err := solver.Solve(4); !errors.Is(err, physics.ErrNoLanding) {
		t.Errorf("Solve() = %v, expected ErrNoLanding", err)
	}
}

func TestSolveNumber(t *testing.T) {
	p := physics.DefaultParams()
	solver := NewSolver(p, testBase, testMaxTicks, 0.01)

	path, err := solver.SolveNumber(17)
	if err != nil {
		t.Fatalf("SolveNumber(17) failed: %v", err)
	}
	res, err := physics.Simulate(p, path, 0, testMaxTicks)
	if err != nil {
		t.Fatalf("Simulate() failed: %v", err)
	}
	if res.LandedNumber != 17 {
		t.Errorf("landed on %d, expected 17", res.LandedNumber)
	}
}

func TestStoreRecordAndLookup(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(1)

	if _, ok, err := store.Lookup(ctx, 7); err != nil || ok {
		t.Fatalf("Lookup on empty store = (%v, %v), expected miss", ok, err)
	}

	first := Path{InitialAngle: 1, InitialVelocity: 0.2, OuterPhaseFrames: 100}
	second := Path{InitialAngle: 2, InitialVelocity: 0.21, OuterPhaseFrames: 110}
	if err := store.Record(ctx, first, 7); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := store.Record(ctx, second, 7); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, ok, err := store.Lookup(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("Lookup(7) = (%v, %v), expected hit", ok, err)
	}
	if got != second {
		t.Errorf("Lookup(7) = %+v, expected latest record %+v", got, second)
	}
}

func TestStoreRejects(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(1)
	good := Path{InitialVelocity: 0.2, OuterPhaseFrames: 100}

	tests := []struct {
		name   string
		path   Path
		number int
	}{
		{"number off the wheel", good, 37},
		{"negative number", good, -1},
		{"zero frames", Path{InitialVelocity: 0.2}, 5},
		{"frames over limit", Path{InitialVelocity: 0.2, OuterPhaseFrames: 601}, 5},
		{"nan velocity", Path{InitialVelocity: math.NaN(), OuterPhaseFrames: 10}, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.Record(ctx, tc.path, tc.number); !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Record() = %v, expected ErrInvalidRecord", err)
			}
		})
	}
	if repo.Len() != 0 {
		t.Errorf("rejected records were stored: %d", repo.Len())
	}

	if _, _, err := store.Lookup(ctx, 40); !errors.Is(err, ErrUnknownNumber) {
		t.Errorf("Lookup(40) = %v, expected ErrUnknownNumber", err)
	}
}

func TestApproximateIsSeededAndBounded(t *testing.T) {
	a, _ := newTestStore(42)
	b, _ := newTestStore(42)
	opts := DefaultOptions()

	for i := range 50 {
		number := wheel.NumberAt(i % wheel.SegmentCount)
		pa := a.Approximate(number, 0.5, 0.2)
		pb := b.Approximate(number, 0.5, 0.2)
		if pa != pb {
			t.Fatalf("same seed produced %+v and %+v", pa, pb)
		}

		idx, _ := wheel.IndexOf(number)
		aim := wheel.NormalizeAngle(0.5 + wheel.SegmentCenter(idx))
		if d := math.Abs(wheel.AngularDifference(pa.InitialAngle, aim)); d > opts.AngleJitter+1e-12 {
			t.Errorf("angle jitter %v exceeds %v", d, opts.AngleJitter)
		}
		if math.Abs(pa.InitialVelocity/0.2-1) > opts.VelocityJitter+1e-12 {
			t.Errorf("velocity %v outside ±%v of base", pa.InitialVelocity, opts.VelocityJitter)
		}
		if pa.OuterPhaseFrames != opts.OuterFrames {
			t.Errorf("frames = %d, expected %d", pa.OuterPhaseFrames, opts.OuterFrames)
		}
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(1)
	records := []Record{
		{Path: Path{InitialAngle: 4.0307811203308, InitialVelocity: 0.22999430561133852, OuterPhaseFrames: 120}, LandingNumber: 12},
		{Path: Path{InitialAngle: 0.1, InitialVelocity: -0.2, OuterPhaseFrames: 90}, LandingNumber: 0},
	}
	for _, r := range records {
		if err := src.Record(ctx, r.Path, r.LandingNumber); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := src.ExportAll(ctx, &buf); err != nil {
		t.Fatalf("ExportAll() failed: %v", err)
	}
	for _, key := range []string{`"initialAngle"`, `"initialVelocity"`, `"outerPhaseFrames"`, `"landingNumber"`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("export is missing %s:\n%s", key, buf.String())
		}
	}

	dst, repo := newTestStore(2)
	n, err := dst.ImportAll(ctx, &buf)
	if err != nil {
		t.Fatalf("ImportAll() failed: %v", err)
	}
	if n != len(records) {
		t.Errorf("imported %d records, expected %d", n, len(records))
	}
	all, _ := repo.All(ctx)
	for i := range records {
		if all[i] != records[i] {
			t.Errorf("record %d = %+v, expected %+v", i, all[i], records[i])
		}
	}
}

func TestExportEmpty(t *testing.T) {
	store, _ := newTestStore(1)
	var buf bytes.Buffer
	if err := store.ExportAll(context.Background(), &buf); err != nil {
		t.Fatalf("ExportAll() failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty export = %q, expected []", buf.String())
	}
}

func TestImportRejectsWholeBatch(t *testing.T) {
	store, repo := newTestStore(1)
	input := `[
		{"initialAngle": 1, "initialVelocity": 0.2, "outerPhaseFrames": 100, "landingNumber": 3},
		{"initialAngle": 1, "initialVelocity": 0.2, "outerPhaseFrames": 100, "landingNumber": 99}
	]`

	n, err := store.ImportAll(context.Background(), strings.NewReader(input))
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("ImportAll() = %v, expected ErrInvalidRecord", err)
	}
	if n != 0 || repo.Len() != 0 {
		t.Errorf("partial import: n=%d stored=%d", n, repo.Len())
	}

	if _, err := store.ImportAll(context.Background(), strings.NewReader("{not json")); err == nil {
		t.Error("ImportAll() accepted malformed JSON")
	}
}

func TestExploreRecordsObservedLandings(t *testing.T) {
	ctx := context.Background()
	p := physics.DefaultParams()
	store, repo := newTestStore(7)

	explorer := &Explorer{
		Store:        store,
		Params:       p,
		BaseVelocity: testBase.InitialVelocity,
		MaxTicks:     testMaxTicks,
		Workers:      4,
	}
	report, err := explorer.Explore(ctx, 74)
	if err != nil {
		t.Fatalf("Explore() failed: %v", err)
	}

	if report.Simulated != 74 || report.Recorded+report.Failed != 74 {
		t.Errorf("unexpected report: %+v", report)
	}
	if repo.Len() != report.Recorded {
		t.Errorf("stored %d records, report says %d", repo.Len(), report.Recorded)
	}

	// Every recorded path must replay onto its recorded number.
	all, _ := repo.All(ctx)
	for _, rec := range all {
		res, err := physics.Simulate(p, rec.Path, 0, testMaxTicks)
		if err != nil {
			t.Fatalf("Simulate() failed: %v", err)
		}
		if res.LandedNumber != rec.LandingNumber {
			t.Errorf("record %+v replays onto %d", rec, res.LandedNumber)
		}
	}
}

func TestExploreIsDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func() []Record {
		store, repo := newTestStore(99)
		explorer := &Explorer{
			Store:        store,
			Params:       physics.DefaultParams(),
			BaseVelocity: testBase.InitialVelocity,
			MaxTicks:     testMaxTicks,
		}
		if _, err := explorer.Explore(ctx, 20); err != nil {
			t.Fatalf("Explore() failed: %v", err)
		}
		all, _ := repo.All(ctx)
		return all
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExploreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store, repo := newTestStore(1)
	explorer := &Explorer{Store: store, Params: physics.DefaultParams(), BaseVelocity: 0.2, MaxTicks: testMaxTicks}
	if _, err := explorer.Explore(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("Explore() = %v, expected context.Canceled", err)
	}
	if repo.Len() != 0 {
		t.Errorf("cancelled explore stored %d records", repo.Len())
	}
}
