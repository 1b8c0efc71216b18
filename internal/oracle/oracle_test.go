package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/config"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/physics"
	"github.com/vovakirdan/tui-roulette/internal/wheel"
)

var ten = decimal.NewFromInt(10)

func testSolver() *paths.Solver {
	return paths.NewSolver(physics.DefaultParams(),
		paths.Path{InitialVelocity: 0.22999430561133852, OuterPhaseFrames: 120}, 20000, 0.01)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   SpinRequest
		valid bool
	}{
		{"single bet", StraightUp(17, ten, "usd"), true},
		{"two bets", SpinRequest{BetAmount: decimal.NewFromInt(15), Bets: []Bet{{Number: 0, Amount: ten}, {Number: 36, Amount: decimal.NewFromInt(5)}}}, true},
		{"no bets", SpinRequest{BetAmount: ten}, false},
		{"number off wheel", StraightUp(37, ten, "usd"), false},
		{"zero amount", StraightUp(3, decimal.Zero, "usd"), false},
		{"total mismatch", SpinRequest{BetAmount: decimal.NewFromInt(11), Bets: []Bet{{Number: 1, Amount: ten}}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.valid && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Validate() = %v, expected ErrInvalidRequest", err)
			}
		})
	}
}

func TestSettle(t *testing.T) {
	bets := []Bet{{Number: 7, Amount: ten}, {Number: 8, Amount: decimal.NewFromInt(2)}}

	if got := Settle(bets, 7); !got.Equal(decimal.NewFromInt(360)) {
		t.Errorf("Settle(win) = %s, expected 360", got)
	}
	if got := Settle(bets, 9); !got.IsZero() {
		t.Errorf("Settle(loss) = %s, expected 0", got)
	}
}

func TestLocalOracleIsSeeded(t *testing.T) {
	ctx := context.Background()
	a := NewLocalOracle(5, decimal.NewFromInt(1000), nil)
	b := NewLocalOracle(5, decimal.NewFromInt(1000), nil)

	for i := range 20 {
		ra, err := a.Spin(ctx, StraightUp(i%37, ten, "usd"))
		if err != nil {
			t.Fatalf("Spin() failed: %v", err)
		}
		rb, _ := b.Spin(ctx, StraightUp(i%37, ten, "usd"))
		if ra.WinningIndex != rb.WinningIndex || !ra.NewBalance.Equal(rb.NewBalance) {
			t.Fatalf("spin %d differs: %+v vs %+v", i, ra, rb)
		}
		if ra.SpinID == rb.SpinID {
			t.Errorf("spin IDs should be unique, both %s", ra.SpinID)
		}
		if !wheel.ValidIndex(ra.WinningIndex) {
			t.Errorf("winning index %d out of range", ra.WinningIndex)
		}
	}
}

func TestLocalOracleBalance(t *testing.T) {
	ctx := context.Background()
	o := NewLocalOracle(11, decimal.NewFromInt(100), nil)

	balance := decimal.NewFromInt(100)
	for range 5 {
		resp, err := o.Spin(ctx, StraightUp(0, ten, "usd"))
		if err != nil {
			t.Fatalf("Spin() failed: %v", err)
		}
		expected := balance.Sub(ten)
		if resp.WinningNumber() == 0 {
			expected = expected.Add(decimal.NewFromInt(360))
		}
		if !resp.NewBalance.Equal(expected) || !o.Balance().Equal(expected) {
			t.Fatalf("balance = %s, expected %s", resp.NewBalance, expected)
		}
		balance = expected
	}
}

func TestLocalOracleRejects(t *testing.T) {
	ctx := context.Background()
	o := NewLocalOracle(1, decimal.NewFromInt(5), nil)

	if _, err := o.Spin(ctx, StraightUp(1, ten, "usd")); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Spin() = %v, expected ErrInsufficientBalance", err)
	}
	if _, err := o.Spin(ctx, StraightUp(99, decimal.NewFromInt(1), "usd")); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Spin() = %v, expected ErrInvalidRequest", err)
	}
	if !o.Balance().Equal(decimal.NewFromInt(5)) {
		t.Errorf("rejected spins changed the balance to %s", o.Balance())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := o.Spin(cancelled, StraightUp(1, decimal.NewFromInt(1), "usd")); !errors.Is(err, context.Canceled) {
		t.Errorf("Spin() = %v, expected context.Canceled", err)
	}
}

func TestLocalOracleAttachesLandingPath(t *testing.T) {
	o := NewLocalOracle(3, decimal.NewFromInt(1000), testSolver())

	for range 5 {
		resp, err := o.Spin(context.Background(), StraightUp(4, ten, "usd"))
		if err != nil {
			t.Fatalf("Spin() failed: %v", err)
		}
		if resp.SpinPath == nil {
			t.Fatal("expected an attached path")
		}
		res, err := physics.Simulate(physics.DefaultParams(), *resp.SpinPath, 2.5, 20000)
		if err != nil {
			t.Fatalf("Simulate() failed: %v", err)
		}
		if res.LandedIndex != resp.WinningIndex {
			t.Errorf("attached path lands on %d, winning index is %d", res.LandedIndex, resp.WinningIndex)
		}
	}
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		BaseURL:        url,
		BaseRetryDelay: time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
		MaxOuterFrames: 600,
	})
}

func TestClientServerRoundTrip(t *testing.T) {
	local := NewLocalOracle(8, decimal.RequireFromString("250.50"), testSolver())
	srv := httptest.NewServer(NewServer(local, quietLogger()).Routes())
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health() failed: %v", err)
	}

	resp, err := client.Spin(ctx, StraightUp(23, decimal.RequireFromString("0.50"), "usd"))
	if err != nil {
		t.Fatalf("Spin() failed: %v", err)
	}
	if resp.SpinID == "" || resp.SpinPath == nil {
		t.Errorf("incomplete response: %+v", resp)
	}
	if !resp.NewBalance.Equal(local.Balance()) {
		t.Errorf("client saw balance %s, oracle holds %s", resp.NewBalance, local.Balance())
	}
}

func TestClientMapsClientErrors(t *testing.T) {
	local := NewLocalOracle(1, decimal.NewFromInt(1), nil)
	srv := httptest.NewServer(NewServer(local, quietLogger()).Routes())
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	if _, err := client.Spin(ctx, StraightUp(40, ten, "usd")); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Spin(bad number) = %v, expected ErrInvalidRequest", err)
	}
	if _, err := client.Spin(ctx, StraightUp(4, ten, "usd")); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("Spin(over balance) = %v, expected ErrInsufficientBalance", err)
	}
}

func TestServerRejectsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(NewServer(NewLocalOracle(1, ten, nil), quietLogger()).Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+SpinPath, "application/json", http.NoBody)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, expected 400", resp.StatusCode)
	}
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Code != "invalid_json" {
		t.Errorf("error body = %+v (%v)", body, err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"busy"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spinId":"abc","winningIndex":12,"payout":"0","newBalance":"90"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Spin(context.Background(), StraightUp(1, ten, "usd"))
	if err != nil {
		t.Fatalf("Spin() failed: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, expected 3", calls.Load())
	}
	if resp.WinningIndex != 12 || !resp.NewBalance.Equal(decimal.NewFromInt(90)) || resp.SpinPath != nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Spin(context.Background(), StraightUp(1, ten, "usd"))
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Spin() = %v, expected HTTP 500 error", err)
	}
	// One attempt plus three retries.
	if calls.Load() != 4 {
		t.Errorf("server called %d times, expected 4", calls.Load())
	}
}

func TestClientRejectsBadOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"spinId":"x","winningIndex":37,"payout":"0","newBalance":"0"}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Spin(context.Background(), StraightUp(1, ten, "usd")); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Spin() = %v, expected ErrInvalidResponse", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultRouletteConfig()

	o, err := FromConfig(cfg, 1)
	if err != nil {
		t.Fatalf("FromConfig() failed: %v", err)
	}
	local, ok := o.(*LocalOracle)
	if !ok {
		t.Fatalf("FromConfig() = %T, expected *LocalOracle", o)
	}
	if !local.Balance().Equal(decimal.NewFromInt(1000)) || local.solver == nil {
		t.Errorf("local oracle not configured: balance %s, solver %v", local.Balance(), local.solver != nil)
	}

	cfg.Oracle.URL = "http://oracle.test"
	if o, _ := FromConfig(cfg, 1); func() bool { _, ok := o.(*Client); return !ok }() {
		t.Errorf("FromConfig() with URL = %T, expected *Client", o)
	}

	cfg.Oracle.URL = ""
	cfg.Oracle.StartingBalance = "many"
	if _, err := FromConfig(cfg, 1); err == nil {
		t.Error("FromConfig() accepted a malformed balance")
	}
}
