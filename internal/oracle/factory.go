package oracle

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/config"
)

// FromConfig returns the remote client when oracle.url is set and a seeded
// LocalOracle otherwise.
func FromConfig(cfg config.RouletteConfig, seed int64) (Oracle, error) {
	if cfg.Oracle.URL != "" {
		return NewClient(ClientConfig{
			BaseURL:        cfg.Oracle.URL,
			MaxRetries:     cfg.Oracle.Retries,
			Timeout:        cfg.Oracle.Timeout,
			MaxOuterFrames: cfg.Spin.MaxOuterFrames,
		}), nil
	}

	balance, err := decimal.NewFromString(cfg.Oracle.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("oracle: starting balance: %w", err)
	}
	o := NewLocalOracle(seed, balance, nil)
	if cfg.Oracle.AttachPath {
		o.solver = cfg.NewSolver()
	}
	return o, nil
}
