package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/vovakirdan/tui-roulette/internal/config"
	"github.com/vovakirdan/tui-roulette/internal/core"
	"github.com/vovakirdan/tui-roulette/internal/oracle"
	"github.com/vovakirdan/tui-roulette/internal/paths"
	"github.com/vovakirdan/tui-roulette/internal/roulette"
	"github.com/vovakirdan/tui-roulette/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.roulette/host_key.
	HostKeyPath string

	// DBPath is the path to the paths and history database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// BetNumber is the number every session bets on.
	BetNumber int
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.roulette/roulette.db",
		IdleTimeout: 30 * time.Minute,
		BetNumber:   17,
	}
}

// SSHServer serves one roulette table per SSH session. Sessions share the
// recorded paths and the spin history.
type SSHServer struct {
	config SSHServerConfig
	table  config.RouletteConfig
	server *ssh.Server
	store  *storage.Store
	paths  *paths.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, tableCfg config.RouletteConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "roulette-ssh",
	})

	// Recorded paths fall back to memory when the database is unavailable
	var repo paths.Repository
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open database, paths will not persist", "error", err)
		store = nil
		repo = paths.NewMemoryRepository()
	} else {
		repo = store
	}

	srv := &SSHServer{
		config: cfg,
		table:  tableCfg,
		store:  store,
		paths:  paths.NewStore(repo, tableCfg.StoreOptions()),
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".roulette", "host_key")
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a table and its model for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	seed := time.Now().UnixNano()
	o, err := oracle.FromConfig(s.table, seed)
	if err != nil {
		s.logger.Error("cannot create oracle", "user", sshSession.User(), "error", err)
		return nil, nil
	}
	bet, err := decimal.NewFromString(s.table.Oracle.BetAmount)
	if err != nil {
		s.logger.Error("invalid bet amount", "error", err)
		return nil, nil
	}

	logger := s.logger.With("user", sshSession.User())
	table := roulette.NewTable(roulette.TableOptions{
		Config:     s.table,
		Store:      s.paths,
		History:    s.history(),
		Logger:     logger,
		WheelStart: float64(seed%628) / 100,
		BetNumber:  s.config.BetNumber,
	})

	model := NewModel(Options{
		Table:     table,
		Oracle:    o,
		Currency:  s.table.Oracle.Currency,
		BetAmount: bet,
		Logger:    logger,
		Context:   sshSession.Context(),
		Config: core.RuntimeConfig{
			ScreenW:  pty.Window.Width,
			ScreenH:  pty.Window.Height,
			TickRate: 60,
			Seed:     seed,
		},
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// history returns the shared history store, or nil when there is none.
func (s *SSHServer) history() roulette.HistoryStore {
	if s.store == nil {
		return nil
	}
	return s.store
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.store != nil {
		s.store.Close()
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
