package oracle

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBytes bounds the size of a spin request body.
const maxRequestBytes = 64 << 10

// Server exposes an Oracle over HTTP.
type Server struct {
	oracle Oracle
	logger *log.Logger
}

// NewServer creates an HTTP front end for o.
func NewServer(o Oracle, logger *log.Logger) *Server {
	return &Server{oracle: o, logger: logger}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Heartbeat(HealthPath))

	r.Post(SpinPath, s.handleSpin)

	return r
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	var req SpinRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	resp, err := s.oracle.Spin(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, ErrInsufficientBalance):
		s.writeError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
		return
	case err != nil:
		s.logger.Error("spin failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		s.writeError(w, http.StatusInternalServerError, "internal", "spin failed")
		return
	}

	s.logger.Info("spin",
		"spin_id", resp.SpinID,
		"winning_index", resp.WinningIndex,
		"winning_number", resp.WinningNumber(),
		"path", resp.SpinPath != nil,
		"balance", resp.NewBalance.String(),
	)
	s.writeJSON(w, http.StatusOK, resp)
}

// logRequests logs each request with its status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("cannot write response", "err", err)
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorBody{Error: message, Code: code})
}
