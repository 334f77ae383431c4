// Package rpc exposes the command layer over a local HTTP JSON API.
//
// Every command is invoked as POST /api/{command} with its arguments as the
// JSON body. Failures are returned as {"kind": ..., "message": ...} with a
// status derived from the kind.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"corelab/internal/commands"
	"corelab/internal/logger"
	"corelab/pkg/coretypes"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes int64 = 1 << 20

const shutdownTimeout = 5 * time.Second

// unknownCommandLabel is the metrics label for names that match no command.
const unknownCommandLabel = "unknown"

// Server routes HTTP requests to commands.
type Server struct {
	commands *commands.Registry
	metrics  *Metrics
	router   chi.Router
}

// NewServer builds the router for core. It registers every core command in
// a registry owned by the server.
func NewServer(core *commands.Core) (*Server, error) {
	reg := commands.NewRegistry()
	if err := core.RegisterAll(reg); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	s := &Server{
		commands: reg,
		metrics:  NewMetrics(core.Bus(), core.Registry()),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/commands", s.handleListCommands)
		r.Post("/{command}", s.handleInvoke)
	})
	return r
}

type commandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	all := s.commands.GetAll()
	out := make([]commandInfo, 0, len(all))
	for _, cmd := range all {
		out = append(out, commandInfo{Name: cmd.Name(), Description: cmd.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, &commands.CommandError{Kind: coretypes.KindValidation, Message: "request body too large"})
			return
		}
		writeError(w, &commands.CommandError{Kind: coretypes.KindValidation, Message: "failed to read request body"})
		return
	}

	label := name
	if _, ok := s.commands.Get(name); !ok {
		label = unknownCommandLabel
	}

	result, err := s.commands.Execute(r.Context(), name, body)
	if err != nil {
		ce := commands.AsCommandError(err)
		s.metrics.observeCommand(label, ce.Kind)
		writeError(w, ce)
		return
	}
	s.metrics.observeCommand(label, "")

	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind coretypes.Kind) int {
	switch kind {
	case coretypes.KindNotFound:
		return http.StatusNotFound
	case coretypes.KindDuplicate:
		return http.StatusConflict
	case coretypes.KindConfiguration:
		return http.StatusServiceUnavailable
	case coretypes.KindValidation:
		return http.StatusBadRequest
	case coretypes.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, ce *commands.CommandError) {
	writeJSON(w, StatusFor(ce.Kind), ce)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("RPC server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("RPC server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
