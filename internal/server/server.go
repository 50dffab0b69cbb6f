// Package server exposes the AI pipeline and the CRUD store over a JSON
// HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai/service"
	"github.com/praveenlokku/EasyApply/internal/store"
)

// maxUploadBytes bounds resume uploads; inline AI payloads get expensive
// past a few megabytes.
const maxUploadBytes = 10 << 20

type Server struct {
	ai     *service.Service
	store  *store.Store
	logger *zap.Logger
	http   *http.Server
}

func New(listenAddr string, svc *service.Service, st *store.Store, logger *zap.Logger) *Server {
	s := &Server{
		ai:     svc,
		store:  st,
		logger: logger,
	}

	s.http = &http.Server{
		Addr:              listenAddr,
		Handler:           s.withRequestLogging(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/ai/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/ai/match", s.handleMatch)
	mux.HandleFunc("POST /api/ai/extract-text", s.handleExtractText)
	mux.HandleFunc("GET /api/ai/status", s.handleStatus)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)

	mux.HandleFunc("POST /api/waitlist", s.handleJoinWaitlist)
	mux.HandleFunc("GET /api/waitlist", s.handleListWaitlist)
	mux.HandleFunc("DELETE /api/waitlist/{id}", s.handleDeleteWaitlistEntry)

	mux.HandleFunc("POST /api/resumes", s.handleUploadResume)
	mux.HandleFunc("GET /api/resumes", s.handleListResumes)
	mux.HandleFunc("GET /api/resumes/{id}", s.handleGetResume)
	mux.HandleFunc("DELETE /api/resumes/{id}", s.handleDeleteResume)
	mux.HandleFunc("POST /api/resumes/{id}/analyze", s.handleAnalyzeResume)
	mux.HandleFunc("POST /api/resumes/{id}/match", s.handleMatchResume)

	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleDeleteJob)

	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// storeStatus maps store errors to HTTP status codes.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, store.ErrInvalidRecord):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
