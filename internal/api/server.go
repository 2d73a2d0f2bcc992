package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docview/internal/config"
	"github.com/dgallion1/docview/internal/session"
)

// Server is the HTTP API server for docview.
type Server struct {
	router   chi.Router
	sessions *session.Manager
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *session.Manager, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions: sessions,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.ViewerAPIKey, s.log))

		r.Post("/api/documents", s.handleOpenDocument)
		r.Delete("/api/sessions/{sessionID}", s.handleCloseSession)
		r.Get("/api/sessions/{sessionID}/outline", s.handleOutline)
		r.Put("/api/sessions/{sessionID}/focus", s.handleFocusMode)

		r.Post("/api/sessions/{sessionID}/selection", s.handleSelection)
		r.Post("/api/sessions/{sessionID}/resolve", s.handleResolve)

		r.Get("/api/sessions/{sessionID}/annotations", s.handleListAnnotations)
		r.Post("/api/sessions/{sessionID}/annotations", s.handleCreateAnnotation)
		r.Delete("/api/sessions/{sessionID}/annotations/{annotationID}", s.handleDeleteAnnotation)

		r.Put("/api/sessions/{sessionID}/find", s.handleFindUpdate)
		r.Post("/api/sessions/{sessionID}/find/next", s.handleFindNext)
		r.Post("/api/sessions/{sessionID}/find/prev", s.handleFindPrev)
		r.Post("/api/sessions/{sessionID}/find/highlight", s.handleFindHighlight)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionFrom resolves the session path parameter, writing the error
// response itself when the session is gone.
func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, "unknown session", http.StatusNotFound)
		return nil
	}
	return sess
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return raw, nil
}
