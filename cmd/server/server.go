package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"

	"github.com/benjamonnguyen/powertimer"
)

const apiPrefix = "/api"

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// Server exposes the managers as a JSON API under /api.
type Server struct {
	config    ServerConfig
	mux       *http.ServeMux
	server    *http.Server
	timers    TimerManager
	templates TemplateManager
	stats     StatsProvider
	l         *log.Logger
}

func NewServer(cfg ServerConfig, timers TimerManager, templates TemplateManager, stats StatsProvider, logger *log.Logger) *Server {
	s := &Server{
		config:    cfg,
		mux:       http.NewServeMux(),
		timers:    timers,
		templates: templates,
		stats:     stats,
		l:         logger,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET "+apiPrefix+"/{$}", s.handleRoot)

	s.mux.HandleFunc("POST "+apiPrefix+"/timers", s.handleCreateTimer)
	s.mux.HandleFunc("GET "+apiPrefix+"/timers", s.handleListTimers)
	s.mux.HandleFunc("GET "+apiPrefix+"/timers/{id}", s.handleGetTimer)
	s.mux.HandleFunc("PATCH "+apiPrefix+"/timers/{id}", s.handleUpdateTimer)
	s.mux.HandleFunc("DELETE "+apiPrefix+"/timers/{id}", s.handleDeleteTimer)

	s.mux.HandleFunc("GET "+apiPrefix+"/templates", s.handleListTemplates)
	s.mux.HandleFunc("POST "+apiPrefix+"/templates", s.handleCreateTemplate)
	s.mux.HandleFunc("POST "+apiPrefix+"/templates/{id}/create-timer", s.handleInstantiateTemplate)
	s.mux.HandleFunc("POST "+apiPrefix+"/init-templates", s.handleInitTemplates)

	s.mux.HandleFunc("GET "+apiPrefix+"/stats", s.handleStats)
	s.mux.HandleFunc("GET "+apiPrefix+"/sessions", s.handleListSessions)
}

// Handler wraps the routes with CORS and request logging.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return s.logRequests(c.Handler(s.mux))
}

func (s *Server) ListenAndServe() error {
	s.l.Info("listening", "addr", s.config.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.l.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Power Timer API Ready!"})
}

// Timers

func (s *Server) handleCreateTimer(w http.ResponseWriter, r *http.Request) {
	var req createTimerRequest
	if !s.decode(w, r, &req) {
		return
	}
	timer, err := s.timers.CreateTimer(r.Context(), req)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, timer)
}

func (s *Server) handleListTimers(w http.ResponseWriter, r *http.Request) {
	timers, err := s.timers.ListTimers(r.Context())
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, timers)
}

func (s *Server) handleGetTimer(w http.ResponseWriter, r *http.Request) {
	timer, err := s.timers.GetTimer(r.Context(), powertimer.TimerID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err, "Timer not found")
		return
	}
	writeJSON(w, http.StatusOK, timer)
}

func (s *Server) handleUpdateTimer(w http.ResponseWriter, r *http.Request) {
	var u powertimer.TimerUpdate
	if !s.decode(w, r, &u) {
		return
	}
	timer, err := s.timers.UpdateTimer(r.Context(), powertimer.TimerID(r.PathValue("id")), u)
	if err != nil {
		s.writeError(w, err, "Timer not found")
		return
	}
	writeJSON(w, http.StatusOK, timer)
}

func (s *Server) handleDeleteTimer(w http.ResponseWriter, r *http.Request) {
	if err := s.timers.DeleteTimer(r.Context(), powertimer.TimerID(r.PathValue("id"))); err != nil {
		s.writeError(w, err, "Timer not found")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Timer deleted successfully"})
}

// Templates

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.ListTemplates(r.Context())
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !s.decode(w, r, &req) {
		return
	}
	template, err := s.templates.CreateTemplate(r.Context(), req)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, template)
}

func (s *Server) handleInstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	id := powertimer.TemplateID(r.PathValue("id"))
	timer, err := s.templates.Instantiate(r.Context(), id, r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, err, "Template not found")
		return
	}
	writeJSON(w, http.StatusOK, timer)
}

func (s *Server) handleInitTemplates(w http.ResponseWriter, r *http.Request) {
	created, err := s.templates.SeedDefaults(r.Context())
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, initTemplatesResponse{
		Message: fmt.Sprintf("Created %d default templates", created),
		Created: created,
	})
}

// Stats

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, &powertimer.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}, "")
			return
		}
		limit = n
	}
	sessions, err := s.stats.RecentSessions(r.Context(), limit)
	if err != nil {
		s.writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Responses

type messageResponse struct {
	Message string `json:"message"`
}

type initTemplatesResponse struct {
	Message string `json:"message"`
	Created int    `json:"created"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// decode reads a JSON body into v. It writes a 400 and returns false when the
// body is not valid JSON.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			s.writeError(w, &powertimer.ValidationError{Field: "body", Reason: "required"}, "")
			return false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			s.writeError(w, &powertimer.ValidationError{Field: typeErr.Field, Reason: "expected " + typeErr.Type.String()}, "")
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors to status codes. notFound is the detail sent
// for powertimer.ErrNotFound.
func (s *Server) writeError(w http.ResponseWriter, err error, notFound string) {
	var ve *powertimer.ValidationError
	switch {
	case errors.Is(err, powertimer.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: notFound})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: ve.Error()})
	default:
		s.l.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
