// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/rag"
)

const (
	DefaultTimeout = 25 * time.Second
	maxBodyBytes   = 1 << 20
)

// Answerer is the query pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Result, error)
}

type Server struct {
	answerer Answerer
	timeout  time.Duration
	logger   *slog.Logger
	service  string
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout bounds each chat request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceName sets the name reported by /health.
func WithServiceName(name string) Option {
	return func(s *Server) {
		s.service = name
	}
}

func New(answerer Answerer, opts ...Option) *Server {
	s := &Server{
		answerer: answerer,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
		service:  "kbchat",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
	Cached   bool   `json:"cached"`
}

type errorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Handler routes POST /api/chat and GET /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperror.Validation("invalid JSON body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.answerer.Answer(ctx, req.Query)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: res.Answer, Cached: res.Cached})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Service:   s.service,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeError logs the full error and sends only the safe message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	msg := apperror.PublicMessage(kind)
	var ae *apperror.Error
	if kind == apperror.KindValidation && errors.As(err, &ae) {
		msg = ae.Message
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("chat request failed", "kind", kind, "status", status, "error", err)
	} else {
		s.logger.Info("chat request rejected", "kind", kind, "status", status, "error", err)
	}

	writeJSON(w, status, errorResponse{
		Error:          msg,
		Kind:           string(kind),
		UpstreamStatus: apperror.UpstreamStatusOf(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
