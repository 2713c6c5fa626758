// ABOUTME: JSON HTTP API over the assistant, routed with chi
// ABOUTME: Maps sentinel errors to status codes and exposes health and metrics
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harper/ragmem/internal/assistant"
	logpkg "github.com/harper/ragmem/internal/logger"
	"github.com/harper/ragmem/internal/metrics"
	"github.com/harper/ragmem/internal/models"
	"github.com/harper/ragmem/internal/validation"
)

const maxBodyBytes = 1 << 20

// Error codes returned in ErrorResponse.Code
const (
	CodeBadRequest        = "bad_request"
	CodeValidationFailed  = "validation_failed"
	CodeNotFound          = "not_found"
	CodeEmptyCorpus       = "empty_corpus"
	CodeIndexIncompatible = "index_incompatible"
	CodeEmbeddingError    = "embedding_provider_error"
	CodeGenerationError   = "generation_provider_error"
	CodeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the assistant over HTTP
type Server struct {
	assistant     *assistant.Assistant
	logger        *zap.Logger
	withMetrics   bool
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. When withMetrics is set, requests are
// instrumented and /metrics is exposed.
func NewServer(asst *assistant.Assistant, logger *zap.Logger, withMetrics bool) *Server {
	s := &Server{
		assistant:   asst,
		logger:      logpkg.OrNop(logger),
		withMetrics: withMetrics,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(models.ErrInvalidK, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(models.ErrEmptyCorpus, http.StatusUnprocessableEntity, CodeEmptyCorpus),
		sentinelHandler(models.ErrIndexIncompatible, http.StatusConflict, CodeIndexIncompatible),
		sentinelHandler(models.ErrEmbeddingService, http.StatusBadGateway, CodeEmbeddingError),
		sentinelHandler(models.ErrGenerationService, http.StatusBadGateway, CodeGenerationError),
	}
	return s
}

// Router builds the chi router with middleware and all routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	if s.withMetrics {
		r.Use(metrics.Middleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/healthz", s.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/answer", s.Answer)
		r.Post("/chat", s.Chat)
		r.Post("/index", s.Index)
		r.Post("/memory", s.RecordConversation)
		r.Get("/memory/{target}", s.ReadMemory)
	})
	return r
}

// AnswerRequest is the body of POST /v1/answer and POST /v1/chat
type AnswerRequest struct {
	Question string `json:"question" validate:"required"`
	// K defaults to the configured top-k when omitted
	K *int `json:"k,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// IndexRequest is the body of POST /v1/index
type IndexRequest struct {
	Dir   string `json:"dir,omitempty"`
	Force bool   `json:"force"`
}

// IndexResponse reports the index the request produced or reused
type IndexResponse struct {
	Rebuilt   bool      `json:"rebuilt"`
	BuildID   string    `json:"build_id"`
	Chunks    int       `json:"chunks"`
	Sources   []string  `json:"sources"`
	SourceDir string    `json:"source_dir"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryRequest is the body of POST /v1/memory
type MemoryRequest struct {
	UserMessage      string `json:"user_message" validate:"required"`
	AssistantMessage string `json:"assistant_message" validate:"required"`
}

// MemoryResponse lists the entries written by one request
type MemoryResponse struct {
	Stored  int                  `json:"stored"`
	Entries []models.MemoryEntry `json:"entries"`
}

// MemoryLogResponse is one memory log, raw and parsed
type MemoryLogResponse struct {
	Target   string               `json:"target"`
	Markdown string               `json:"markdown"`
	Entries  []models.MemoryEntry `json:"entries"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Answer handles POST /v1/answer
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}

	answer, err := s.assistant.Answer(r.Context(), req.Question, s.k(req.K))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// Chat handles POST /v1/chat: answer, then record the exchange
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.assistant.Chat(r.Context(), req.Question, s.k(req.K))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Index handles POST /v1/index
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if !s.decode(w, r, &req) {
		return
	}

	status, err := s.assistant.IndexDocuments(r.Context(), req.Dir, req.Force)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	m := status.Manifest
	writeJSON(w, http.StatusOK, IndexResponse{
		Rebuilt:   status.Rebuilt,
		BuildID:   m.BuildID,
		Chunks:    m.Chunks,
		Sources:   m.Sources,
		SourceDir: m.SourceDir,
		CreatedAt: m.CreatedAt,
	})
}

// RecordConversation handles POST /v1/memory
func (s *Server) RecordConversation(w http.ResponseWriter, r *http.Request) {
	var req MemoryRequest
	if !s.decode(w, r, &req) {
		return
	}

	entries, err := s.assistant.RecordConversation(r.Context(), req.UserMessage, req.AssistantMessage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemoryResponse{Stored: len(entries), Entries: entries})
}

// ReadMemory handles GET /v1/memory/{target}
func (s *Server) ReadMemory(w http.ResponseWriter, r *http.Request) {
	target, err := models.ParseMemoryTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
		return
	}

	content, err := s.assistant.Memory(target)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	entries, err := s.assistant.MemoryEntries(target)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.MemoryEntry{}
	}
	writeJSON(w, http.StatusOK, MemoryLogResponse{Target: string(target), Markdown: content, Entries: entries})
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if m := s.assistant.Index().Manifest(); m != nil {
		resp["index"] = map[string]any{
			"build_id": m.BuildID,
			"chunks":   m.Chunks,
			"embedder": m.Embedder,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) k(k *int) int {
	if k == nil {
		return s.assistant.DefaultK()
	}
	return *k
}

// decode reads a JSON body into dst and validates it, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validation.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
