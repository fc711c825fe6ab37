// Package api exposes the assistant over HTTP: a chat endpoint, document
// ingestion and listing, and health probes.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/valet-ai/valet/internal/agent"
	"github.com/valet-ai/valet/internal/knowledge"
	"github.com/valet-ai/valet/internal/llm"
	"github.com/valet-ai/valet/internal/rag"
)

// Server timeouts.
const (
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	// Chat turns can take several model rounds.
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second

	ShutdownTimeout = 10 * time.Second
)

// maxUploadBytes caps document uploads at 32 MiB.
const maxUploadBytes = 32 << 20

// processor answers one chat message.
type processor interface {
	Process(ctx context.Context, message string, history []llm.Message, image string) (*agent.Result, error)
}

// ingestor manages the document index.
type ingestor interface {
	IngestFile(ctx context.Context, path string) (*rag.IngestResult, error)
	RemoveDocument(ctx context.Context, documentID string) (int, error)
	Documents(ctx context.Context) ([]knowledge.DocumentInfo, error)
}

// pinger reports backing store health.
type pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig contains what NewServer needs.
type ServerConfig struct {
	Addr      string
	Logger    *slog.Logger
	Processor processor
	Ingestor  ingestor
	Pinger    pinger
	UploadDir string
	// IsDev exposes failure detail in error responses.
	IsDev bool
}

// Server is the assistant's HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	processor  processor
	ingestor   ingestor
	pinger     pinger
	uploadDir  string
	isDev      bool
}

// NewServer creates a Server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.Ingestor == nil {
		return nil, errors.New("ingestor is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		logger:    cfg.Logger,
		processor: cfg.Processor,
		ingestor:  cfg.Ingestor,
		pinger:    cfg.Pinger,
		uploadDir: cfg.UploadDir,
		isDev:     cfg.IsDev,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}
	return s, nil
}

// routes wires the endpoint handlers behind the shared middleware.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/documents", s.handleUpload)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)

	return s.recovery(s.logging(mux))
}

// ListenAndServe blocks until the server fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
