package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/eligibility-api/internal/audit"
	"github.com/ignite/eligibility-api/internal/calculator"
	"github.com/ignite/eligibility-api/internal/campaign"
	"github.com/ignite/eligibility-api/internal/config"
	"github.com/ignite/eligibility-api/internal/person"
)

// PersonStore reads the attribute rows for one person.
type PersonStore interface {
	GetPersonRows(ctx context.Context, personID string) ([]person.AttributeRow, error)
}

// CampaignStore lists every campaign config the service knows about.
type CampaignStore interface {
	ListConfigs(ctx context.Context) ([]campaign.Config, error)
}

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handlers *Handlers
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{
		config:   cfg,
		handlers: h,
		router:   SetupRoutes(h),
	}
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.GetHost(), s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("[api] listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handlers holds the dependencies the HTTP handlers need.
type Handlers struct {
	persons     PersonStore
	campaigns   CampaignStore
	calc        *calculator.Calculator
	auditWriter audit.Writer
}

// NewHandlers creates the handler set.
func NewHandlers(persons PersonStore, campaigns CampaignStore, calc *calculator.Calculator, auditWriter audit.Writer) *Handlers {
	if auditWriter == nil {
		auditWriter = audit.LogWriter{}
	}
	return &Handlers{persons: persons, campaigns: campaigns, calc: calc, auditWriter: auditWriter}
}
