// Package web exposes the verification service over HTTP.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/id-verifier/internal/config"
	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/kozaktomas/id-verifier/internal/docindex"
	"github.com/kozaktomas/id-verifier/internal/enrollment"
	"github.com/kozaktomas/id-verifier/internal/recognizer"
	"github.com/kozaktomas/id-verifier/internal/verify"
	"github.com/kozaktomas/id-verifier/internal/web/handlers"
	"github.com/kozaktomas/id-verifier/internal/web/middleware"
)

// Deps carries the wired service dependencies into the server.
type Deps struct {
	Verifier *verify.Verifier
	Store    *enrollment.Store
	Index    *docindex.Index
	Provider recognizer.Provider

	Documents     database.DocumentWriter
	DocumentTypes database.DocumentTypeWriter
	Places        database.PlaceWriter
	EnrolledFaces database.EnrolledFaceWriter
	OCRRecords    database.OCRRecordWriter
	Verifications database.VerificationWriter
}

// Server represents the web server
type Server struct {
	config         *config.Config
	deps           Deps
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	uploads        *handlers.Uploader
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	r := chi.NewRouter()

	uploads, err := handlers.NewUploader(cfg.Uploads.Dir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		deps:           deps,
		router:         r,
		sessionManager: middleware.NewSessionManager(cfg.Web.SessionSecret),
		uploads:        uploads,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // recognition calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
