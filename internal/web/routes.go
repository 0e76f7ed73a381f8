package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/id-verifier/internal/web/handlers"
	"github.com/kozaktomas/id-verifier/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	authHandler := handlers.NewAuthHandler(s.config, s.sessionManager)
	verifyHandler := handlers.NewVerifyHandler(s.deps.Verifier, s.uploads)
	ocrHandler := handlers.NewOCRHandler(s.deps.Provider, s.deps.OCRRecords)
	documentsHandler := handlers.NewDocumentsHandler(s.deps.Documents, s.deps.Index)
	typesHandler := handlers.NewDocumentTypesHandler(s.deps.DocumentTypes)
	placesHandler := handlers.NewPlacesHandler(s.deps.Places)
	enrollmentHandler := handlers.NewEnrollmentHandler(
		s.deps.EnrolledFaces, s.deps.Store, s.deps.Provider, s.config.Matching.EmbeddingDim)
	statsHandler := handlers.NewStatsHandler(s.deps.Verifications)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Everything else requires a session when credentials are configured.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager, s.config.Web.Username != ""))

			// Verification
			r.Post("/verify/face", verifyHandler.Face)
			r.Post("/verify/document", verifyHandler.Document)
			r.Post("/verify/document/fragments", verifyHandler.DocumentFragments)
			r.Post("/verify/external", verifyHandler.External)

			// Raw recognition
			r.Post("/ocr/recognize", ocrHandler.Recognize)

			// Document register
			r.Get("/documents", documentsHandler.List)
			r.Post("/documents", documentsHandler.Create)
			r.Get("/documents/{id}", documentsHandler.Get)
			r.Put("/documents/{id}", documentsHandler.Update)
			r.Delete("/documents/{id}", documentsHandler.Delete)
			r.Post("/documents/cache/invalidate", documentsHandler.InvalidateCache)

			// Document types
			r.Get("/types", typesHandler.List)
			r.Post("/types", typesHandler.Create)
			r.Get("/types/{id}", typesHandler.Get)
			r.Delete("/types/{id}", typesHandler.Delete)

			// Places
			r.Get("/places", placesHandler.List)
			r.Post("/places", placesHandler.Create)
			r.Get("/places/{id}", placesHandler.Get)
			r.Put("/places/{id}", placesHandler.Update)
			r.Delete("/places/{id}", placesHandler.Delete)

			// Enrollment
			r.Get("/enrollment", enrollmentHandler.List)
			r.Post("/enrollment", enrollmentHandler.Enroll)
			r.Delete("/enrollment/{label}", enrollmentHandler.Delete)
			r.Get("/enrollment/duplicates", enrollmentHandler.Duplicates)

			// History & statistics
			r.Get("/verifications", statsHandler.Latest)
			r.Get("/verifications/stats", statsHandler.Get)
			r.Get("/verifications/stats/places", statsHandler.ByPlace)
		})
	})

	// Stored probe images for failure review
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.uploads.Dir()))))
}
