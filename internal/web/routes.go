package web

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/vhruby/smart-album/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	uploadHandler := handlers.NewUploadHandler(s.album)
	searchHandler := handlers.NewSearchHandler(s.album)
	imagesHandler := handlers.NewImagesHandler(s.album)
	clustersHandler := handlers.NewClustersHandler(s.album)
	settingsHandler := handlers.NewSettingsHandler(s.album)
	enrichmentHandler := handlers.NewEnrichmentHandler(s.album)
	statsHandler := handlers.NewStatsHandler(s.album)

	s.router.Get("/healthz", handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)

		r.Post("/search", searchHandler.ByText)
		r.Post("/search/image", searchHandler.ByImage)
		r.Post("/search/face", searchHandler.ByFace)
		r.Get("/search/person", searchHandler.ByPerson)

		r.Get("/images", imagesHandler.List)
		r.Get("/images/{id}", imagesHandler.Get)
		r.Post("/images/{id}/enrich", imagesHandler.Enrich)
		r.Post("/images/delete", imagesHandler.Delete)
		r.Post("/images/tags", imagesHandler.Tag)

		r.Get("/clusters", clustersHandler.List)
		r.Post("/clusters/{id}/name", clustersHandler.Rename)

		r.Get("/settings", settingsHandler.Get)
		r.Post("/settings", settingsHandler.Update)

		r.Post("/enrichment/start", enrichmentHandler.Start)
		r.Post("/enrichment/stop", enrichmentHandler.Stop)
		r.Get("/enrichment/status", enrichmentHandler.Status)

		r.Get("/stats", statsHandler.Get)
	})

	// Stored originals and thumbnails.
	uploadsDir := filepath.Join(s.config.Storage.DataDir, "uploads")
	thumbsDir := filepath.Join(s.config.Storage.DataDir, "thumbnails")
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	s.router.Handle("/thumbnails/*", http.StripPrefix("/thumbnails/", http.FileServer(http.Dir(thumbsDir))))
}
