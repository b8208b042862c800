// internal/api/routes/routes.go
package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"opening-server/internal/api/handlers"
	"opening-server/internal/api/middleware"
	"opening-server/internal/auth"
	"opening-server/internal/config"
	"opening-server/internal/queue"
	"opening-server/internal/storage"
)

func SetupRouter(cfg *config.Config, tasks storage.TaskStore, openings storage.OpeningStore,
	q queue.Queue, authenticator auth.Authenticator, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	// Initialize handlers
	generationHandler := handlers.NewGenerationHandler(tasks, q, cfg.Video.TempDir, logger)
	openingHandler := handlers.NewOpeningHandler(openings, tasks, logger)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Status polling is deliberately unauthenticated: a task id is the
		// only capability needed to observe progress.
		r.Get("/generation-status/{taskID}", generationHandler.GenerationStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authenticator))

			r.Post("/generate-opening", generationHandler.GenerateOpening)
			r.Post("/save-opening", openingHandler.SaveOpening)
			r.Get("/openings", openingHandler.ListOpenings)
			r.Get("/openings/{openingID}", openingHandler.GetOpening)
			r.Delete("/openings/{openingID}", openingHandler.DeleteOpening)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
		})
	})

	// Generated videos and static assets
	fileServer(r, "/output_videos", http.Dir(cfg.Video.OutputDir))
	fileServer(r, "/static", http.Dir(cfg.Video.StaticDir))

	return r
}

func fileServer(r chi.Router, path string, root http.FileSystem) {
	fs := http.StripPrefix(path, http.FileServer(root))
	r.Get(path+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
