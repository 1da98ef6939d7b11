package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(apiHandler *APIHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", apiHandler.RootHandler)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/feedback", apiHandler.SubmitFeedbackHandler)
	r.Get("/feedback", apiHandler.ListFeedbackHandler)
	r.Get("/stats", apiHandler.StatsHandler)
	r.Post("/upload-audio", apiHandler.UploadAudioHandler)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(apiHandler.AdminAuthMiddleware)
		r.Post("/upload", apiHandler.UploadCSVHandler)
	})

	return r
}
