package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/llm-content-gateway/app"
	"github.com/upb/llm-content-gateway/handlers"
)

// requestTimeout bounds non-streaming content requests
const requestTimeout = 120 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	logger := deps.Logger

	// A nil *postgres.DB or *history.Service must not become a non-nil interface
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	var historySvc handlers.HistoryService
	var recorder handlers.ResultRecorder
	if deps.History != nil {
		historySvc = deps.History
		recorder = deps.History
	}

	health := handlers.NewHealthHandler(db, deps.Manager, logger)
	status := handlers.NewStatusHandler(deps.Config.Version, deps.Config.Environment, deps.Manager, deps.Content, logger)
	content := handlers.NewContentHandler(deps.Content, recorder, logger)
	projects := handlers.NewProjectHandler(historySvc, logger)

	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.MetricsReader != nil {
		r.Get("/metrics", handlers.NewMetricsHandler(deps.MetricsReader, logger).HandleMetrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/status", status.HandleStatus)
		r.Get("/providers/status", status.HandleProviderStatus)
		r.Get("/providers/keys", status.HandleAPIKeys)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/content", func(r chi.Router) {
				// Streaming keeps the connection open while chunks are paced,
				// so it is not wrapped by the request timeout.
				r.Post("/stream", content.HandleStream)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(requestTimeout))
					r.Post("/generate", content.HandleGenerate)
					r.Post("/conversation", content.HandleConversation)
					r.Post("/analyze", content.HandleAnalyze)
					r.Post("/suggestions", content.HandleSuggestions)
					r.Post("/suggestions/apply", content.HandleApplySuggestion)
					r.Post("/refine", content.HandleRefine)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Get("/", projects.HandleList)
				r.Post("/", projects.HandleCreate)
				r.Get("/{id}/results", projects.HandleListResults)
			})
		})
	})

	return r
}
