package handlers

import (
	"net/http"

	"messynotes-backend/internal/middleware"
	"messynotes-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig carries the transport-level settings the router needs.
type RouterConfig struct {
	JWTSecret      string
	JWTIssuer      string
	AllowedOrigins []string
}

// NewRouter wires the full HTTP surface: health probe, CORS, request
// logging, bearer auth, and the API routes.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(logger))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTSecret, cfg.JWTIssuer, logger))

		r.Route("/notes", func(r chi.Router) {
			r.Post("/", h.CreateNote)
			r.Get("/", h.ListNotes)
			r.Delete("/", h.DeleteAllNotes)
			r.Get("/{noteID}", h.GetNote)
			r.Put("/{noteID}", h.UpdateNote)
			r.Delete("/{noteID}", h.DeleteNote)
			r.Get("/{noteID}/similar", h.SimilarNotes)
			r.Get("/{noteID}/canvas", h.GetCanvas)
			r.Put("/{noteID}/canvas", h.SaveCanvas)
		})

		r.Route("/links", func(r chi.Router) {
			r.Post("/", h.CreateLink)
			r.Get("/", h.ListLinks)
		})

		r.Route("/organize", func(r chi.Router) {
			r.Post("/clusters", h.OrganizeClusters)
			r.Post("/archive", h.ArchiveStale)
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/", h.GetGraph)
			r.Put("/", h.SaveGraph)
		})
	})

	return router
}
