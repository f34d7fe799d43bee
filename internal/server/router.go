package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sitelangsirat/deswita-backend/internal/modules/auth"
	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
	"github.com/sitelangsirat/deswita-backend/internal/modules/media"
	"github.com/sitelangsirat/deswita-backend/pkg/logger"
)

// Deps are the services the router exposes.
type Deps struct {
	Content content.Service
	Media   *media.Service
	Auth    auth.Service
	Log     *logger.Logger
}

// NewRouter wires every HTTP route.
func NewRouter(d Deps) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	guard := auth.RequireAdmin(d.Auth)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	auth.NewHandler(d.Auth).RegisterRoutes(router)
	media.NewHandler(d.Media, d.Log.WithComponent("media")).RegisterRoutes(router, guard)
	content.NewHandler(d.Content, d.Log.WithComponent("content")).RegisterRoutes(router, guard)

	return router
}
