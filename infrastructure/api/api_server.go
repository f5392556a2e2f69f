// Package api serves shardrun over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/helixml/shardrun"
	apimiddleware "github.com/helixml/shardrun/infrastructure/api/middleware"
	v1 "github.com/helixml/shardrun/infrastructure/api/v1"
	mcpinternal "github.com/helixml/shardrun/internal/mcp"
)

// RequestTimeout bounds /api/v1 requests, including launcher calls.
const RequestTimeout = 15 * time.Minute

// APIServer provides the HTTP API backed by a shardrun Client.
type APIServer struct {
	client  *shardrun.Client
	version string
	router  chi.Router
}

// NewAPIServer creates an APIServer. Mutating /api/v1 endpoints require one
// of the client's API keys when any are configured.
func NewAPIServer(client *shardrun.Client, version string) *APIServer {
	return &APIServer{client: client, version: version}
}

// Router returns the router so callers can add middleware before
// MountRoutes.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes wires the health, v1 and MCP routes.
func (a *APIServer) MountRoutes() {
	router := a.Router()
	c := a.client
	logger := c.Logger()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY", apimiddleware.CorrelationIDHeader},
		ExposedHeaders: []string{apimiddleware.CorrelationIDHeader},
		MaxAge:         300,
	}))

	router.Get("/health", healthHandler)
	router.Get("/healthz", healthHandler)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RequestTimeout))
		r.Mount("/recipes", v1.NewRecipesRouter(c).Routes())
		r.Mount("/plans", v1.NewPlansRouter(c).Routes())

		r.Group(func(r chi.Router) {
			r.Use(apimiddleware.WriteProtectAuth(c.APIKeys()))
			r.Mount("/submissions", v1.NewSubmissionsRouter(c).Routes())
		})
	})

	mcpSrv := mcpinternal.NewServer(c.Planner, c.Recipes, c.History, a.version, logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

// Handler returns the fully mounted router.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.MountRoutes()
	}
	return a.router
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
