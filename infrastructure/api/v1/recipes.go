package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/shardrun"
	"github.com/helixml/shardrun/infrastructure/api/middleware"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

// RecipesRouter serves the recipe catalog.
type RecipesRouter struct {
	client *shardrun.Client
	logger *slog.Logger
}

// NewRecipesRouter creates a RecipesRouter.
func NewRecipesRouter(client *shardrun.Client) *RecipesRouter {
	return &RecipesRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for recipe endpoints.
func (r *RecipesRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.List)
	router.Get("/{name}", r.Get)
	return router
}

// List handles GET /api/v1/recipes.
func (r *RecipesRouter) List(w http.ResponseWriter, req *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.RecipeListResponse{Data: dto.NewRecipes(r.client.Recipes.List())})
}

// Get handles GET /api/v1/recipes/{name}.
func (r *RecipesRouter) Get(w http.ResponseWriter, req *http.Request) {
	rec, err := r.client.Recipes.Get(chi.URLParam(req, "name"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.RecipeResponse{Data: dto.NewRecipe(rec)})
}
