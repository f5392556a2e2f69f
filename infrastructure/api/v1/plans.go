package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/shardrun"
	"github.com/helixml/shardrun/infrastructure/api/middleware"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

// PlansRouter renders plans without launching anything.
type PlansRouter struct {
	client *shardrun.Client
	logger *slog.Logger
}

// NewPlansRouter creates a PlansRouter.
func NewPlansRouter(client *shardrun.Client) *PlansRouter {
	return &PlansRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for plan endpoints.
func (r *PlansRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", r.Create)
	return router
}

// Create handles POST /api/v1/plans.
func (r *PlansRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.PlanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	plan, err := r.client.Planner.Plan(req.Context(), planParams(body))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.PlanResponse{Data: dto.NewPlan(plan)})
}
