package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/shardrun"
	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/submission"
	"github.com/helixml/shardrun/infrastructure/api/middleware"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

// SubmissionsRouter launches runs and serves submission history.
type SubmissionsRouter struct {
	client *shardrun.Client
	logger *slog.Logger
}

// NewSubmissionsRouter creates a SubmissionsRouter.
func NewSubmissionsRouter(client *shardrun.Client) *SubmissionsRouter {
	return &SubmissionsRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for submission endpoints.
func (r *SubmissionsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/{id}", r.Get)
	return router
}

// List handles GET /api/v1/submissions.
// Filters: run_id, recipe, status. Paging: page, page_size.
func (r *SubmissionsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	q := req.URL.Query()

	status := submission.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "unknown status "+string(status), nil), r.logger)
		return
	}

	pagination := ParsePagination(req)
	params := service.ListParams{
		RunID:  q.Get("run_id"),
		Recipe: q.Get("recipe"),
		Status: status,
		Limit:  pagination.Limit(),
		Offset: pagination.Offset(),
	}

	subs, err := r.client.History.List(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	total, err := r.client.History.Count(ctx, params)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.SubmissionListResponse{
		Data: dto.NewSubmissions(subs),
		Meta: pagination.Meta(total),
	})
}

// Get handles GET /api/v1/submissions/{id}.
func (r *SubmissionsRouter) Get(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid submission id", err), r.logger)
		return
	}

	sub, err := r.client.History.Get(req.Context(), id)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dto.SubmissionResponse{Data: dto.NewSubmission(sub)})
}

// Create handles POST /api/v1/submissions.
//
// When a launch fails after submissions were recorded, the response carries
// the recorded submissions with the launcher's status code.
func (r *SubmissionsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.SubmissionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err), r.logger)
		return
	}

	subs, err := r.client.Submissions.Submit(req.Context(), service.SubmitParams{
		Plan:  planParams(body.PlanRequest),
		Split: body.Split,
		Name:  body.Name,
	})
	if err != nil && len(subs) == 0 {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	resp := dto.SubmissionListResponse{Data: dto.NewSubmissions(subs)}
	status := http.StatusCreated
	if err != nil {
		status, _ = middleware.StatusFor(err)
		resp.Error = err.Error()
		r.logger.WarnContext(req.Context(), "submission failed", "error", err, "recorded", len(subs))
	}
	middleware.WriteJSON(w, status, resp)
}
