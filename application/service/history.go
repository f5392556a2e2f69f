package service

import (
	"context"

	"github.com/helixml/shardrun/domain/repository"
	"github.com/helixml/shardrun/domain/submission"
)

// ListParams filters submission history.
type ListParams struct {
	RunID  string
	Recipe string
	Status submission.Status
	Limit  int
	Offset int
}

// History reads recorded submissions.
type History struct {
	store submission.Store
}

// NewHistory creates a History.
func NewHistory(store submission.Store) *History {
	return &History{store: store}
}

// List returns submissions matching params, newest first.
func (h *History) List(ctx context.Context, params ListParams) ([]submission.Submission, error) {
	return h.store.Find(ctx, params.options(true)...)
}

// Count returns how many submissions match params, ignoring paging.
func (h *History) Count(ctx context.Context, params ListParams) (int64, error) {
	return h.store.Count(ctx, params.options(false)...)
}

// Get returns one submission by ID.
func (h *History) Get(ctx context.Context, id int64) (submission.Submission, error) {
	return h.store.FindOne(ctx, repository.WithID(id))
}

func (p ListParams) options(paged bool) []repository.Option {
	var opts []repository.Option
	if p.RunID != "" {
		opts = append(opts, submission.WithRunID(p.RunID))
	}
	if p.Recipe != "" {
		opts = append(opts, submission.WithRecipe(p.Recipe))
	}
	if p.Status != "" {
		opts = append(opts, submission.WithStatus(p.Status))
	}
	if !paged {
		return opts
	}
	opts = append(opts, submission.WithNewestFirst())
	if p.Limit > 0 {
		opts = append(opts, repository.WithPagination(p.Limit, p.Offset)...)
	}
	return opts
}
