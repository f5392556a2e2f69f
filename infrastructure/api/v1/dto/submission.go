package dto

import "time"

// SubmissionRequest plans a run and hands it to the launcher.
type SubmissionRequest struct {
	PlanRequest
	// Split launches one job per shard.
	Split bool   `json:"split,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Submission is one recorded launcher invocation.
type Submission struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Recipe     string    `json:"recipe"`
	Name       string    `json:"name"`
	ShardIndex int       `json:"shard_index"`
	TotalItems int       `json:"total_items"`
	NumShards  int       `json:"num_shards"`
	Command    string    `json:"command"`
	Args       []string  `json:"args"`
	Status     string    `json:"status"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
	Output     string    `json:"output,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SubmissionResponse wraps a single submission.
type SubmissionResponse struct {
	Data Submission `json:"data"`
}

// Meta carries paging information.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// SubmissionListResponse is a page of submissions. Error is set when a
// submit request recorded submissions but a launch failed.
type SubmissionListResponse struct {
	Data  []Submission `json:"data"`
	Meta  *Meta        `json:"meta,omitempty"`
	Error string       `json:"error,omitempty"`
}
