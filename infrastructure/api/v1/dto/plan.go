package dto

// PlanRequest asks for a plan. Either Recipe or Template is required;
// every other field overrides the recipe when set.
type PlanRequest struct {
	Recipe        string            `json:"recipe,omitempty"`
	Template      string            `json:"template,omitempty"`
	OutputPattern string            `json:"output_pattern,omitempty"`
	TotalItems    *int              `json:"total_items,omitempty"`
	NumShards     *int              `json:"num_shards,omitempty"`
	OutputDir     string            `json:"output_dir,omitempty"`
	RunID         string            `json:"run_id,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
	Resources     *Resources        `json:"resources,omitempty"`
}

// Shard is one planned shard.
type Shard struct {
	Index   int    `json:"index"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Output  string `json:"output"`
	Command string `json:"command"`
}

// Plan is a rendered run.
type Plan struct {
	RunID       string    `json:"run_id"`
	Recipe      string    `json:"recipe"`
	TotalItems  int       `json:"total_items"`
	NumShards   int       `json:"num_shards"`
	OutputDir   string    `json:"output_dir"`
	EmptyShards int       `json:"empty_shards"`
	Command     string    `json:"command"`
	Shards      []Shard   `json:"shards"`
	Resources   Resources `json:"resources"`
}

// PlanResponse wraps a plan.
type PlanResponse struct {
	Data Plan `json:"data"`
}
