package dto

// Recipe describes a catalog entry.
type Recipe struct {
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	TotalItems    int               `json:"total_items"`
	NumShards     int               `json:"num_shards"`
	OutputDir     string            `json:"output_dir"`
	OutputPattern string            `json:"output_pattern,omitempty"`
	Steps         []string          `json:"steps"`
	Params        map[string]string `json:"params,omitempty"`
	Resources     Resources         `json:"resources"`
}

// RecipeListResponse lists recipes.
type RecipeListResponse struct {
	Data []Recipe `json:"data"`
}

// RecipeResponse wraps a single recipe.
type RecipeResponse struct {
	Data Recipe `json:"data"`
}
