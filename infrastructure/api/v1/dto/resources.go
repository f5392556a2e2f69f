// Package dto holds the JSON shapes of the v1 API.
package dto

// Resources is the launcher resource block shared by recipes, plans and
// submission requests. Zero values mean "not set".
type Resources struct {
	Clusters       []string `json:"clusters,omitempty"`
	Image          string   `json:"image,omitempty"`
	Priority       string   `json:"priority,omitempty"`
	Budget         string   `json:"budget,omitempty"`
	Workspace      string   `json:"workspace,omitempty"`
	GPUs           int      `json:"gpus,omitempty"`
	Preemptible    bool     `json:"preemptible,omitempty"`
	PureDockerMode bool     `json:"pure_docker_mode,omitempty"`
}
