package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/helixml/shardrun/domain/recipe"
)

func recipesCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List available recipes",
		Long: `List available recipes. Built-in recipes can be replaced or extended with a
YAML file named by RECIPES_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(*envFile)
			if err != nil {
				return err
			}
			return writeRecipeTable(cmd.OutOrStdout(), catalog.List())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Print a recipe as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(*envFile)
			if err != nil {
				return err
			}
			r, err := catalog.Get(args[0])
			if err != nil {
				return err
			}
			return writeRecipeYAML(cmd.OutOrStdout(), r)
		},
	})

	return cmd
}

// loadCatalog reads recipes without opening the database.
func loadCatalog(envFile string) (recipe.Catalog, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return recipe.Catalog{}, err
	}
	return recipe.LoadCatalog(cfg.RecipesFile())
}

func writeRecipeTable(w io.Writer, recipes []recipe.Recipe) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tITEMS\tSHARDS\tDESCRIPTION")
	for _, r := range recipes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Name(), r.TotalItems(), r.NumShards(), r.Description())
	}
	return tw.Flush()
}

type recipeYAML struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description,omitempty"`
	TotalItems    int               `yaml:"total_items"`
	NumShards     int               `yaml:"num_shards"`
	OutputDir     string            `yaml:"output_dir,omitempty"`
	OutputPattern string            `yaml:"output_pattern,omitempty"`
	Params        map[string]string `yaml:"params,omitempty"`
	Steps         []string          `yaml:"steps"`
	Resources     resourcesYAML     `yaml:"resources"`
}

type resourcesYAML struct {
	Clusters       []string `yaml:"clusters,omitempty"`
	Image          string   `yaml:"image,omitempty"`
	Priority       string   `yaml:"priority,omitempty"`
	Budget         string   `yaml:"budget,omitempty"`
	Workspace      string   `yaml:"workspace,omitempty"`
	GPUs           int      `yaml:"gpus,omitempty"`
	Preemptible    bool     `yaml:"preemptible,omitempty"`
	PureDockerMode bool     `yaml:"pure_docker_mode,omitempty"`
}

func writeRecipeYAML(w io.Writer, r recipe.Recipe) error {
	res := r.Resources()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recipeYAML{
		Name:          r.Name(),
		Description:   r.Description(),
		TotalItems:    r.TotalItems(),
		NumShards:     r.NumShards(),
		OutputDir:     r.OutputDir(),
		OutputPattern: r.OutputPattern(),
		Params:        r.Params(),
		Steps:         r.Steps(),
		Resources: resourcesYAML{
			Clusters:       res.Clusters(),
			Image:          res.Image(),
			Priority:       res.Priority(),
			Budget:         res.Budget(),
			Workspace:      res.Workspace(),
			GPUs:           res.GPUs(),
			Preemptible:    res.Preemptible(),
			PureDockerMode: res.PureDockerMode(),
		},
	}); err != nil {
		return err
	}
	return enc.Close()
}
