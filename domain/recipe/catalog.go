package recipe

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

type fileDocument struct {
	Recipes []fileRecipe `yaml:"recipes"`
}

type fileRecipe struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	TotalItems    int               `yaml:"total_items"`
	NumShards     int               `yaml:"num_shards"`
	OutputDir     string            `yaml:"output_dir"`
	OutputPattern string            `yaml:"output_pattern"`
	Steps         []string          `yaml:"steps"`
	Params        map[string]string `yaml:"params"`
	Resources     fileResources     `yaml:"resources"`
}

type fileResources struct {
	Clusters       []string `yaml:"clusters"`
	Image          string   `yaml:"image"`
	Priority       string   `yaml:"priority"`
	Budget         string   `yaml:"budget"`
	Workspace      string   `yaml:"workspace"`
	GPUs           int      `yaml:"gpus"`
	Preemptible    bool     `yaml:"preemptible"`
	PureDockerMode bool     `yaml:"pure_docker_mode"`
}

func (f fileRecipe) toDomain() (Recipe, error) {
	numShards := f.NumShards
	if numShards == 0 {
		numShards = 1
	}
	return New(f.Name, f.Steps,
		WithDescription(f.Description),
		WithSizing(f.TotalItems, numShards),
		WithOutputDir(f.OutputDir),
		WithOutputPattern(f.OutputPattern),
		WithParams(f.Params),
		WithResources(NewResources(
			WithClusters(f.Resources.Clusters...),
			WithImage(f.Resources.Image),
			WithPriority(f.Resources.Priority),
			WithBudget(f.Resources.Budget),
			WithWorkspace(f.Resources.Workspace),
			WithGPUs(f.Resources.GPUs),
			WithPreemptible(f.Resources.Preemptible),
			WithPureDockerMode(f.Resources.PureDockerMode),
		)),
	)
}

// Load decodes recipes from a YAML document.
func Load(r io.Reader) ([]Recipe, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode recipes: %w", err)
	}

	recipes := make([]Recipe, 0, len(doc.Recipes))
	seen := make(map[string]struct{}, len(doc.Recipes))
	for _, fr := range doc.Recipes {
		rec, err := fr.toDomain()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rec.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate recipe %q", ErrInvalid, rec.Name())
		}
		seen[rec.Name()] = struct{}{}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// LoadFile decodes recipes from a YAML file.
func LoadFile(path string) ([]Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recipes file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Builtin returns the recipes shipped with shardrun.
func Builtin() ([]Recipe, error) {
	return Load(bytes.NewReader(builtinYAML))
}

// Catalog is an immutable set of recipes indexed by name.
type Catalog struct {
	recipes map[string]Recipe
}

// NewCatalog creates a Catalog. Later recipes replace earlier ones with the
// same name.
func NewCatalog(recipes ...Recipe) Catalog {
	c := Catalog{recipes: make(map[string]Recipe, len(recipes))}
	for _, r := range recipes {
		c.recipes[r.Name()] = r
	}
	return c
}

// LoadCatalog builds a Catalog from the built-in recipes, overridden by the
// recipes in path when path is not empty.
func LoadCatalog(path string) (Catalog, error) {
	recipes, err := Builtin()
	if err != nil {
		return Catalog{}, fmt.Errorf("builtin recipes: %w", err)
	}
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return Catalog{}, err
		}
		recipes = append(recipes, extra...)
	}
	return NewCatalog(recipes...), nil
}

// Get returns the recipe with the given name.
func (c Catalog) Get(name string) (Recipe, error) {
	r, ok := c.recipes[name]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return r, nil
}

// Names returns the recipe names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.recipes))
	for name := range c.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all recipes sorted by name.
func (c Catalog) List() []Recipe {
	names := c.Names()
	result := make([]Recipe, len(names))
	for i, name := range names {
		result[i] = c.recipes[name]
	}
	return result
}

// Len returns the number of recipes.
func (c Catalog) Len() int { return len(c.recipes) }

// Contains reports whether a recipe with the given name exists.
func (c Catalog) Contains(name string) bool {
	_, ok := c.recipes[name]
	return ok
}
