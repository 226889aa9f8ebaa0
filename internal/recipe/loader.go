package recipe

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads a single recipe file, normalizes optional fields, and
// validates the structural invariants.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "recipe: read %s", path)
	}

	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "recipe: parse %s", path)
	}

	normalize(&r)

	if err := r.Validate(); err != nil {
		return nil, eris.Wrapf(err, "recipe: validate %s", path)
	}
	return &r, nil
}

// Index maps use-case names to recipe files relative to the index file.
type Index struct {
	Station string            `yaml:"station,omitempty"`
	Version string            `yaml:"version,omitempty"`
	Current map[string]string `yaml:"current"`
}

// LoadIndex reads an index file and loads every recipe it references.
func LoadIndex(indexPath string) (map[string]*Recipe, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, eris.Wrapf(err, "recipe: read index %s", indexPath)
	}

	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, eris.Wrapf(err, "recipe: parse index %s", indexPath)
	}
	if len(idx.Current) == 0 {
		return nil, eris.Errorf("recipe: index %s lists no recipes", indexPath)
	}

	baseDir := filepath.Dir(indexPath)
	recipes := make(map[string]*Recipe, len(idx.Current))
	for name, rel := range idx.Current {
		r, err := Load(filepath.Join(baseDir, rel))
		if err != nil {
			return nil, eris.Wrapf(err, "recipe: index entry %q", name)
		}
		recipes[name] = r
	}
	return recipes, nil
}

// normalize fills defaults the YAML layer leaves empty. Unknown shapes fall
// back to gaussian so a newer recipe file still evaluates on an older build.
func normalize(r *Recipe) {
	for i := range r.Bands {
		b := &r.Bands[i]
		switch b.Shape {
		case ShapeGaussian, ShapePseudoVoigt:
		default:
			b.Shape = ShapeGaussian
		}
		if b.Shape == ShapePseudoVoigt && b.Eta == nil {
			eta := 0.5
			b.Eta = &eta
		}
	}
}
