// Package recipe defines the sentinel-band recipes that drive spectrum
// evaluation: per-band expectations plus the global thresholds a station
// judges samples against. Recipes are loaded once, validated once, and
// treated as immutable for the lifetime of every evaluation that uses them.
package recipe

import (
	"github.com/rotisserie/eris"
)

// Role classifies how a band participates in the sample-level decision.
type Role string

const (
	// RoleAnchor marks the band used for wavenumber alignment only.
	RoleAnchor Role = "anchor"
	// RoleMustHave bands must be confidently present or the sample fails.
	RoleMustHave Role = "must_have"
	// RoleShouldHave bands degrade the sample to AMBER when missing or poor.
	RoleShouldHave Role = "should_have"
	// RoleMustNot bands fail the sample when confidently present.
	RoleMustNot Role = "must_not"
	// RoleWatch bands are evaluated and logged but carry no hard policy.
	RoleWatch Role = "watch"
)

// Shape selects the peak template used for the constrained fit.
type Shape string

const (
	ShapeGaussian    Shape = "gaussian"
	ShapePseudoVoigt Shape = "pseudovoigt"
)

// ErrConfigInvariant indicates a recipe that violates a structural
// invariant. It is fatal at load time and never seen mid-evaluation.
var ErrConfigInvariant = eris.New("recipe: config invariant violated")

// WindowRange is the closed wavenumber interval a band is cut from.
type WindowRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// FitBounds holds optional physical constraints for the template fit.
type FitBounds struct {
	AmpMin   *float64 `yaml:"amp_min,omitempty"`
	AmpMax   *float64 `yaml:"amp_max,omitempty"`
	SigmaMin *float64 `yaml:"sigma_min,omitempty"`
	SigmaMax *float64 `yaml:"sigma_max,omitempty"`
}

// BandConfig holds per-band thresholds and metadata for one sentinel band.
type BandConfig struct {
	Name   string      `yaml:"name" json:"name"`
	Center float64     `yaml:"center" json:"center"`
	Tol    float64     `yaml:"tol" json:"tol"`
	Sigma  float64     `yaml:"sigma" json:"sigma"`
	Role   Role        `yaml:"role" json:"role"`
	Window WindowRange `yaml:"window_range" json:"window_range"`

	// Shape defaults to gaussian; unknown values are normalized to gaussian
	// at load time so older recipes keep evaluating.
	Shape Shape    `yaml:"shape,omitempty" json:"shape,omitempty"`
	Eta   *float64 `yaml:"eta,omitempty" json:"eta,omitempty"`

	FitBounds *FitBounds `yaml:"fit_bounds,omitempty" json:"fit_bounds,omitempty"`
	Notes     string     `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Recipe is the full configuration for one station/use-case: ordered bands
// plus the global decision thresholds.
type Recipe struct {
	Name    string `yaml:"recipe_name" json:"recipe_name"`
	Version string `yaml:"recipe_version" json:"recipe_version"`
	Station string `yaml:"station" json:"station"`

	Bands []BandConfig `yaml:"bands" json:"bands"`

	// Global thresholds.
	Epsilon  float64 `yaml:"epsilon" json:"epsilon"`     // max acceptable RMSE
	Tau      float64 `yaml:"tau" json:"tau"`             // min classifier confidence
	KappaMin float64 `yaml:"kappa_min" json:"kappa_min"` // min OOD similarity
	SNRMin   float64 `yaml:"snr_min" json:"snr_min"`     // min signal-to-noise

	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Anchor returns the anchor band, or nil when the recipe has none
// (alignment disabled).
func (r *Recipe) Anchor() *BandConfig {
	for i := range r.Bands {
		if r.Bands[i].Role == RoleAnchor {
			return &r.Bands[i]
		}
	}
	return nil
}

// Validate enforces the structural invariants a recipe must satisfy before
// it is handed to the evaluator. Threshold calibration and schema-level
// validation happen upstream; this only guards what evaluation relies on.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return eris.Wrap(ErrConfigInvariant, "recipe name is empty")
	}
	if len(r.Bands) == 0 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s has no bands", r.Name)
	}

	seen := make(map[string]struct{}, len(r.Bands))
	anchors := 0
	for i := range r.Bands {
		b := &r.Bands[i]
		if b.Name == "" {
			return eris.Wrapf(ErrConfigInvariant, "recipe %s: band %d has no name", r.Name, i)
		}
		if _, dup := seen[b.Name]; dup {
			return eris.Wrapf(ErrConfigInvariant, "recipe %s: duplicate band name %q", r.Name, b.Name)
		}
		seen[b.Name] = struct{}{}

		switch b.Role {
		case RoleAnchor:
			anchors++
		case RoleMustHave, RoleShouldHave, RoleMustNot, RoleWatch:
		default:
			return eris.Wrapf(ErrConfigInvariant, "recipe %s: band %q has unknown role %q", r.Name, b.Name, b.Role)
		}

		if b.Window.Min >= b.Window.Max {
			return eris.Wrapf(ErrConfigInvariant,
				"recipe %s: band %q window [%g, %g] is not a valid range", r.Name, b.Name, b.Window.Min, b.Window.Max)
		}
		if b.Center < b.Window.Min || b.Center > b.Window.Max {
			return eris.Wrapf(ErrConfigInvariant,
				"recipe %s: band %q center %g outside window [%g, %g]", r.Name, b.Name, b.Center, b.Window.Min, b.Window.Max)
		}
		if b.Tol < 0 {
			return eris.Wrapf(ErrConfigInvariant, "recipe %s: band %q has negative tol %g", r.Name, b.Name, b.Tol)
		}
		if b.Sigma <= 0 {
			return eris.Wrapf(ErrConfigInvariant, "recipe %s: band %q has non-positive sigma %g", r.Name, b.Name, b.Sigma)
		}
	}

	if anchors > 1 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s: %d anchor bands, at most one allowed", r.Name, anchors)
	}

	if r.Epsilon <= 0 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s: epsilon %g must be positive", r.Name, r.Epsilon)
	}
	if r.Tau < 0 || r.Tau > 1 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s: tau %g outside [0, 1]", r.Name, r.Tau)
	}
	if r.KappaMin < 0 || r.KappaMin > 1 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s: kappa_min %g outside [0, 1]", r.Name, r.KappaMin)
	}
	if r.SNRMin < 0 {
		return eris.Wrapf(ErrConfigInvariant, "recipe %s: snr_min %g must be non-negative", r.Name, r.SNRMin)
	}

	return nil
}
