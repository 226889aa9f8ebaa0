package classifier

import (
	"context"
	"math"

	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

// Kernel is the classical kernel backend. It compares the
// baseline-subtracted, unit-normalized window against the band's expected
// template in feature space: confidence is the cosine similarity to the
// template, kappa is an RBF similarity exp(-gamma * ||x - g||^2). Both are
// closed-form and deterministic, which keeps evaluations reproducible
// without a hosted model.
type Kernel struct {
	gamma float64
}

// NewKernel creates the kernel backend. gamma <= 0 selects the default of 1.
func NewKernel(gamma float64) *Kernel {
	if gamma <= 0 {
		gamma = 1
	}
	return &Kernel{gamma: gamma}
}

func (*Kernel) Name() string { return "kernel" }

func (k *Kernel) Score(_ context.Context, win spectrum.Window, band recipe.BandConfig) (Score, error) {
	n := win.Len()
	if n == 0 {
		return Score{Backend: "kernel"}, nil
	}

	// Observed feature vector: intensities above the median baseline.
	med := median(win.Intensities)
	x := make([]float64, n)
	for i, v := range win.Intensities {
		x[i] = v - med
	}

	// Expected feature vector: unit-amplitude template on the same grid.
	g := make([]float64, n)
	for i, nu := range win.Wavenumbers {
		z := (nu - band.Center) / band.Sigma
		g[i] = math.Exp(-0.5 * z * z)
	}

	xn, okX := unitNorm(x)
	gn, okG := unitNorm(g)
	if !okX || !okG {
		// Degenerate window (flat signal or template): no peak evidence.
		return Score{Backend: "kernel"}, nil
	}

	var dot, dist2 float64
	for i := range xn {
		dot += xn[i] * gn[i]
		d := xn[i] - gn[i]
		dist2 += d * d
	}

	return Score{
		Confidence: clamp01(dot),
		Kappa:      clamp01(math.Exp(-k.gamma * dist2)),
		Backend:    "kernel",
	}, nil
}

// unitNorm scales v to unit L2 norm. Returns false for a zero vector.
func unitNorm(v []float64) ([]float64, bool) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return nil, false
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, true
}
