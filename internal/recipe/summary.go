package recipe

import (
	"fmt"
	"strings"
)

// Summary returns a human-readable recipe description for CLI output and
// debug logs.
func Summary(r *Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recipe: %s (v%s) @ %s\n", r.Name, r.Version, r.Station)
	fmt.Fprintf(&b, "  epsilon=%.3f  tau=%.3f  kappa_min=%.3f  snr_min=%.1f\n",
		r.Epsilon, r.Tau, r.KappaMin, r.SNRMin)
	if r.Notes != "" {
		fmt.Fprintf(&b, "  notes: %s\n", r.Notes)
	}

	b.WriteString("\n  Bands:\n")
	fmt.Fprintf(&b, "    %-14s %7s %7s %7s %-12s %-12s %s\n",
		"name", "center", "tol", "sigma", "role", "shape", "window")
	b.WriteString("    " + strings.Repeat("-", 76) + "\n")

	for i := range r.Bands {
		band := &r.Bands[i]
		name := band.Name
		if len(name) > 14 {
			name = name[:14]
		}
		fmt.Fprintf(&b, "    %-14s %7.1f %7.1f %7.1f %-12s %-12s [%.1f, %.1f]\n",
			name, band.Center, band.Tol, band.Sigma, band.Role, band.Shape,
			band.Window.Min, band.Window.Max)
	}

	return b.String()
}
