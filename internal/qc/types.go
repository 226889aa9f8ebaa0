// Package qc is the band-level evaluation and sample-level decision engine.
// It turns one spectrum plus one recipe into an auditable GREEN/AMBER/RED
// verdict with machine-checkable reasons. Everything here is deterministic:
// identical inputs produce bit-identical results.
package qc

import (
	"github.com/spectra-group/raman-qc/internal/recipe"
)

// BandLabel is the semantic state of one sentinel band in a QC decision.
type BandLabel string

const (
	// LabelPeakOK: peak present, good SNR/RMSE, |Δν| within tolerance.
	LabelPeakOK BandLabel = "PEAK_OK"
	// LabelPeakDrifted: peak present but shifted beyond tolerance.
	LabelPeakDrifted BandLabel = "PEAK_DRIFTED"
	// LabelNoPeak: classifier confidence below tau.
	LabelNoPeak BandLabel = "NO_PEAK"
	// LabelBadQuality: SNR below minimum or fit error above epsilon.
	LabelBadQuality BandLabel = "BAD_QUALITY"
	// LabelOOD: window is out of distribution (kappa below minimum).
	LabelOOD BandLabel = "OOD"
	// LabelMustNotHit: a forbidden band appears as a confident peak.
	LabelMustNotHit BandLabel = "MUST_NOT_HIT"
)

// Decision is the sample-level verdict.
type Decision string

const (
	DecisionGreen Decision = "GREEN"
	DecisionAmber Decision = "AMBER"
	DecisionRed   Decision = "RED"
)

// BandMetrics holds the raw numbers computed for one band window.
type BandMetrics struct {
	CenterObs  float64 `json:"center_obs"` // estimated peak center (cm^-1)
	DeltaNu    float64 `json:"delta_nu"`   // center_obs - aligned expected center
	SNR        float64 `json:"snr"`
	RMSE       float64 `json:"rmse"`
	Confidence float64 `json:"confidence"`
	Kappa      float64 `json:"kappa"`
}

// BandResult is the full outcome for one band: metrics, exactly one label,
// and the ordered reason codes that explain it.
type BandResult struct {
	Band    recipe.BandConfig `json:"band"`
	Metrics BandMetrics       `json:"metrics"`
	Label   BandLabel         `json:"label"`
	Reasons []string          `json:"reasons,omitempty"`
}

// SampleResult is the terminal artifact of one evaluation. Bands appear in
// recipe order, one result per configured band, always.
type SampleResult struct {
	Recipe   recipe.Recipe `json:"recipe"`
	Bands    []BandResult  `json:"bands"`
	Decision Decision      `json:"decision"`
	Reasons  []string      `json:"reasons,omitempty"`
}
