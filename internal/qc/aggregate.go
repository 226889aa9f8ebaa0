package qc

import (
	"fmt"

	"github.com/spectra-group/raman-qc/internal/recipe"
)

// Aggregate combines the ordered band results into the sample decision.
// RED is checked strictly before AMBER: a single must_not hit or must_have
// failure dominates any number of degraded bands elsewhere. Aggregated
// reasons are the per-band reasons of every band that contributed to a
// non-GREEN branch, in band order, deduplicated by (band, code).
func Aggregate(rcp *recipe.Recipe, bands []BandResult) *SampleResult {
	red := false
	amber := false
	contributed := make([]bool, len(bands))

	for i := range bands {
		br := &bands[i]

		if br.Label == LabelMustNotHit {
			red = true
			contributed[i] = true
		}
		if br.Band.Role == recipe.RoleMustHave && (br.Label == LabelNoPeak || br.Label == LabelOOD) {
			red = true
			contributed[i] = true
		}

		switch br.Label {
		case LabelPeakDrifted, LabelBadQuality, LabelOOD:
			amber = true
			contributed[i] = true
		}
	}

	decision := DecisionGreen
	switch {
	case red:
		decision = DecisionRed
	case amber:
		decision = DecisionAmber
	}

	var reasons []string
	if decision != DecisionGreen {
		seen := make(map[string]struct{})
		for i := range bands {
			if !contributed[i] {
				continue
			}
			for _, code := range bands[i].Reasons {
				key := fmt.Sprintf("%s:%s", bands[i].Band.Name, code)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				reasons = append(reasons, key)
			}
		}
	}

	return &SampleResult{
		Recipe:   *rcp,
		Bands:    bands,
		Decision: decision,
		Reasons:  reasons,
	}
}
