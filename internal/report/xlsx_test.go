package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/store"
)

func TestWriteXLSX(t *testing.T) {
	band := recipe.BandConfig{
		Name:   "carbonyl",
		Center: 1715,
		Tol:    4,
		Sigma:  6,
		Role:   recipe.RoleMustHave,
		Window: recipe.WindowRange{Min: 1680, Max: 1750},
	}
	ev := store.Evaluation{
		ID:             "ev-1",
		RecipeName:     "polymer-A",
		RecipeVersion:  "3",
		Station:        "line-2",
		SpectrumSource: "batch7.csv",
		Decision:       qc.DecisionAmber,
		Reasons:        []string{"carbonyl:delta_nu_above_tol:5.2>4"},
		Result: qc.SampleResult{
			Bands: []qc.BandResult{
				{
					Band:    band,
					Metrics: qc.BandMetrics{CenterObs: 1720.2, DeltaNu: 5.2, SNR: 30, RMSE: 0.02, Confidence: 0.9, Kappa: 0.8},
					Label:   qc.LabelPeakDrifted,
					Reasons: []string{"delta_nu_above_tol:5.2>4"},
				},
			},
			Decision: qc.DecisionAmber,
		},
		CreatedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, []store.Evaluation{ev}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	summary := f.Sheets[0]
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "id", summary.Rows[0].Cells[0].Value)
	assert.Equal(t, "ev-1", summary.Rows[1].Cells[0].Value)
	assert.Equal(t, "AMBER", summary.Rows[1].Cells[6].Value)

	bands := f.Sheets[1]
	require.Len(t, bands.Rows, 2)
	assert.Equal(t, "carbonyl", bands.Rows[1].Cells[1].Value)
	assert.Equal(t, "PEAK_DRIFTED", bands.Rows[1].Cells[3].Value)
}

func TestFileName(t *testing.T) {
	name := FileName(time.Date(2026, 8, 24, 10, 30, 0, 0, time.UTC))
	assert.Equal(t, "qc-evaluations-20260824-103000.xlsx", name)
}
