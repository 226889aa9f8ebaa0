package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/recipe"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleResult(decision qc.Decision, reasons ...string) *qc.SampleResult {
	rcp := recipe.Recipe{
		Name:     "polymer-A",
		Version:  "3",
		Station:  "line-2",
		Epsilon:  0.1,
		Tau:      0.7,
		KappaMin: 0.5,
		SNRMin:   5,
		Bands: []recipe.BandConfig{
			{
				Name:   "carbonyl",
				Center: 1715,
				Tol:    4,
				Sigma:  6,
				Role:   recipe.RoleMustHave,
				Window: recipe.WindowRange{Min: 1680, Max: 1750},
			},
		},
	}
	return &qc.SampleResult{
		Recipe: rcp,
		Bands: []qc.BandResult{
			{
				Band:    rcp.Bands[0],
				Metrics: qc.BandMetrics{CenterObs: 1716, DeltaNu: 1, SNR: 40, RMSE: 0.02, Confidence: 0.95, Kappa: 0.9},
				Label:   qc.LabelPeakOK,
			},
		},
		Decision: decision,
		Reasons:  reasons,
	}
}

func TestSQLite_SaveAndGetEvaluation(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.SaveEvaluation(ctx, "samples/batch7.csv", sampleResult(qc.DecisionGreen))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "polymer-A", saved.RecipeName)
	assert.Equal(t, "3", saved.RecipeVersion)
	assert.Equal(t, "line-2", saved.Station)

	got, err := st.GetEvaluation(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, qc.DecisionGreen, got.Decision)
	assert.Equal(t, "samples/batch7.csv", got.SpectrumSource)
	require.Len(t, got.Result.Bands, 1)
	assert.Equal(t, qc.LabelPeakOK, got.Result.Bands[0].Label)
	assert.InDelta(t, 40.0, got.Result.Bands[0].Metrics.SNR, 1e-12)
}

func TestSQLite_GetEvaluation_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetEvaluation(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListEvaluations_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveEvaluation(ctx, "a.csv", sampleResult(qc.DecisionGreen))
	require.NoError(t, err)
	_, err = st.SaveEvaluation(ctx, "b.csv", sampleResult(qc.DecisionRed, "carbonyl:confidence_below_tau:0.1<0.7"))
	require.NoError(t, err)

	all, err := st.ListEvaluations(ctx, EvalFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reds, err := st.ListEvaluations(ctx, EvalFilter{Decision: qc.DecisionRed})
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, "b.csv", reds[0].SpectrumSource)
	assert.Equal(t, []string{"carbonyl:confidence_below_tau:0.1<0.7"}, reds[0].Reasons)

	none, err := st.ListEvaluations(ctx, EvalFilter{Recipe: "other-recipe"})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := st.ListEvaluations(ctx, EvalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_DeleteEvaluationsBefore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveEvaluation(ctx, "a.csv", sampleResult(qc.DecisionGreen))
	require.NoError(t, err)

	n, err := st.DeleteEvaluationsBefore(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = st.DeleteEvaluationsBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := st.ListEvaluations(ctx, EvalFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
