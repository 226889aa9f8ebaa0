package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectra-group/raman-qc/internal/classifier"
	"github.com/spectra-group/raman-qc/internal/config"
	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/store"
)

const testRecipeYAML = `recipe_name: polymer-A
recipe_version: "3"
station: line-2
epsilon: 1.0
tau: 0.3
kappa_min: 0.1
snr_min: 1.0
bands:
  - name: carbonyl
    center: 1000
    tol: 5
    sigma: 5
    role: must_have
    window_range:
      min: 950
      max: 1050
`

// testEnv points the global config at a temp recipe dir and returns a
// router backed by a throwaway sqlite store.
func testEnv(t *testing.T) (http.Handler, store.Store) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "polymer-A.yaml"), []byte(testRecipeYAML), 0o644))

	cfg = &config.Config{
		Recipes: config.RecipesConfig{Dir: dir, Index: "index.yaml"},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	return newRouter(st, classifier.NewBaseline()), st
}

// peakedSpectrum builds a clean gaussian peak on a flat baseline.
func peakedSpectrum(center float64) ([]float64, []float64) {
	var nus, ints []float64
	for nu := 950.0; nu <= 1050.0; nu++ {
		z := (nu - center) / 5.0
		nus = append(nus, nu)
		ints = append(ints, 1.0+10.0*math.Exp(-0.5*z*z))
	}
	return nus, ints
}

func TestServe_Health(t *testing.T) {
	router, _ := testEnv(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Evaluate(t *testing.T) {
	router, _ := testEnv(t)

	nus, ints := peakedSpectrum(1000)
	body, err := json.Marshal(evaluateRequest{
		Recipe:      "polymer-A",
		Source:      "inline",
		Wavenumbers: nus,
		Intensities: ints,
		Save:        true,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result qc.SampleResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, qc.DecisionGreen, result.Decision)
	require.Len(t, result.Bands, 1)
	assert.Equal(t, qc.LabelPeakOK, result.Bands[0].Label)

	// The save flag must have logged the evaluation.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var evals []store.Evaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evals))
	require.Len(t, evals, 1)
	assert.Equal(t, "inline", evals[0].SpectrumSource)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results/"+evals[0].ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServe_Evaluate_UnknownRecipe(t *testing.T) {
	router, _ := testEnv(t)

	nus, ints := peakedSpectrum(1000)
	body, _ := json.Marshal(evaluateRequest{Recipe: "nope", Wavenumbers: nus, Intensities: ints})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_Evaluate_BadSpectrum(t *testing.T) {
	router, _ := testEnv(t)

	body, _ := json.Marshal(evaluateRequest{
		Recipe:      "polymer-A",
		Wavenumbers: []float64{1000, 999}, // not increasing
		Intensities: []float64{1, 2},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/evaluate", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_Results_NotFound(t *testing.T) {
	router, _ := testEnv(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_Results_InvalidLimit(t *testing.T) {
	router, _ := testEnv(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveRecipe_Index(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pa-v3.yaml"), []byte(testRecipeYAML), 0o644))
	index := "current:\n  polymer-A: pa-v3.yaml\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yaml"), []byte(index), 0o644))

	cfg = &config.Config{Recipes: config.RecipesConfig{Dir: dir, Index: "index.yaml"}}

	r, err := resolveRecipe("polymer-A")
	require.NoError(t, err)
	assert.Equal(t, "polymer-A", r.Name)

	_, err = resolveRecipe("missing")
	require.Error(t, err)
}
