package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/spectra-group/raman-qc/internal/classifier"
	"github.com/spectra-group/raman-qc/internal/recipe"
	"github.com/spectra-group/raman-qc/internal/store"
	"github.com/spectra-group/raman-qc/pkg/qscore"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "raman_qc.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClassifier builds the configured scoring backend, optionally wrapped
// in a fallback decorator with a per-call timeout.
func initClassifier() (classifier.Classifier, error) {
	primary, err := newBackend(cfg.Classifier.Backend)
	if err != nil {
		return nil, err
	}

	if cfg.Classifier.Fallback == "" || cfg.Classifier.Fallback == cfg.Classifier.Backend {
		return primary, nil
	}
	secondary, err := newBackend(cfg.Classifier.Fallback)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Classifier.TimeoutMS) * time.Millisecond
	return classifier.WithFallback(primary, secondary, timeout), nil
}

func newBackend(name string) (classifier.Classifier, error) {
	switch name {
	case "baseline":
		return classifier.NewBaseline(), nil
	case "kernel":
		return classifier.NewKernel(cfg.Classifier.KernelGamma), nil
	case "qscore":
		qs := cfg.Classifier.QScore
		client := qscore.NewClient(qs.Key, qscore.WithBaseURL(qs.URL))
		return classifier.NewRemote(client, qs.ModelID,
			classifier.WithRateLimit(qs.RatePerSec, qs.RateBurst),
		), nil
	default:
		return nil, eris.Errorf("unknown classifier backend: %s", name)
	}
}

// resolveRecipe maps a recipe name to a file path, consulting the station
// index when one exists, then loads and validates it.
func resolveRecipe(name string) (*recipe.Recipe, error) {
	dir := cfg.Recipes.Dir

	indexPath := filepath.Join(dir, cfg.Recipes.Index)
	if _, err := os.Stat(indexPath); err == nil {
		recipes, err := recipe.LoadIndex(indexPath)
		if err != nil {
			return nil, err
		}
		if r, ok := recipes[name]; ok {
			return r, nil
		}
	}

	return recipe.Load(filepath.Join(dir, name+".yaml"))
}
