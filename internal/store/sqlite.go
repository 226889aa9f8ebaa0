package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/spectra-group/raman-qc/internal/qc"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id              TEXT PRIMARY KEY,
	recipe_name     TEXT NOT NULL,
	recipe_version  TEXT NOT NULL,
	station         TEXT NOT NULL DEFAULT '',
	spectrum_source TEXT NOT NULL DEFAULT '',
	decision        TEXT NOT NULL,
	reasons         TEXT,
	result          TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_evaluations_recipe ON evaluations(recipe_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_station ON evaluations(station);
CREATE INDEX IF NOT EXISTS idx_evaluations_decision ON evaluations(decision);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveEvaluation(ctx context.Context, source string, result *qc.SampleResult) (*Evaluation, error) {
	ev := Evaluation{
		ID:             uuid.New().String(),
		RecipeName:     result.Recipe.Name,
		RecipeVersion:  result.Recipe.Version,
		Station:        result.Recipe.Station,
		SpectrumSource: source,
		Decision:       result.Decision,
		Reasons:        result.Reasons,
		Result:         *result,
		CreatedAt:      time.Now().UTC(),
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}
	reasonsJSON, err := json.Marshal(ev.Reasons)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal reasons")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO evaluations (id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.RecipeName, ev.RecipeVersion, ev.Station, ev.SpectrumSource,
		string(ev.Decision), string(reasonsJSON), string(resultJSON), ev.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert evaluation")
	}
	return &ev, nil
}

func (s *SQLiteStore) GetEvaluation(ctx context.Context, id string) (*Evaluation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at
		 FROM evaluations WHERE id = ?`, id,
	)
	ev, err := scanEvaluation(row.Scan)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("evaluation not found: %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get evaluation %s", id)
	}
	return ev, nil
}

func (s *SQLiteStore) ListEvaluations(ctx context.Context, filter EvalFilter) ([]Evaluation, error) {
	query := `SELECT id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at
	 FROM evaluations WHERE 1=1`
	var args []any

	if filter.Recipe != "" {
		query += ` AND recipe_name = ?`
		args = append(args, filter.Recipe)
	}
	if filter.Station != "" {
		query += ` AND station = ?`
		args = append(args, filter.Station)
	}
	if filter.Decision != "" {
		query += ` AND decision = ?`
		args = append(args, string(filter.Decision))
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evaluations")
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evaluation")
		}
		evals = append(evals, *ev)
	}
	return evals, eris.Wrap(rows.Err(), "sqlite: list evaluations")
}

func (s *SQLiteStore) DeleteEvaluationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM evaluations WHERE created_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete evaluations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// scanEvaluation decodes one evaluation row. The scan argument order must
// match the SELECT column order used by every query in this file.
func scanEvaluation(scan func(dest ...any) error) (*Evaluation, error) {
	var ev Evaluation
	var decision, reasonsJSON, resultJSON string

	if err := scan(
		&ev.ID, &ev.RecipeName, &ev.RecipeVersion, &ev.Station, &ev.SpectrumSource,
		&decision, &reasonsJSON, &resultJSON, &ev.CreatedAt,
	); err != nil {
		return nil, err
	}

	ev.Decision = qc.Decision(decision)
	if reasonsJSON != "" {
		if err := json.Unmarshal([]byte(reasonsJSON), &ev.Reasons); err != nil {
			return nil, eris.Wrap(err, "unmarshal reasons")
		}
	}
	if err := json.Unmarshal([]byte(resultJSON), &ev.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	return &ev, nil
}
