package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/spectra-group/raman-qc/internal/qc"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"insert_evaluation": `INSERT INTO evaluations (id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_evaluation": `SELECT id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at
		FROM evaluations WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	recipe_name     TEXT NOT NULL,
	recipe_version  TEXT NOT NULL,
	station         TEXT NOT NULL DEFAULT '',
	spectrum_source TEXT NOT NULL DEFAULT '',
	decision        TEXT NOT NULL,
	reasons         JSONB,
	result          JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_evaluations_recipe ON evaluations(recipe_name);
CREATE INDEX IF NOT EXISTS idx_evaluations_station ON evaluations(station);
CREATE INDEX IF NOT EXISTS idx_evaluations_decision ON evaluations(decision);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, source string, result *qc.SampleResult) (*Evaluation, error) {
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
		return nil, eris.Wrap(err, "postgres: marshal result")
	}
	reasonsJSON, err := json.Marshal(ev.Reasons)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal reasons")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO evaluations (id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.RecipeName, ev.RecipeVersion, ev.Station, ev.SpectrumSource,
		string(ev.Decision), reasonsJSON, resultJSON, ev.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert evaluation")
	}
	return &ev, nil
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id string) (*Evaluation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at
		FROM evaluations WHERE id = $1`, id,
	)
	ev, err := scanPostgresEvaluation(row.Scan)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get evaluation %s", id)
	}
	return ev, nil
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, filter EvalFilter) ([]Evaluation, error) {
	query := `SELECT id, recipe_name, recipe_version, station, spectrum_source, decision, reasons, result, created_at
	FROM evaluations WHERE 1=1`
	var args []any

	if filter.Recipe != "" {
		args = append(args, filter.Recipe)
		query += ` AND recipe_name = $` + strconv.Itoa(len(args))
	}
	if filter.Station != "" {
		args = append(args, filter.Station)
		query += ` AND station = $` + strconv.Itoa(len(args))
	}
	if filter.Decision != "" {
		args = append(args, string(filter.Decision))
		query += ` AND decision = $` + strconv.Itoa(len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluations")
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		ev, err := scanPostgresEvaluation(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation")
		}
		evals = append(evals, *ev)
	}
	return evals, eris.Wrap(rows.Err(), "postgres: list evaluations")
}

func (s *PostgresStore) DeleteEvaluationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM evaluations WHERE created_at < $1`, cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete evaluations")
	}
	return int(tag.RowsAffected()), nil
}

func scanPostgresEvaluation(scan func(dest ...any) error) (*Evaluation, error) {
	var ev Evaluation
	var decision string
	var reasonsJSON, resultJSON []byte

	if err := scan(
		&ev.ID, &ev.RecipeName, &ev.RecipeVersion, &ev.Station, &ev.SpectrumSource,
		&decision, &reasonsJSON, &resultJSON, &ev.CreatedAt,
	); err != nil {
		return nil, err
	}

	ev.Decision = qc.Decision(decision)
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &ev.Reasons); err != nil {
			return nil, eris.Wrap(err, "unmarshal reasons")
		}
	}
	if err := json.Unmarshal(resultJSON, &ev.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	return &ev, nil
}
