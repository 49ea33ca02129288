package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"banditflow/pkg/records"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore implements ActionStore on top of a single actions table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, verifies connectivity, and applies pending
// migrations before returning the store.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &Error{Op: "ping", Err: err}
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return &Error{Op: "migrate", Err: err}
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return &Error{Op: "migrate", Err: err}
	}
	return nil
}

// UpsertAction inserts the action, treating an id conflict as success.
func (s *PostgresStore) UpsertAction(ctx context.Context, action *records.Action) (string, error) {
	if err := action.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	ctxData := action.Context
	if len(ctxData) == 0 {
		ctxData = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (id, experiment_id, variant_id, reward, context)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		action.ID, action.ExperimentID, action.VariantID, action.Reward, []byte(ctxData))
	if err != nil {
		return "", &Error{Op: "upsert", Err: err}
	}
	return action.ID, nil
}

// QueryActions fetches actions by id and/or experiment id.
func (s *PostgresStore) QueryActions(ctx context.Context, filter Filter, limit int) ([]records.Action, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ID != "" {
		args = append(args, filter.ID)
		clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.ExperimentID != "" {
		args = append(args, filter.ExperimentID)
		clauses = append(clauses, fmt.Sprintf("experiment_id = $%d", len(args)))
	}

	query := `SELECT id, experiment_id, variant_id, reward, context, recorded_at FROM actions`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY recorded_at"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []records.Action
	for rows.Next() {
		var a records.Action
		var ctxData []byte
		if err := rows.Scan(&a.ID, &a.ExperimentID, &a.VariantID, &a.Reward, &ctxData, &a.RecordedAt); err != nil {
			return nil, &Error{Op: "query", Err: err}
		}
		a.Context = ctxData
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "query", Err: err}
	}
	return out, nil
}

// DistinctExperimentIDs lists every experiment with at least one action.
func (s *PostgresStore) DistinctExperimentIDs(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT experiment_id FROM actions`)
}

// DistinctVariantIDs lists every variant ever observed for an experiment.
func (s *PostgresStore) DistinctVariantIDs(ctx context.Context, experimentID string) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT variant_id FROM actions WHERE experiment_id = $1`, experimentID)
}

func (s *PostgresStore) distinct(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "distinct", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &Error{Op: "distinct", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "distinct", Err: err}
	}
	return ids, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }
