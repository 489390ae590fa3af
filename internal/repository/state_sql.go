package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/tutordesk/internal/model"
)

type kvEntry struct {
	Key   string `db:"entry_key"`
	Value string `db:"entry_value"`
}

type sqlStateRepository struct {
	db        *sqlx.DB
	namespace string
}

// NewSQLStateRepository stores entries in the kv_entries table.
// Works with both the sqlite and pgx drivers.
func NewSQLStateRepository(db *sqlx.DB, namespace string) StateRepository {
	return &sqlStateRepository{db: db, namespace: namespace}
}

func (r *sqlStateRepository) Load(ctx context.Context) (*model.GoalState, error) {
	var rows []kvEntry
	query := `SELECT entry_key, entry_value FROM kv_entries WHERE namespace = $1`

	err := r.db.SelectContext(ctx, &rows, query, r.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load goal state: %w", err)
	}

	entries := make(map[string][]byte, len(rows))
	for _, row := range rows {
		entries[row.Key] = []byte(row.Value)
	}

	return decodeState(entries)
}

func (r *sqlStateRepository) Save(ctx context.Context, state *model.GoalState) error {
	entries, err := encodeState(state)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO kv_entries (namespace, entry_key, entry_value, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (namespace, entry_key)
	          DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`

	now := time.Now().UTC()
	for _, key := range stateKeys {
		_, err := tx.ExecContext(ctx, query, r.namespace, key, string(entries[key]), now)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func (r *sqlStateRepository) Clear(ctx context.Context) error {
	query := `DELETE FROM kv_entries WHERE namespace = $1`

	_, err := r.db.ExecContext(ctx, query, r.namespace)
	if err != nil {
		return fmt.Errorf("failed to clear goal state: %w", err)
	}
	return nil
}
