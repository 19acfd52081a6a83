package revealed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/keepsake/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReadNamespace(ctx context.Context, key string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT entry_id FROM revealed_entries WHERE namespace = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read namespace[%s]: %w", key, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan revealed row: %w", err)
		}
		ids[id] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revealed rows: %w", err)
	}

	return ids, nil
}

// WriteNamespace replaces the stored set for key in one transaction.
func (r *SQLiteRepository) WriteNamespace(ctx context.Context, key string, ids map[string]struct{}) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM revealed_entries WHERE namespace = ?`, key); err != nil {
			return err
		}
		for id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO revealed_entries (namespace, entry_id) VALUES (?, ?)`, key, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write namespace[%s]: %w", key, err)
	}
	return nil
}
