// Package entries provides PostgreSQL-backed storage for book entries.
// Entries are only ever inserted and listed.
package entries

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts entry and fills in CreatedAt from the database clock.
// The emoji selection is stored as a JSON array.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) error {
	emojis, err := json.Marshal(entry.Emojis)
	if err != nil {
		return fmt.Errorf("encode emojis: %w", err)
	}

	query := `
		INSERT INTO entries (id, content, author_id, author_email, author_name, recipient_id, recipient_email, emojis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		entry.ID, entry.Content, entry.AuthorID, entry.AuthorEmail, entry.AuthorName,
		entry.RecipientID, entry.RecipientEmail, string(emojis)).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByRecipient returns every entry addressed to recipientID, newest first.
// The result is never nil.
func (r *PostgresRepository) ListByRecipient(ctx context.Context, recipientID string) ([]models.Entry, error) {
	query := `
		SELECT id, content, author_id, author_email, author_name, recipient_id, recipient_email, emojis, created_at
		FROM entries
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Entry, 0)
	for rows.Next() {
		var (
			item   models.Entry
			emojis string
		)
		if err := rows.Scan(
			&item.ID, &item.Content, &item.AuthorID, &item.AuthorEmail, &item.AuthorName,
			&item.RecipientID, &item.RecipientEmail, &emojis, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if err := json.Unmarshal([]byte(emojis), &item.Emojis); err != nil {
			return nil, fmt.Errorf("decode emojis of entry %s: %w", item.ID, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
