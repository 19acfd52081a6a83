// Package identities stores member identity records and their invite tokens.
package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, email, display_name, invite_token, created_at, updated_at`

func scanIdentity(row *sql.Row) (*models.Identity, error) {
	i := &models.Identity{Persisted: true}
	err := row.Scan(&i.ID, &i.Email, &i.DisplayName, &i.InviteToken, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return i, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `SELECT ` + selectColumns + ` FROM identities
		 WHERE id = $1`

	return scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByInviteToken(ctx context.Context, token string) (*models.Identity, error) {
	query := `SELECT ` + selectColumns + ` FROM identities
		 WHERE invite_token = $1`

	return scanIdentity(r.db.QueryRowContext(ctx, query, token))
}

// Insert never touches an existing row, so a stored invite token is never
// overwritten.
func (r *PostgresRepository) Insert(ctx context.Context, identity *models.Identity) (bool, error) {
	query :=
		`INSERT INTO identities (id, email, display_name, invite_token)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.DisplayName, identity.InviteToken)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

// UpdateProfile changes the display name and, when email is non-empty, the
// email. The invite token is left as is.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, displayName, email string) (*models.Identity, error) {
	query :=
		`UPDATE identities
		 SET display_name = $2, email = COALESCE(NULLIF($3, ''), email), updated_at = now()
		 WHERE id = $1
		 RETURNING ` + selectColumns

	return scanIdentity(r.db.QueryRowContext(ctx, query, id, displayName, email))
}
