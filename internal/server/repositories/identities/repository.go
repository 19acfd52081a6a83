package identities

import (
	"context"

	"github.com/dmitrijs2005/keepsake/internal/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByInviteToken(ctx context.Context, token string) (*models.Identity, error)
	// Insert reports false when a record with the same id already exists.
	Insert(ctx context.Context, identity *models.Identity) (bool, error)
	UpdateProfile(ctx context.Context, id, displayName, email string) (*models.Identity, error)
}
