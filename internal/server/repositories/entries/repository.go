package entries

import (
	"context"

	"github.com/dmitrijs2005/keepsake/internal/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.Entry) error
	ListByRecipient(ctx context.Context, recipientID string) ([]models.Entry, error)
}
