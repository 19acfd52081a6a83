package client

import (
	"context"

	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	EnsureIdentity(ctx context.Context) (*models.Identity, error)
	ResolveInvite(ctx context.Context, token string) (*models.Identity, error)
	AppendEntry(ctx context.Context, req wire.AppendRequest) (*models.Entry, error)
	UpdateProfile(ctx context.Context, displayName, email string) (*models.Identity, error)
	ExportArchive(ctx context.Context) (wire.Archive, error)
	Subscribe(ctx context.Context, recipientID string) (*Subscription, error)
}
