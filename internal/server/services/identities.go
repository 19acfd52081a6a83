// Package services contains server-side business logic. This file implements
// IdentityService, which owns identity records and their invite tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/identities"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/repomanager"
)

// tokenAttempts bounds how many freshly generated tokens Ensure tries before
// giving up on a collision streak.
const tokenAttempts = 5

var errTokenSpaceExhausted = errors.New("could not allocate a unique invite token")

type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *invite.Generator
	log         logging.Logger
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, tokens *invite.Generator, log logging.Logger) *IdentityService {
	return &IdentityService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		log:         log.With("module", "identities"),
	}
}

func storeErr(err error) error {
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

// Ensure returns the viewer's identity record, creating it with a fresh
// invite token on first use. An existing token is never replaced.
func (s *IdentityService) Ensure(ctx context.Context, v models.Viewer) (*models.Identity, error) {
	existing, err := s.repomanager.Identities(s.db).GetByID(ctx, v.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, storeErr(err)
	}

	var out *models.Identity
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		token, err := s.freshToken(ctx, repo)
		if err != nil {
			return err
		}

		created, err := repo.Insert(ctx, &models.Identity{
			ID:          v.ID,
			Email:       v.Email,
			DisplayName: v.Name(),
			InviteToken: token,
		})
		if err != nil {
			return err
		}
		if !created {
			// a concurrent Ensure won; keep its token
			s.log.Debug(ctx, "identity created concurrently", "viewer_id", v.ID)
		}

		out, err = repo.GetByID(ctx, v.ID)
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.log.Info(ctx, "identity ensured", "viewer_id", v.ID)
	return out, nil
}

func (s *IdentityService) freshToken(ctx context.Context, repo identities.Repository) (string, error) {
	for range tokenAttempts {
		token := s.tokens.Token()
		_, err := repo.GetByInviteToken(ctx, token)
		if errors.Is(err, common.ErrNotFound) {
			return token, nil
		}
		if err != nil {
			return "", err
		}
		s.log.Warn(ctx, "invite token collision, regenerating")
	}
	return "", errTokenSpaceExhausted
}

// Resolve maps an invite token to its owner's identity record.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.ErrNotFound
	}
	identity, err := s.repomanager.Identities(s.db).GetByInviteToken(ctx, token)
	if err != nil {
		return nil, storeErr(err)
	}
	return identity, nil
}

// UpdateProfile changes the viewer's display name and, when email is given,
// the email on the identity record. The invite token stays as it is.
func (s *IdentityService) UpdateProfile(ctx context.Context, v models.Viewer, displayName, email string) (*models.Identity, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.TrimSpace(email)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is empty", common.ErrValidation)
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email %q", common.ErrValidation, email)
	}

	identity, err := s.repomanager.Identities(s.db).UpdateProfile(ctx, v.ID, displayName, email)
	if err != nil {
		return nil, storeErr(err)
	}
	return identity, nil
}
