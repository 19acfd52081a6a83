package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/server/feed"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// EntryService appends entries to books and serves live views of a book.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    feed.Notifier
	hub         *feed.Hub
	log         logging.Logger
}

// NewEntryService wires the store to the live feed. notifier is told about
// every stored entry; hub wakes the watchers in this process. In single
// process mode the hub is its own notifier.
func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, notifier feed.Notifier, hub *feed.Hub, log logging.Logger) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		hub:         hub,
		log:         log.With("module", "entries"),
	}
}

// Append writes draft into the book the invite token belongs to. Only the
// content, author name and emojis of draft are used; everything else is
// filled in here. Nothing is written when validation fails.
func (s *EntryService) Append(ctx context.Context, author models.Viewer, inviteToken string, draft models.Entry) (*models.Entry, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	recipient, err := s.repomanager.Identities(s.db).GetByInviteToken(ctx, strings.TrimSpace(inviteToken))
	if err != nil {
		return nil, storeErr(err)
	}

	authorName := strings.TrimSpace(draft.AuthorName)
	if authorName == "" {
		authorName = author.Name()
	}

	entry := &models.Entry{
		ID:             uuid.NewString(),
		Content:        draft.Content,
		AuthorID:       author.ID,
		AuthorEmail:    author.Email,
		AuthorName:     authorName,
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		Emojis:         append([]string(nil), draft.Emojis...),
	}
	if err := s.repomanager.Entries(s.db).Create(ctx, entry); err != nil {
		return nil, storeErr(err)
	}

	// Already stored: a failed signal is logged, not returned.
	if err := s.notifier.Notify(ctx, recipient.ID); err != nil {
		s.log.Warn(ctx, "entry change signal failed", "recipient_id", recipient.ID, "error", err)
	}

	s.log.Info(ctx, "entry appended", "entry_id", entry.ID, "recipient_id", recipient.ID)
	return entry, nil
}

// List returns the recipient's full book, newest first.
func (s *EntryService) List(ctx context.Context, recipientID string) ([]models.Entry, error) {
	entries, err := s.repomanager.Entries(s.db).ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, storeErr(err)
	}
	models.SortNewestFirst(entries)
	return entries, nil
}

// Watch sends the full book once, then again after every change, until ctx
// ends or send fails. Changes that arrive while a snapshot is being read or
// sent collapse into one more snapshot.
func (s *EntryService) Watch(ctx context.Context, recipientID string, send func([]models.Entry) error) error {
	l := s.hub.Subscribe(recipientID)
	defer s.hub.Unsubscribe(l)

	s.log.Debug(ctx, "watch opened", "recipient_id", recipientID, "watchers", s.hub.Count(recipientID))
	defer s.log.Debug(ctx, "watch closed", "recipient_id", recipientID)

	for {
		entries, err := s.List(ctx, recipientID)
		if err != nil {
			return err
		}
		if err := send(entries); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.C():
		}
	}
}
