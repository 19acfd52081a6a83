package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
	"github.com/google/uuid"
)

// ObjectStore is where archives go. storage.S3Store implements it.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Archive is a downloadable copy of one book.
type Archive struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type archiveEntry struct {
	ID          string    `json:"id"`
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail"`
	Content     string    `json:"content"`
	Emojis      []string  `json:"emojis"`
	CreatedAt   time.Time `json:"createdAt"`
}

type archiveDocument struct {
	RecipientID    string         `json:"recipientId"`
	RecipientEmail string         `json:"recipientEmail"`
	ExportedAt     time.Time      `json:"exportedAt"`
	Entries        []archiveEntry `json:"entries"`
}

// ArchiveService exports a book once the reveal deadline has passed.
type ArchiveService struct {
	entries  *EntryService
	store    ObjectStore
	clock    *reveal.Clock
	validity time.Duration
	now      func() time.Time
	log      logging.Logger
}

func NewArchiveService(entries *EntryService, store ObjectStore, clock *reveal.Clock, validity time.Duration, log logging.Logger) *ArchiveService {
	return &ArchiveService{
		entries:  entries,
		store:    store,
		clock:    clock,
		validity: validity,
		now:      time.Now,
		log:      log.With("module", "archive"),
	}
}

// ArchiveKey lays archives out by owner and export date.
func ArchiveKey(viewerID string, at time.Time) string {
	return fmt.Sprintf("archives/%s/%d/%02d/%02d/%s.json", viewerID, at.Year(), at.Month(), at.Day(), uuid.New())
}

// Export writes every entry addressed to v into the object store and returns
// a time-limited download link. Refused with ErrRevealLocked before the
// deadline.
func (s *ArchiveService) Export(ctx context.Context, v models.Viewer) (*Archive, error) {
	now := s.now()
	if s.clock.Phase(now) != reveal.Open {
		return nil, common.ErrRevealLocked
	}

	entries, err := s.entries.List(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	doc := archiveDocument{
		RecipientID:    v.ID,
		RecipientEmail: v.Email,
		ExportedAt:     now.UTC(),
		Entries:        make([]archiveEntry, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, archiveEntry{
			ID:          e.ID,
			AuthorName:  e.AuthorName,
			AuthorEmail: e.AuthorEmail,
			Content:     e.Content,
			Emojis:      e.Emojis,
			CreatedAt:   e.CreatedAt.UTC(),
		})
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode archive: %v", common.ErrInternal, err)
	}

	key := ArchiveKey(v.ID, now)
	if err := s.store.Put(ctx, key, body, "application/json"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	url, err := s.store.PresignGet(ctx, key, s.validity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	s.log.Info(ctx, "archive exported", "viewer_id", v.ID, "key", key, "entries", len(entries))
	return &Archive{Key: key, URL: url, ExpiresAt: now.Add(s.validity)}, nil
}
