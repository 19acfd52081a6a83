package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/keepsake/internal/common"
)

const (
	// EmojiCount is the exact number of symbols an author must pick.
	EmojiCount = 3
	// MinContentLength is counted in characters, not bytes.
	MinContentLength = 10
)

// Entry is one message written into a recipient's book. Entries are
// append-only.
type Entry struct {
	ID             string
	Content        string
	AuthorID       string
	AuthorEmail    string
	AuthorName     string
	RecipientID    string
	RecipientEmail string
	Emojis         []string
	CreatedAt      time.Time
}

// Validate checks the author-supplied part of an entry.
func (e *Entry) Validate() error {
	if len(e.Emojis) != EmojiCount {
		return fmt.Errorf("%w: exactly %d emojis required, got %d", common.ErrValidation, EmojiCount, len(e.Emojis))
	}
	for _, s := range e.Emojis {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty emoji", common.ErrValidation)
		}
	}
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: content is blank", common.ErrValidation)
	}
	if n := utf8.RuneCountInString(e.Content); n < MinContentLength {
		return fmt.Errorf("%w: content must be at least %d characters, got %d", common.ErrValidation, MinContentLength, n)
	}
	return nil
}

// SortNewestFirst orders entries by CreatedAt descending, breaking ties by
// ID descending so that equal timestamps keep a stable order between
// deliveries.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Stats are recomputed from a whole snapshot on every delivery.
type Stats struct {
	Total           int
	DistinctAuthors int
}

// Summarize counts entries and distinct authors (by AuthorEmail).
func Summarize(entries []Entry) Stats {
	authors := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		authors[e.AuthorEmail] = struct{}{}
	}
	return Stats{Total: len(entries), DistinctAuthors: len(authors)}
}
