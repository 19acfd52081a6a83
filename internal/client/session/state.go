package session

import (
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
)

type Status int

const (
	Hidden Status = iota
	Revealed
)

func (s Status) String() string {
	if s == Revealed {
		return "REVEALED"
	}
	return "HIDDEN"
}

type EntryView struct {
	models.Entry
	Status Status
}

// State is what the dashboard renders. Entries are newest first.
type State struct {
	Viewer    *models.Viewer
	Identity  *models.Identity
	Entries   []EntryView
	Stats     models.Stats
	Phase     reveal.Phase
	Countdown reveal.Countdown
	// Loading is true between signing in and the first snapshot.
	Loading bool
	// FeedErr is the terminal error of the last subscription, if any.
	FeedErr error
}

// Active reports whether a verified viewer is signed in.
func (s State) Active() bool {
	return s.Viewer.Active()
}

func (s State) indexOf(entryID string) int {
	for i := range s.Entries {
		if s.Entries[i].ID == entryID {
			return i
		}
	}
	return -1
}

// Entry finds an entry of the current snapshot by id.
func (s State) Entry(entryID string) (EntryView, bool) {
	if i := s.indexOf(entryID); i >= 0 {
		return s.Entries[i], true
	}
	return EntryView{}, false
}

func (s State) clone() State {
	out := s
	if s.Viewer != nil {
		v := *s.Viewer
		out.Viewer = &v
	}
	if s.Identity != nil {
		i := *s.Identity
		out.Identity = &i
	}
	if s.Entries != nil {
		out.Entries = make([]EntryView, len(s.Entries))
		copy(out.Entries, s.Entries)
	}
	return out
}
