// Package models defines the records shared by the Keepsake server and client.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
)

// Viewer is what the external identity provider tells us about the person
// behind a session.
type Viewer struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Active reports whether v may use the dashboard: present and verified.
func (v *Viewer) Active() bool {
	return v != nil && v.ID != "" && v.EmailVerified
}

// Name is the display name, falling back to the email local part.
func (v *Viewer) Name() string {
	if n := strings.TrimSpace(v.DisplayName); n != "" {
		return n
	}
	return common.EmailLocalPart(v.Email)
}

// Identity is a member's public record. InviteToken is set once and never
// changes afterwards.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	InviteToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Persisted is false for a transient record built locally while the
	// store was unreachable.
	Persisted bool
}
