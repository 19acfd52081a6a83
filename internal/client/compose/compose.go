// Package compose holds the authoring flow: a draft, the emoji picker and
// submission through an invite token.
package compose

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/wire"
)

// Palette is the fixed set an author picks from.
var Palette = []string{
	"🎉", "🎓", "❤️", "🌟", "💖", "🥳", "🎈", "🎁",
	"🌈", "🔥", "✨", "👏", "🙌", "💪", "😊", "😂",
	"🥰", "😎", "🤗", "🌻", "🌸", "🍀", "☀️", "🌙",
	"⭐", "🚀", "🏆", "📚", "🎶", "☕", "🍕", "🍰",
	"🐶", "🐱", "🦄", "🌍", "💡", "🤝", "💌", "🙏",
}

// InPalette reports whether symbol is one of Palette.
func InPalette(symbol string) bool {
	return slices.Contains(Palette, symbol)
}

// API is the part of the server client used for authoring.
type API interface {
	ResolveInvite(ctx context.Context, token string) (*models.Identity, error)
	AppendEntry(ctx context.Context, req wire.AppendRequest) (*models.Entry, error)
}

// Draft is the author's unsent entry. The zero value is an empty draft.
type Draft struct {
	AuthorName string
	Content    string
	emojis     []string
}

// Emojis returns the selection in the order it was made.
func (d *Draft) Emojis() []string {
	return slices.Clone(d.emojis)
}

// Selected reports whether symbol is part of the selection.
func (d *Draft) Selected(symbol string) bool {
	return slices.Contains(d.emojis, symbol)
}

// Toggle deselects a selected symbol, or selects it while fewer than
// models.EmojiCount are chosen. It reports whether the symbol is selected
// afterwards.
func (d *Draft) Toggle(symbol string) (bool, error) {
	if !InPalette(symbol) {
		return false, fmt.Errorf("%w: %q is not in the palette", common.ErrValidation, symbol)
	}
	if i := slices.Index(d.emojis, symbol); i >= 0 {
		d.emojis = slices.Delete(d.emojis, i, i+1)
		return false, nil
	}
	if len(d.emojis) >= models.EmojiCount {
		return false, nil
	}
	d.emojis = append(d.emojis, symbol)
	return true, nil
}

// Reset empties the draft.
func (d *Draft) Reset() {
	*d = Draft{}
}

// Request builds the append request for token. The author name falls back to
// the viewer's name when left blank.
func (d *Draft) Request(viewer *models.Viewer, token string) wire.AppendRequest {
	name := strings.TrimSpace(d.AuthorName)
	if name == "" && viewer != nil {
		name = viewer.Name()
	}
	return wire.AppendRequest{
		InviteToken: token,
		AuthorName:  name,
		Content:     d.Content,
		Emojis:      d.Emojis(),
	}
}

// Validate runs the checks the server applies, so obvious mistakes do not
// need a round trip.
func (d *Draft) Validate() error {
	e := models.Entry{Content: d.Content, Emojis: d.emojis}
	return e.Validate()
}

// ErrInvalidInvite means the invite names nobody. Retrying will not help.
var ErrInvalidInvite = errors.New("invalid invite link")

// Submit resolves the recipient behind link, then appends the draft to their
// book. link may be a bare token or a full invite link. The draft is reset
// only on success.
func Submit(ctx context.Context, api API, d *Draft, viewer *models.Viewer, link string) (*models.Entry, *models.Identity, error) {
	token, err := invite.TokenFromLink(link)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInvite, err)
	}

	recipient, err := api.ResolveInvite(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidInvite, err)
		}
		return nil, nil, fmt.Errorf("resolve invite: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, recipient, err
	}

	created, err := api.AppendEntry(ctx, d.Request(viewer, token))
	if err != nil {
		return nil, recipient, fmt.Errorf("append entry: %w", err)
	}

	d.Reset()
	return created, recipient, nil
}
