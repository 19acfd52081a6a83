package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/auth"
	"github.com/dmitrijs2005/keepsake/internal/client/compose"
	"github.com/dmitrijs2005/keepsake/internal/client/session"
	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/filex"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/netx"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
)

var errSignedOut = errors.New("sign in first")

// describe turns sentinel errors into something a person can act on.
func describe(err error) string {
	switch {
	case errors.Is(err, compose.ErrInvalidInvite):
		return "this invite link does not belong to anyone"
	case errors.Is(err, common.ErrRevealLocked):
		return "messages stay sealed until the reveal"
	case errors.Is(err, common.ErrTokenExpired):
		return "your session has expired, sign in again"
	case errors.Is(err, common.ErrEmailNotVerified):
		return "verify your email address first"
	case errors.Is(err, common.ErrEmailDomainNotAllowed):
		return "your email domain is not allowed here"
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return "not signed in"
	case errors.Is(err, common.ErrStoreUnavailable):
		return "the server is unreachable, try again later"
	}
	return err.Error()
}

func formatCountdown(c reveal.Countdown) string {
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}

func formatEntryLine(e session.EntryView) string {
	return fmt.Sprintf("%-8s  %s  %s  from %s  %s",
		e.Status, e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.AuthorName, strings.Join(e.Emojis, ""))
}

func (a *App) SignIn(ctx context.Context, token string) error {
	v, err := auth.ViewerFromToken(token)
	if err != nil {
		return err
	}
	if !v.EmailVerified {
		return common.ErrEmailNotVerified
	}

	a.api.SetSessionToken(token)
	a.viewer = v
	a.synced = false
	select {
	case a.viewers <- v:
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", v.Name())
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	a.api.SetSessionToken("")
	a.viewer = nil
	a.synced = false
	a.draft.Reset()
	select {
	case a.viewers <- nil:
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) Link(ctx context.Context) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	st := a.session.State()
	if st.Identity == nil {
		fmt.Fprintln(a.out, "Your link is not ready yet")
		return nil
	}
	fmt.Fprintln(a.out, invite.Link(a.config.InviteOrigin, st.Identity.InviteToken))
	if !st.Identity.Persisted {
		fmt.Fprintln(a.out, "(not saved yet: the server could not be reached, this link may change)")
	}
	return nil
}

func (a *App) List(ctx context.Context) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	st := a.session.State()
	switch {
	case st.FeedErr != nil:
		fmt.Fprintln(a.out, "Your book could not be loaded:", describe(st.FeedErr))
		return nil
	case st.Loading:
		fmt.Fprintln(a.out, "Loading...")
		return nil
	case len(st.Entries) == 0:
		fmt.Fprintln(a.out, "No messages yet. Share your link to collect some.")
		return nil
	}

	for _, e := range st.Entries {
		fmt.Fprintln(a.out, formatEntryLine(e))
	}
	if st.Phase == reveal.Locked {
		fmt.Fprintf(a.out, "Messages open in %s\n", formatCountdown(st.Countdown))
	}
	return nil
}

func (a *App) Open(ctx context.Context, entryID string) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	err := a.session.Open(ctx, entryID)
	switch {
	case errors.Is(err, common.ErrRevealLocked):
		fmt.Fprintf(a.out, "Still sealed. Messages open in %s\n", formatCountdown(a.session.State().Countdown))
		return nil
	case errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("no message with id %s", entryID)
	case errors.Is(err, common.ErrCacheWriteFailed):
		a.log.Warn(ctx, "reveal not saved locally", "entry_id", entryID, "error", err)
	case err != nil:
		return err
	}

	e, ok := a.session.State().Entry(entryID)
	if !ok {
		return fmt.Errorf("no message with id %s", entryID)
	}
	fmt.Fprintf(a.out, "From %s  %s  %s\n\n%s\n", e.AuthorName, strings.Join(e.Emojis, ""), e.CreatedAt.Local().Format(time.DateTime), e.Content)
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	st := a.session.State()
	fmt.Fprintf(a.out, "%d messages from %d authors\n", st.Stats.Total, st.Stats.DistinctAuthors)
	return nil
}

func (a *App) Countdown(ctx context.Context) error {
	phase, c := a.clock.Evaluate(time.Now())
	if phase == reveal.Open {
		fmt.Fprintln(a.out, "The reveal has happened. Messages are open.")
		return nil
	}
	fmt.Fprintf(a.out, "%s until the reveal (%s)\n", formatCountdown(c), a.clock.Deadline().Format(time.RFC1123))
	return nil
}

func (a *App) Profile(ctx context.Context, displayName, email string) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	updated, err := a.api.UpdateProfile(ctx, displayName, email)
	if err != nil {
		return err
	}
	a.session.SetIdentity(updated)
	fmt.Fprintf(a.out, "Profile updated: %s <%s>\n", updated.DisplayName, updated.Email)
	return nil
}

// Export asks the server for an archive of the viewer's book and, when path
// is set, downloads it there.
func (a *App) Export(ctx context.Context, path string) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	archive, err := a.api.ExportArchive(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprintf(a.out, "Archive ready until %s:\n%s\n", archive.ExpiresAt.Local().Format(time.DateTime), archive.URL)
		return nil
	}

	path, err = filex.EnsureParentDir(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := netx.DownloadFromPresignedURL(ctx, archive.URL, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("download archive: %w", err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", n, path)
	return nil
}
