package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/client/compose"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/spf13/cobra"
)

// NewWriteCommand creates the write command: the authoring flow on its own.
func NewWriteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "write <invite-link>",
		Short: "Write a message into someone's book",
		Long: `Write a message into the book behind an invite link. The link may be the
full URL or just the token at its end.

Example:
  keepsake write https://keepsake.example/write/abc123 --token $KEEPSAKE_TOKEN`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			a, err := NewApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), newLogger(cmd, opts))
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Write(cmd.Context(), args[0]); err != nil {
				return errors.New(describe(err))
			}
			return nil
		},
	}
}

// Write walks the viewer through the draft and submits it. A failed
// submission keeps the draft for the next attempt.
func (a *App) Write(ctx context.Context, link string) error {
	if !a.isSignedIn() {
		return errSignedOut
	}
	d := &a.draft

	name := d.AuthorName
	if name == "" {
		name = a.viewer.Name()
	}
	input, err := GetSimpleText(a.reader, fmt.Sprintf("Sign your message as [%s]", name), a.out)
	if err != nil {
		return err
	}
	if input != "" {
		d.AuthorName = input
	}

	prompt := fmt.Sprintf("Your message (at least %d characters)", models.MinContentLength)
	if d.Content != "" {
		prompt = "Your message (empty keeps the previous text)"
	}
	content, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if content != "" {
		d.Content = content
	}

	if err := a.pickEmojis(d); err != nil {
		return err
	}

	created, recipient, err := compose.Submit(ctx, a.api, d, a.viewer, link)
	if err != nil {
		if d.Content != "" {
			fmt.Fprintln(a.out, "Your draft is kept. Run write again to retry.")
		}
		return err
	}
	fmt.Fprintf(a.out, "Sent to %s (message %s)\n", recipient.DisplayName, created.ID)
	return nil
}

func printPalette(a *App) {
	var b strings.Builder
	for i, s := range compose.Palette {
		fmt.Fprintf(&b, "%2d %s  ", i+1, s)
		if (i+1)%10 == 0 {
			b.WriteString("\n")
		}
	}
	fmt.Fprint(a.out, b.String())
}

// pickEmojis toggles symbols, by number or by pasting them, until exactly
// models.EmojiCount are selected and the user confirms with an empty line.
func (a *App) pickEmojis(d *compose.Draft) error {
	printPalette(a)
	for {
		selected := d.Emojis()
		line, err := GetSimpleText(a.reader,
			fmt.Sprintf("Pick %d emojis by number (selected: %s). Empty line when done", models.EmojiCount, strings.Join(selected, " ")),
			a.out)
		if err != nil {
			return err
		}
		if line == "" {
			if len(selected) == models.EmojiCount {
				return nil
			}
			fmt.Fprintf(a.out, "Exactly %d are needed\n", models.EmojiCount)
			continue
		}

		for _, f := range strings.Fields(line) {
			symbol := f
			if n, err := strconv.Atoi(f); err == nil {
				if n < 1 || n > len(compose.Palette) {
					fmt.Fprintf(a.out, "No emoji number %d\n", n)
					continue
				}
				symbol = compose.Palette[n-1]
			}
			before := d.Selected(symbol)
			on, err := d.Toggle(symbol)
			if err != nil {
				fmt.Fprintln(a.out, describe(err))
				continue
			}
			if !on && !before {
				fmt.Fprintf(a.out, "Already %d selected; pick one again to drop it\n", models.EmojiCount)
			}
		}
	}
}
