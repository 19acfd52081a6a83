package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/keepsake/internal/client/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_SubmitsDraft(t *testing.T) {
	input := strings.Join([]string{
		"",                   // keep the default signature
		"Happy graduation!!", // message
		"",                   // end of message
		"1 2 3 4",            // the fourth is refused
		"",                   // done
	}, "\n") + "\n"

	s := newStack()
	a, out := newTestApp(t, s, ownerToken(t), pastDeadline, input)

	require.NoError(t, a.Write(context.Background(), "https://keepsake.example/write/abc123"))
	assert.Contains(t, out.String(), "Sent to Rana")
	assert.Contains(t, out.String(), "Already 3 selected")

	require.Len(t, s.entries.appended, 1)
	got := s.entries.appended[0]
	assert.Equal(t, "Happy graduation!!", got.Content)
	assert.Equal(t, "Ayse", got.AuthorName)
	assert.Equal(t, []string{"🎉", "🎓", "❤️"}, got.Emojis)
	assert.Equal(t, []string{"abc123"}, s.entries.tokens)
	assert.Equal(t, compose.Draft{}, a.draft, "draft resets after sending")
}

func TestWrite_UnknownInviteKeepsDraft(t *testing.T) {
	input := "Auntie Jo\nSee you at the ceremony!\n\n🎉 🌟 💖\n\n"

	s := newStack()
	a, out := newTestApp(t, s, ownerToken(t), pastDeadline, input)

	err := a.Write(context.Background(), "nobody")
	assert.ErrorIs(t, err, compose.ErrInvalidInvite)
	assert.Contains(t, out.String(), "Your draft is kept")
	assert.Empty(t, s.entries.appended)
	assert.Equal(t, "Auntie Jo", a.draft.AuthorName)
	assert.Equal(t, "See you at the ceremony!", a.draft.Content)
	assert.Len(t, a.draft.Emojis(), 3)
}

func TestWrite_RetryReusesDraft(t *testing.T) {
	// First attempt fails on the invite, second keeps every answer.
	input := "Jo\nSee you at the ceremony!\n\n1 2 3\n\n" + "\n\n\n"

	s := newStack()
	a, _ := newTestApp(t, s, ownerToken(t), pastDeadline, input)

	require.Error(t, a.Write(context.Background(), "nobody"))
	require.NoError(t, a.Write(context.Background(), "abc123"))

	require.Len(t, s.entries.appended, 1)
	assert.Equal(t, "Jo", s.entries.appended[0].AuthorName)
	assert.Equal(t, "See you at the ceremony!", s.entries.appended[0].Content)
}

func TestWrite_NeedsExactlyThreeEmojis(t *testing.T) {
	input := "\nHappy graduation!!\n\n1\n\n99 x\n2 3\n\n"

	s := newStack()
	a, out := newTestApp(t, s, ownerToken(t), pastDeadline, input)

	require.NoError(t, a.Write(context.Background(), "abc123"))
	assert.Contains(t, out.String(), "Exactly 3 are needed")
	assert.Contains(t, out.String(), "No emoji number 99")
	assert.Contains(t, out.String(), "not in the palette")
	require.Len(t, s.entries.appended, 1)
}

func TestWriteCommand(t *testing.T) {
	s := newStack()
	s.serve(t)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("\nHappy graduation!!\n\n1 2 3\n\n"))
	root.SetArgs([]string{"write", "abc123",
		"--token", ownerToken(t),
		"--db", t.TempDir() + "/keepsake.db",
		"--location", "UTC",
	})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Sent to Rana")
}
