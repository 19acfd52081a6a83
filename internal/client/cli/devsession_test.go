package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/keepsake/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDevSession(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"dev-session"}, args...))
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestDevSession_MintsVerifiableToken(t *testing.T) {
	t.Setenv("KEEPSAKE_SESSION_SECRET", "")

	token, err := runDevSession(t, "--secret", "s3cret", "--id", "u1", "--email", "ayse@istun.edu.tr", "--name", "Ayse")
	require.NoError(t, err)

	v, err := auth.ParseToken(token, []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, "u1", v.ID)
	assert.Equal(t, "ayse@istun.edu.tr", v.Email)
	assert.Equal(t, "Ayse", v.DisplayName)
	assert.True(t, v.EmailVerified)
}

func TestDevSession_UnverifiedAndRandomID(t *testing.T) {
	t.Setenv("KEEPSAKE_SESSION_SECRET", "from-env")

	token, err := runDevSession(t, "--email", "x@example.com", "--verified=false")
	require.NoError(t, err)

	v, err := auth.ParseToken(token, []byte("from-env"))
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.False(t, v.EmailVerified)
}

func TestDevSession_Errors(t *testing.T) {
	t.Setenv("KEEPSAKE_SESSION_SECRET", "")
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	_, err := runDevSession(t, "--email", "x@example.com")
	assert.ErrorContains(t, err, "no signing secret")

	_, err = runDevSession(t, "--secret", "s")
	assert.ErrorContains(t, err, "--email is required")
}

func TestDevSession_PromptsOnTerminal(t *testing.T) {
	t.Setenv("KEEPSAKE_SESSION_SECRET", "")
	origTerm, origRead := isTerminal, readPassword
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("typed"), nil }
	t.Cleanup(func() { isTerminal, readPassword = origTerm, origRead })

	token, err := runDevSession(t, "--email", "x@example.com")
	require.NoError(t, err)
	_, err = auth.ParseToken(token, []byte("typed"))
	assert.NoError(t, err)
}
