// Package invite issues invite tokens and builds the links that carry them.
package invite

import (
	"math/rand/v2"
	"strings"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	// FragmentLength is the length of each of the two random halves.
	FragmentLength = 13
	// TokenLength is the full token length.
	TokenLength = 2 * FragmentLength
)

// Source is the randomness a Generator draws from. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// globalSource draws from math/rand/v2's auto-seeded generator.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator produces tokens as two independently drawn base-36 fragments.
// Tokens are hard to guess at this application's scale but are not a
// cryptographic secret: a token only lets its holder write into one book.
type Generator struct {
	src Source
}

// NewGenerator returns a Generator over src, or over the process-wide
// generator when src is nil.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{src: src}
}

// Token returns a fresh TokenLength-character token.
func (g *Generator) Token() string {
	var b strings.Builder
	b.Grow(TokenLength)
	g.fragment(&b)
	g.fragment(&b)
	return b.String()
}

func (g *Generator) fragment(b *strings.Builder) {
	for range FragmentLength {
		b.WriteByte(alphabet[g.src.IntN(len(alphabet))])
	}
}

// valid reports whether s has the shape of a token this package issues.
func valid(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
