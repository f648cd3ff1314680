package matcher

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokens is a set of normalized words.
type Tokens map[string]struct{}

// Has reports whether tok is in the set.
func (t Tokens) Has(tok string) bool {
	_, ok := t[tok]
	return ok
}

// Intersect counts the tokens present in both sets.
func (t Tokens) Intersect(other Tokens) int {
	small, large := t, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if large.Has(tok) {
			n++
		}
	}
	return n
}

// Sorted returns the tokens in lexical order.
func (t Tokens) Sorted() []string {
	out := make([]string, 0, len(t))
	for tok := range t {
		out = append(out, tok)
	}
	slices.Sort(out)
	return out
}

// Union returns a new set holding the tokens of both.
func (t Tokens) Union(other Tokens) Tokens {
	out := make(Tokens, len(t)+len(other))
	for tok := range t {
		out[tok] = struct{}{}
	}
	for tok := range other {
		out[tok] = struct{}{}
	}
	return out
}

// Normalize decomposes text, drops every non-ASCII code point (which removes
// combining accents), lower-cases it and splits it into word tokens.
func Normalize(text string) Tokens {
	decomposed := norm.NFD.String(text)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}

	words := wordRe.FindAllString(strings.ToLower(b.String()), -1)
	out := make(Tokens, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
