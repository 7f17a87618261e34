// Package tokenizer is the external tokenizer collaborator referenced by
// spec §6: it turns raw text into positioned, locale-aware tokens. The
// retrieval engine core only ever calls the Tokenizer interface; this
// package's regex-based implementation is one concrete provider, adapted
// from the teacher's camelCase/whitespace tokenizer.
package tokenizer

import (
	"regexp"
	"strings"
)

// Locale is a well-known locale tag (e.g. "en", "pt-BR"). The zero value
// means "no locale-specific behavior".
type Locale string

// Token is one occurrence of a term in a field, with its position (0-based
// token offset within the field) and its stemmed form (equal to Raw when
// no stemming applies).
type Token struct {
	Raw      string
	Stemmed  string
	Position int
}

// Tokenizer is the interface the retrieval engine consumes. Deterministic
// for a given (text, locale) pair.
type Tokenizer interface {
	// Tokenize splits text into plain terms, ignoring position.
	Tokenize(text string, locale Locale) []string

	// TokenizeForIndexing splits text into positioned tokens suitable for
	// building a string field's posting lists.
	TokenizeForIndexing(text string, locale Locale) []Token
}

var (
	// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request".
	acronymRegex = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	// camelCaseRegex handles cases like "theOffice" -> "the Office".
	camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	// nonAlphanumericRegex matches sequences of non-alphanumeric characters.
	nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Default is the regex-based, locale-agnostic Tokenizer used when no other
// provider is configured. It lowercases, splits camelCase/PascalCase, and
// splits on non-alphanumeric runs. Locale is accepted for interface
// compatibility but does not currently change segmentation; a richer,
// locale-specific stemmer can be substituted behind the same interface
// without touching the indexing path.
type Default struct{}

// NewDefault builds the default tokenizer.
func NewDefault() Default { return Default{} }

func (Default) Tokenize(text string, _ Locale) []string {
	tokens := make([]string, 0)
	for _, t := range splitWords(text) {
		tokens = append(tokens, t)
	}
	return tokens
}

func (Default) TokenizeForIndexing(text string, _ Locale) []Token {
	words := splitWords(text)
	out := make([]Token, len(words))
	for i, w := range words {
		out[i] = Token{Raw: w, Stemmed: w, Position: i}
	}
	return out
}

func splitWords(text string) []string {
	processed := acronymRegex.ReplaceAllString(text, "$1 $2")
	processed = camelCaseRegex.ReplaceAllString(processed, "$1 $2")
	lower := strings.ToLower(processed)

	split := nonAlphanumericRegex.Split(lower, -1)
	out := make([]string, 0, len(split))
	for _, s := range split {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Cache is the collection's locale→tokenizer lookup. It holds a single
// provider and returns it for every locale; it keeps no per-locale
// entries. Call sites go through For(locale), so a locale-specific
// provider can be placed behind it without changing them.
type Cache struct {
	provider Tokenizer
}

// NewCache wraps provider in a locale cache. Since Default carries no
// per-locale state, the cache is currently a thin pass-through kept for
// interface stability and future per-locale providers.
func NewCache(provider Tokenizer) *Cache {
	return &Cache{provider: provider}
}

// For returns the tokenizer to use for locale.
func (c *Cache) For(locale Locale) Tokenizer {
	return c.provider
}
