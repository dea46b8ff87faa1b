package nlp

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer()
	require.NoError(t, err)
	return tok
}

func TestEnsureResources_Idempotent(t *testing.T) {
	require.NoError(t, EnsureResources())
	first := lemmatizer
	require.NoError(t, EnsureResources())
	assert.Same(t, first, lemmatizer)
}

func TestTokenizer_Tokenize(t *testing.T) {
	tok := newTestTokenizer(t)

	tokens := tok.Tokenize("Floods Destroyed Homes.")

	// Three words plus the sentence-final period.
	require.Len(t, tokens, 4)
	assert.Equal(t, ".", tokens[3])
	assert.Equal(t, "flood", tokens[0])
	for _, token := range tokens {
		assert.Equal(t, strings.ToLower(token), token)
		assert.Equal(t, strings.TrimSpace(token), token)
	}
	for _, token := range tokens[:3] {
		assert.False(t, strings.ContainsFunc(token, unicode.IsPunct), "token %q kept punctuation", token)
	}
}

func TestTokenizer_KeepsDuplicates(t *testing.T) {
	tok := newTestTokenizer(t)

	tokens := tok.Tokenize("water water WATER")
	assert.Equal(t, []string{"water", "water", "water"}, tokens)
}

func TestTokenizer_Empty(t *testing.T) {
	tok := newTestTokenizer(t)

	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("   \t\n"))
}
