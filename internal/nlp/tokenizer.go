package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into word tokens and reduces each to its lowercase lemma.
// A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	lemmatizer interface{ Lemma(string) string }
	lower      cases.Caser
}

// NewTokenizer returns a tokenizer backed by the shared English dictionary.
func NewTokenizer() (*Tokenizer, error) {
	if err := EnsureResources(); err != nil {
		return nil, err
	}
	return &Tokenizer{
		lemmatizer: lemmatizer,
		lower:      cases.Lower(language.English),
	}, nil
}

// Tokenize returns the cleaned tokens of text in order. Punctuation becomes its
// own token; tokens are neither deduplicated nor filtered for stopwords.
func (t *Tokenizer) Tokenize(text string) []string {
	words, err := splitWords(norm.NFC.String(text))
	if err != nil {
		// Tokenization only fails on model loading, which is disabled here.
		words = strings.Fields(text)
	}

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		lemma := t.lemmatizer.Lemma(t.lower.String(w))
		clean := strings.TrimSpace(t.lower.String(lemma))
		if clean == "" {
			continue
		}
		tokens = append(tokens, clean)
	}
	return tokens
}

func splitWords(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize: %w", err)
	}

	toks := doc.Tokens()
	words := make([]string, len(toks))
	for i, tok := range toks {
		words[i] = tok.Text
	}
	return words, nil
}
