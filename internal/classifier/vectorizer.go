package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"
)

// CountVectorizer converts documents into sparse term-count matrices over a
// vocabulary of word n-grams learned at fit time. Matrices are terms × docs,
// the orientation used by the nlp package.
type CountVectorizer struct {
	Vocabulary map[string]int
	Terms      []string
	NGramMin   int
	NGramMax   int

	tokenize TokenizeFunc
}

// NewCountVectorizer returns a vectorizer extracting n-grams with n in [minN, maxN].
func NewCountVectorizer(minN, maxN int, tokenize TokenizeFunc) (*CountVectorizer, error) {
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("%w: ngram_range (%d, %d)", ErrInvalidParams, minN, maxN)
	}
	return &CountVectorizer{NGramMin: minN, NGramMax: maxN, tokenize: tokenize}, nil
}

// SetTokenizer attaches the tokenizer used to analyze documents.
func (v *CountVectorizer) SetTokenizer(tokenize TokenizeFunc) {
	v.tokenize = tokenize
}

// grams lowercases doc, tokenizes it and returns its n-grams in order.
func (v *CountVectorizer) grams(doc string) []string {
	tokens := v.tokenize(strings.ToLower(doc))

	var grams []string
	for n := v.NGramMin; n <= v.NGramMax; n++ {
		if n == 1 {
			grams = append(grams, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// gramTokeniser feeds the vectorizer's n-grams to nlp.CountVectoriser.
type gramTokeniser struct {
	v *CountVectorizer
}

func (t gramTokeniser) ForEachIn(input string, process func(token string)) {
	for _, g := range t.v.grams(input) {
		process(g)
	}
}

func (t gramTokeniser) Tokenise(input string) []string {
	return t.v.grams(input)
}

func (v *CountVectorizer) counter() *nlp.CountVectoriser {
	cv := nlp.NewCountVectoriser()
	cv.Tokeniser = gramTokeniser{v: v}
	if v.Vocabulary != nil {
		cv.Vocabulary = v.Vocabulary
	}
	return cv
}

// Fit learns the vocabulary from docs and returns their count matrix.
// Terms are indexed in lexical order.
func (v *CountVectorizer) Fit(docs []string) (mat.Matrix, error) {
	if v.tokenize == nil {
		return nil, ErrNoTokenizer
	}
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	v.Vocabulary = nil

	cv := v.counter()
	cv.Fit(docs...)
	if len(cv.Vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v.Terms = make([]string, 0, len(cv.Vocabulary))
	for term := range cv.Vocabulary {
		v.Terms = append(v.Terms, term)
	}
	sort.Strings(v.Terms)
	v.Vocabulary = make(map[string]int, len(v.Terms))
	for i, term := range v.Terms {
		v.Vocabulary[term] = i
	}
	return v.Transform(docs)
}

// Transform returns the count matrix for docs. Terms outside the vocabulary are ignored.
func (v *CountVectorizer) Transform(docs []string) (mat.Matrix, error) {
	if v.Vocabulary == nil {
		return nil, ErrNotFitted
	}
	if v.tokenize == nil {
		return nil, ErrNoTokenizer
	}
	if len(docs) == 0 {
		return nil, ErrEmptyInput
	}
	counts, err := v.counter().Transform(docs...)
	if err != nil {
		return nil, fmt.Errorf("failed to count terms: %w", err)
	}
	return counts, nil
}

// NumFeatures returns the vocabulary size.
func (v *CountVectorizer) NumFeatures() int {
	return len(v.Terms)
}
