// Package classifier implements the text classification model: a bag-of-words
// count vectorizer, TF-IDF weighting, and one random forest per category, tuned
// by an exhaustive grid search with K-fold cross-validation.
//
// The package is deterministic for a given seed. Nothing in it is safe for
// concurrent use; fit and predict from a single goroutine.
//
// Fitted models are plain exported structs so they round-trip through
// encoding/gob. Tokenizer functions cannot be encoded; re-attach one with
// SetTokenizer after decoding.
package classifier

import "errors"

// Errors returned by the classifier package.
var (
	ErrNotFitted       = errors.New("model is not fitted")
	ErrEmptyVocabulary = errors.New("empty vocabulary; documents contain no tokens")
	ErrNoTokenizer     = errors.New("no tokenizer attached")
	ErrShapeMismatch   = errors.New("inputs and labels differ in length")
	ErrEmptyInput      = errors.New("no samples to fit")
	ErrInvalidParams   = errors.New("invalid hyperparameters")
	ErrInvalidSplit    = errors.New("invalid split")
)

// TokenizeFunc splits a document into tokens.
type TokenizeFunc func(string) []string
