// Package nlp turns raw message text into lemmatized, lowercased word tokens.
package nlp

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

var (
	resourcesOnce sync.Once
	lemmatizer    *golem.Lemmatizer
	resourcesErr  error
)

// EnsureResources loads the English lemmatizer dictionary. It is safe to call
// repeatedly; the dictionary is loaded once per process.
func EnsureResources() error {
	resourcesOnce.Do(func() {
		lemmatizer, resourcesErr = golem.New(en.New())
		if resourcesErr != nil {
			resourcesErr = fmt.Errorf("failed to load lemmatizer dictionary: %w", resourcesErr)
			return
		}
		slog.Debug("Loaded lemmatizer dictionary", "language", "en")
	})
	return resourcesErr
}
