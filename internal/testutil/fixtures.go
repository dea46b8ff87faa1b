package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/disaster-triage/internal/model"
)

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// Corpus is a small labeled set of messages where "water" and "food" are
// decided by a single keyword, so any reasonable classifier fits it.
type Corpus struct {
	Categories []string
	Texts      []string
	Labels     [][]int
}

// NewCorpus builds a corpus of n messages cycling through four templates.
func NewCorpus(n int) Corpus {
	templates := []struct {
		text   string
		labels []int
	}{
		{"We urgently need water in the village", []int{1, 1, 0}},
		{"Families are asking for food and rice", []int{1, 0, 1}},
		{"Please send water and food to the shelter", []int{1, 1, 1}},
		{"The weather is calm today", []int{0, 0, 0}},
	}

	c := Corpus{Categories: []string{"related", "water", "food"}}
	for i := 0; i < n; i++ {
		tpl := templates[i%len(templates)]
		c.Texts = append(c.Texts, fmt.Sprintf("%s %d", tpl.text, i/len(templates)))
		c.Labels = append(c.Labels, append([]int(nil), tpl.labels...))
	}
	return c
}

// Table converts the corpus into a cleaned table with complete message fields.
func (c Corpus) Table() *model.Table {
	table := &model.Table{Categories: c.Categories}
	for i, text := range c.Texts {
		table.Rows = append(table.Rows, model.LabeledMessage{
			Message: model.Message{
				ID:       int64(i + 1),
				Text:     model.NewText(text),
				Original: model.NewText("original " + text),
				Genre:    model.NewText("direct"),
			},
			Labels: c.Labels[i],
		})
	}
	return table
}

// CSV renders the corpus as a messages file and a categories file.
func (c Corpus) CSV() (messages, categories string) {
	var m, k strings.Builder
	m.WriteString("id,message,original,genre\n")
	k.WriteString("id,categories\n")
	for i, text := range c.Texts {
		fmt.Fprintf(&m, "%d,%q,%q,direct\n", i+1, text, "original "+text)
		tokens := make([]string, len(c.Categories))
		for j, name := range c.Categories {
			tokens[j] = fmt.Sprintf("%s-%d", name, c.Labels[i][j])
		}
		fmt.Fprintf(&k, "%d,%s\n", i+1, strings.Join(tokens, ";"))
	}
	return m.String(), k.String()
}
