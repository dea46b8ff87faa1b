package model

import (
	"database/sql"
	"strconv"
	"strings"
)

// LabeledMessage is a message with one binary label per category.
type LabeledMessage struct {
	Labels []int
	Message
}

// Table is the cleaned, merged table: one row per message, one label column per category.
type Table struct {
	Categories []string
	Rows       []LabeledMessage
}

// Dataset is the training view of a Table: message texts and their label matrix.
type Dataset struct {
	Texts      []string
	Labels     [][]int
	Categories []string
}

// Subset returns the rows of the dataset at the given indices.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Texts:      make([]string, len(indices)),
		Labels:     make([][]int, len(indices)),
		Categories: d.Categories,
	}
	for i, idx := range indices {
		out.Texts[i] = d.Texts[idx]
		out.Labels[i] = d.Labels[idx]
	}
	return out
}

// Len returns the number of rows in the dataset.
func (d *Dataset) Len() int {
	return len(d.Texts)
}

// Key identifies the row by every field. Two rows with equal keys are duplicates.
func (m LabeledMessage) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(m.ID, 10))
	for _, s := range []sql.NullString{m.Text, m.Original, m.Genre} {
		b.WriteByte('\x1f')
		b.WriteString(nullKey(s))
	}
	for _, l := range m.Labels {
		b.WriteByte('\x1f')
		b.WriteString(strconv.Itoa(l))
	}
	return b.String()
}

func nullKey(s sql.NullString) string {
	if !s.Valid {
		return "n"
	}
	return "v" + s.String
}
