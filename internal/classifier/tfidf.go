package classifier

import (
	"bytes"
	"fmt"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"
)

// TfidfTransformer reweights term counts by inverse document frequency and
// scales every document row to unit L2 norm.
type TfidfTransformer struct {
	model *nlp.TfidfTransformer
}

// Fit learns the idf weights from a terms × docs count matrix.
func (t *TfidfTransformer) Fit(counts mat.Matrix) {
	t.model = nlp.NewTfidfTransformer()
	t.model.Fit(counts)
}

// Transform applies the idf weights and returns one normalized row per document.
func (t *TfidfTransformer) Transform(counts mat.Matrix) ([]Vector, error) {
	if t.model == nil {
		return nil, ErrNotFitted
	}
	weighted, err := t.model.Transform(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to weight terms: %w", err)
	}

	rows := documentRows(weighted)
	for i := range rows {
		if norm := rows[i].Norm(); norm > 0 {
			for k := range rows[i].Values {
				rows[i].Values[k] /= norm
			}
		}
	}
	return rows, nil
}

// GobEncode stores the fitted weights in the nlp binary format.
func (t *TfidfTransformer) GobEncode() ([]byte, error) {
	if t.model == nil {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	if err := t.model.Save(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode tfidf weights: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode restores weights written by GobEncode. Empty data leaves t unfitted.
func (t *TfidfTransformer) GobDecode(data []byte) error {
	if len(data) == 0 {
		t.model = nil
		return nil
	}
	model := nlp.NewTfidfTransformer()
	if err := model.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to decode tfidf weights: %w", err)
	}
	t.model = model
	return nil
}
