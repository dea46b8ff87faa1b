package classifier

import (
	"bytes"
	"encoding/gob"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountVectorizer_Fit(t *testing.T) {
	v, err := NewCountVectorizer(1, 2, strings.Fields)
	require.NoError(t, err)

	counts, err := v.Fit([]string{"Need water", "need FOOD need"})
	require.NoError(t, err)

	assert.Equal(t, []string{"food", "food need", "need", "need food", "need water", "water"}, v.Terms)
	assert.Equal(t, 6, v.NumFeatures())

	terms, docs := counts.Dims()
	assert.Equal(t, 6, terms)
	assert.Equal(t, 2, docs)

	need := v.Vocabulary["need"]
	assert.Equal(t, 1.0, counts.At(need, 0))
	assert.Equal(t, 2.0, counts.At(need, 1))
	assert.Equal(t, 0.0, counts.At(v.Vocabulary["food"], 0))
	assert.Equal(t, 1.0, counts.At(v.Vocabulary["need food"], 1))
}

func TestCountVectorizer_TransformIgnoresUnknownTerms(t *testing.T) {
	v, err := NewCountVectorizer(1, 1, strings.Fields)
	require.NoError(t, err)

	_, err = v.Transform([]string{"x"})
	require.ErrorIs(t, err, ErrNotFitted)

	_, err = v.Fit([]string{"water food"})
	require.NoError(t, err)

	counts, err := v.Transform([]string{"water shelter shelter"})
	require.NoError(t, err)
	rows := documentRows(counts)
	require.Len(t, rows, 1)
	assert.Equal(t, []int{v.Vocabulary["water"]}, rows[0].Indices)
	assert.Equal(t, []float64{1}, rows[0].Values)
}

func TestCountVectorizer_Errors(t *testing.T) {
	_, err := NewCountVectorizer(2, 1, strings.Fields)
	require.ErrorIs(t, err, ErrInvalidParams)

	v, err := NewCountVectorizer(1, 1, nil)
	require.NoError(t, err)
	_, err = v.Fit([]string{"a"})
	require.ErrorIs(t, err, ErrNoTokenizer)

	v.SetTokenizer(strings.Fields)
	_, err = v.Fit([]string{"", "  "})
	require.ErrorIs(t, err, ErrEmptyVocabulary)

	_, err = v.Fit(nil)
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestGramTokeniser(t *testing.T) {
	v, err := NewCountVectorizer(1, 2, strings.Fields)
	require.NoError(t, err)

	tok := gramTokeniser{v: v}
	assert.Equal(t, []string{"send", "water", "send water"}, tok.Tokenise("Send WATER"))

	var got []string
	tok.ForEachIn("send water", func(token string) { got = append(got, token) })
	assert.Equal(t, []string{"send", "water", "send water"}, got)
}

func TestTfidfTransformer(t *testing.T) {
	v, err := NewCountVectorizer(1, 1, strings.Fields)
	require.NoError(t, err)
	counts, err := v.Fit([]string{"water food", "water", "water shelter"})
	require.NoError(t, err)

	var tf TfidfTransformer
	_, err = tf.Transform(counts)
	require.ErrorIs(t, err, ErrNotFitted)

	tf.Fit(counts)
	rows, err := tf.Transform(counts)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for _, row := range rows {
		if len(row.Indices) > 0 {
			assert.InDelta(t, 1.0, row.Norm(), 1e-12)
		}
	}
	// water appears in every document, food in one.
	assert.Greater(t, rows[0].Get(v.Vocabulary["food"]), rows[0].Get(v.Vocabulary["water"]))
	assert.Greater(t, rows[2].Get(v.Vocabulary["shelter"]), rows[2].Get(v.Vocabulary["water"]))
}

func TestTfidfTransformer_Gob(t *testing.T) {
	v, err := NewCountVectorizer(1, 1, strings.Fields)
	require.NoError(t, err)
	counts, err := v.Fit([]string{"water food", "water", "food rice"})
	require.NoError(t, err)

	var tf TfidfTransformer
	tf.Fit(counts)
	want, err := tf.Transform(counts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(&tf))

	var decoded TfidfTransformer
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	got, err := decoded.Transform(counts)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var empty TfidfTransformer
	data, err := empty.GobEncode()
	require.NoError(t, err)
	require.NoError(t, decoded.GobDecode(data))
	_, err = decoded.Transform(counts)
	require.ErrorIs(t, err, ErrNotFitted)
}
