package classifier

import "fmt"

// Pipeline chains the count vectorizer, the TF-IDF transformer and the
// multi-output forest.
type Pipeline struct {
	Vectorizer *CountVectorizer
	Tfidf      *TfidfTransformer
	Classifier *MultiOutput
	Params     Params
}

// NewPipeline assembles an unfitted pipeline for params.
func NewPipeline(params Params, tokenize TokenizeFunc, seed int64) (*Pipeline, error) {
	vect, err := NewCountVectorizer(params.NGramRange[0], params.NGramRange[1], tokenize)
	if err != nil {
		return nil, err
	}
	if _, err := NewRandomForest(params.NEstimators, params.MinSamplesSplit, seed); err != nil {
		return nil, err
	}
	return &Pipeline{
		Vectorizer: vect,
		Tfidf:      &TfidfTransformer{},
		Classifier: NewMultiOutput(params.NEstimators, params.MinSamplesSplit, seed),
		Params:     params,
	}, nil
}

// SetTokenizer re-attaches a tokenizer, e.g. after decoding a saved pipeline.
func (p *Pipeline) SetTokenizer(tokenize TokenizeFunc) {
	p.Vectorizer.SetTokenizer(tokenize)
}

// Categories returns the category names the pipeline predicts, in output order.
func (p *Pipeline) Categories() []string {
	return p.Classifier.Categories
}

// Fit trains every stage on texts and their label rows.
func (p *Pipeline) Fit(texts []string, labels [][]int, categories []string) error {
	if len(texts) == 0 {
		return ErrEmptyInput
	}
	if len(texts) != len(labels) {
		return fmt.Errorf("%w: %d texts, %d label rows", ErrShapeMismatch, len(texts), len(labels))
	}

	counts, err := p.Vectorizer.Fit(texts)
	if err != nil {
		return fmt.Errorf("failed to fit vectorizer: %w", err)
	}
	p.Tfidf.Fit(counts)
	features, err := p.Tfidf.Transform(counts)
	if err != nil {
		return err
	}
	return p.Classifier.Fit(features, labels, categories, p.Vectorizer.NumFeatures())
}

// Predict returns binary predictions for texts, one row per text.
func (p *Pipeline) Predict(texts []string) ([][]int, error) {
	if len(texts) == 0 {
		return [][]int{}, nil
	}
	counts, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}
	features, err := p.Tfidf.Transform(counts)
	if err != nil {
		return nil, err
	}
	return p.Classifier.Predict(features)
}
