// Package evaluate scores predictions against held-out labels, one report per category.
package evaluate

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Veraticus/disaster-triage/internal/cli"
)

// ErrShapeMismatch is returned when predictions and labels disagree in size.
var ErrShapeMismatch = errors.New("predictions and labels differ in shape")

// ClassMetrics holds the scores of one class label.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
	Label     int
}

// Report is the classification report of a single binary category.
type Report struct {
	Category    string
	Classes     []ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Accuracy    float64
	Support     int
}

// Predictor is anything that maps texts to binary label rows.
type Predictor interface {
	Predict(texts []string) ([][]int, error)
}

// ClassificationReport compares true and predicted labels of one category.
// Classes present in either slice are reported in ascending order; a metric
// whose denominator is zero is reported as 0.
func ClassificationReport(category string, truth, pred []int) (Report, error) {
	if len(truth) != len(pred) {
		return Report{}, fmt.Errorf("%w: %d labels, %d predictions", ErrShapeMismatch, len(truth), len(pred))
	}

	present := map[int]struct{}{}
	for i := range truth {
		present[truth[i]] = struct{}{}
		present[pred[i]] = struct{}{}
	}
	labels := make([]int, 0, len(present))
	for l := range present {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	r := Report{Category: category, Support: len(truth)}
	correct := 0
	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
	}
	if len(truth) > 0 {
		r.Accuracy = float64(correct) / float64(len(truth))
	}

	for _, label := range labels {
		var tp, fp, fn int
		for i := range truth {
			switch {
			case truth[i] == label && pred[i] == label:
				tp++
			case truth[i] != label && pred[i] == label:
				fp++
			case truth[i] == label && pred[i] != label:
				fn++
			}
		}
		m := ClassMetrics{
			Label:     label,
			Support:   tp + fn,
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)
	}

	r.MacroAvg, r.WeightedAvg = averages(r.Classes)
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func averages(classes []ClassMetrics) (macro, weighted ClassMetrics) {
	total := 0
	for _, c := range classes {
		total += c.Support
		macro.Precision += c.Precision
		macro.Recall += c.Recall
		macro.F1 += c.F1
		weighted.Precision += c.Precision * float64(c.Support)
		weighted.Recall += c.Recall * float64(c.Support)
		weighted.F1 += c.F1 * float64(c.Support)
	}
	if n := float64(len(classes)); n > 0 {
		macro.Precision /= n
		macro.Recall /= n
		macro.F1 /= n
	}
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	macro.Support = total
	weighted.Support = total
	return macro, weighted
}

// String renders the report in the familiar precision/recall/f1-score/support layout.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		fmt.Fprintf(&b, "%12d %10.2f %10.2f %10.2f %10d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.Support)
	writeAvg(&b, "macro avg", r.MacroAvg)
	writeAvg(&b, "weighted avg", r.WeightedAvg)
	return b.String()
}

func writeAvg(b *strings.Builder, name string, m ClassMetrics) {
	fmt.Fprintf(b, "%12s %10.2f %10.2f %10.2f %10d\n", name, m.Precision, m.Recall, m.F1, m.Support)
}

// Evaluate predicts every text once, then writes one classification report per
// category to w. It returns the reports in category order.
func Evaluate(w io.Writer, model Predictor, texts []string, labels [][]int, categories []string) ([]Report, error) {
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("%w: %d texts, %d label rows", ErrShapeMismatch, len(texts), len(labels))
	}

	pred, err := model.Predict(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	if len(pred) != len(labels) {
		return nil, fmt.Errorf("%w: %d label rows, %d prediction rows", ErrShapeMismatch, len(labels), len(pred))
	}

	reports := make([]Report, 0, len(categories))
	truthCol := make([]int, len(labels))
	predCol := make([]int, len(labels))
	for j, name := range categories {
		for i := range labels {
			if len(labels[i]) != len(categories) || len(pred[i]) != len(categories) {
				return nil, fmt.Errorf("%w: row %d", ErrShapeMismatch, i)
			}
			truthCol[i] = labels[i][j]
			predCol[i] = pred[i][j]
		}

		report, err := ClassificationReport(name, truthCol, predCol)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)

		if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle("Classification report for category "+name+":"), report); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return reports, nil
}
