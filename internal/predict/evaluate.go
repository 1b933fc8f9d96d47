package predict

import (
	"fmt"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// AUC returns the area under the ROC curve of scores against binary labels.
// It fails when labels hold a single class.
func AUC(scores []float64, labels []int) (float64, error) {
	if len(scores) != len(labels) {
		return 0, fmt.Errorf("auc: %d scores for %d labels", len(scores), len(labels))
	}
	var pos, neg int
	y := slices.Clone(scores)
	classes := make([]bool, len(labels))
	for i, l := range labels {
		classes[i] = l == 1
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, fmt.Errorf("auc over %d positive and %d negative rows: %w", pos, neg, ErrSingleClass)
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// ClassMetrics is the precision/recall/F1 of one class.
type ClassMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

// Evaluation is the held-out performance of a trained model.
type Evaluation struct {
	AUC         float64      `json:"auc" yaml:"auc"`
	Accuracy    float64      `json:"accuracy" yaml:"accuracy"`
	Retained    ClassMetrics `json:"retained" yaml:"retained"`
	Separated   ClassMetrics `json:"separated" yaml:"separated"`
	MacroAvg    ClassMetrics `json:"macro_avg" yaml:"macro_avg"`
	WeightedAvg ClassMetrics `json:"weighted_avg" yaml:"weighted_avg"`
	TrainRows   int          `json:"train_rows" yaml:"train_rows"`
	TestRows    int          `json:"test_rows" yaml:"test_rows"`
	DroppedRows int          `json:"dropped_rows" yaml:"dropped_rows"`
}

// classificationReport scores hard predictions (p > 0.5) against labels.
func classificationReport(probs []float64, labels []int) (accuracy float64, perClass [2]ClassMetrics, macro, weighted ClassMetrics) {
	var tp, fp, fn [2]int
	correct := 0
	for i, p := range probs {
		pred := 0
		if p > 0.5 {
			pred = 1
		}
		actual := labels[i]
		perClass[actual].Support++
		if pred == actual {
			correct++
			tp[actual]++
		} else {
			fp[pred]++
			fn[actual]++
		}
	}

	total := len(labels)
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	for c := range perClass {
		m := &perClass[c]
		m.Precision = ratio(tp[c], tp[c]+fp[c])
		m.Recall = ratio(tp[c], tp[c]+fn[c])
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}

		macro.Precision += m.Precision / 2
		macro.Recall += m.Recall / 2
		macro.F1 += m.F1 / 2
		if total > 0 {
			share := float64(m.Support) / float64(total)
			weighted.Precision += m.Precision * share
			weighted.Recall += m.Recall * share
			weighted.F1 += m.F1 * share
		}
	}
	macro.Support = total
	weighted.Support = total
	return accuracy, perClass, macro, weighted
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func (e Evaluation) Header() []string {
	return []string{"class", "precision", "recall", "f1", "support"}
}

// Rows renders the classification report, followed by accuracy and AUC rows.
func (e Evaluation) Rows() [][]string {
	row := func(name string, m ClassMetrics) []string {
		return []string{name, fmt2(m.Precision), fmt2(m.Recall), fmt2(m.F1), strconv.Itoa(m.Support)}
	}
	return [][]string{
		row("retained", e.Retained),
		row("separated", e.Separated),
		row("macro avg", e.MacroAvg),
		row("weighted avg", e.WeightedAvg),
		{"accuracy", "", "", fmt2(e.Accuracy), strconv.Itoa(e.TestRows)},
		{"auc", "", "", fmt2(e.AUC), strconv.Itoa(e.TestRows)},
	}
}

func fmt2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
