// Package metrics scores class predictions against the true classes.
package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Accuracy is the share of predictions equal to the true class. It is 0 for
// empty input.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	var hit int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue))
}

// Present returns the class indices occurring in yTrue or yPred, ascending.
func Present(yTrue, yPred []int) []int {
	seen := make(map[int]bool)
	for _, y := range yTrue {
		seen[y] = true
	}
	for _, y := range yPred {
		seen[y] = true
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// ConfusionMatrix counts samples by true class (row) and predicted class
// (column). Rows and columns follow classes, a list of class indices; samples
// of other classes are ignored.
func ConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	m := make([][]int, len(classes))
	for i := range m {
		m[i] = make([]int, len(classes))
	}
	for i := range yTrue {
		if i >= len(yPred) {
			break
		}
		t, ok := pos[yTrue[i]]
		if !ok {
			continue
		}
		p, ok := pos[yPred[i]]
		if !ok {
			continue
		}
		m[t][p]++
	}
	return m
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Report is a per-class precision, recall and F1 breakdown. It marshals into
// an object keyed by class label followed by "accuracy", "macro avg" and
// "weighted avg".
type Report struct {
	Labels      []string
	Classes     []Scores
	Accuracy    float64
	MacroAvg    Scores
	WeightedAvg Scores
}

// ClassificationReport scores every class that occurs in yTrue or yPred.
// labels names class indices; a ratio with a zero denominator scores 0.
func ClassificationReport(yTrue, yPred []int, labels []string) Report {
	classes := len(labels)
	cm := ConfusionMatrix(yTrue, yPred, indices(classes))

	r := Report{Accuracy: Accuracy(yTrue, yPred)}
	var total int
	for k := 0; k < classes; k++ {
		var tp, predicted, support int
		tp = cm[k][k]
		for j := 0; j < classes; j++ {
			predicted += cm[j][k]
			support += cm[k][j]
		}
		if predicted == 0 && support == 0 {
			continue
		}
		s := Scores{
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		r.Labels = append(r.Labels, labels[k])
		r.Classes = append(r.Classes, s)
		total += support
	}

	n := float64(len(r.Classes))
	for _, s := range r.Classes {
		r.MacroAvg.Precision += s.Precision / n
		r.MacroAvg.Recall += s.Recall / n
		r.MacroAvg.F1 += s.F1 / n
		if total > 0 {
			w := float64(s.Support) / float64(total)
			r.WeightedAvg.Precision += s.Precision * w
			r.WeightedAvg.Recall += s.Recall * w
			r.WeightedAvg.F1 += s.F1 * w
		}
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r
}

func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}
	for i, label := range r.Labels {
		if err := write(label, r.Classes[i]); err != nil {
			return nil, err
		}
	}
	if err := write("accuracy", r.Accuracy); err != nil {
		return nil, err
	}
	if err := write("macro avg", r.MacroAvg); err != nil {
		return nil, err
	}
	if err := write("weighted avg", r.WeightedAvg); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
