// Package report summarizes a training run into the model comparison file
// consumed by the chart renderer.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Scores are fractions in [0, 1]; precision, recall and F1 are support
// weighted averages over the classes.
type Scores struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// Row is one model of the comparison, in percent rounded to two decimals.
type Row struct {
	Model     string  `json:"model"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Summarize returns one row per model, models named in order first, any
// others after them by name.
func Summarize(order []string, scores map[string]Scores) []Row {
	seen := make(map[string]bool, len(order))
	names := make([]string, 0, len(scores))
	for _, name := range order {
		if _, ok := scores[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range scores {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		s := scores[name]
		rows = append(rows, Row{
			Model:     name,
			Accuracy:  percent(s.Accuracy),
			Precision: percent(s.Precision),
			Recall:    percent(s.Recall),
			F1:        percent(s.F1),
		})
	}
	return rows
}

// Best returns the row with the highest accuracy; the first wins a tie.
func Best(rows []Row) (Row, bool) {
	if len(rows) == 0 {
		return Row{}, false
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.Accuracy > best.Accuracy {
			best = r
		}
	}
	return best, true
}

func Write(path string, rows []Row) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func Read(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return rows, nil
}

func percent(v float64) float64 {
	return math.Round(v*100*100) / 100
}
