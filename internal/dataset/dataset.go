// Package dataset loads labelled tabular data, splits it for training and
// evaluation, and generates synthetic student performance records.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidDataset  = errors.New("invalid dataset")
)

// Dataset is a table of numeric features; the label column is always last in
// the source and kept apart in Labels.
type Dataset struct {
	Header   []string
	Features [][]float64
	Labels   []string
}

func (d *Dataset) Len() int {
	return len(d.Features)
}

func (d *Dataset) Width() int {
	if len(d.Features) == 0 {
		return len(d.Header) - 1
	}
	return len(d.Features[0])
}

// Subset returns the rows at idx, in that order.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Header:   d.Header,
		Features: make([][]float64, len(idx)),
		Labels:   make([]string, len(idx)),
	}
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// Load reads a CSV file with a header row. An empty path loads the reference
// dataset.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Reference(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// Read parses CSV with a header row: every column but the last must be
// numeric, the last holds the label.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidDataset)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need feature columns and a label column, got %d columns", ErrInvalidDataset, len(header))
	}

	ds := &Dataset{Header: header}
	width := len(header) - 1
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
		}

		row := make([]float64, width)
		for j := 0; j < width; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: not a number", ErrInvalidDataset, line, header[j])
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: line %d column %q: not a finite number", ErrInvalidDataset, line, header[j])
			}
			row[j] = v
		}
		label := strings.TrimSpace(record[width])
		if label == "" {
			return nil, fmt.Errorf("%w: line %d: empty label", ErrInvalidDataset, line)
		}
		ds.Features = append(ds.Features, row)
		ds.Labels = append(ds.Labels, label)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidDataset)
	}
	return ds, nil
}

// WriteCSV writes the dataset with its header, label last.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, d.Width()+1)
	for i, row := range d.Features {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		record[len(row)] = d.Labels[i]
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Label is a class label. It marshals as a JSON number when it is one.
type Label string

func (l Label) MarshalJSON() ([]byte, error) {
	if isNumber(string(l)) {
		return []byte(l), nil
	}
	return json.Marshal(string(l))
}

func isNumber(s string) bool {
	var f float64
	return s != "" && json.Valid([]byte(s)) && json.Unmarshal([]byte(s), &f) == nil
}

// Classes returns the distinct labels, ordered numerically when every label
// is a number and lexicographically otherwise.
func Classes(labels []string) []string {
	seen := make(map[string]struct{}, 8)
	var out []string
	numeric := true
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
		if _, err := strconv.ParseFloat(l, 64); err != nil {
			numeric = false
		}
	}

	if numeric {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := strconv.ParseFloat(out[i], 64)
			b, _ := strconv.ParseFloat(out[j], 64)
			if a == b {
				return out[i] < out[j]
			}
			return a < b
		})
	} else {
		sort.Strings(out)
	}
	return out
}

// Encode maps labels to their index in classes.
func Encode(labels, classes []string) ([]int, error) {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		k, ok := index[l]
		if !ok {
			return nil, fmt.Errorf("unknown class %q", l)
		}
		out[i] = k
	}
	return out, nil
}
