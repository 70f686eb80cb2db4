package pqueue

import "testing"

func TestQueue_Push(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option[string]
		values   []string
		prior    []float64
		expected []string
	}{
		{
			name:     "asc",
			values:   []string{"c", "a", "b"},
			prior:    []float64{3, 1, 2},
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "cap",
			opts:     []Option[string]{WithCap[string](2)},
			values:   []string{"c", "a", "b"},
			prior:    []float64{3, 1, 2},
			expected: []string{"a", "b"},
		},
		{
			name:     "cap_keeps_closer_newcomer",
			opts:     []Option[string]{WithCap[string](1)},
			values:   []string{"far", "near"},
			prior:    []float64{9, 0.5},
			expected: []string{"near"},
		},
		{
			name:     "stable",
			values:   []string{"first", "second", "third"},
			prior:    []float64{1, 1, 0},
			expected: []string{"third", "first", "second"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			q := New(test.opts...)
			for i := range test.values {
				q.Push(test.values[i], test.prior[i])
			}
			if q.Len() != len(test.expected) {
				t.Fatalf("queue length, got: %d, expected: %d", q.Len(), len(test.expected))
			}
			for i := range test.expected {
				if got, _ := q.Seek(i); got != test.expected[i] {
					t.Errorf("item %d, got: %v, expected: %v", i, got, test.expected[i])
				}
			}
		})
	}
}

func TestQueue_Seek(t *testing.T) {
	q := New[int]()
	q.Push(10, 10)
	q.Push(1, 1)
	q.Push(5, 5)
	if v, p := q.Seek(1); v != 5 || p != 5 {
		t.Errorf("seek, got: %v/%v, expected: 5/5", v, p)
	}
	if v, p := q.Seek(2); v != 10 || p != 10 {
		t.Errorf("seek, got: %v/%v, expected: 10/10", v, p)
	}
}
