package geom

import "testing"

func TestPoint_Axes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		vec  []float64
	}{
		{name: "three_features", vec: []float64{0.5, -1, 2}},
		{name: "single_feature", vec: []float64{7}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			p := NewPoint(test.vec)
			if p.Dimensions() != len(test.vec) {
				t.Errorf("dimensions, got: %v, expected: %v", p.Dimensions(), len(test.vec))
			}
			for i := range test.vec {
				if p.Dim(i) != test.vec[i] {
					t.Errorf("axis %d, got: %v, expected: %v", i, p.Dim(i), test.vec[i])
				}
				if p.Points()[i] != test.vec[i] {
					t.Errorf("coordinate %d, got: %v, expected: %v", i, p.Points()[i], test.vec[i])
				}
			}
		})
	}
}

func TestLabeled(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		vec   []float64
		class int
	}{
		{name: "first_class", vec: []float64{1, 2}, class: 0},
		{name: "last_class", vec: []float64{3, 4, 5}, class: 2},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var p interface {
				Dim(idx int) float64
				Dimensions() int
			} = NewLabeled(test.vec, test.class)

			l, ok := p.(Labeled)
			if !ok {
				t.Fatalf("labeled point lost its type behind the interface")
			}
			if l.Class != test.class {
				t.Errorf("class, got: %v, expected: %v", l.Class, test.class)
			}
			if p.Dimensions() != len(test.vec) || p.Dim(0) != test.vec[0] {
				t.Errorf("coordinates, got: %v, expected: %v", l.Points(), test.vec)
			}
		})
	}
}
