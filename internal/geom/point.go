package geom

// Point is a feature vector.
type Point []float64

func NewPoint(vec []float64) Point {
	return vec
}

func (v Point) Dimensions() int {
	return len(v)
}

func (v Point) Dim(idx int) float64 {
	return v[idx]
}

func (v Point) Points() []float64 {
	return v
}

// Labeled is a training point tagged with the index of its class.
type Labeled struct {
	Point
	Class int
}

func NewLabeled(vec []float64, class int) Labeled {
	return Labeled{Point: NewPoint(vec), Class: class}
}
