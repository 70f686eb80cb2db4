package dataset

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	ReferenceRows = 300
	ReferenceSeed = 42
)

// FeatureColumns and LabelColumn name the student performance record.
var (
	FeatureColumns = []string{"quiz1", "quiz2", "quiz3", "time_spent", "confidence"}
	LabelColumn    = "performance"
)

const (
	LabelWeak    = "weak"
	LabelAverage = "average"
	LabelStrong  = "strong"
)

// Reference is the built-in dataset used when no dataset path is given.
func Reference() *Dataset {
	return Generate(ReferenceRows, ReferenceSeed)
}

// Generate draws n synthetic student records. Quiz scores are normal and
// clipped to [0, 100], time spent in seconds is normal and clipped to
// [300, 2400], confidence is uniform in 1..5. The label follows the mean quiz
// score: below 60 is weak, below 80 average, strong otherwise.
func Generate(n int, seed int64) *Dataset {
	src := rand.NewSource(uint64(seed))
	rng := rand.New(src)
	var (
		quiz1 = distuv.Normal{Mu: 75, Sigma: 15, Src: src}
		quiz2 = distuv.Normal{Mu: 72, Sigma: 18, Src: src}
		quiz3 = distuv.Normal{Mu: 70, Sigma: 16, Src: src}
		spent = distuv.Normal{Mu: 1200, Sigma: 300, Src: src}
	)

	header := append(append([]string(nil), FeatureColumns...), LabelColumn)
	ds := &Dataset{
		Header:   header,
		Features: make([][]float64, 0, n),
		Labels:   make([]string, 0, n),
	}
	for i := 0; i < n; i++ {
		q1 := score(quiz1.Rand())
		q2 := score(quiz2.Rand())
		q3 := score(quiz3.Rand())
		seconds := math.Round(clip(spent.Rand(), 300, 2400))
		confidence := float64(rng.Intn(5) + 1)

		ds.Features = append(ds.Features, []float64{q1, q2, q3, seconds, confidence})
		ds.Labels = append(ds.Labels, Performance(q1, q2, q3))
	}
	return ds
}

// Performance labels a student by the mean of the quiz scores.
func Performance(scores ...float64) string {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	switch {
	case mean < 60:
		return LabelWeak
	case mean < 80:
		return LabelAverage
	default:
		return LabelStrong
	}
}

func score(v float64) float64 {
	return math.Round(clip(v, 0, 100)*100) / 100
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
