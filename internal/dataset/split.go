package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split partitions the dataset into train and test rows. With more than one
// class the split is stratified: every class contributes to the test rows in
// proportion to its size, and a class with at least two rows lands on both
// sides. The result depends only on the data, testFraction and seed.
func Split(d *Dataset, testFraction float64, seed int64) (*Dataset, *Dataset, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %v outside (0, 1)", testFraction)
	}
	n := d.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least two rows to split, got %d", ErrInvalidDataset, n)
	}
	nTest := int(math.Ceil(testFraction*float64(n) - 1e-9))
	if nTest >= n {
		nTest = n - 1
	}

	rng := rand.New(rand.NewSource(seed))
	classes := Classes(d.Labels)

	var train, test []int
	if len(classes) < 2 {
		perm := rng.Perm(n)
		test, train = perm[:nTest], perm[nTest:]
	} else {
		byClass := make(map[string][]int, len(classes))
		for i, l := range d.Labels {
			byClass[l] = append(byClass[l], i)
		}
		counts := make([]int, len(classes))
		for k, c := range classes {
			counts[k] = len(byClass[c])
		}
		alloc := allocate(counts, nTest)
		for k, c := range classes {
			rows := byClass[c]
			rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
			test = append(test, rows[:alloc[k]]...)
			train = append(train, rows[alloc[k]:]...)
		}
	}

	sort.Ints(train)
	sort.Ints(test)
	return d.Subset(train), d.Subset(test), nil
}

// allocate spreads nTest test rows over classes by largest remainder, then
// makes sure every class of two or more rows keeps at least one row on each
// side.
func allocate(counts []int, nTest int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	alloc := make([]int, len(counts))
	rem := make([]float64, len(counts))
	assigned := 0
	for k, c := range counts {
		exact := float64(nTest) * float64(c) / float64(total)
		alloc[k] = int(math.Floor(exact))
		rem[k] = exact - float64(alloc[k])
		assigned += alloc[k]
	}

	order := make([]int, len(counts))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rem[order[i]] > rem[order[j]]
	})
	for _, k := range order {
		if assigned >= nTest {
			break
		}
		if alloc[k] < counts[k] {
			alloc[k]++
			assigned++
		}
	}

	for k, c := range counts {
		if c < 2 {
			continue
		}
		if alloc[k] == 0 {
			alloc[k] = 1
		}
		if alloc[k] == c {
			alloc[k] = c - 1
		}
	}
	return alloc
}
