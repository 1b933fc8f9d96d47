package predict

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// stratifiedSplit partitions row indices into train and test sets keeping the
// class ratio of y in both. Each class contributes round(frac·n_c) test rows,
// at least one and never all of them.
func stratifiedSplit(y []int, frac float64, seed uint64) (train, test []int, err error) {
	byClass := [2][]int{}
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	for c, rows := range byClass {
		if len(rows) < 2 {
			return nil, nil, fmt.Errorf("class %d has %d rows: %w", c, len(rows), ErrTooFewPerClass)
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nTest := int(math.Round(frac * float64(len(rows))))
		nTest = min(max(nTest, 1), len(rows)-1)
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}
