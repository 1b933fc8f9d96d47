package predict

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// forest is a bagged ensemble of CART trees.
type forest struct {
	Trees []*tree `json:"trees"`
}

// forestParams controls ensemble training.
type forestParams struct {
	trees           int
	maxDepth        int
	minSamplesSplit int
	seed            uint64
}

// fitForest trains the ensemble on x/y using balanced class weights and
// bootstrap resampling. It returns the forest and the normalised impurity
// importance per feature.
func fitForest(x [][]float64, y []int, params forestParams) (*forest, []float64) {
	n, p := len(x), len(x[0])
	rng := rand.New(rand.NewPCG(params.seed, params.seed^0x5851f42d4c957f2d))

	classWeight := balancedWeights(y)
	tp := treeParams{
		maxDepth:        params.maxDepth,
		maxFeatures:     max(1, int(math.Sqrt(float64(p)))),
		minSamplesSplit: max(2, params.minSamplesSplit),
	}

	f := &forest{Trees: make([]*tree, 0, params.trees)}
	importance := make([]float64, p)
	weights := make([]float64, n)

	for t := 0; t < params.trees; t++ {
		clear(weights)
		for range n {
			weights[rng.IntN(n)]++
		}
		idx := make([]int, 0, n)
		for i, count := range weights {
			if count == 0 {
				continue
			}
			weights[i] = count * classWeight[y[i]]
			idx = append(idx, i)
		}

		tr, imp := growTree(x, y, weights, idx, tp, rng)
		f.Trees = append(f.Trees, tr)
		addNormalised(importance, imp)
	}

	for i := range importance {
		importance[i] /= float64(len(f.Trees))
	}
	normalise(importance)
	return f, importance
}

// balancedWeights returns n / (2·n_c) for each class c.
func balancedWeights(y []int) [2]float64 {
	var counts [2]int
	for _, v := range y {
		counts[v]++
	}
	var w [2]float64
	for c, count := range counts {
		if count > 0 {
			w[c] = float64(len(y)) / (2 * float64(count))
		}
	}
	return w
}

// predict returns the mean positive-class probability across trees.
func (f *forest) predict(row []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.Trees))
}

func addNormalised(dst, src []float64) {
	total := floats.Sum(src)
	if total == 0 {
		return
	}
	floats.AddScaled(dst, 1/total, src)
}

func normalise(v []float64) {
	total := floats.Sum(v)
	if total == 0 {
		return
	}
	floats.Scale(1/total, v)
}
