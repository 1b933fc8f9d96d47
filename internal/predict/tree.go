package predict

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// node is one decision-tree node. Leaves have Left == -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Prob      float64 `json:"p"`
}

// tree is a binary CART classifier stored as a flat node slice, root first.
type tree struct {
	Nodes []node `json:"nodes"`
}

// treeParams controls tree growth.
type treeParams struct {
	maxDepth        int
	maxFeatures     int
	minSamplesSplit int
}

// treeBuilder grows one tree over weighted samples.
type treeBuilder struct {
	x          [][]float64
	y          []int
	w          []float64
	params     treeParams
	rng        *rand.Rand
	nodes      []node
	importance []float64
}

// growTree fits a tree on the samples in idx with per-sample weights w.
// It returns the tree and the unnormalised impurity decrease per feature.
func growTree(x [][]float64, y []int, w []float64, idx []int, params treeParams, rng *rand.Rand) (*tree, []float64) {
	b := &treeBuilder{
		x:          x,
		y:          y,
		w:          w,
		params:     params,
		rng:        rng,
		importance: make([]float64, len(x[0])),
	}
	b.build(idx, 0)
	return &tree{Nodes: b.nodes}, b.importance
}

func (b *treeBuilder) build(idx []int, depth int) int {
	w0, w1 := b.classWeights(idx)
	total := w0 + w1
	id := len(b.nodes)
	n := node{Left: -1, Right: -1}
	if total > 0 {
		n.Prob = w1 / total
	}
	b.nodes = append(b.nodes, n)

	if depth >= b.params.maxDepth || len(idx) < b.params.minSamplesSplit || w0 == 0 || w1 == 0 {
		return id
	}

	split, ok := b.bestSplit(idx, w0, w1)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importance[split.feature] += split.gain
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].Feature = split.feature
	b.nodes[id].Threshold = split.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) classWeights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.w[i]
		} else {
			w0 += b.w[i]
		}
	}
	return w0, w1
}

type candidate struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit searches a random subset of features for the split with the
// largest weighted gini decrease.
func (b *treeBuilder) bestSplit(idx []int, w0, w1 float64) (candidate, bool) {
	total := w0 + w1
	parent := gini(w0, w1) * total

	best := candidate{gain: 1e-12}
	found := false

	features := b.rng.Perm(len(b.importance))[:b.params.maxFeatures]
	sorted := slices.Clone(idx)
	for _, f := range features {
		slices.SortFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][f], b.x[c][f])
		})

		var l0, l1 float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			if b.y[i] == 1 {
				l1 += b.w[i]
			} else {
				l0 += b.w[i]
			}
			cur, next := b.x[i][f], b.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			r0, r1 := w0-l0, w1-l1
			gain := parent - gini(l0, l1)*(l0+l1) - gini(r0, r1)*(r0+r1)
			if gain > best.gain {
				best = candidate{feature: f, threshold: (cur + next) / 2, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total <= 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

// predict returns the weighted share of the positive class at the leaf reached by row.
func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Prob
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
