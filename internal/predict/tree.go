package predict

import (
	"math/rand"
	"sort"
)

// Node is one node of a serialized decision tree. Leaves carry the class
// distribution observed at training time; internal nodes route on
// x[Feature] <= Threshold.
type Node struct {
	// Feature is the column index, or -1 for a leaf.
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Dist      []float64 `json:"dist,omitempty"`
}

// Tree is a CART classification tree stored as a flat node array with
// the root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

type treeConfig struct {
	maxDepth int
	minSplit int
	// mtry is the number of candidate features examined per split.
	mtry int
}

type treeBuilder struct {
	xs       [][]float64
	ys       []int
	nClasses int
	cfg      treeConfig
	rng      *rand.Rand
	// importances accumulates sample-weighted impurity decrease per
	// feature across the whole forest.
	importances []float64
	nodes       []Node
}

func (b *treeBuilder) grow(idxs []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(idxs, 0)
	out := make([]Node, len(b.nodes))
	copy(out, b.nodes)
	return Tree{Nodes: out}
}

func (b *treeBuilder) build(idxs []int, depth int) int {
	dist := b.distribution(idxs)
	impurity := gini(dist)

	if depth >= b.cfg.maxDepth || len(idxs) < b.cfg.minSplit || impurity == 0 {
		return b.leaf(dist)
	}

	feature, threshold, gain, left, right := b.bestSplit(idxs, impurity)
	if feature < 0 {
		return b.leaf(dist)
	}
	b.importances[feature] += float64(len(idxs)) * gain

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

func (b *treeBuilder) leaf(dist []float64) int {
	b.nodes = append(b.nodes, Node{Feature: -1, Dist: dist})
	return len(b.nodes) - 1
}

// distribution returns the normalized class distribution of the sample.
func (b *treeBuilder) distribution(idxs []int) []float64 {
	dist := make([]float64, b.nClasses)
	for _, i := range idxs {
		dist[b.ys[i]]++
	}
	total := float64(len(idxs))
	if total > 0 {
		for c := range dist {
			dist[c] /= total
		}
	}
	return dist
}

// bestSplit examines a random feature subset and returns the split with
// the largest gini decrease. feature is -1 when no split separates the
// sample.
func (b *treeBuilder) bestSplit(idxs []int, parentImpurity float64) (feature int, threshold, gain float64, left, right []int) {
	feature = -1

	candidates := b.rng.Perm(len(b.importances))
	if b.cfg.mtry < len(candidates) {
		candidates = candidates[:b.cfg.mtry]
	}
	// Deterministic evaluation order regardless of the permutation draw.
	sort.Ints(candidates)

	for _, f := range candidates {
		values := make([]float64, 0, len(idxs))
		for _, i := range idxs {
			values = append(values, b.xs[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			thr := (values[k] + values[k-1]) / 2

			var l, r []int
			for _, i := range idxs {
				if b.xs[i][f] <= thr {
					l = append(l, i)
				} else {
					r = append(r, i)
				}
			}
			if len(l) == 0 || len(r) == 0 {
				continue
			}

			weighted := (float64(len(l))*gini(b.distribution(l)) +
				float64(len(r))*gini(b.distribution(r))) / float64(len(idxs))
			g := parentImpurity - weighted
			if g > gain {
				feature, threshold, gain = f, thr, g
				left, right = l, r
			}
		}
	}
	return feature, threshold, gain, left, right
}

func gini(dist []float64) float64 {
	g := 1.0
	for _, p := range dist {
		g -= p * p
	}
	return g
}

// predict walks the tree and returns the leaf class distribution.
func (t *Tree) predict(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Dist
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
