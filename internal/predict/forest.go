package predict

import (
	"math"
	"math/rand"
)

// Forest is a serializable random-forest classifier. Probabilities are
// the mean of the per-tree leaf distributions.
type Forest struct {
	NumFeatures int    `json:"num_features"`
	NumClasses  int    `json:"num_classes"`
	Trees       []Tree `json:"trees"`
}

type forestConfig struct {
	numTrees int
	maxDepth int
	minSplit int
	seed     int64
}

// trainForest grows a seeded bootstrap forest and returns it together
// with the normalized per-feature importance weights.
func trainForest(xs [][]float64, ys []int, nClasses int, cfg forestConfig) (*Forest, []float64) {
	n := len(xs)
	nFeatures := len(xs[0])
	rng := rand.New(rand.NewSource(cfg.seed))

	mtry := int(math.Ceil(math.Sqrt(float64(nFeatures))))
	if mtry < 1 {
		mtry = 1
	}

	builder := &treeBuilder{
		xs:       xs,
		ys:       ys,
		nClasses: nClasses,
		cfg: treeConfig{
			maxDepth: cfg.maxDepth,
			minSplit: cfg.minSplit,
			mtry:     mtry,
		},
		rng:         rng,
		importances: make([]float64, nFeatures),
	}

	forest := &Forest{
		NumFeatures: nFeatures,
		NumClasses:  nClasses,
		Trees:       make([]Tree, 0, cfg.numTrees),
	}
	for t := 0; t < cfg.numTrees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		forest.Trees = append(forest.Trees, builder.grow(sample))
	}

	var total float64
	for _, w := range builder.importances {
		total += w
	}
	if total > 0 {
		for i := range builder.importances {
			builder.importances[i] /= total
		}
	}
	return forest, builder.importances
}

// Predict returns the class probability distribution for one feature
// vector.
func (f *Forest) Predict(x []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	if len(f.Trees) == 0 {
		return probs
	}
	for i := range f.Trees {
		for c, p := range f.Trees[i].predict(x) {
			probs[c] += p
		}
	}
	for c := range probs {
		probs[c] /= float64(len(f.Trees))
	}
	return probs
}

// accuracy scores the forest's argmax predictions against labels.
func (f *Forest) accuracy(xs [][]float64, ys []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	correct := 0
	for i, x := range xs {
		if argmax(f.Predict(x)) == ys[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(xs))
}

// argmax returns the index of the largest value, ties to the lowest
// index.
func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
