package predict

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

const (
	// DefaultMinSamples is the minimum labeled record count for training.
	DefaultMinSamples = 5
	// DefaultSplitRatio is the train share of a held-out split.
	DefaultSplitRatio = 0.8
	// DefaultHoldoutThreshold is the sample count from which a held-out
	// split is used; smaller sets train on all data and are marked not
	// cross-validated.
	DefaultHoldoutThreshold = 10
	// DefaultNumTrees and DefaultMaxDepth shape the forest.
	DefaultNumTrees = 50
	DefaultMaxDepth = 5
	// DefaultSeed keeps training deterministic for a fixed input set.
	DefaultSeed = 42
)

// Model is a trained classifier together with the metadata needed to
// describe and apply it. Trivial models carry no forest.
type Model struct {
	Info   analysis.ModelInfo `json:"info"`
	Forest *Forest            `json:"forest,omitempty"`
}

// TrainerOptions configures training. Zero values fall back to defaults.
type TrainerOptions struct {
	MinSamples       int
	SplitRatio       float64
	HoldoutThreshold int
	NumTrees         int
	MaxDepth         int
	Seed             int64
	Now              func() time.Time
}

// Trainer builds per-entity models under one catalog version.
type Trainer struct {
	vec    *Vectorizer
	opts   TrainerOptions
	logger *zap.Logger
}

// NewTrainer returns a trainer for the catalog.
func NewTrainer(cat *catalog.Catalog, opts TrainerOptions, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinSamples <= 0 {
		opts.MinSamples = DefaultMinSamples
	}
	if opts.SplitRatio <= 0 || opts.SplitRatio >= 1 {
		opts.SplitRatio = DefaultSplitRatio
	}
	if opts.HoldoutThreshold <= 0 {
		opts.HoldoutThreshold = DefaultHoldoutThreshold
	}
	if opts.NumTrees <= 0 {
		opts.NumTrees = DefaultNumTrees
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Trainer{vec: NewVectorizer(cat), opts: opts, logger: logger.Named("predict")}
}

// Vectorizer exposes the trainer's feature mapping for prediction calls.
func (t *Trainer) Vectorizer() *Vectorizer { return t.vec }

// Train builds a model for the entity from its labeled factor records,
// optionally narrowed to one materia. Single-class sets produce an
// explicit trivial model; sets below the minimum fail with
// InsufficientDataError.
func (t *Trainer) Train(entityID, materia string, recs []analysis.DecisionFactorRecord) (*Model, error) {
	labeled := make([]analysis.DecisionFactorRecord, 0, len(recs))
	for _, r := range recs {
		if r.Outcome == "" {
			continue
		}
		if materia != "" && !strings.EqualFold(strings.TrimSpace(r.Topic), materia) {
			continue
		}
		labeled = append(labeled, r)
	}

	if len(labeled) < t.opts.MinSamples {
		return nil, &analysis.InsufficientDataError{
			EntityID: entityID,
			Unit:     "labeled decisions",
			Have:     len(labeled),
			Need:     t.opts.MinSamples,
		}
	}

	// Deterministic sample order regardless of storage iteration order.
	sort.Slice(labeled, func(i, j int) bool {
		if labeled[i].DecisionID != labeled[j].DecisionID {
			return labeled[i].DecisionID < labeled[j].DecisionID
		}
		return labeled[i].Version < labeled[j].Version
	})

	classes := classSet(labeled)
	info := analysis.ModelInfo{
		SchemaVersion: analysis.SchemaVersion,
		EntityID:      entityID,
		Materia:       materia,
		FeatureNames:  t.vec.FeatureNames(),
		Classes:       classes,
		SampleCount:   len(labeled),
		TrainedAt:     t.opts.Now().UTC(),
	}

	if len(classes) == 1 {
		t.logger.Info("single-class training set, producing trivial model",
			zap.String("entity_id", entityID),
			zap.String("class", classes[0]),
			zap.Int("samples", len(labeled)))
		info.Trivial = true
		info.TrivialClass = classes[0]
		info.Accuracy = 1
		return &Model{Info: info}, nil
	}

	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	xs := make([][]float64, len(labeled))
	ys := make([]int, len(labeled))
	for i := range labeled {
		xs[i] = t.vec.FromRecord(&labeled[i])
		ys[i] = classIndex[labeled[i].Outcome]
	}

	trainX, trainY, testX, testY := t.split(xs, ys)
	info.CrossValidated = len(testX) > 0

	cfg := forestConfig{
		numTrees: t.opts.NumTrees,
		maxDepth: t.opts.MaxDepth,
		minSplit: 2,
		seed:     t.opts.Seed,
	}
	forest, importances := trainForest(trainX, trainY, len(classes), cfg)

	if info.CrossValidated {
		info.Accuracy = forest.accuracy(testX, testY)
	} else {
		info.Accuracy = forest.accuracy(trainX, trainY)
	}
	info.Importances = rankImportances(info.FeatureNames, importances)

	return &Model{Info: info, Forest: forest}, nil
}

// split applies a deterministic shuffled 80/20 split when the sample
// count reaches the holdout threshold; below it everything trains.
func (t *Trainer) split(xs [][]float64, ys []int) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	n := len(xs)
	if n < t.opts.HoldoutThreshold {
		return xs, ys, nil, nil
	}

	perm := rand.New(rand.NewSource(t.opts.Seed)).Perm(n)
	cut := int(float64(n) * t.opts.SplitRatio)
	if cut >= n {
		cut = n - 1
	}
	if cut < 1 {
		cut = 1
	}

	for i, p := range perm {
		if i < cut {
			trainX = append(trainX, xs[p])
			trainY = append(trainY, ys[p])
		} else {
			testX = append(testX, xs[p])
			testY = append(testY, ys[p])
		}
	}
	return trainX, trainY, testX, testY
}

// classSet returns the sorted unique outcome labels.
func classSet(recs []analysis.DecisionFactorRecord) []string {
	seen := make(map[string]bool)
	var classes []string
	for _, r := range recs {
		if !seen[r.Outcome] {
			seen[r.Outcome] = true
			classes = append(classes, r.Outcome)
		}
	}
	sort.Strings(classes)
	return classes
}

// rankImportances pairs weights with feature names, descending, ties by
// name.
func rankImportances(names []string, weights []float64) []analysis.FeatureImportance {
	out := make([]analysis.FeatureImportance, 0, len(names))
	for i, n := range names {
		out = append(out, analysis.FeatureImportance{Feature: n, Weight: weights[i]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}
