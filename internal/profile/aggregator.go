// Package profile aggregates an entity's factor records into its
// statistical profile. Aggregation is a pure reduction over the complete
// record set: profiles are recomputed wholesale, never patched, so the
// same input always yields the same profile.
package profile

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

const (
	// DefaultSaturationK is the decision count at which profile
	// confidence saturates.
	DefaultSaturationK = 10
	// DefaultMaxTopics bounds the recurrent-topic list.
	DefaultMaxTopics = 10
)

// Options configures an Aggregator. Zero values fall back to defaults.
type Options struct {
	// MinDecisions is the minimum record count to build a profile.
	MinDecisions int
	// SaturationK is the decision count at which confidence reaches 1.
	SaturationK int
	MaxTopics   int
	Now         func() time.Time
}

// Aggregator reduces factor records to entity profiles under one catalog.
type Aggregator struct {
	cat    *catalog.Catalog
	opts   Options
	logger *zap.Logger
}

// New returns a profile aggregator for the catalog.
func New(cat *catalog.Catalog, opts Options, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinDecisions <= 0 {
		opts.MinDecisions = 1
	}
	if opts.SaturationK <= 0 {
		opts.SaturationK = DefaultSaturationK
	}
	if opts.MaxTopics <= 0 {
		opts.MaxTopics = DefaultMaxTopics
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{cat: cat, opts: opts, logger: logger.Named("profile")}
}

// Aggregate builds the entity's profile from its complete record set.
// It fails with InsufficientDataError below the configured minimum.
func (a *Aggregator) Aggregate(entityID string, recs []analysis.DecisionFactorRecord) (*analysis.EntityProfile, error) {
	if len(recs) < a.opts.MinDecisions {
		return nil, &analysis.InsufficientDataError{
			EntityID: entityID,
			Unit:     "decisions",
			Have:     len(recs),
			Need:     a.opts.MinDecisions,
		}
	}

	p := &analysis.EntityProfile{
		SchemaVersion:  analysis.SchemaVersion,
		EntityID:       entityID,
		Decisions:      len(recs),
		Numeric:        make(map[string]analysis.FactorStat),
		Categorical:    make(map[string]string),
		Confidence:     saturate(len(recs), a.opts.SaturationK),
		CatalogVersion: a.cat.Version,
		ComputedAt:     a.opts.Now().UTC(),
	}

	for _, f := range a.cat.NumericFactors() {
		p.Numeric[f.Name] = a.numericStat(&f, recs)
	}

	for _, f := range a.cat.CategoricalFactors() {
		values := make([]string, 0, len(recs))
		for _, r := range recs {
			if v, ok := r.Categorical[f.Name]; ok {
				values = append(values, v)
			}
		}
		mode, _ := Mode(values, f.Categories())
		if mode == "" {
			mode = f.DefaultCategory
		}
		p.Categorical[f.Name] = mode
	}

	p.RecurrentTopics = recurrentTopics(recs, a.opts.MaxTopics)
	return p, nil
}

// numericStat is the arithmetic mean of one factor. Sparse factors
// exclude records sitting at the neutral default from the denominator; a
// sparse factor with no signal anywhere reports the neutral value with a
// zero count.
func (a *Aggregator) numericStat(f *catalog.Factor, recs []analysis.DecisionFactorRecord) analysis.FactorStat {
	var (
		sum   float64
		count int
	)
	for _, r := range recs {
		v, ok := r.Numeric[f.Name]
		if !ok {
			v = f.Neutral
		}
		if f.Sparse && v == f.Neutral {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return analysis.FactorStat{Mean: f.Neutral, Count: 0}
	}
	return analysis.FactorStat{Mean: sum / float64(count), Count: count}
}

// Mode returns the most frequent value and its count. Ties break by the
// canonical order (first declared wins); values outside the canonical
// list rank after it, in first-seen order. An empty input returns "".
func Mode(values, canonical []string) (string, int) {
	if len(values) == 0 {
		return "", 0
	}

	counts := make(map[string]int, len(values))
	var order []string
	inCanonical := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		inCanonical[c] = true
	}
	for _, v := range values {
		if counts[v] == 0 && !inCanonical[v] {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	consider := func(v string) {
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	for _, c := range canonical {
		consider(c)
	}
	for _, v := range order {
		consider(v)
	}
	return best, bestCount
}

// recurrentTopics orders the entity's topics by decision count, ties by
// name, bounded to max.
func recurrentTopics(recs []analysis.DecisionFactorRecord, max int) []string {
	counts := make(map[string]int)
	for _, r := range recs {
		if r.Topic != "" {
			counts[r.Topic]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	topics := make([]string, 0, len(counts))
	for t := range counts {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > max {
		topics = topics[:max]
	}
	return topics
}

func saturate(n, k int) float64 {
	c := float64(n) / float64(k)
	if c > 1 {
		return 1
	}
	return c
}
