// Package lines derives jurisprudential lines: per-topic groups of an
// entity's decisions scored for consistency against a dominant criterion.
// The analyzer never raises on sparse data; topics below the minimum
// group size are skipped and logged.
package lines

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

const (
	// DefaultMinDecisions is the minimum group size for a line.
	DefaultMinDecisions = 3
	// DefaultDistanceThreshold marks a decision as an exception when its
	// range-normalized distance from the group centroid exceeds it.
	DefaultDistanceThreshold = 0.35
	// DefaultMaxParadigmatic bounds the representative case list.
	DefaultMaxParadigmatic = 3
	// DefaultSaturationK is the group size at which line confidence
	// saturates.
	DefaultSaturationK = 10
	// DefaultInterpretationFactor is the categorical factor combined with
	// the outcome to form the dominant criterion.
	DefaultInterpretationFactor = "interpretation"
)

// Options configures an Analyzer. Zero values fall back to defaults.
type Options struct {
	MinDecisions      int
	DistanceThreshold float64
	MaxParadigmatic   int
	SaturationK       int
	// InterpretationFactor names the categorical factor paired with the
	// outcome when determining the dominant criterion.
	InterpretationFactor string
	Now                  func() time.Time
}

// Analyzer groups an entity's records by topic and scores each group.
type Analyzer struct {
	cat    *catalog.Catalog
	opts   Options
	logger *zap.Logger
}

// New returns a line analyzer for the catalog.
func New(cat *catalog.Catalog, opts Options, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinDecisions <= 0 {
		opts.MinDecisions = DefaultMinDecisions
	}
	if opts.DistanceThreshold <= 0 {
		opts.DistanceThreshold = DefaultDistanceThreshold
	}
	if opts.MaxParadigmatic <= 0 {
		opts.MaxParadigmatic = DefaultMaxParadigmatic
	}
	if opts.SaturationK <= 0 {
		opts.SaturationK = DefaultSaturationK
	}
	if opts.InterpretationFactor == "" {
		opts.InterpretationFactor = DefaultInterpretationFactor
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{cat: cat, opts: opts, logger: logger.Named("lines")}
}

// Analyze derives the full line set for the entity, one line per topic
// group that meets the minimum size. Lines come back sorted by topic.
func (a *Analyzer) Analyze(entityID string, recs []analysis.DecisionFactorRecord) []analysis.JurisprudentialLine {
	groups := make(map[string][]analysis.DecisionFactorRecord)
	for _, r := range recs {
		topic := strings.ToLower(strings.TrimSpace(r.Topic))
		if topic == "" {
			continue
		}
		groups[topic] = append(groups[topic], r)
	}

	topics := make([]string, 0, len(groups))
	for t := range groups {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	var out []analysis.JurisprudentialLine
	for _, topic := range topics {
		group := groups[topic]
		if len(group) < a.opts.MinDecisions {
			a.logger.Debug("topic below line threshold, skipping",
				zap.String("entity_id", entityID),
				zap.String("topic", topic),
				zap.Int("decisions", len(group)),
				zap.Int("min", a.opts.MinDecisions))
			continue
		}
		out = append(out, a.analyzeGroup(entityID, topic, group))
	}
	return out
}

func (a *Analyzer) analyzeGroup(entityID, topic string, group []analysis.DecisionFactorRecord) analysis.JurisprudentialLine {
	sort.Slice(group, func(i, j int) bool {
		return group[i].DecisionID < group[j].DecisionID
	})

	outcome, interp := a.dominantCombination(group)
	centroid := a.centroid(group)

	line := analysis.JurisprudentialLine{
		SchemaVersion:          analysis.SchemaVersion,
		EntityID:               entityID,
		Topic:                  topic,
		DominantOutcome:        outcome,
		DominantInterpretation: interp,
		Criterion:              criterion(topic, outcome, interp),
		Confidence:             saturate(len(group), a.opts.SaturationK),
		ComputedAt:             a.opts.Now().UTC(),
	}

	type scored struct {
		id   string
		dist float64
	}
	distances := make([]scored, 0, len(group))

	for _, r := range group {
		line.Members = append(line.Members, r.DecisionID)

		dist := a.distance(&r, centroid)
		distances = append(distances, scored{id: r.DecisionID, dist: dist})

		mismatch := outcome != "" && r.Outcome != "" && r.Outcome != outcome
		if mismatch || dist > a.opts.DistanceThreshold {
			line.Exceptions = append(line.Exceptions, r.DecisionID)
		}

		if !r.DecidedAt.IsZero() {
			if line.FirstDecision.IsZero() || r.DecidedAt.Before(line.FirstDecision) {
				line.FirstDecision = r.DecidedAt
			}
			if r.DecidedAt.After(line.LastDecision) {
				line.LastDecision = r.DecidedAt
			}
		}
	}

	line.Consistency = float64(len(line.Members)-len(line.Exceptions)) / float64(len(line.Members))

	sort.Slice(distances, func(i, j int) bool {
		if distances[i].dist != distances[j].dist {
			return distances[i].dist < distances[j].dist
		}
		return distances[i].id < distances[j].id
	})
	for i := 0; i < len(distances) && i < a.opts.MaxParadigmatic; i++ {
		line.Paradigmatic = append(line.Paradigmatic, distances[i].id)
	}

	return line
}

// dominantCombination finds the modal (outcome, interpretation) pair.
// Ties break by the lexicographically smaller pair so reruns stay stable.
func (a *Analyzer) dominantCombination(group []analysis.DecisionFactorRecord) (string, string) {
	values := make([]string, 0, len(group))
	for _, r := range group {
		values = append(values, r.Outcome+"\x00"+r.Categorical[a.opts.InterpretationFactor])
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}

	parts := strings.SplitN(best, "\x00", 2)
	if len(parts) != 2 {
		return best, ""
	}
	return parts[0], parts[1]
}

// centroid is the per-factor mean vector of the group.
func (a *Analyzer) centroid(group []analysis.DecisionFactorRecord) map[string]float64 {
	c := make(map[string]float64)
	for _, f := range a.cat.NumericFactors() {
		var sum float64
		for _, r := range group {
			v, ok := r.Numeric[f.Name]
			if !ok {
				v = f.Neutral
			}
			sum += v
		}
		c[f.Name] = sum / float64(len(group))
	}
	return c
}

// distance is the Euclidean distance between a record and the centroid,
// with each factor normalized by its declared range and the total divided
// by the square root of the dimension count, so it stays in [0,1].
func (a *Analyzer) distance(r *analysis.DecisionFactorRecord, centroid map[string]float64) float64 {
	factors := a.cat.NumericFactors()
	if len(factors) == 0 {
		return 0
	}

	var sum float64
	for _, f := range factors {
		v, ok := r.Numeric[f.Name]
		if !ok {
			v = f.Neutral
		}
		span := f.Max - f.Min
		if span <= 0 {
			continue
		}
		d := (v - centroid[f.Name]) / span
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(factors)))
}

func criterion(topic, outcome, interp string) string {
	switch {
	case outcome == "" && interp == "":
		return fmt.Sprintf("no dominant criterion identified for %s", topic)
	case interp == "":
		return fmt.Sprintf("tends to resolve %s with outcome %q", topic, outcome)
	case outcome == "":
		return fmt.Sprintf("tends to resolve %s under %q interpretation", topic, interp)
	default:
		return fmt.Sprintf("tends to resolve %s with outcome %q under %q interpretation", topic, outcome, interp)
	}
}

func saturate(n, k int) float64 {
	c := float64(n) / float64(k)
	if c > 1 {
		return 1
	}
	return c
}
