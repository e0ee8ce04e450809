// Package factors implements the deterministic factor scoring engine. An
// Extractor compiles a catalog's pattern tables once and scores decision
// texts against them: density scoring for numeric factors, balance
// scoring for directional factors, dominant-category scoring for
// categorical factors. The same text and catalog always yield the same
// scores.
package factors

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

const (
	// DefaultMinWords is the word count below which extraction confidence
	// is scaled down.
	DefaultMinWords = 120
	// DefaultDensityCap is the matches-per-1000-words count treated as a
	// full score when the factor declares no cap.
	DefaultDensityCap = 5.0
	// DefaultDominantThreshold is the minimum group score for a dominant
	// category when the factor declares no threshold.
	DefaultDominantThreshold = 0.1

	// minConfidence is the floor for extraction confidence; ambiguity
	// lowers confidence, it never zeroes it.
	minConfidence = 0.1
)

// Metadata is the light per-decision context supplied by the ingestion
// subsystem alongside the text.
type Metadata struct {
	DecisionID string
	EntityID   string
	Topic      string
	// Outcome is the known outcome label, empty when unknown.
	Outcome   string
	DecidedAt time.Time
}

// Options configures an Extractor. Zero values fall back to the package
// defaults.
type Options struct {
	MinWords int
	// Now is the clock used for the extraction timestamp. Nil means
	// time.Now.
	Now func() time.Time
}

type compiledGroup struct {
	name     string
	patterns []*regexp.Regexp
}

type compiledFactor struct {
	spec   catalog.Factor
	groups []compiledGroup
}

// Extractor scores decision texts against one compiled catalog version.
type Extractor struct {
	catalogVersion string
	factors        []compiledFactor
	minWords       int
	now            func() time.Time
	logger         *zap.Logger
}

// New compiles the catalog into an Extractor. The catalog must already be
// validated; compilation failures here indicate a bug in validation.
func New(cat *catalog.Catalog, opts Options, logger *zap.Logger) (*Extractor, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinWords <= 0 {
		opts.MinWords = DefaultMinWords
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	compiled := make([]compiledFactor, 0, len(cat.Factors))
	for _, f := range cat.Factors {
		cf := compiledFactor{spec: f}
		for _, g := range f.Groups {
			cg := compiledGroup{name: g.Name}
			for _, p := range g.Patterns {
				re, err := regexp.Compile("(?i)" + p)
				if err != nil {
					return nil, err
				}
				cg.patterns = append(cg.patterns, re)
			}
			cf.groups = append(cf.groups, cg)
		}
		compiled = append(compiled, cf)
	}

	return &Extractor{
		catalogVersion: cat.Version,
		factors:        compiled,
		minWords:       opts.MinWords,
		now:            opts.Now,
		logger:         logger.Named("factors"),
	}, nil
}

// Extract scores the decision text against every catalog factor and
// returns the factor record. Empty or whitespace-only text is a hard
// failure; short or structurally poor text lowers the confidence field
// instead.
func (e *Extractor) Extract(text string, meta Metadata) (*analysis.DecisionFactorRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &analysis.EmptyInputError{DecisionID: meta.DecisionID}
	}

	words := len(strings.Fields(text))

	rec := &analysis.DecisionFactorRecord{
		SchemaVersion:  analysis.SchemaVersion,
		DecisionID:     meta.DecisionID,
		EntityID:       meta.EntityID,
		Topic:          meta.Topic,
		Numeric:        make(map[string]float64),
		Categorical:    make(map[string]string),
		Outcome:        meta.Outcome,
		DecidedAt:      meta.DecidedAt,
		WordCount:      words,
		Confidence:     e.confidence(text, words),
		CatalogVersion: e.catalogVersion,
		Version:        uuid.NewString(),
		ExtractedAt:    e.now().UTC(),
	}

	for _, cf := range e.factors {
		switch cf.spec.Method {
		case catalog.MethodDensity:
			rec.Numeric[cf.spec.Name] = clamp(e.densityScore(text, words, &cf), cf.spec.Min, cf.spec.Max)
		case catalog.MethodBalance:
			rec.Numeric[cf.spec.Name] = clamp(e.balanceScore(text, words, &cf), cf.spec.Min, cf.spec.Max)
		case catalog.MethodDominant:
			rec.Categorical[cf.spec.Name] = e.dominantCategory(text, words, &cf)
		}
	}

	return rec, nil
}

// confidence starts at 1 and is lowered for short texts and texts with no
// recognizable sentence structure, with a fixed floor.
func (e *Extractor) confidence(text string, words int) float64 {
	conf := 1.0
	if words < e.minWords {
		conf = float64(words) / float64(e.minWords)
	}
	if !strings.ContainsAny(text, ".;:!?") {
		conf *= 0.8
	}
	if conf < minConfidence {
		conf = minConfidence
	}
	return conf
}

// patternScore normalizes one pattern's match count to matches per 1000
// words against the density cap, yielding a value in [0,1].
func patternScore(matches, words int, cap float64) float64 {
	if words == 0 || matches == 0 {
		return 0
	}
	perThousand := float64(matches) / (float64(words) / 1000.0)
	score := perThousand / cap
	if score > 1 {
		score = 1
	}
	return score
}

func (cf *compiledFactor) cap() float64 {
	if cf.spec.Cap > 0 {
		return cf.spec.Cap
	}
	return DefaultDensityCap
}

func (cf *compiledFactor) threshold() float64 {
	if cf.spec.Threshold > 0 {
		return cf.spec.Threshold
	}
	return DefaultDominantThreshold
}

// groupScore sums per-pattern scores within a group, capped at 1.
func (e *Extractor) groupScore(text string, words int, cf *compiledFactor, g *compiledGroup) float64 {
	var sum float64
	for _, re := range g.patterns {
		sum += patternScore(len(re.FindAllStringIndex(text, -1)), words, cf.cap())
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}

func (e *Extractor) densityScore(text string, words int, cf *compiledFactor) float64 {
	var sum float64
	for i := range cf.groups {
		sum += e.groupScore(text, words, cf, &cf.groups[i])
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}

// balanceScore contrasts the factor's two opposed groups into [-1,1]. The
// first declared group is the positive direction.
func (e *Extractor) balanceScore(text string, words int, cf *compiledFactor) float64 {
	var pos, neg float64
	for _, re := range cf.groups[0].patterns {
		pos += patternScore(len(re.FindAllStringIndex(text, -1)), words, cf.cap())
	}
	for _, re := range cf.groups[1].patterns {
		neg += patternScore(len(re.FindAllStringIndex(text, -1)), words, cf.cap())
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return (pos - neg) / total
}

// dominantCategory picks the highest-scoring group as the category. Ties
// go to the first declared group; scores below the threshold fall back to
// the declared default.
func (e *Extractor) dominantCategory(text string, words int, cf *compiledFactor) string {
	best := cf.spec.DefaultCategory
	bestScore := 0.0
	for i := range cf.groups {
		score := e.groupScore(text, words, cf, &cf.groups[i])
		if score > bestScore {
			bestScore = score
			best = cf.groups[i].name
		}
	}
	if bestScore < cf.threshold() {
		return cf.spec.DefaultCategory
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
