package profile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "t-1",
		Factors: []catalog.Factor{
			{
				Name: "urgency", Kind: catalog.KindNumeric, Method: catalog.MethodDensity,
				Min: 0, Max: 1, Neutral: 0,
				Groups: []catalog.PatternGroup{{Name: "g", Patterns: []string{`\burgente\b`}}},
			},
			{
				Name: "bias", Kind: catalog.KindNumeric, Method: catalog.MethodDensity,
				Min: 0, Max: 1, Neutral: 0, Sparse: true,
				Groups: []catalog.PatternGroup{{Name: "g", Patterns: []string{`\bsesgo\b`}}},
			},
			{
				Name: "tone", Kind: catalog.KindCategorical, Method: catalog.MethodDominant,
				DefaultCategory: "plain",
				Groups: []catalog.PatternGroup{
					{Name: "emphatic", Patterns: []string{`\benfático\b`}},
					{Name: "doubtful", Patterns: []string{`\bquizás\b`}},
				},
			},
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func record(id, topic string, urgency, bias float64, tone string) analysis.DecisionFactorRecord {
	return analysis.DecisionFactorRecord{
		SchemaVersion: analysis.SchemaVersion,
		DecisionID:    id,
		EntityID:      "j1",
		Topic:         topic,
		Numeric:       map[string]float64{"urgency": urgency, "bias": bias},
		Categorical:   map[string]string{"tone": tone},
	}
}

func newTestAggregator(opts Options) *Aggregator {
	if opts.Now == nil {
		opts.Now = fixedNow
	}
	return New(testCatalog(), opts, nil)
}

func TestAggregateInsufficientData(t *testing.T) {
	a := newTestAggregator(Options{MinDecisions: 3})

	_, err := a.Aggregate("j1", nil)
	var insuf *analysis.InsufficientDataError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, "j1", insuf.EntityID)
	assert.Equal(t, 0, insuf.Have)
	assert.Equal(t, 3, insuf.Need)

	_, err = a.Aggregate("j1", []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0.5, 0, "plain"),
	})
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, 1, insuf.Have)
}

func TestAggregateMean(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0.2, 0, "plain"),
		record("d2", "laboral", 0.4, 0, "plain"),
		record("d3", "laboral", 0.9, 0, "plain"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)

	stat := p.Numeric["urgency"]
	assert.InDelta(t, 0.5, stat.Mean, 1e-9)
	assert.Equal(t, 3, stat.Count)
	assert.Equal(t, 3, p.Decisions)
	assert.Equal(t, "t-1", p.CatalogVersion)
}

func TestAggregateSparseFactor(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0.2, 0, "plain"),
		record("d2", "laboral", 0.2, 0.4, "plain"),
		record("d3", "laboral", 0.2, 0.8, "plain"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)

	// Neutral defaults do not dilute a sparse factor's mean.
	stat := p.Numeric["bias"]
	assert.InDelta(t, 0.6, stat.Mean, 1e-9)
	assert.Equal(t, 2, stat.Count)
}

func TestAggregateSparseFactorAllNeutral(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0.2, 0, "plain"),
		record("d2", "laboral", 0.2, 0, "plain"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)

	stat := p.Numeric["bias"]
	assert.Zero(t, stat.Mean)
	assert.Zero(t, stat.Count)
}

func TestAggregateMissingFactorDefaultsToNeutral(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		{DecisionID: "d1", Numeric: map[string]float64{}, Categorical: map[string]string{}},
		record("d2", "laboral", 0.8, 0, "plain"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)

	// The record missing "urgency" counts at the neutral 0.
	stat := p.Numeric["urgency"]
	assert.InDelta(t, 0.4, stat.Mean, 1e-9)
	assert.Equal(t, 2, stat.Count)
	assert.Equal(t, "plain", p.Categorical["tone"])
}

func TestAggregateCategoricalMode(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0, 0, "doubtful"),
		record("d2", "laboral", 0, 0, "doubtful"),
		record("d3", "laboral", 0, 0, "emphatic"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)
	assert.Equal(t, "doubtful", p.Categorical["tone"])
}

func TestAggregateConfidence(t *testing.T) {
	a := newTestAggregator(Options{SaturationK: 10})

	recs := make([]analysis.DecisionFactorRecord, 0, 20)
	for i := 0; i < 5; i++ {
		recs = append(recs, record(fmt.Sprintf("d%d", i), "laboral", 0.5, 0, "plain"))
	}
	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Confidence, 1e-9)

	for i := 5; i < 20; i++ {
		recs = append(recs, record(fmt.Sprintf("d%d", i), "laboral", 0.5, 0, "plain"))
	}
	p, err = a.Aggregate("j1", recs)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestAggregateIdempotent(t *testing.T) {
	a := newTestAggregator(Options{})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0.2, 0.3, "emphatic"),
		record("d2", "civil", 0.6, 0, "doubtful"),
		record("d3", "laboral", 0.9, 0.1, "emphatic"),
	}

	p1, err := a.Aggregate("j1", recs)
	require.NoError(t, err)
	p2, err := a.Aggregate("j1", recs)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestRecurrentTopics(t *testing.T) {
	a := newTestAggregator(Options{MaxTopics: 2})
	recs := []analysis.DecisionFactorRecord{
		record("d1", "laboral", 0, 0, "plain"),
		record("d2", "laboral", 0, 0, "plain"),
		record("d3", "civil", 0, 0, "plain"),
		record("d4", "civil", 0, 0, "plain"),
		record("d5", "penal", 0, 0, "plain"),
	}

	p, err := a.Aggregate("j1", recs)
	require.NoError(t, err)
	// Equal counts tie-break alphabetically; the bound drops "penal".
	assert.Equal(t, []string{"civil", "laboral"}, p.RecurrentTopics)
}

func TestMode(t *testing.T) {
	canonical := []string{"literal", "sistematica", "teleologica"}

	tests := []struct {
		name      string
		values    []string
		want      string
		wantCount int
	}{
		{
			name:      "clear majority",
			values:    []string{"teleologica", "literal", "teleologica"},
			want:      "teleologica",
			wantCount: 2,
		},
		{
			name:      "tie broken by canonical order",
			values:    []string{"teleologica", "literal"},
			want:      "literal",
			wantCount: 1,
		},
		{
			name:      "unknown value can still win",
			values:    []string{"mixta", "mixta", "literal"},
			want:      "mixta",
			wantCount: 2,
		},
		{
			name:      "unknown value loses ties to canonical",
			values:    []string{"mixta", "literal"},
			want:      "literal",
			wantCount: 1,
		},
		{
			name:   "empty input",
			values: nil,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, count := Mode(tt.values, canonical)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}
