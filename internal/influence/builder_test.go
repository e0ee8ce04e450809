package influence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

func newTestBuilder() *Builder {
	return New(Options{Now: func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	}}, nil)
}

func cite(name string, kind analysis.CitationKind) analysis.CitationRecord {
	return analysis.CitationRecord{
		DecisionID: "d1",
		EntityID:   "X",
		Kind:       kind,
		Name:       name,
	}
}

func repeat(n int, name string, kind analysis.CitationKind) []analysis.CitationRecord {
	out := make([]analysis.CitationRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cite(name, kind))
	}
	return out
}

func TestMaxNormalization(t *testing.T) {
	b := newTestBuilder()

	recs := append(repeat(8, "S", analysis.CitationSuperior), repeat(2, "P", analysis.CitationPeer)...)
	edges := b.Build("X", nil, recs)
	require.Len(t, edges, 2)

	byDest := make(map[string]analysis.InfluenceEdge)
	for _, e := range edges {
		byDest[e.Destination] = e
	}

	assert.Equal(t, 1.0, byDest["S"].Intensity)
	assert.Equal(t, 8, byDest["S"].Citations)
	assert.Equal(t, analysis.RelationSuperior, byDest["S"].Kind)

	assert.InDelta(t, 0.25, byDest["P"].Intensity, 1e-9)
	assert.Equal(t, 2, byDest["P"].Citations)
	assert.Equal(t, analysis.RelationPeer, byDest["P"].Kind)
}

func TestSelfCitationsTypedAndExcluded(t *testing.T) {
	b := newTestBuilder()

	recs := append(repeat(10, "Sala X", analysis.CitationPeer), repeat(4, "P", analysis.CitationPeer)...)
	edges := b.Build("X", []string{"Sala X"}, recs)
	require.Len(t, edges, 2)

	byDest := make(map[string]analysis.InfluenceEdge)
	for _, e := range edges {
		byDest[e.Destination] = e
	}

	// The self edge keeps its own relation type and does not set the
	// scale: P is the most-cited non-self destination.
	assert.Equal(t, analysis.RelationSelf, byDest["Sala X"].Kind)
	assert.Equal(t, analysis.RelationPeer, byDest["P"].Kind)
	assert.Equal(t, 1.0, byDest["P"].Intensity)
	assert.Equal(t, 1.0, byDest["Sala X"].Intensity)
}

func TestSelfMatchIsCaseInsensitive(t *testing.T) {
	b := newTestBuilder()

	recs := append(repeat(1, "sala x", analysis.CitationPeer), repeat(3, "P", analysis.CitationPeer)...)
	edges := b.Build("X", []string{"Sala X"}, recs)

	for _, e := range edges {
		if e.Destination == "sala x" {
			assert.Equal(t, analysis.RelationSelf, e.Kind)
		}
	}
}

func TestOnlySelfCitations(t *testing.T) {
	b := newTestBuilder()

	edges := b.Build("X", []string{"Sala X"}, repeat(3, "Sala X", analysis.CitationPeer))
	require.Len(t, edges, 1)
	assert.Equal(t, analysis.RelationSelf, edges[0].Kind)
	assert.Equal(t, 1.0, edges[0].Intensity)
}

func TestIntensityMonotonicInCount(t *testing.T) {
	b := newTestBuilder()

	recs := repeat(6, "A", analysis.CitationDoctrine)
	recs = append(recs, repeat(3, "B", analysis.CitationDoctrine)...)
	recs = append(recs, repeat(1, "C", analysis.CitationDoctrine)...)

	edges := b.Build("X", nil, recs)
	require.Len(t, edges, 3)

	// Sorted by count descending within the kind.
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		edges[0].Destination, edges[1].Destination, edges[2].Destination,
	})
	assert.Greater(t, edges[0].Intensity, edges[1].Intensity)
	assert.Greater(t, edges[1].Intensity, edges[2].Intensity)

	for _, e := range edges {
		assert.GreaterOrEqual(t, e.Intensity, 0.0)
		assert.LessOrEqual(t, e.Intensity, 1.0)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := newTestBuilder()
	assert.Empty(t, b.Build("X", nil, nil))
}

func TestBuildIdempotent(t *testing.T) {
	b := newTestBuilder()

	recs := append(repeat(5, "CSJN", analysis.CitationSuperior), repeat(2, "Grisolía", analysis.CitationDoctrine)...)
	recs = append(recs, repeat(2, "Ackerman", analysis.CitationDoctrine)...)

	e1 := b.Build("X", nil, recs)
	e2 := b.Build("X", nil, recs)
	assert.Equal(t, e1, e2)
}

func TestSpellingVariantsShareOneEdge(t *testing.T) {
	b := newTestBuilder()

	recs := append(repeat(2, "Grisolía", analysis.CitationDoctrine),
		cite("grisolía", analysis.CitationDoctrine))
	edges := b.Build("X", nil, recs)

	require.Len(t, edges, 1)
	assert.Equal(t, "Grisolía", edges[0].Destination)
	assert.Equal(t, 3, edges[0].Citations)
	assert.Equal(t, 1.0, edges[0].Intensity)
}
