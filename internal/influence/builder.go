// Package influence converts citation records into the weighted directed
// edges of an influence graph. Intensity is max-normalized per origin:
// the most-cited non-self destination always carries intensity 1 and the
// rest scale proportionally.
package influence

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

// Options configures a Builder.
type Options struct {
	Now func() time.Time
}

// Builder computes an origin's full edge set from its citation records.
type Builder struct {
	now    func() time.Time
	logger *zap.Logger
}

// New returns an influence graph builder.
func New(opts Options, logger *zap.Logger) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{now: opts.Now, logger: logger.Named("influence")}
}

var relationByCitation = map[analysis.CitationKind]analysis.RelationKind{
	analysis.CitationSuperior: analysis.RelationSuperior,
	analysis.CitationPeer:     analysis.RelationPeer,
	analysis.CitationDoctrine: analysis.RelationDoctrine,
}

// Build groups the origin's citations by destination and returns the
// complete edge set (wholesale replace semantics). Destinations matching
// one of selfNames are typed as self edges and excluded from the
// intensity normalization.
func (b *Builder) Build(originID string, selfNames []string, recs []analysis.CitationRecord) []analysis.InfluenceEdge {
	if len(recs) == 0 {
		return nil
	}

	self := make(map[string]bool, len(selfNames)+1)
	self[normalize(originID)] = true
	for _, n := range selfNames {
		self[normalize(n)] = true
	}

	// Destinations group under the normalized name so spelling variants
	// of one source never split its count. The lexicographically smallest
	// raw spelling is kept for display, independent of record order.
	type key struct {
		name string
		kind analysis.RelationKind
	}
	counts := make(map[key]int)
	display := make(map[key]string)
	for _, r := range recs {
		kind, ok := relationByCitation[r.Kind]
		if !ok {
			b.logger.Warn("unknown citation kind, skipping",
				zap.String("origin_id", originID),
				zap.String("kind", string(r.Kind)))
			continue
		}
		name := normalize(r.Name)
		if self[name] {
			kind = analysis.RelationSelf
		}
		k := key{name: name, kind: kind}
		counts[k]++
		if d, seen := display[k]; !seen || r.Name < d {
			display[k] = r.Name
		}
	}

	// The most-cited non-self destination anchors the scale.
	maxCount := 0
	for k, c := range counts {
		if k.kind != analysis.RelationSelf && c > maxCount {
			maxCount = c
		}
	}

	now := b.now().UTC()
	edges := make([]analysis.InfluenceEdge, 0, len(counts))
	for k, c := range counts {
		edges = append(edges, analysis.InfluenceEdge{
			SchemaVersion: analysis.SchemaVersion,
			OriginID:      originID,
			Destination:   display[k],
			Kind:          k.kind,
			Citations:     c,
			Intensity:     intensity(c, maxCount),
			ComputedAt:    now,
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Kind != edges[j].Kind {
			return edges[i].Kind < edges[j].Kind
		}
		if edges[i].Citations != edges[j].Citations {
			return edges[i].Citations > edges[j].Citations
		}
		return edges[i].Destination < edges[j].Destination
	})
	return edges
}

// intensity scales a count against the origin's maximum non-self count.
// With no non-self citations at all the scale collapses and every edge
// reports full intensity.
func intensity(count, maxCount int) float64 {
	if maxCount == 0 {
		return 1
	}
	v := float64(count) / float64(maxCount)
	if v > 1 {
		v = 1
	}
	return v
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
