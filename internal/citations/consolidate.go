package citations

import (
	"sort"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

// Summary is a consolidated view of one decision's citations for report
// consumers.
type Summary struct {
	Total  int                                `json:"total"`
	ByKind map[analysis.CitationKind]int      `json:"by_kind"`
	Unique map[analysis.CitationKind][]string `json:"unique"`
	// Authors lists unique doctrinal authors, sorted.
	Authors []string `json:"authors,omitempty"`
}

// Consolidate summarizes a citation record set: counts per kind and the
// sorted unique destinations per kind.
func Consolidate(records []analysis.CitationRecord) Summary {
	s := Summary{
		Total:  len(records),
		ByKind: make(map[analysis.CitationKind]int),
		Unique: make(map[analysis.CitationKind][]string),
	}

	seen := make(map[analysis.CitationKind]map[string]bool)
	for _, r := range records {
		s.ByKind[r.Kind]++
		if seen[r.Kind] == nil {
			seen[r.Kind] = make(map[string]bool)
		}
		seen[r.Kind][r.Name] = true
	}

	for kind, names := range seen {
		out := make([]string, 0, len(names))
		for n := range names {
			out = append(out, n)
		}
		sort.Strings(out)
		s.Unique[kind] = out
	}
	s.Authors = s.Unique[analysis.CitationDoctrine]
	return s
}
