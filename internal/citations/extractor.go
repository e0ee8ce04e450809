// Package citations extracts jurisprudential and doctrinal citations from
// decision text. Pattern classes are tried in a fixed priority order
// (superior authority, then peer chambers, then doctrinal authors) and a
// text span claimed by a higher-priority match is never counted again by
// a lower-priority one.
package citations

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

const (
	confidenceSuperior = 0.9
	confidencePeer     = 0.8
	confidenceDoctrine = 0.7

	contextBefore = 100
	contextAfter  = 100

	// Author matches get an asymmetric window so the excerpt keeps the
	// quoted proposition that follows the name.
	authorContextBefore = 50
	authorContextAfter  = 150

	minAuthorLen = 4
)

// SuperiorName is the normalized destination for supreme-court citations.
const SuperiorName = "CSJN"

var superiorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Fallos:\s*(\d+):(\d+)`),
	regexp.MustCompile(`(?i)\b(?:CSJN|Corte Suprema de Justicia de la Naci[óo]n|Corte Suprema)\b`),
}

// Peer patterns stay case-sensitive so the single-letter sala class does
// not swallow ordinary lowercase words after "Sala".
var peerPatterns = []*regexp.Regexp{
	// Cámara Nacional del Trabajo, Sala VII
	regexp.MustCompile(`[Cc][áa]mara\s+(?:Nacional\s+)?(?:del?\s+)?([^,\n]+),\s*Sala\s+([IVX]+|[A-Z])\b`),
	// CNTrab, Sala VII
	regexp.MustCompile(`\b(CN[A-Za-z]+),\s*Sala\s+([IVX]+|[A-Z])\b`),
	// Sala VII, ... autos "..."
	regexp.MustCompile(`Sala\s+([IVX]+|[A-Z])\b[^\n]*?autos?\s*["']([^"']+)["']`),
}

const authorName = `([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)*)`

var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:[Cc]omo|[Ss]egún|[Cc]onforme)\s+(?:sostiene|enseña|opina|señala|expresa)\s+` + authorName),
	regexp.MustCompile(authorName + `\s+(?:sostiene|enseña|opina|señala|expresa)\s+que`),
	regexp.MustCompile(`(?:[Ll]a\s+)?doctrina\s+de\s+` + authorName),
	regexp.MustCompile(`[Ss]eg[uú]n\s+` + authorName + `[,:]`),
}

// authorStopWords are procedural role words the author patterns tend to
// capture; they are never doctrinal authors.
var authorStopWords = map[string]bool{
	"actor": true, "actora": true, "demandado": true, "demandada": true,
	"juez": true, "jueza": true, "magistrado": true, "magistrada": true,
	"tribunal": true, "corte": true, "sala": true, "cámara": true,
	"expte": true, "expediente": true, "autos": true, "causa": true,
	"fiscal": true, "defensor": true, "perito": true, "testigo": true,
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Extractor scans decision texts for citations. It is stateless and safe
// for concurrent use.
type Extractor struct {
	logger *zap.Logger
}

// New returns a citation extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger.Named("citations")}
}

// Extract returns every citation found in the text, ordered by position.
// Finding none is not an error.
func (e *Extractor) Extract(text, decisionID, entityID string) []analysis.CitationRecord {
	var (
		records []analysis.CitationRecord
		claimed []span
	)

	take := func(s span) bool {
		for _, c := range claimed {
			if s.overlaps(c) {
				return false
			}
		}
		claimed = append(claimed, s)
		return true
	}

	for _, re := range superiorPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			s := span{m[0], m[1]}
			if !take(s) {
				continue
			}
			records = append(records, analysis.CitationRecord{
				SchemaVersion: analysis.SchemaVersion,
				DecisionID:    decisionID,
				EntityID:      entityID,
				Kind:          analysis.CitationSuperior,
				Name:          SuperiorName,
				Excerpt:       excerpt(text, s.start, s.end, contextBefore, contextAfter),
				Start:         s.start,
				End:           s.end,
				Confidence:    confidenceSuperior,
			})
		}
	}

	for i, re := range peerPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			s := span{m[0], m[1]}
			if !take(s) {
				continue
			}
			records = append(records, analysis.CitationRecord{
				SchemaVersion: analysis.SchemaVersion,
				DecisionID:    decisionID,
				EntityID:      entityID,
				Kind:          analysis.CitationPeer,
				Name:          peerName(text, i, m),
				Excerpt:       excerpt(text, s.start, s.end, contextBefore, contextAfter),
				Start:         s.start,
				End:           s.end,
				Confidence:    confidencePeer,
			})
		}
	}

	for _, re := range authorPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			author := strings.TrimSpace(text[m[2]:m[3]])
			if authorStopWords[strings.ToLower(author)] {
				continue
			}
			if utf8.RuneCountInString(author) < minAuthorLen {
				continue
			}
			s := span{m[0], m[1]}
			if !take(s) {
				continue
			}
			records = append(records, analysis.CitationRecord{
				SchemaVersion: analysis.SchemaVersion,
				DecisionID:    decisionID,
				EntityID:      entityID,
				Kind:          analysis.CitationDoctrine,
				Name:          author,
				Excerpt:       excerpt(text, s.start, s.end, authorContextBefore, authorContextAfter),
				Start:         s.start,
				End:           s.end,
				Confidence:    confidenceDoctrine,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Start != records[j].Start {
			return records[i].Start < records[j].Start
		}
		return records[i].Kind < records[j].Kind
	})
	return records
}

// peerName builds the normalized destination name for a peer-pattern
// match from its capture groups.
func peerName(text string, pattern int, m []int) string {
	group := func(i int) string {
		lo, hi := m[2*i], m[2*i+1]
		if lo < 0 {
			return ""
		}
		return strings.TrimSpace(text[lo:hi])
	}

	switch pattern {
	case 0:
		return fmt.Sprintf("Cámara %s, Sala %s", group(1), group(2))
	case 1:
		return fmt.Sprintf("%s, Sala %s", group(1), group(2))
	default:
		return fmt.Sprintf("Sala %s", group(1))
	}
}

// excerpt returns the matched text with a bounded context window, edges
// adjusted onto rune boundaries.
func excerpt(text string, start, end, before, after int) string {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	hi := end + after
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}
