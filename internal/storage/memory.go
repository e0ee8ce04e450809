package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

// MemoryStore is a thread-safe in-memory Store. It backs tests and small
// single-process runs; all inputs and outputs are deep-copied so callers
// can never mutate stored state through shared maps.
type MemoryStore struct {
	mu sync.RWMutex

	// records holds the append-only version history per decision.
	records map[string][]analysis.DecisionFactorRecord
	// decisionsByEntity maps entity -> ordered decision IDs.
	decisionsByEntity map[string][]string

	citations        map[string][]analysis.CitationRecord
	citationEntities map[string][]string

	profiles map[string]*analysis.EntityProfile
	lines    map[string][]analysis.JurisprudentialLine
	edges    map[string][]analysis.InfluenceEdge
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:           make(map[string][]analysis.DecisionFactorRecord),
		decisionsByEntity: make(map[string][]string),
		citations:         make(map[string][]analysis.CitationRecord),
		citationEntities:  make(map[string][]string),
		profiles:          make(map[string]*analysis.EntityProfile),
		lines:             make(map[string][]analysis.JurisprudentialLine),
		edges:             make(map[string][]analysis.InfluenceEdge),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) PutFactorRecord(ctx context.Context, rec *analysis.DecisionFactorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.DecisionID == "" || rec.EntityID == "" {
		return fmt.Errorf("factor record requires decision and entity identifiers")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records[rec.DecisionID]) == 0 {
		s.decisionsByEntity[rec.EntityID] = append(s.decisionsByEntity[rec.EntityID], rec.DecisionID)
	}
	s.records[rec.DecisionID] = append(s.records[rec.DecisionID], cloneRecord(rec))
	return nil
}

func (s *MemoryStore) LatestFactorRecords(ctx context.Context, entityID string) ([]analysis.DecisionFactorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.decisionsByEntity[entityID]
	out := make([]analysis.DecisionFactorRecord, 0, len(ids))
	for _, id := range ids {
		versions := s.records[id]
		if len(versions) == 0 {
			continue
		}
		out = append(out, cloneRecord(&versions[len(versions)-1]))
	}
	return out, nil
}

func (s *MemoryStore) FactorRecordVersions(ctx context.Context, decisionID string) ([]analysis.DecisionFactorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.records[decisionID]
	if len(versions) == 0 {
		return nil, fmt.Errorf("decision %q: %w", decisionID, ErrNotFound)
	}
	out := make([]analysis.DecisionFactorRecord, 0, len(versions))
	for i := range versions {
		out = append(out, cloneRecord(&versions[i]))
	}
	return out, nil
}

func (s *MemoryStore) ReplaceCitations(ctx context.Context, decisionID, entityID string, recs []analysis.CitationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.citations[decisionID]; !seen {
		s.citationEntities[entityID] = append(s.citationEntities[entityID], decisionID)
	}
	s.citations[decisionID] = append([]analysis.CitationRecord(nil), recs...)
	return nil
}

func (s *MemoryStore) CitationsByEntity(ctx context.Context, entityID string) ([]analysis.CitationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []analysis.CitationRecord
	for _, id := range s.citationEntities[entityID] {
		out = append(out, s.citations[id]...)
	}
	return out, nil
}

func (s *MemoryStore) Entities(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.decisionsByEntity))
	for e := range s.decisionsByEntity {
		out = append(out, e)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) PutProfile(ctx context.Context, p *analysis.EntityProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneProfile(p)
	s.profiles[p.EntityID] = &cp
	return nil
}

func (s *MemoryStore) Profile(ctx context.Context, entityID string) (*analysis.EntityProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[entityID]
	if !ok {
		return nil, fmt.Errorf("profile for entity %q: %w", entityID, ErrNotFound)
	}
	cp := cloneProfile(p)
	return &cp, nil
}

func (s *MemoryStore) ReplaceLines(ctx context.Context, entityID string, lines []analysis.JurisprudentialLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[entityID] = append([]analysis.JurisprudentialLine(nil), lines...)
	return nil
}

func (s *MemoryStore) Lines(ctx context.Context, entityID string) ([]analysis.JurisprudentialLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]analysis.JurisprudentialLine(nil), s.lines[entityID]...), nil
}

func (s *MemoryStore) ReplaceEdges(ctx context.Context, originID string, edges []analysis.InfluenceEdge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[originID] = append([]analysis.InfluenceEdge(nil), edges...)
	return nil
}

func (s *MemoryStore) Edges(ctx context.Context, originID string) ([]analysis.InfluenceEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]analysis.InfluenceEdge(nil), s.edges[originID]...), nil
}

func cloneRecord(r *analysis.DecisionFactorRecord) analysis.DecisionFactorRecord {
	cp := *r
	cp.Numeric = cloneFloatMap(r.Numeric)
	cp.Categorical = cloneStringMap(r.Categorical)
	cp.Extensions = cloneStringMap(r.Extensions)
	return cp
}

func cloneProfile(p *analysis.EntityProfile) analysis.EntityProfile {
	cp := *p
	if p.Numeric != nil {
		cp.Numeric = make(map[string]analysis.FactorStat, len(p.Numeric))
		for k, v := range p.Numeric {
			cp.Numeric[k] = v
		}
	}
	cp.Categorical = cloneStringMap(p.Categorical)
	cp.RecurrentTopics = append([]string(nil), p.RecurrentTopics...)
	cp.Extensions = cloneStringMap(p.Extensions)
	return cp
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
