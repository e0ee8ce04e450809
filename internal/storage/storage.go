// Package storage defines the repository interfaces shared by the
// pipeline components, an in-memory implementation used by tests, and
// bounded retry helpers for transient failures. A PostgreSQL
// implementation lives in the postgres subpackage.
package storage

import (
	"context"
	"errors"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("not found")

// RecordStore persists extraction output. Factor records are immutable;
// re-extraction appends a new version and reads return the latest
// version per decision.
type RecordStore interface {
	// PutFactorRecord appends one record version.
	PutFactorRecord(ctx context.Context, rec *analysis.DecisionFactorRecord) error
	// LatestFactorRecords returns the latest record version of every
	// decision attributed to the entity.
	LatestFactorRecords(ctx context.Context, entityID string) ([]analysis.DecisionFactorRecord, error)
	// FactorRecordVersions returns the full version history for one
	// decision, oldest first.
	FactorRecordVersions(ctx context.Context, decisionID string) ([]analysis.DecisionFactorRecord, error)

	// ReplaceCitations replaces the decision's citation set.
	ReplaceCitations(ctx context.Context, decisionID, entityID string, recs []analysis.CitationRecord) error
	// CitationsByEntity returns all citations across the entity's
	// decisions.
	CitationsByEntity(ctx context.Context, entityID string) ([]analysis.CitationRecord, error)

	// Entities lists every entity with at least one factor record,
	// sorted.
	Entities(ctx context.Context) ([]string, error)
}

// ProfileStore persists derived entity profiles (wholesale replace).
type ProfileStore interface {
	PutProfile(ctx context.Context, p *analysis.EntityProfile) error
	Profile(ctx context.Context, entityID string) (*analysis.EntityProfile, error)
}

// LineStore persists derived jurisprudential lines (wholesale replace
// per entity).
type LineStore interface {
	ReplaceLines(ctx context.Context, entityID string, lines []analysis.JurisprudentialLine) error
	Lines(ctx context.Context, entityID string) ([]analysis.JurisprudentialLine, error)
}

// EdgeStore persists influence edges (wholesale replace per origin).
type EdgeStore interface {
	ReplaceEdges(ctx context.Context, originID string, edges []analysis.InfluenceEdge) error
	Edges(ctx context.Context, originID string) ([]analysis.InfluenceEdge, error)
}

// Store is the full persistence surface injected into the pipeline.
type Store interface {
	RecordStore
	ProfileStore
	LineStore
	EdgeStore
}
