package pipeline

import (
	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/predict"
)

// CaveatKind classifies a non-fatal condition a run result carries.
type CaveatKind string

const (
	// CaveatInsufficientData marks an aggregate that was skipped because
	// the entity had fewer samples than configured.
	CaveatInsufficientData CaveatKind = "insufficient_data"
	// CaveatTrivialModel marks a model trained on a single-class set.
	CaveatTrivialModel CaveatKind = "trivial_model"
)

// Caveat is a condition the caller must surface alongside a result.
type Caveat struct {
	Kind     CaveatKind `json:"kind"`
	EntityID string     `json:"entity_id,omitempty"`
	Message  string     `json:"message"`
}

// DocumentFailure records one document's extraction error in a batch.
type DocumentFailure struct {
	DecisionID string `json:"decision_id"`
	EntityID   string `json:"entity_id"`
	Err        error  `json:"-"`
	Message    string `json:"message"`
}

// IngestResult summarizes a document batch run.
type IngestResult struct {
	Processed int               `json:"processed"`
	Citations int               `json:"citations"`
	Failed    []DocumentFailure `json:"failed,omitempty"`
}

// EntityResult is the outcome of one entity's aggregate recomputation.
type EntityResult struct {
	EntityID string                         `json:"entity_id"`
	Profile  *analysis.EntityProfile        `json:"profile,omitempty"`
	Lines    []analysis.JurisprudentialLine `json:"lines"`
	Edges    []analysis.InfluenceEdge       `json:"edges"`
	Caveats  []Caveat                       `json:"caveats,omitempty"`
}

// TrainResult is the outcome of one entity's training run.
type TrainResult struct {
	EntityID string         `json:"entity_id"`
	Model    *predict.Model `json:"model"`
	Caveats  []Caveat       `json:"caveats,omitempty"`
}

// EntityFailure records one entity's error in a batch run.
type EntityFailure struct {
	EntityID string `json:"entity_id"`
	Err      error  `json:"-"`
	Message  string `json:"message"`
}

// BatchResult aggregates per-entity outcomes of a batch operation.
// Failed entities never abort the batch.
type BatchResult struct {
	Succeeded []string        `json:"succeeded"`
	Failed    []EntityFailure `json:"failed,omitempty"`
	Caveats   []Caveat        `json:"caveats,omitempty"`
}
