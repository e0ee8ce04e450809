// Package analysis defines the typed records exchanged between the
// pipeline components and the storage layer: per-decision factor records,
// citation records, aggregated entity profiles, jurisprudential lines,
// influence edges, and predictive-model metadata.
//
// Records are immutable once produced. Re-extraction of a decision creates
// a new record version instead of mutating the stored one, so the full
// extraction history stays traceable.
package analysis

import "time"

// SchemaVersion is stamped on every record so consumers can detect
// incompatible persisted data instead of misreading it.
const SchemaVersion = 1

// DecisionFactorRecord holds the factor scores extracted from a single
// judicial decision. Every factor declared in the catalog is present:
// numeric factors default to their declared neutral value and categorical
// factors to their declared default category when the text carries no
// signal for them.
type DecisionFactorRecord struct {
	SchemaVersion int    `json:"schema_version"`
	DecisionID    string `json:"decision_id"`
	EntityID      string `json:"entity_id"`
	Topic         string `json:"topic"`

	// Numeric maps factor name to its normalized score, bounded to the
	// range the catalog declares for that factor.
	Numeric map[string]float64 `json:"numeric"`
	// Categorical maps factor name to the detected category.
	Categorical map[string]string `json:"categorical"`

	// Outcome is the categorical outcome label, empty when unknown.
	Outcome   string    `json:"outcome,omitempty"`
	DecidedAt time.Time `json:"decided_at,omitempty"`

	WordCount      int     `json:"word_count"`
	Confidence     float64 `json:"confidence"`
	CatalogVersion string  `json:"catalog_version"`

	// Version identifies this extraction. A re-extraction of the same
	// decision gets a fresh version; stores keep the history.
	Version     string    `json:"version"`
	ExtractedAt time.Time `json:"extracted_at"`

	// Extensions carries free-form annotations from collaborators. It is
	// never used by the pipeline itself.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// CitationKind classifies the destination of a citation.
type CitationKind string

const (
	// CitationSuperior is a citation to a superior court.
	CitationSuperior CitationKind = "superior"
	// CitationPeer is a citation to a peer chamber or tribunal.
	CitationPeer CitationKind = "peer"
	// CitationDoctrine is a citation to a doctrinal author.
	CitationDoctrine CitationKind = "doctrine"
)

// CitationRecord is a single citation found in a decision text.
type CitationRecord struct {
	SchemaVersion int          `json:"schema_version"`
	DecisionID    string       `json:"decision_id"`
	EntityID      string       `json:"entity_id"`
	Kind          CitationKind `json:"kind"`

	// Name is the best-effort normalized destination name.
	Name string `json:"name"`
	// Excerpt is the verbatim matched text with bounded context.
	Excerpt string `json:"excerpt"`

	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// FactorStat is the aggregate of one numeric factor across an entity's
// decisions. Count is the number of records that contributed to the mean;
// for sparse factors neutral defaults are excluded, so Count can be lower
// than the entity's decision count.
type FactorStat struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// EntityProfile is the derived statistical profile of one adjudicating
// entity. Profiles are recomputed wholesale from the entity's complete
// record set and never patched incrementally.
type EntityProfile struct {
	SchemaVersion int    `json:"schema_version"`
	EntityID      string `json:"entity_id"`
	Decisions     int    `json:"decisions"`

	Numeric     map[string]FactorStat `json:"numeric"`
	Categorical map[string]string     `json:"categorical"`

	// RecurrentTopics lists the entity's topics ordered by decision
	// count, bounded.
	RecurrentTopics []string `json:"recurrent_topics,omitempty"`

	// Confidence grows monotonically with the number of contributing
	// decisions and saturates at 1.
	Confidence float64 `json:"confidence"`

	CatalogVersion string            `json:"catalog_version"`
	ComputedAt     time.Time         `json:"computed_at"`
	Extensions     map[string]string `json:"extensions,omitempty"`
}

// JurisprudentialLine is a consistency-scored decision criterion for one
// entity on one topic.
type JurisprudentialLine struct {
	SchemaVersion int    `json:"schema_version"`
	EntityID      string `json:"entity_id"`
	Topic         string `json:"topic"`

	// Members holds the decision IDs in the line. Exceptions is the
	// subset inconsistent with the dominant criterion; the two sets
	// always satisfy |exceptions| + |consistent| = |members|.
	Members    []string `json:"members"`
	Exceptions []string `json:"exceptions"`
	// Paradigmatic is a bounded subset closest to the line's centroid.
	Paradigmatic []string `json:"paradigmatic"`

	DominantOutcome        string `json:"dominant_outcome"`
	DominantInterpretation string `json:"dominant_interpretation"`
	// Criterion is a human-readable description of the dominant
	// combination, for report consumers.
	Criterion string `json:"criterion"`

	Consistency float64 `json:"consistency"`
	Confidence  float64 `json:"confidence"`

	FirstDecision time.Time `json:"first_decision,omitempty"`
	LastDecision  time.Time `json:"last_decision,omitempty"`
	ComputedAt    time.Time `json:"computed_at"`
}

// RelationKind types an influence edge by its destination.
type RelationKind string

const (
	// RelationPeer is influence from citing a peer tribunal.
	RelationPeer RelationKind = "peer"
	// RelationSuperior is influence from citing a superior court.
	RelationSuperior RelationKind = "superior"
	// RelationDoctrine is influence from citing a doctrinal author.
	RelationDoctrine RelationKind = "doctrine"
	// RelationSelf marks an entity citing itself. Self edges never merge
	// with peer edges and are excluded from intensity normalization.
	RelationSelf RelationKind = "self"
)

// InfluenceEdge is a weighted directed relation from an origin entity to a
// cited destination.
type InfluenceEdge struct {
	SchemaVersion int          `json:"schema_version"`
	OriginID      string       `json:"origin_id"`
	Destination   string       `json:"destination"`
	Kind          RelationKind `json:"kind"`

	Citations int `json:"citations"`
	// Intensity is normalized against the origin's most-cited non-self
	// destination, so it is 1.0 for that destination and proportionally
	// lower for the rest.
	Intensity float64 `json:"intensity"`

	ComputedAt time.Time `json:"computed_at"`
}

// FeatureImportance is one entry of a model's ranked importance list.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// ModelInfo is the metadata persisted alongside a trained classifier. It
// is sufficient for a report consumer to describe the model without
// re-running training.
type ModelInfo struct {
	SchemaVersion int    `json:"schema_version"`
	EntityID      string `json:"entity_id"`
	// Materia optionally narrows the model to one subject matter.
	Materia string `json:"materia,omitempty"`
	// Version increases monotonically; retraining supersedes, never
	// updates in place.
	Version int `json:"version"`

	// FeatureNames is the ordered feature vector the classifier expects.
	// It is always persisted together with the model object.
	FeatureNames []string `json:"feature_names"`
	Classes      []string `json:"classes"`

	Accuracy       float64 `json:"accuracy"`
	CrossValidated bool    `json:"cross_validated"`
	SampleCount    int     `json:"sample_count"`

	// Trivial marks a degenerate model trained on a single-class set. A
	// trivial model always predicts TrivialClass with probability 1 and
	// must be distinguishable from a statistical model downstream.
	Trivial      bool   `json:"trivial"`
	TrivialClass string `json:"trivial_class,omitempty"`

	Importances []FeatureImportance `json:"importances,omitempty"`
	TrainedAt   time.Time           `json:"trained_at"`
}
