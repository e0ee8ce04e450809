package analysis

import "fmt"

// EmptyInputError reports that a decision text was empty or
// whitespace-only. It is fatal for the affected document and never
// retried.
type EmptyInputError struct {
	DecisionID string
}

func (e *EmptyInputError) Error() string {
	if e.DecisionID == "" {
		return "empty decision text"
	}
	return fmt.Sprintf("empty decision text for decision %q", e.DecisionID)
}

// InsufficientDataError reports that an operation was invoked with fewer
// samples than its configured minimum. Callers should defer and retry
// after more data arrives; the pipeline never proceeds silently with
// fewer samples than configured.
type InsufficientDataError struct {
	EntityID string
	// Unit names what was counted, e.g. "decisions" or "labeled decisions".
	Unit string
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for entity %q: have %d %s, need %d",
		e.EntityID, e.Have, e.Unit, e.Need)
}

// FeatureMismatchError reports that a prediction input cannot be
// represented under the trained model's feature schema. It is surfaced to
// the caller instead of being silently zeroed, which would produce a
// misleadingly confident prediction.
type FeatureMismatchError struct {
	Feature string
	Value   string
}

func (e *FeatureMismatchError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("feature %q is not part of the model schema", e.Feature)
	}
	return fmt.Sprintf("categorical value %q for feature %q was never seen in training", e.Value, e.Feature)
}
