package predict

import (
	"fmt"
)

// Prediction is the outcome of applying a model to one hypothetical case.
type Prediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	// Probabilities covers exactly the model's trained class set.
	Probabilities map[string]float64 `json:"probabilities"`
	// Trivial marks a constant prediction from a single-class model; it
	// must be reported as a caveat downstream, never presented as a
	// statistical result.
	Trivial bool `json:"trivial"`
}

// Predict maps a raw factor map onto the model's feature vector and
// returns the predicted class with the full probability distribution.
// The vectorizer must match the layout the model was trained under.
func (m *Model) Predict(v *Vectorizer, numeric map[string]float64, categorical map[string]string) (*Prediction, error) {
	if err := v.matches(m.Info.FeatureNames); err != nil {
		return nil, fmt.Errorf("model %s v%d incompatible with catalog %s: %w",
			m.Info.EntityID, m.Info.Version, v.CatalogVersion(), err)
	}

	if m.Info.Trivial {
		return &Prediction{
			Class:         m.Info.TrivialClass,
			Confidence:    1,
			Probabilities: map[string]float64{m.Info.TrivialClass: 1},
			Trivial:       true,
		}, nil
	}

	// A non-trivial model must carry its forest; a persisted artifact
	// missing one is damaged and must surface, not panic.
	if m.Forest == nil {
		return nil, fmt.Errorf("corrupt model artifact: model %s v%d is not trivial but has no forest",
			m.Info.EntityID, m.Info.Version)
	}

	x, err := v.FromFactorMap(numeric, categorical)
	if err != nil {
		return nil, err
	}

	probs := m.Forest.Predict(x)
	dist := make(map[string]float64, len(m.Info.Classes))
	for i, c := range m.Info.Classes {
		dist[c] = probs[i]
	}
	best := argmax(probs)

	return &Prediction{
		Class:         m.Info.Classes[best],
		Confidence:    probs[best],
		Probabilities: dist,
	}, nil
}
