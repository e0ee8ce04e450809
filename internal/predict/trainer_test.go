package predict

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
)

// numericCatalog keeps the feature space to a single informative column
// so the forest's behavior is predictable in tests.
func numericCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "t-1",
		Factors: []catalog.Factor{
			{
				Name: "rights", Kind: catalog.KindNumeric, Method: catalog.MethodDensity,
				Min: 0, Max: 1, Neutral: 0,
				Groups: []catalog.PatternGroup{{Name: "g", Patterns: []string{`\bderechos\b`}}},
			},
		},
	}
}

func newTestTrainer(cat *catalog.Catalog, opts TrainerOptions) *Trainer {
	if opts.Now == nil {
		opts.Now = func() time.Time {
			return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		}
	}
	return NewTrainer(cat, opts, nil)
}

func labeledRec(id, topic, outcome string, rights float64) analysis.DecisionFactorRecord {
	return analysis.DecisionFactorRecord{
		DecisionID:  id,
		EntityID:    "j1",
		Topic:       topic,
		Outcome:     outcome,
		Numeric:     map[string]float64{"rights": rights},
		Categorical: map[string]string{},
	}
}

func separableRecords(nPerClass int) []analysis.DecisionFactorRecord {
	var recs []analysis.DecisionFactorRecord
	for i := 0; i < nPerClass; i++ {
		recs = append(recs, labeledRec(fmt.Sprintf("a%d", i), "laboral", "accept", 0.85+0.01*float64(i)))
		recs = append(recs, labeledRec(fmt.Sprintf("r%d", i), "laboral", "reject", 0.05+0.01*float64(i)))
	}
	return recs
}

func TestTrainInsufficientData(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{MinSamples: 5})

	recs := separableRecords(2)
	_, err := tr.Train("j1", "", recs)
	var insuf *analysis.InsufficientDataError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, "labeled decisions", insuf.Unit)
	assert.Equal(t, 4, insuf.Have)
	assert.Equal(t, 5, insuf.Need)
}

func TestTrainIgnoresUnlabeled(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{MinSamples: 5})

	recs := separableRecords(2)
	for i := 0; i < 10; i++ {
		recs = append(recs, labeledRec(fmt.Sprintf("u%d", i), "laboral", "", 0.5))
	}
	_, err := tr.Train("j1", "", recs)
	var insuf *analysis.InsufficientDataError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, 4, insuf.Have)
}

func TestTrainMateriaFilter(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{MinSamples: 5})

	recs := separableRecords(3)
	for i := range recs {
		if i%2 == 0 {
			recs[i].Topic = "penal"
		}
	}
	_, err := tr.Train("j1", "civil", recs)
	var insuf *analysis.InsufficientDataError
	require.ErrorAs(t, err, &insuf)
	assert.Zero(t, insuf.Have)

	m, err := tr.Train("j1", "", recs)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Info.SampleCount)
}

func TestTrivialModel(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})

	var recs []analysis.DecisionFactorRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, labeledRec(fmt.Sprintf("d%d", i), "laboral", "accept", float64(i)/10))
	}

	m, err := tr.Train("j1", "", recs)
	require.NoError(t, err)
	assert.True(t, m.Info.Trivial)
	assert.Equal(t, "accept", m.Info.TrivialClass)
	assert.Equal(t, []string{"accept"}, m.Info.Classes)
	assert.Equal(t, 10, m.Info.SampleCount)
	assert.Nil(t, m.Forest)
	assert.False(t, m.Info.CrossValidated)

	p, err := m.Predict(tr.Vectorizer(), map[string]float64{"rights": 0.3}, nil)
	require.NoError(t, err)
	assert.True(t, p.Trivial)
	assert.Equal(t, "accept", p.Class)
	assert.Equal(t, 1.0, p.Confidence)
	assert.Equal(t, map[string]float64{"accept": 1.0}, p.Probabilities)
}

func TestTrainSmallSetNotCrossValidated(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})

	m, err := tr.Train("j1", "", separableRecords(3))
	require.NoError(t, err)
	assert.False(t, m.Info.CrossValidated)
	assert.Equal(t, 6, m.Info.SampleCount)
	assert.Equal(t, []string{"accept", "reject"}, m.Info.Classes)
	require.NotNil(t, m.Forest)

	p, err := m.Predict(tr.Vectorizer(), map[string]float64{"rights": 0.95}, nil)
	require.NoError(t, err)
	assert.Equal(t, "accept", p.Class)
	assert.Greater(t, p.Confidence, 0.7)
}

func TestTrainHoldoutSplit(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})

	m, err := tr.Train("j1", "", separableRecords(5))
	require.NoError(t, err)
	assert.True(t, m.Info.CrossValidated)
	assert.GreaterOrEqual(t, m.Info.Accuracy, 0.0)
	assert.LessOrEqual(t, m.Info.Accuracy, 1.0)
}

func TestTrainDeterministic(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})
	recs := separableRecords(5)

	m1, err := tr.Train("j1", "", recs)
	require.NoError(t, err)
	m2, err := tr.Train("j1", "", recs)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestPredictionDistribution(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})

	m, err := tr.Train("j1", "", separableRecords(5))
	require.NoError(t, err)

	for _, rights := range []float64{0.0, 0.3, 0.5, 0.7, 1.0} {
		p, err := m.Predict(tr.Vectorizer(), map[string]float64{"rights": rights}, nil)
		require.NoError(t, err)

		require.Len(t, p.Probabilities, len(m.Info.Classes))
		var sum float64
		for _, c := range m.Info.Classes {
			prob, ok := p.Probabilities[c]
			require.True(t, ok, c)
			assert.GreaterOrEqual(t, prob, 0.0)
			assert.LessOrEqual(t, prob, 1.0)
			sum += prob
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.InDelta(t, p.Confidence, p.Probabilities[p.Class], 1e-9)
	}
}

func TestImportancesRanked(t *testing.T) {
	tr := newTestTrainer(featureCatalog(), TrainerOptions{})

	var recs []analysis.DecisionFactorRecord
	for i := 0; i < 6; i++ {
		outcome := "accept"
		urgency := 0.9
		if i%2 == 0 {
			outcome = "reject"
			urgency = 0.1
		}
		recs = append(recs, analysis.DecisionFactorRecord{
			DecisionID:  fmt.Sprintf("d%d", i),
			Topic:       "laboral",
			Outcome:     outcome,
			Numeric:     map[string]float64{"urgency": urgency, "lean": 0},
			Categorical: map[string]string{"tone": "plain"},
		})
	}

	m, err := tr.Train("j1", "", recs)
	require.NoError(t, err)

	require.Len(t, m.Info.Importances, len(m.Info.FeatureNames))
	var total float64
	for i, imp := range m.Info.Importances {
		if i > 0 {
			assert.LessOrEqual(t, imp.Weight, m.Info.Importances[i-1].Weight)
		}
		total += imp.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	// The only informative column carries the weight.
	assert.Equal(t, "urgency", m.Info.Importances[0].Feature)
}

func TestPredictUnseenCategoricalValue(t *testing.T) {
	tr := newTestTrainer(featureCatalog(), TrainerOptions{})

	var recs []analysis.DecisionFactorRecord
	for i := 0; i < 6; i++ {
		outcome := "accept"
		if i%2 == 0 {
			outcome = "reject"
		}
		recs = append(recs, analysis.DecisionFactorRecord{
			DecisionID:  fmt.Sprintf("d%d", i),
			Topic:       "laboral",
			Outcome:     outcome,
			Numeric:     map[string]float64{"urgency": float64(i) / 6, "lean": 0},
			Categorical: map[string]string{"tone": "plain"},
		})
	}

	m, err := tr.Train("j1", "", recs)
	require.NoError(t, err)

	_, err = m.Predict(tr.Vectorizer(), nil, map[string]string{"tone": "sarcastic"})
	var mismatch *analysis.FeatureMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "tone", mismatch.Feature)
	assert.Equal(t, "sarcastic", mismatch.Value)
}

func TestPredictSchemaMismatch(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})
	m, err := tr.Train("j1", "", separableRecords(3))
	require.NoError(t, err)

	other := NewVectorizer(featureCatalog())
	_, err = m.Predict(other, map[string]float64{"urgency": 0.5}, nil)
	require.Error(t, err)
}

func TestPredictWithoutForestIsCorrupt(t *testing.T) {
	tr := newTestTrainer(numericCatalog(), TrainerOptions{MinSamples: 5})
	m, err := tr.Train("j1", "", separableRecords(3))
	require.NoError(t, err)
	require.NotNil(t, m.Forest)

	// A damaged artifact can be JSON-valid yet carry no forest.
	m.Forest = nil
	_, err = m.Predict(tr.Vectorizer(), map[string]float64{"rights": 0.9}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt model artifact")
}
