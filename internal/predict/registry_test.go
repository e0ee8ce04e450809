package predict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainTestModel(t *testing.T) (*Trainer, *Model) {
	t.Helper()
	tr := newTestTrainer(numericCatalog(), TrainerOptions{})
	m, err := tr.Train("juez garcía", "laboral", separableRecords(5))
	require.NoError(t, err)
	return tr, m
}

func TestRegistrySaveAssignsVersions(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	_, m := trainTestModel(t)

	v1, err := reg.Save(m)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Info.Version)

	v2, err := reg.Save(m)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Info.Version)

	versions, err := reg.Versions("juez garcía", "laboral")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, versions)
}

func TestRegistryLatestAndLoad(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	tr, m := trainTestModel(t)
	saved1, err := reg.Save(m)
	require.NoError(t, err)
	_, err = reg.Save(m)
	require.NoError(t, err)

	latest, err := reg.Latest("juez garcía", "laboral")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Info.Version)
	assert.Equal(t, m.Info.Classes, latest.Info.Classes)
	assert.Equal(t, m.Info.FeatureNames, latest.Info.FeatureNames)

	// A reloaded artifact predicts identically to the in-memory model.
	p1, err := m.Predict(tr.Vectorizer(), map[string]float64{"rights": 0.9}, nil)
	require.NoError(t, err)
	p2, err := latest.Predict(tr.Vectorizer(), map[string]float64{"rights": 0.9}, nil)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	loaded, err := reg.Load("juez garcía", "laboral", saved1.Info.Version)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Info.Version)
}

func TestRegistryNotFound(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = reg.Latest("nobody", "")
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = reg.Load("nobody", "", 1)
	assert.ErrorIs(t, err, ErrModelNotFound)

	versions, err := reg.Versions("nobody", "")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestRegistryKeysSeparateMateria(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	_, m := trainTestModel(t)
	all := *m
	all.Info.Materia = ""

	_, err = reg.Save(m)
	require.NoError(t, err)
	_, err = reg.Save(&all)
	require.NoError(t, err)

	byMateria, err := reg.Latest("juez garcía", "laboral")
	require.NoError(t, err)
	assert.Equal(t, "laboral", byMateria.Info.Materia)

	general, err := reg.Latest("juez garcía", "")
	require.NoError(t, err)
	assert.Empty(t, general.Info.Materia)
	assert.Equal(t, 1, general.Info.Version)
}

func TestRegistryTrivialModelRoundTrip(t *testing.T) {
	reg, err := NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	tr := newTestTrainer(numericCatalog(), TrainerOptions{})
	var recs = separableRecords(5)
	for i := range recs {
		recs[i].Outcome = "accept"
	}
	m, err := tr.Train("j1", "", recs)
	require.NoError(t, err)
	require.True(t, m.Info.Trivial)

	_, err = reg.Save(m)
	require.NoError(t, err)

	loaded, err := reg.Latest("j1", "")
	require.NoError(t, err)
	assert.True(t, loaded.Info.Trivial)
	assert.Equal(t, "accept", loaded.Info.TrivialClass)

	p, err := loaded.Predict(tr.Vectorizer(), nil, nil)
	require.NoError(t, err)
	assert.True(t, p.Trivial)
	assert.Equal(t, 1.0, p.Confidence)
}

func TestRegistryCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	reg, err := NewRegistry(dir, nil)
	require.NoError(t, err)

	key := modelKey("j1", "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, key), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, key, "v1.json"), []byte("{broken"), 0o644))

	_, err = reg.Latest("j1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}
