package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/catalog"
	"github.com/fallaxis/jurimetrics/internal/predict"
	"github.com/fallaxis/jurimetrics/internal/storage"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Version: "p-1",
		Factors: []catalog.Factor{
			{
				Name: "rights", Kind: catalog.KindNumeric, Method: catalog.MethodDensity,
				Min: 0, Max: 1, Neutral: 0,
				Groups: []catalog.PatternGroup{{Name: "g", Patterns: []string{`\bderechos\b`}}},
			},
		},
	}
}

func newTestService(t *testing.T, store storage.Store) *Service {
	t.Helper()

	registry, err := predict.NewRegistry(t.TempDir(), nil)
	require.NoError(t, err)

	svc, err := New(testCatalog(), store, registry, Options{
		MinDecisionsProfile: 2,
		MinDecisionsLine:    2,
		MinDecisionsModel:   4,
		Workers:             2,
		Now: func() time.Time {
			return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		},
	}, nil)
	require.NoError(t, err)
	return svc
}

func decisionText(citing bool) string {
	var b strings.Builder
	b.WriteString("El tribunal considera que los derechos del trabajador prevalecen. ")
	if citing {
		b.WriteString("Conforme la doctrina de la CSJN en la materia. ")
	}
	for i := 0; i < 40; i++ {
		b.WriteString("fundamento adicional del fallo. ")
	}
	return b.String()
}

func testDoc(id string, citing bool) Document {
	return Document{
		DecisionID: id,
		EntityID:   "j1",
		Topic:      "laboral",
		Outcome:    "accept",
		DecidedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Text:       decisionText(citing),
	}
}

func TestExtractDocumentPersistsRecordAndCitations(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	rec, cites, err := svc.ExtractDocument(ctx, testDoc("d1", true))
	require.NoError(t, err)
	assert.Greater(t, rec.Numeric["rights"], 0.0)
	require.NotEmpty(t, cites)
	assert.Equal(t, analysis.CitationSuperior, cites[0].Kind)

	stored, err := store.FactorRecordVersions(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rec.Version, stored[0].Version)

	storedCites, err := store.CitationsByEntity(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, storedCites, len(cites))
}

func TestExtractDocumentEmptyText(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStore())

	doc := testDoc("d1", false)
	doc.Text = "   \n\t "
	_, _, err := svc.ExtractDocument(context.Background(), doc)
	var empty *analysis.EmptyInputError
	assert.ErrorAs(t, err, &empty)
}

func TestIngestDocumentsIsolatesFailures(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)

	bad := testDoc("d-bad", false)
	bad.Text = ""
	docs := []Document{testDoc("d1", true), bad, testDoc("d2", false)}

	result, err := svc.IngestDocuments(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "d-bad", result.Failed[0].DecisionID)

	latest, err := store.LatestFactorRecords(context.Background(), "j1")
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestIngestDocumentsCancelled(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.IngestDocuments(ctx, []Document{testDoc("d1", false)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecomputeEntityBuildsAggregates(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.IngestDocuments(ctx, []Document{
		testDoc("d1", true), testDoc("d2", true), testDoc("d3", false),
	})
	require.NoError(t, err)

	result, err := svc.RecomputeEntity(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	assert.Equal(t, 3, result.Profile.Decisions)
	assert.Empty(t, result.Caveats)

	require.Len(t, result.Lines, 1)
	assert.Equal(t, "laboral", result.Lines[0].Topic)
	assert.Equal(t, "accept", result.Lines[0].DominantOutcome)

	require.NotEmpty(t, result.Edges)
	assert.Equal(t, analysis.RelationSuperior, result.Edges[0].Kind)

	stored, err := store.Profile(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, result.Profile.Decisions, stored.Decisions)

	lines, err := store.Lines(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	edges, err := store.Edges(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, edges, len(result.Edges))
}

func TestRecomputeEntityInsufficientProfile(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.IngestDocuments(ctx, []Document{testDoc("d1", false)})
	require.NoError(t, err)

	result, err := svc.RecomputeEntity(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, result.Profile)
	require.Len(t, result.Caveats, 1)
	assert.Equal(t, CaveatInsufficientData, result.Caveats[0].Kind)

	_, err = store.Profile(ctx, "j1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// putLabeled seeds controlled factor records directly, bypassing text
// extraction, so training sees a cleanly separable feature.
func putLabeled(t *testing.T, store storage.Store, entityID string, nPerClass int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < nPerClass; i++ {
		for _, c := range []struct {
			outcome string
			rights  float64
		}{
			{"accept", 0.85 + 0.01*float64(i)},
			{"reject", 0.05 + 0.01*float64(i)},
		} {
			require.NoError(t, store.PutFactorRecord(ctx, &analysis.DecisionFactorRecord{
				DecisionID:  fmt.Sprintf("%s-%s-%d", entityID, c.outcome, i),
				EntityID:    entityID,
				Topic:       "laboral",
				Outcome:     c.outcome,
				Version:     "v1",
				Numeric:     map[string]float64{"rights": c.rights},
				Categorical: map[string]string{},
			}))
		}
	}
}

func TestTrainEntityAndPredict(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	putLabeled(t, store, "j1", 4)

	result, err := svc.TrainEntity(ctx, "j1", "")
	require.NoError(t, err)
	assert.Empty(t, result.Caveats)
	assert.Equal(t, 1, result.Model.Info.Version)
	assert.Equal(t, 8, result.Model.Info.SampleCount)
	assert.False(t, result.Model.Info.Trivial)

	pred, err := svc.Predict(ctx, "j1", "", map[string]float64{"rights": 0.9}, nil)
	require.NoError(t, err)
	assert.Equal(t, "accept", pred.Class)

	// Retraining supersedes with a new version.
	again, err := svc.TrainEntity(ctx, "j1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Model.Info.Version)
}

func TestTrainEntityTrivialCaveat(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.PutFactorRecord(ctx, &analysis.DecisionFactorRecord{
			DecisionID:  fmt.Sprintf("d%d", i),
			EntityID:    "j1",
			Topic:       "laboral",
			Outcome:     "accept",
			Version:     "v1",
			Numeric:     map[string]float64{"rights": 0.5},
			Categorical: map[string]string{},
		}))
	}

	result, err := svc.TrainEntity(ctx, "j1", "")
	require.NoError(t, err)
	require.Len(t, result.Caveats, 1)
	assert.Equal(t, CaveatTrivialModel, result.Caveats[0].Kind)
	assert.True(t, result.Model.Info.Trivial)

	pred, err := svc.Predict(ctx, "j1", "", map[string]float64{"rights": 0.1}, nil)
	require.NoError(t, err)
	assert.Equal(t, "accept", pred.Class)
	assert.True(t, pred.Trivial)
}

func TestTrainEntityInsufficientData(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)

	putLabeled(t, store, "j1", 1)
	_, err := svc.TrainEntity(context.Background(), "j1", "")
	var insuf *analysis.InsufficientDataError
	assert.ErrorAs(t, err, &insuf)
}

func TestTrainAllIsolatesEntityFailures(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)

	putLabeled(t, store, "j1", 4)
	putLabeled(t, store, "j2", 1)

	result, err := svc.TrainAll(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "j2", result.Failed[0].EntityID)
}

func TestRecomputeAll(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	docs := []Document{testDoc("d1", true), testDoc("d2", false)}
	other := testDoc("e1", false)
	other.EntityID = "j2"
	docs = append(docs, other)

	_, err := svc.IngestDocuments(ctx, docs)
	require.NoError(t, err)

	result, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"j1", "j2"}, result.Succeeded)
	assert.Empty(t, result.Failed)

	// j2 has a single decision: below the profile minimum, caveated.
	require.Len(t, result.Caveats, 1)
	assert.Equal(t, "j2", result.Caveats[0].EntityID)
}

func TestReloadCatalogTakesEffect(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	rec, _, err := svc.ExtractDocument(ctx, testDoc("d1", false))
	require.NoError(t, err)
	assert.Equal(t, "p-1", rec.CatalogVersion)
	assert.NotContains(t, rec.Numeric, "duty")

	next := testCatalog()
	next.Version = "p-2"
	next.Factors = append(next.Factors, catalog.Factor{
		Name: "duty", Kind: catalog.KindNumeric, Method: catalog.MethodDensity,
		Min: 0, Max: 1, Neutral: 0,
		Groups: []catalog.PatternGroup{{Name: "g", Patterns: []string{`\bdeberes\b`}}},
	})
	require.NoError(t, svc.ReloadCatalog(next))

	rec2, _, err := svc.ExtractDocument(ctx, testDoc("d2", false))
	require.NoError(t, err)
	assert.Equal(t, "p-2", rec2.CatalogVersion)
	assert.Contains(t, rec2.Numeric, "duty")
}

func TestReloadCatalogRejectsInvalid(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	bad := testCatalog()
	bad.Version = "p-broken"
	bad.Factors[0].Groups[0].Patterns = []string{"("}
	require.Error(t, svc.ReloadCatalog(bad))

	// The previous catalog stays in effect.
	rec, _, err := svc.ExtractDocument(ctx, testDoc("d1", false))
	require.NoError(t, err)
	assert.Equal(t, "p-1", rec.CatalogVersion)
}

// overlapStore widens the wholesale-replace window and records whether
// two replaces for the same entity ever ran concurrently.
type overlapStore struct {
	*storage.MemoryStore
	mu      sync.Mutex
	active  map[string]int
	overlap bool
}

func (s *overlapStore) ReplaceLines(ctx context.Context, entityID string, lines []analysis.JurisprudentialLine) error {
	s.mu.Lock()
	s.active[entityID]++
	if s.active[entityID] > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.active[entityID]--
	s.mu.Unlock()
	return s.MemoryStore.ReplaceLines(ctx, entityID, lines)
}

func TestRecomputeSameEntitySerialized(t *testing.T) {
	store := &overlapStore{MemoryStore: storage.NewMemoryStore(), active: map[string]int{}}
	svc := newTestService(t, store)
	ctx := context.Background()

	_, err := svc.IngestDocuments(ctx, []Document{testDoc("d1", false), testDoc("d2", false)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecomputeEntity(ctx, "j1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.False(t, store.overlap, "wholesale recomputes of one entity must not overlap")
}

// barrierStore blocks every wholesale replace until released, so the test
// can observe two entities inside the critical section at once.
type barrierStore struct {
	*storage.MemoryStore
	entered chan string
	release chan struct{}
}

func (s *barrierStore) ReplaceLines(ctx context.Context, entityID string, lines []analysis.JurisprudentialLine) error {
	s.entered <- entityID
	<-s.release
	return s.MemoryStore.ReplaceLines(ctx, entityID, lines)
}

func TestRecomputeDifferentEntitiesParallel(t *testing.T) {
	store := &barrierStore{
		MemoryStore: storage.NewMemoryStore(),
		entered:     make(chan string),
		release:     make(chan struct{}),
	}
	svc := newTestService(t, store)
	ctx := context.Background()

	other := testDoc("e1", false)
	other.EntityID = "j2"
	_, err := svc.IngestDocuments(ctx, []Document{testDoc("d1", false), other})
	require.NoError(t, err)

	done := make(chan error, 2)
	for _, id := range []string{"j1", "j2"} {
		id := id
		go func() {
			_, err := svc.RecomputeEntity(ctx, id)
			done <- err
		}()
	}

	// Both recomputes must reach the replace simultaneously: a lock scoped
	// wider than one entity would leave the second goroutine stuck.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-store.entered:
			seen[id] = true
		case <-time.After(5 * time.Second):
			t.Fatal("recomputes for different entities did not proceed in parallel")
		}
	}
	assert.Len(t, seen, 2)

	close(store.release)
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}
