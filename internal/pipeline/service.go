// Package pipeline orchestrates the analysis components over a store:
// document ingestion, per-entity aggregate recomputation, model training,
// and the batch variants across all known entities.
//
// Batch operations isolate failures per unit of work: one bad document or
// entity never aborts the rest of the run. Conditions a caller must know
// about but that are not failures (too little data for a profile, a
// single-class training set) are reported as caveats on the run result.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/catalog"
	"github.com/fallaxis/jurimetrics/internal/citations"
	"github.com/fallaxis/jurimetrics/internal/factors"
	"github.com/fallaxis/jurimetrics/internal/influence"
	"github.com/fallaxis/jurimetrics/internal/lines"
	"github.com/fallaxis/jurimetrics/internal/predict"
	"github.com/fallaxis/jurimetrics/internal/profile"
	"github.com/fallaxis/jurimetrics/internal/storage"
)

const tracerName = "jurimetrics/pipeline"

// DefaultWorkers bounds concurrent units of work in batch operations.
const DefaultWorkers = 4

// Options configures a Service. Zero values fall back to the component
// defaults.
type Options struct {
	// MinDecisionsProfile, MinDecisionsLine and MinDecisionsModel are the
	// minimum sample counts for profiles, lines and models.
	MinDecisionsProfile int
	MinDecisionsLine    int
	MinDecisionsModel   int

	SplitRatio        float64
	DistanceThreshold float64
	SaturationK       int
	MinWords          int
	Seed              int64

	// Workers bounds batch parallelism.
	Workers int

	RetryAttempts int
	RetryBackoff  time.Duration

	// SelfNames lists aliases under which entities cite themselves, in
	// addition to their entity ID.
	SelfNames map[string][]string

	Now func() time.Time
}

// Service wires the extraction, aggregation and prediction components
// over a store. All methods are safe for concurrent use; wholesale
// recomputes of the same entity are serialized internally.
type Service struct {
	store     storage.Store
	registry  *predict.Registry
	citations *citations.Extractor
	influence *influence.Builder

	opts   Options
	logger *zap.Logger
	tracer trace.Tracer

	// compMu guards comp so ReloadCatalog can swap the catalog-derived
	// components atomically under running operations.
	compMu sync.RWMutex
	comp   *components

	mu          sync.Mutex
	entityLocks map[string]*sync.Mutex
}

// components holds everything compiled from one catalog version. The set
// is immutable once built; a catalog reload builds a fresh set.
type components struct {
	extractor *factors.Extractor
	profiles  *profile.Aggregator
	lines     *lines.Analyzer
	trainer   *predict.Trainer
}

func buildComponents(cat *catalog.Catalog, opts Options, logger *zap.Logger) (*components, error) {
	extractor, err := factors.New(cat, factors.Options{MinWords: opts.MinWords, Now: opts.Now}, logger)
	if err != nil {
		return nil, fmt.Errorf("build factor extractor: %w", err)
	}
	return &components{
		extractor: extractor,
		profiles: profile.New(cat, profile.Options{
			MinDecisions: opts.MinDecisionsProfile,
			SaturationK:  opts.SaturationK,
			Now:          opts.Now,
		}, logger),
		lines: lines.New(cat, lines.Options{
			MinDecisions:      opts.MinDecisionsLine,
			DistanceThreshold: opts.DistanceThreshold,
			SaturationK:       opts.SaturationK,
			Now:               opts.Now,
		}, logger),
		trainer: predict.NewTrainer(cat, predict.TrainerOptions{
			MinSamples: opts.MinDecisionsModel,
			SplitRatio: opts.SplitRatio,
			Seed:       opts.Seed,
			Now:        opts.Now,
		}, logger),
	}, nil
}

// New builds a Service from a validated catalog.
func New(cat *catalog.Catalog, store storage.Store, registry *predict.Registry, opts Options, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = storage.DefaultRetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = storage.DefaultRetryBackoff
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	comp, err := buildComponents(cat, opts, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:       store,
		registry:    registry,
		citations:   citations.New(logger),
		influence:   influence.New(influence.Options{Now: opts.Now}, logger),
		opts:        opts,
		logger:      logger.Named("pipeline"),
		tracer:      otel.Tracer(tracerName),
		comp:        comp,
		entityLocks: make(map[string]*sync.Mutex),
	}, nil
}

// ReloadCatalog recompiles the catalog-derived components and swaps them
// in. Operations already running finish under the components they picked
// up; new operations see the reloaded catalog. A catalog that fails to
// compile leaves the current components in effect.
func (s *Service) ReloadCatalog(cat *catalog.Catalog) error {
	comp, err := buildComponents(cat, s.opts, s.logger)
	if err != nil {
		return fmt.Errorf("reload catalog %q: %w", cat.Version, err)
	}

	s.compMu.Lock()
	s.comp = comp
	s.compMu.Unlock()

	s.logger.Info("catalog reloaded", zap.String("version", cat.Version))
	return nil
}

// components returns the component set currently in effect.
func (s *Service) components() *components {
	s.compMu.RLock()
	defer s.compMu.RUnlock()
	return s.comp
}

// entityLock returns the mutex serializing wholesale recomputes for one
// entity. Locks are never removed; the entity set is small and stable.
func (s *Service) entityLock(entityID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.entityLocks[entityID]
	if !ok {
		l = &sync.Mutex{}
		s.entityLocks[entityID] = l
	}
	return l
}

// retry applies the service's transient-failure policy to a store call.
func (s *Service) retry(ctx context.Context, fn func(context.Context) error) error {
	return storage.Retry(ctx, s.logger, s.opts.RetryAttempts, s.opts.RetryBackoff, fn)
}
