package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fallaxis/jurimetrics/internal/analysis"
)

// RecomputeEntity rebuilds an entity's profile, jurisprudential lines and
// influence edges from its latest record versions and replaces the stored
// aggregates wholesale. Concurrent recomputes of the same entity are
// serialized.
//
// An entity below the profile minimum is not an error: the profile is
// left untouched and the condition is reported as a caveat, while lines
// and edges are still recomputed from whatever records exist.
func (s *Service) RecomputeEntity(ctx context.Context, entityID string) (*EntityResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.recompute_entity",
		trace.WithAttributes(attribute.String("entity_id", entityID)))
	defer span.End()

	lock := s.entityLock(entityID)
	lock.Lock()
	defer lock.Unlock()

	var recs []analysis.DecisionFactorRecord
	if err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		recs, err = s.store.LatestFactorRecords(ctx, entityID)
		return err
	}); err != nil {
		span.RecordError(err)
		entityRecomputes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load records for entity %q: %w", entityID, err)
	}

	result := EntityResult{EntityID: entityID}
	comp := s.components()

	prof, err := comp.profiles.Aggregate(entityID, recs)
	switch {
	case err == nil:
		if err := s.retry(ctx, func(ctx context.Context) error {
			return s.store.PutProfile(ctx, prof)
		}); err != nil {
			span.RecordError(err)
			entityRecomputes.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("store profile for entity %q: %w", entityID, err)
		}
		result.Profile = prof
	case isInsufficient(err):
		entityRecomputes.WithLabelValues("insufficient_data").Inc()
		result.Caveats = append(result.Caveats, Caveat{
			Kind:     CaveatInsufficientData,
			EntityID: entityID,
			Message:  err.Error(),
		})
	default:
		span.RecordError(err)
		entityRecomputes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("aggregate profile for entity %q: %w", entityID, err)
	}

	result.Lines = comp.lines.Analyze(entityID, recs)
	if err := s.retry(ctx, func(ctx context.Context) error {
		return s.store.ReplaceLines(ctx, entityID, result.Lines)
	}); err != nil {
		span.RecordError(err)
		entityRecomputes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store lines for entity %q: %w", entityID, err)
	}

	var cites []analysis.CitationRecord
	if err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		cites, err = s.store.CitationsByEntity(ctx, entityID)
		return err
	}); err != nil {
		span.RecordError(err)
		entityRecomputes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load citations for entity %q: %w", entityID, err)
	}

	result.Edges = s.influence.Build(entityID, s.opts.SelfNames[entityID], cites)
	if err := s.retry(ctx, func(ctx context.Context) error {
		return s.store.ReplaceEdges(ctx, entityID, result.Edges)
	}); err != nil {
		span.RecordError(err)
		entityRecomputes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store edges for entity %q: %w", entityID, err)
	}

	entityRecomputes.WithLabelValues("success").Inc()
	s.logger.Info("entity recomputed",
		zap.String("entity_id", entityID),
		zap.Int("decisions", len(recs)),
		zap.Int("lines", len(result.Lines)),
		zap.Int("edges", len(result.Edges)),
		zap.Bool("profile", result.Profile != nil))
	return &result, nil
}

// RecomputeAll recomputes every known entity with bounded parallelism and
// per-entity error isolation.
func (s *Service) RecomputeAll(ctx context.Context) (*BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.recompute_all")
	defer span.End()

	return s.forEachEntity(ctx, func(ctx context.Context, entityID string) ([]Caveat, error) {
		res, err := s.RecomputeEntity(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return res.Caveats, nil
	})
}

// forEachEntity runs fn over every entity in the store, collecting
// successes, failures and caveats into one deterministic batch result.
func (s *Service) forEachEntity(ctx context.Context, fn func(context.Context, string) ([]Caveat, error)) (*BatchResult, error) {
	var entities []string
	if err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		entities, err = s.store.Entities(ctx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	var (
		mu     sync.Mutex
		result BatchResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, entityID := range entities {
		entityID := entityID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			caveats, err := fn(ctx, entityID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				result.Failed = append(result.Failed, EntityFailure{
					EntityID: entityID,
					Err:      err,
					Message:  err.Error(),
				})
				return nil
			}
			result.Succeeded = append(result.Succeeded, entityID)
			result.Caveats = append(result.Caveats, caveats...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(result.Succeeded)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].EntityID < result.Failed[j].EntityID
	})
	sort.Slice(result.Caveats, func(i, j int) bool {
		if result.Caveats[i].EntityID != result.Caveats[j].EntityID {
			return result.Caveats[i].EntityID < result.Caveats[j].EntityID
		}
		return result.Caveats[i].Kind < result.Caveats[j].Kind
	})
	return &result, nil
}

func isInsufficient(err error) bool {
	var insufficient *analysis.InsufficientDataError
	return errors.As(err, &insufficient)
}
