package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/predict"
)

// TrainEntity trains an outcome model for one entity from its latest
// record versions and persists it as a new registry version. materia
// optionally narrows training to one subject matter.
//
// Too few labeled decisions is an error (InsufficientDataError); a
// single-class training set is not — the trivial model is persisted and
// the condition is reported as a caveat.
func (s *Service) TrainEntity(ctx context.Context, entityID, materia string) (*TrainResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.train_entity",
		trace.WithAttributes(
			attribute.String("entity_id", entityID),
			attribute.String("materia", materia),
		),
	)
	defer span.End()

	var recs []analysis.DecisionFactorRecord
	if err := s.retry(ctx, func(ctx context.Context) error {
		var err error
		recs, err = s.store.LatestFactorRecords(ctx, entityID)
		return err
	}); err != nil {
		span.RecordError(err)
		modelsTrained.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load records for entity %q: %w", entityID, err)
	}

	model, err := s.components().trainer.Train(entityID, materia, recs)
	if err != nil {
		span.RecordError(err)
		if isInsufficient(err) {
			modelsTrained.WithLabelValues("insufficient_data").Inc()
		} else {
			modelsTrained.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	saved, err := s.registry.Save(model)
	if err != nil {
		span.RecordError(err)
		modelsTrained.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist model for entity %q: %w", entityID, err)
	}

	result := TrainResult{EntityID: entityID, Model: saved}
	if saved.Info.Trivial {
		modelsTrained.WithLabelValues("trivial").Inc()
		result.Caveats = append(result.Caveats, Caveat{
			Kind:     CaveatTrivialModel,
			EntityID: entityID,
			Message: fmt.Sprintf("all %d training decisions share outcome %q; model predicts it unconditionally",
				saved.Info.SampleCount, saved.Info.TrivialClass),
		})
	} else {
		modelsTrained.WithLabelValues("success").Inc()
	}

	s.logger.Info("model trained",
		zap.String("entity_id", entityID),
		zap.String("materia", materia),
		zap.Int("version", saved.Info.Version),
		zap.Int("samples", saved.Info.SampleCount),
		zap.Float64("accuracy", saved.Info.Accuracy),
		zap.Bool("trivial", saved.Info.Trivial))
	return &result, nil
}

// TrainAll trains a model per known entity with bounded parallelism and
// per-entity error isolation. Entities without enough labeled decisions
// fail individually and are reported on the batch result.
func (s *Service) TrainAll(ctx context.Context, materia string) (*BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.train_all",
		trace.WithAttributes(attribute.String("materia", materia)))
	defer span.End()

	return s.forEachEntity(ctx, func(ctx context.Context, entityID string) ([]Caveat, error) {
		res, err := s.TrainEntity(ctx, entityID, materia)
		if err != nil {
			return nil, err
		}
		return res.Caveats, nil
	})
}

// Predict applies an entity's latest persisted model to a factor input.
func (s *Service) Predict(ctx context.Context, entityID, materia string, numeric map[string]float64, categorical map[string]string) (*predict.Prediction, error) {
	_, span := s.tracer.Start(ctx, "pipeline.predict",
		trace.WithAttributes(
			attribute.String("entity_id", entityID),
			attribute.String("materia", materia),
		),
	)
	defer span.End()

	model, err := s.registry.Latest(entityID, materia)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pred, err := model.Predict(s.components().trainer.Vectorizer(), numeric, categorical)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return pred, nil
}
