package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/factors"
)

// Document is one judicial decision text plus its known metadata.
type Document struct {
	DecisionID string    `json:"decision_id"`
	EntityID   string    `json:"entity_id"`
	Topic      string    `json:"topic,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	DecidedAt  time.Time `json:"decided_at,omitempty"`
	Text       string    `json:"text"`
}

// ExtractDocument runs factor and citation extraction on one document and
// persists both. The factor record is appended as a new version; the
// decision's citations are replaced wholesale.
func (s *Service) ExtractDocument(ctx context.Context, doc Document) (*analysis.DecisionFactorRecord, []analysis.CitationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.extract_document",
		trace.WithAttributes(
			attribute.String("decision_id", doc.DecisionID),
			attribute.String("entity_id", doc.EntityID),
		),
	)
	defer span.End()

	start := time.Now()

	rec, err := s.components().extractor.Extract(doc.Text, factors.Metadata{
		DecisionID: doc.DecisionID,
		EntityID:   doc.EntityID,
		Topic:      doc.Topic,
		Outcome:    doc.Outcome,
		DecidedAt:  doc.DecidedAt,
	})
	if err != nil {
		span.RecordError(err)
		documentsProcessed.WithLabelValues("empty").Inc()
		return nil, nil, err
	}

	cites := s.citations.Extract(doc.Text, doc.DecisionID, doc.EntityID)

	if err := s.retry(ctx, func(ctx context.Context) error {
		return s.store.PutFactorRecord(ctx, rec)
	}); err != nil {
		span.RecordError(err)
		documentsProcessed.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("store factor record for decision %q: %w", doc.DecisionID, err)
	}
	if err := s.retry(ctx, func(ctx context.Context) error {
		return s.store.ReplaceCitations(ctx, doc.DecisionID, doc.EntityID, cites)
	}); err != nil {
		span.RecordError(err)
		documentsProcessed.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("store citations for decision %q: %w", doc.DecisionID, err)
	}

	documentsProcessed.WithLabelValues("success").Inc()
	extractionDuration.Observe(time.Since(start).Seconds())

	s.logger.Debug("document extracted",
		zap.String("decision_id", doc.DecisionID),
		zap.String("entity_id", doc.EntityID),
		zap.Int("citations", len(cites)),
		zap.Float64("confidence", rec.Confidence))
	return rec, cites, nil
}

// IngestDocuments extracts a batch of documents with bounded parallelism.
// A failed document is recorded on the result and never aborts the rest;
// only context cancellation stops the batch early.
func (s *Service) IngestDocuments(ctx context.Context, docs []Document) (*IngestResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.ingest_documents",
		trace.WithAttributes(attribute.Int("documents", len(docs))))
	defer span.End()

	var (
		mu     sync.Mutex
		result IngestResult
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, cites, err := s.ExtractDocument(ctx, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("document failed",
					zap.String("decision_id", doc.DecisionID),
					zap.Error(err))
				result.Failed = append(result.Failed, DocumentFailure{
					DecisionID: doc.DecisionID,
					EntityID:   doc.EntityID,
					Err:        err,
					Message:    err.Error(),
				})
				return nil
			}
			result.Processed++
			result.Citations += len(cites)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].DecisionID < result.Failed[j].DecisionID
	})

	s.logger.Info("document batch done",
		zap.Int("processed", result.Processed),
		zap.Int("failed", len(result.Failed)),
		zap.Int("citations", result.Citations))
	return &result, nil
}
