// Package postgres implements the storage interfaces on PostgreSQL via
// pgx. Schema provisioning/migration tooling is out of scope; the DDL is
// exported so operators can apply it with their own tooling.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/analysis"
	"github.com/fallaxis/jurimetrics/internal/storage"
)

// Schema is the DDL for the pipeline's tables.
const Schema = `
CREATE TABLE IF NOT EXISTS factor_records (
	id               BIGSERIAL PRIMARY KEY,
	decision_id      TEXT        NOT NULL,
	entity_id        TEXT        NOT NULL,
	topic            TEXT        NOT NULL DEFAULT '',
	outcome          TEXT        NOT NULL DEFAULT '',
	decided_at       TIMESTAMPTZ,
	word_count       INTEGER     NOT NULL,
	confidence       DOUBLE PRECISION NOT NULL,
	catalog_version  TEXT        NOT NULL,
	version          TEXT        NOT NULL,
	extracted_at     TIMESTAMPTZ NOT NULL,
	schema_version   INTEGER     NOT NULL,
	numeric_factors  JSONB       NOT NULL,
	categorical_factors JSONB    NOT NULL,
	extensions       JSONB,
	UNIQUE (decision_id, version)
);
CREATE INDEX IF NOT EXISTS factor_records_entity_idx ON factor_records (entity_id);
CREATE INDEX IF NOT EXISTS factor_records_decision_idx ON factor_records (decision_id, id DESC);

CREATE TABLE IF NOT EXISTS citation_records (
	id          BIGSERIAL PRIMARY KEY,
	decision_id TEXT   NOT NULL,
	entity_id   TEXT   NOT NULL,
	kind        TEXT   NOT NULL,
	name        TEXT   NOT NULL,
	excerpt     TEXT   NOT NULL,
	start_pos   INTEGER NOT NULL,
	end_pos     INTEGER NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	schema_version INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS citation_records_entity_idx ON citation_records (entity_id);
CREATE INDEX IF NOT EXISTS citation_records_decision_idx ON citation_records (decision_id);

CREATE TABLE IF NOT EXISTS entity_profiles (
	entity_id  TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jurisprudential_lines (
	entity_id TEXT  NOT NULL,
	topic     TEXT  NOT NULL,
	payload   JSONB NOT NULL,
	PRIMARY KEY (entity_id, topic)
);

CREATE TABLE IF NOT EXISTS influence_edges (
	origin_id   TEXT  NOT NULL,
	destination TEXT  NOT NULL,
	kind        TEXT  NOT NULL,
	citations   INTEGER NOT NULL,
	intensity   DOUBLE PRECISION NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL,
	schema_version INTEGER NOT NULL,
	PRIMARY KEY (origin_id, destination, kind)
);
`

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// New connects a pool to the DSN and pings it.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, logger: logger.Named("postgres")}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// classify wraps retryable connection-level failures so the pipeline's
// bounded backoff can distinguish them from permanent errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if pgconn.SafeToRetry(err) {
		return &storage.TransientError{Err: err}
	}
	return err
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Store) PutFactorRecord(ctx context.Context, rec *analysis.DecisionFactorRecord) error {
	if rec.DecisionID == "" || rec.EntityID == "" {
		return fmt.Errorf("factor record requires decision and entity identifiers")
	}

	numeric, err := json.Marshal(rec.Numeric)
	if err != nil {
		return fmt.Errorf("encode numeric factors: %w", err)
	}
	categorical, err := json.Marshal(rec.Categorical)
	if err != nil {
		return fmt.Errorf("encode categorical factors: %w", err)
	}
	extensions, err := json.Marshal(rec.Extensions)
	if err != nil {
		return fmt.Errorf("encode extensions: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO factor_records (
			decision_id, entity_id, topic, outcome, decided_at, word_count,
			confidence, catalog_version, version, extracted_at, schema_version,
			numeric_factors, categorical_factors, extensions
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		rec.DecisionID, rec.EntityID, rec.Topic, rec.Outcome, nullTime(rec.DecidedAt),
		rec.WordCount, rec.Confidence, rec.CatalogVersion, rec.Version,
		rec.ExtractedAt, rec.SchemaVersion, numeric, categorical, extensions)
	return classify(err)
}

const recordColumns = `decision_id, entity_id, topic, outcome, decided_at, word_count,
	confidence, catalog_version, version, extracted_at, schema_version,
	numeric_factors, categorical_factors, extensions`

func (s *Store) LatestFactorRecords(ctx context.Context, entityID string) ([]analysis.DecisionFactorRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (decision_id) `+recordColumns+`
		FROM factor_records
		WHERE entity_id = $1
		ORDER BY decision_id, id DESC`, entityID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) FactorRecordVersions(ctx context.Context, decisionID string) ([]analysis.DecisionFactorRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM factor_records
		WHERE decision_id = $1
		ORDER BY id ASC`, decisionID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("decision %q: %w", decisionID, storage.ErrNotFound)
	}
	return recs, nil
}

func scanRecords(rows pgx.Rows) ([]analysis.DecisionFactorRecord, error) {
	var out []analysis.DecisionFactorRecord
	for rows.Next() {
		var (
			rec                              analysis.DecisionFactorRecord
			decidedAt                        *time.Time
			numeric, categorical, extensions []byte
		)
		if err := rows.Scan(
			&rec.DecisionID, &rec.EntityID, &rec.Topic, &rec.Outcome, &decidedAt,
			&rec.WordCount, &rec.Confidence, &rec.CatalogVersion, &rec.Version,
			&rec.ExtractedAt, &rec.SchemaVersion, &numeric, &categorical, &extensions,
		); err != nil {
			return nil, classify(err)
		}
		if decidedAt != nil {
			rec.DecidedAt = *decidedAt
		}
		if err := json.Unmarshal(numeric, &rec.Numeric); err != nil {
			return nil, fmt.Errorf("decode numeric factors: %w", err)
		}
		if err := json.Unmarshal(categorical, &rec.Categorical); err != nil {
			return nil, fmt.Errorf("decode categorical factors: %w", err)
		}
		if len(extensions) > 0 {
			if err := json.Unmarshal(extensions, &rec.Extensions); err != nil {
				return nil, fmt.Errorf("decode extensions: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, classify(rows.Err())
}

func (s *Store) ReplaceCitations(ctx context.Context, decisionID, entityID string, recs []analysis.CitationRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM citation_records WHERE decision_id = $1`, decisionID); err != nil {
		return classify(err)
	}
	for _, r := range recs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO citation_records (
				decision_id, entity_id, kind, name, excerpt, start_pos, end_pos,
				confidence, schema_version
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			decisionID, entityID, string(r.Kind), r.Name, r.Excerpt,
			r.Start, r.End, r.Confidence, r.SchemaVersion); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit(ctx))
}

func (s *Store) CitationsByEntity(ctx context.Context, entityID string) ([]analysis.CitationRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT decision_id, entity_id, kind, name, excerpt, start_pos, end_pos,
			confidence, schema_version
		FROM citation_records
		WHERE entity_id = $1
		ORDER BY decision_id, start_pos`, entityID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []analysis.CitationRecord
	for rows.Next() {
		var (
			r    analysis.CitationRecord
			kind string
		)
		if err := rows.Scan(&r.DecisionID, &r.EntityID, &kind, &r.Name, &r.Excerpt,
			&r.Start, &r.End, &r.Confidence, &r.SchemaVersion); err != nil {
			return nil, classify(err)
		}
		r.Kind = analysis.CitationKind(kind)
		out = append(out, r)
	}
	return out, classify(rows.Err())
}

func (s *Store) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT entity_id FROM factor_records ORDER BY entity_id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, classify(err)
		}
		out = append(out, e)
	}
	return out, classify(rows.Err())
}

func (s *Store) PutProfile(ctx context.Context, p *analysis.EntityProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO entity_profiles (entity_id, payload, computed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (entity_id) DO UPDATE
		SET payload = EXCLUDED.payload, computed_at = EXCLUDED.computed_at`,
		p.EntityID, payload, p.ComputedAt)
	return classify(err)
}

func (s *Store) Profile(ctx context.Context, entityID string) (*analysis.EntityProfile, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM entity_profiles WHERE entity_id = $1`, entityID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile for entity %q: %w", entityID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}

	var p analysis.EntityProfile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (s *Store) ReplaceLines(ctx context.Context, entityID string, lines []analysis.JurisprudentialLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM jurisprudential_lines WHERE entity_id = $1`, entityID); err != nil {
		return classify(err)
	}
	for _, l := range lines {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encode line: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO jurisprudential_lines (entity_id, topic, payload)
			VALUES ($1, $2, $3)`, entityID, l.Topic, payload); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit(ctx))
}

func (s *Store) Lines(ctx context.Context, entityID string) ([]analysis.JurisprudentialLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM jurisprudential_lines
		WHERE entity_id = $1 ORDER BY topic`, entityID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []analysis.JurisprudentialLine
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, classify(err)
		}
		var l analysis.JurisprudentialLine
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, fmt.Errorf("decode line: %w", err)
		}
		out = append(out, l)
	}
	return out, classify(rows.Err())
}

func (s *Store) ReplaceEdges(ctx context.Context, originID string, edges []analysis.InfluenceEdge) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM influence_edges WHERE origin_id = $1`, originID); err != nil {
		return classify(err)
	}
	for _, e := range edges {
		if _, err := tx.Exec(ctx, `
			INSERT INTO influence_edges (
				origin_id, destination, kind, citations, intensity, computed_at,
				schema_version
			) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			originID, e.Destination, string(e.Kind), e.Citations, e.Intensity,
			e.ComputedAt, e.SchemaVersion); err != nil {
			return classify(err)
		}
	}
	return classify(tx.Commit(ctx))
}

func (s *Store) Edges(ctx context.Context, originID string) ([]analysis.InfluenceEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT origin_id, destination, kind, citations, intensity, computed_at,
			schema_version
		FROM influence_edges
		WHERE origin_id = $1
		ORDER BY kind, citations DESC, destination`, originID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []analysis.InfluenceEdge
	for rows.Next() {
		var (
			e    analysis.InfluenceEdge
			kind string
		)
		if err := rows.Scan(&e.OriginID, &e.Destination, &kind, &e.Citations,
			&e.Intensity, &e.ComputedAt, &e.SchemaVersion); err != nil {
			return nil, classify(err)
		}
		e.Kind = analysis.RelationKind(kind)
		out = append(out, e)
	}
	return out, classify(rows.Err())
}
