package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avelez/optionflow/internal/model"
)

// SaveScoredCandidates appends a batch of scored candidates. The candidate
// payload (spread legs or ATM annotation) is stored as JSON alongside the
// queryable columns.
func (s *Store) SaveScoredCandidates(ctx context.Context, candidates []model.ScoredCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range candidates {
		payload, err := candidatePayload(c)
		if err != nil {
			return fmt.Errorf("encode candidate %s: %w", c.ID, err)
		}
		batch.Queue(`
			INSERT INTO scored_candidates (
				id, kind, underlying, side, summary, payload,
				score, confidence, rationale, model, failed, scored_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, string(c.Kind), c.Underlying, string(c.Side), c.Summary, payload,
			c.Score, c.Confidence, c.Rationale, c.Model, c.Failed, c.ScoredAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range candidates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert scored candidates: %w", err)
		}
	}

	return nil
}

// RecentScoredCandidates returns successfully scored candidates within the
// window, best score first. Failed placeholders are excluded; they are
// bookkeeping, not opportunities.
func (s *Store) RecentScoredCandidates(ctx context.Context, underlying string, kind model.CandidateKind, window time.Duration) ([]model.ScoredCandidate, error) {
	cutoff := time.Now().Add(-window).UnixMicro()

	rows, err := s.db.Query(ctx, `
		SELECT id, kind, underlying, side, summary, payload,
		       score, confidence, rationale, model, failed, scored_at
		FROM scored_candidates
		WHERE underlying = $1 AND kind = $2 AND scored_at >= $3 AND NOT failed
		ORDER BY score DESC, scored_at DESC
	`, underlying, string(kind), cutoff)
	if err != nil {
		return nil, fmt.Errorf("query scored candidates: %w", err)
	}
	defer rows.Close()

	var out []model.ScoredCandidate
	for rows.Next() {
		var c model.ScoredCandidate
		var kindS, sideS string
		var payload []byte
		if err := rows.Scan(
			&c.ID, &kindS, &c.Underlying, &sideS, &c.Summary, &payload,
			&c.Score, &c.Confidence, &c.Rationale, &c.Model, &c.Failed, &c.ScoredAt,
		); err != nil {
			return nil, fmt.Errorf("scan scored candidate: %w", err)
		}
		c.Kind = model.CandidateKind(kindS)
		c.Side = model.Side(sideS)
		if err := decodeCandidatePayload(&c, payload); err != nil {
			return nil, fmt.Errorf("decode candidate %s: %w", c.ID, err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func candidatePayload(c model.ScoredCandidate) ([]byte, error) {
	switch c.Kind {
	case model.KindSpread:
		return json.Marshal(c.Spread)
	case model.KindATM:
		return json.Marshal(c.ATM)
	default:
		return nil, fmt.Errorf("unknown candidate kind %q", c.Kind)
	}
}

func decodeCandidatePayload(c *model.ScoredCandidate, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	switch c.Kind {
	case model.KindSpread:
		c.Spread = &model.SpreadCandidate{}
		return json.Unmarshal(payload, c.Spread)
	case model.KindATM:
		c.ATM = &model.ATMCandidate{}
		return json.Unmarshal(payload, c.ATM)
	default:
		return fmt.Errorf("unknown candidate kind %q", c.Kind)
	}
}
