package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avelez/optionflow/internal/model"
)

// SaveNakedEvent appends one naked-position detection. The table keys events
// by (symbol, detected_at); the same contract re-detected next cycle is a new
// row by design.
func (s *Store) SaveNakedEvent(ctx context.Context, ev model.NakedPositionEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO naked_position_events (
			id, underlying, symbol, side, strike,
			volume, open_interest, ratio, threshold, detected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, detected_at) DO NOTHING
	`, ev.ID, ev.Underlying, ev.Symbol, string(ev.Side), ev.Strike,
		ev.Volume, ev.OpenInterest, ev.Ratio, ev.Threshold, ev.DetectedAt)
	if err != nil {
		return fmt.Errorf("insert naked event: %w", err)
	}
	return nil
}

// ActiveNakedEvents returns detections within the lookback window, newest
// first.
func (s *Store) ActiveNakedEvents(ctx context.Context, underlying string, window time.Duration) ([]model.NakedPositionEvent, error) {
	cutoff := time.Now().Add(-window).UnixMicro()

	rows, err := s.db.Query(ctx, `
		SELECT id, underlying, symbol, side, strike,
		       volume, open_interest, ratio, threshold, detected_at
		FROM naked_position_events
		WHERE underlying = $1 AND detected_at >= $2
		ORDER BY detected_at DESC
	`, underlying, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query naked events: %w", err)
	}
	defer rows.Close()

	var out []model.NakedPositionEvent
	for rows.Next() {
		var ev model.NakedPositionEvent
		var side string
		if err := rows.Scan(
			&ev.ID, &ev.Underlying, &ev.Symbol, &side, &ev.Strike,
			&ev.Volume, &ev.OpenInterest, &ev.Ratio, &ev.Threshold, &ev.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan naked event: %w", err)
		}
		ev.Side = model.Side(side)
		out = append(out, ev)
	}

	return out, rows.Err()
}

// SaveMaxPain appends one max-pain snapshot for an underlying.
func (s *Store) SaveMaxPain(ctx context.Context, mp model.MaxPainPoint) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO max_pain_points (underlying, strike, total_pain, spot, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (underlying, computed_at) DO NOTHING
	`, mp.Underlying, mp.Strike, mp.TotalPain, mp.Spot, mp.ComputedAt)
	if err != nil {
		return fmt.Errorf("insert max pain: %w", err)
	}
	return nil
}
