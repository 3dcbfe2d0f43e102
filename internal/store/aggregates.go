package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avelez/optionflow/internal/model"
)

// dayBounds returns the [start, end) window for a YYYY-MM-DD day in UTC, as
// microseconds since epoch.
func dayBounds(day string) (int64, int64, error) {
	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return 0, 0, fmt.Errorf("parse day %q: %w", day, err)
	}
	return start.UnixMicro(), start.Add(24 * time.Hour).UnixMicro(), nil
}

// RecomputeDailyAggregates rebuilds the per-underlying rollups for one day
// from the raw quote and event tables, upserting the result. This is the
// manual recompute operation exposed on the control surface.
func (s *Store) RecomputeDailyAggregates(ctx context.Context, day string) ([]model.DailyAggregate, error) {
	from, to, err := dayBounds(day)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT q.underlying,
		       COUNT(*) AS quote_count,
		       AVG(CASE WHEN q.open_interest > 0
		                THEN q.volume::float8 / q.open_interest
		                ELSE NULL END) AS avg_ratio,
		       (SELECT COUNT(*) FROM naked_position_events e
		         WHERE e.underlying = q.underlying
		           AND e.detected_at >= $1 AND e.detected_at < $2) AS anomaly_count,
		       COALESCE((SELECT mp.strike FROM max_pain_points mp
		         WHERE mp.underlying = q.underlying
		           AND mp.computed_at >= $1 AND mp.computed_at < $2
		         ORDER BY mp.computed_at DESC LIMIT 1), 0) AS closing_max_pain
		FROM option_quotes q
		WHERE q.fetched_at >= $1 AND q.fetched_at < $2
		GROUP BY q.underlying
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate query: %w", err)
	}
	defer rows.Close()

	computedAt := time.Now().UnixMicro()

	var aggs []model.DailyAggregate
	for rows.Next() {
		agg := model.DailyAggregate{Day: day, ComputedAt: computedAt}
		var avgRatio *float64
		if err := rows.Scan(&agg.Underlying, &agg.QuoteCount, &avgRatio, &agg.AnomalyCount, &agg.ClosingMaxPain); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		if avgRatio != nil {
			agg.AvgVolumeOIRatio = *avgRatio
		}
		aggs = append(aggs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, agg := range aggs {
		if err := s.upsertAggregate(ctx, agg); err != nil {
			return nil, err
		}
	}

	s.logger.Info("daily aggregates recomputed", "day", day, "underlyings", len(aggs))
	return aggs, nil
}

// upsertAggregate replaces the rollup row for (underlying, day). Aggregates
// are the one table that is recomputed in place rather than appended.
func (s *Store) upsertAggregate(ctx context.Context, agg model.DailyAggregate) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO daily_aggregates (
			underlying, day, quote_count, anomaly_count,
			avg_volume_oi_ratio, closing_max_pain, computed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (underlying, day) DO UPDATE SET
			quote_count = EXCLUDED.quote_count,
			anomaly_count = EXCLUDED.anomaly_count,
			avg_volume_oi_ratio = EXCLUDED.avg_volume_oi_ratio,
			closing_max_pain = EXCLUDED.closing_max_pain,
			computed_at = EXCLUDED.computed_at
	`, agg.Underlying, agg.Day, agg.QuoteCount, agg.AnomalyCount,
		agg.AvgVolumeOIRatio, agg.ClosingMaxPain, agg.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert aggregate %s/%s: %w", agg.Underlying, agg.Day, err)
	}
	return nil
}
