package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/avelez/optionflow/internal/model"
)

// quoteRow matches the option_quotes table.
type quoteRow struct {
	Symbol       string
	Underlying   string
	Side         string
	Strike       float64
	Expiration   string
	Bid          float64
	Ask          float64
	Last         float64
	Mark         float64
	Volume       int64
	OpenInterest int64
	Delta        float64
	Gamma        float64
	Theta        float64
	Vega         float64
	ImpliedVol   float64
	InTheMoney   bool
	FetchedAt    int64
}

func quoteToRow(c model.OptionContract) quoteRow {
	return quoteRow{
		Symbol:       c.Symbol,
		Underlying:   c.Underlying,
		Side:         string(c.Side),
		Strike:       c.Strike,
		Expiration:   c.Expiration,
		Bid:          c.Bid,
		Ask:          c.Ask,
		Last:         c.Last,
		Mark:         c.Mark,
		Volume:       c.Volume,
		OpenInterest: c.OpenInterest,
		Delta:        c.Delta,
		Gamma:        c.Gamma,
		Theta:        c.Theta,
		Vega:         c.Vega,
		ImpliedVol:   c.ImpliedVol,
		InTheMoney:   c.InTheMoney,
		FetchedAt:    c.FetchedAt,
	}
}

// SaveQuotes inserts one cycle's contract snapshots for a symbol in a single
// batch. Duplicate (symbol, fetched_at) rows are dropped, not updated.
func (s *Store) SaveQuotes(ctx context.Context, contracts []model.OptionContract) error {
	if len(contracts) == 0 {
		return nil
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for _, c := range contracts {
		r := quoteToRow(c)
		batch.Queue(`
			INSERT INTO option_quotes (
				symbol, underlying, side, strike, expiration,
				bid, ask, last, mark, volume, open_interest,
				delta, gamma, theta, vega, implied_vol, in_the_money, fetched_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (symbol, fetched_at) DO NOTHING
		`, r.Symbol, r.Underlying, r.Side, r.Strike, r.Expiration,
			r.Bid, r.Ask, r.Last, r.Mark, r.Volume, r.OpenInterest,
			r.Delta, r.Gamma, r.Theta, r.Vega, r.ImpliedVol, r.InTheMoney, r.FetchedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	var conflicts int
	for range contracts {
		ct, err := results.Exec()
		if err != nil {
			return fmt.Errorf("insert quotes: %w", err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	s.logger.Debug("saved quotes",
		"count", len(contracts),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// LatestQuotes returns the most recent snapshot per contract for an
// underlying.
func (s *Store) LatestQuotes(ctx context.Context, underlying string) ([]model.OptionContract, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (symbol)
			symbol, underlying, side, strike, expiration,
			bid, ask, last, mark, volume, open_interest,
			delta, gamma, theta, vega, implied_vol, in_the_money, fetched_at
		FROM option_quotes
		WHERE underlying = $1
		ORDER BY symbol, fetched_at DESC
	`, underlying)
	if err != nil {
		return nil, fmt.Errorf("query latest quotes: %w", err)
	}
	defer rows.Close()

	var out []model.OptionContract
	for rows.Next() {
		var c model.OptionContract
		var side string
		if err := rows.Scan(
			&c.Symbol, &c.Underlying, &side, &c.Strike, &c.Expiration,
			&c.Bid, &c.Ask, &c.Last, &c.Mark, &c.Volume, &c.OpenInterest,
			&c.Delta, &c.Gamma, &c.Theta, &c.Vega, &c.ImpliedVol, &c.InTheMoney, &c.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		c.Side = model.Side(side)
		out = append(out, c)
	}

	return out, rows.Err()
}
