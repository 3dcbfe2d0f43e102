// Package model defines shared data types used across the optionflow pipeline.
//
// Conventions:
//   - Prices, strikes, premiums: float64 dollars
//   - Timestamps: int64 microseconds since Unix epoch
//   - IDs: string for contract/underlying symbols, uuid.UUID for derived records
//
// Contract snapshots are append-only: each poll cycle produces fresh rows keyed
// by (underlying, strike, side, expiration) plus a new timestamp. Nothing in
// the pipeline updates a prior snapshot.
package model
