// Package marketdata provides the brokerage REST client for option chains.
//
// The upstream returns chains as nested maps keyed by expiration date and
// strike; this package flattens them into typed model contracts at the
// boundary so nothing downstream handles raw JSON shapes.
//
// There is deliberately no retry here: the collector polls on a schedule and
// the next cycle is the retry. Requests are paced by a token-bucket limiter
// to respect the upstream rate limit.
package marketdata
