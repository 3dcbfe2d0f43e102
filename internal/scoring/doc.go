// Package scoring is the boundary to the external candidate-ranking service.
//
// The service receives candidate economics plus free-form context and returns
// a 0-100 score with confidence and rationale. Any primary/fallback/ensemble
// behavior lives on the service side; this client only guards the call with a
// circuit breaker so a down service fails fast instead of stalling a batch.
package scoring
