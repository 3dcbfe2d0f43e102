// Package collector implements the periodic 0DTE collection loop.
//
// Each cycle fetches the chain for every tracked underlying sequentially
// (the upstream is rate limited; concurrent fan-out would burst it), runs
// naked-position detection over every contract, persists the raw quotes, and
// records the chain's max-pain strike. One symbol's failure never blocks the
// rest of the cycle.
//
// Stopping prevents future cycles; an in-flight cycle finishes the symbol it
// is on, then observes cancellation before the next one.
package collector
