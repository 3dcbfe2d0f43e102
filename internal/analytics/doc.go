// Package analytics implements the derived-metric computations over 0DTE
// option chains: naked-position detection, max pain, vertical credit-spread
// enumeration, and near-the-money selection with the order-flow heuristic.
//
// All computations are pure over their inputs; persistence and scoring are
// orchestrated by Service.
package analytics
