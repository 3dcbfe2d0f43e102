// Package database provides the PostgreSQL connection pool for the
// optionflow store (hosted Postgres; quotes and derived facts are
// append-only time series).
package database
