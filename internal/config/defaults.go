package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout     = 30 * time.Second
	DefaultRateLimit      = 2.0 // req/s against the brokerage API
	DefaultRateBurst      = 1
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultPollInterval   = 60 * time.Second
	DefaultNakedThreshold = 1.5
	DefaultMinCredit      = 0.50
	DefaultMinWidth       = 5.0
	DefaultMaxWidth       = 50.0
	DefaultATMThreshold   = 0.02
	DefaultTopScored      = 20
	DefaultScoringTimeout = 45 * time.Second
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = DefaultRateLimit
	}
	if c.API.RateBurst == 0 {
		c.API.RateBurst = DefaultRateBurst
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Collector defaults
	if c.Collector.Interval == 0 {
		c.Collector.Interval = DefaultPollInterval
	}
	if c.Collector.NakedThreshold == 0 {
		c.Collector.NakedThreshold = DefaultNakedThreshold
	}

	// Analysis defaults
	if c.Analysis.MinCredit == 0 {
		c.Analysis.MinCredit = DefaultMinCredit
	}
	if c.Analysis.MinWidth == 0 {
		c.Analysis.MinWidth = DefaultMinWidth
	}
	if c.Analysis.MaxWidth == 0 {
		c.Analysis.MaxWidth = DefaultMaxWidth
	}
	if c.Analysis.ATMThreshold == 0 {
		c.Analysis.ATMThreshold = DefaultATMThreshold
	}
	if c.Analysis.TopScored == 0 {
		c.Analysis.TopScored = DefaultTopScored
	}

	// Scoring defaults
	if c.Scoring.Timeout == 0 {
		c.Scoring.Timeout = DefaultScoringTimeout
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
