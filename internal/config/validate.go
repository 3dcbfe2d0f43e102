package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Collector.Symbols) == 0 {
		return errors.New("collector.symbols must list at least one underlying")
	}
	for _, s := range c.Collector.Symbols {
		if s == "" {
			return errors.New("collector.symbols must not contain empty entries")
		}
	}
	if c.Collector.Interval <= 0 {
		return errors.New("collector.interval must be positive")
	}
	if c.Collector.NakedThreshold <= 0 {
		return errors.New("collector.naked_threshold must be positive")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.RateLimit <= 0 {
		return errors.New("api.rate_limit must be positive")
	}

	if c.Auth.RefreshToken == "" && c.Auth.AccessToken == "" {
		return errors.New("auth requires either refresh_token or access_token")
	}
	if c.Auth.RefreshToken != "" && c.Auth.TokenURL == "" {
		return errors.New("auth.token_url is required when refresh_token is set")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Analysis.MinWidth <= 0 {
		return errors.New("analysis.min_width must be positive")
	}
	if c.Analysis.MaxWidth < c.Analysis.MinWidth {
		return fmt.Errorf("analysis.max_width (%g) cannot be below min_width (%g)",
			c.Analysis.MaxWidth, c.Analysis.MinWidth)
	}
	if c.Analysis.ATMThreshold <= 0 || c.Analysis.ATMThreshold >= 1 {
		return fmt.Errorf("analysis.atm_threshold must be in (0, 1), got %g", c.Analysis.ATMThreshold)
	}
	if c.Analysis.TopScored < 1 {
		return errors.New("analysis.top_scored must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
