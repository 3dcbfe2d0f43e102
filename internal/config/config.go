package config

import "time"

// Config is the root configuration for the optionflow service.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	API       APIConfig       `yaml:"api"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DBConfig        `yaml:"database"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CollectorConfig holds the polling loop settings.
type CollectorConfig struct {
	Symbols        []string      `yaml:"symbols"`         // Tracked underlyings (e.g., SPY, QQQ)
	Interval       time.Duration `yaml:"interval"`        // Poll interval (default: 60s)
	NakedThreshold float64       `yaml:"naked_threshold"` // Volume/OI multiple (default: 1.5)
}

// APIConfig holds the brokerage market-data API settings.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // Requests per second to the upstream
	RateBurst int           `yaml:"rate_burst"`
}

// AuthConfig holds OAuth credential settings for the brokerage API.
// When RefreshToken is set, tokens are minted via TokenURL; otherwise
// AccessToken is used as-is.
type AuthConfig struct {
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	AccessToken  string `yaml:"access_token"`
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ScoringConfig holds the external candidate-ranking service settings.
type ScoringConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"` // Model identifier requested from the service
	Timeout time.Duration `yaml:"timeout"`
}

// AnalysisConfig holds spread/ATM analyzer thresholds.
type AnalysisConfig struct {
	MinCredit    float64 `yaml:"min_credit"`    // Minimum spread credit (default: $0.50)
	MinWidth     float64 `yaml:"min_width"`     // Minimum spread width (default: $5)
	MaxWidth     float64 `yaml:"max_width"`     // Maximum spread width (default: $50)
	ATMThreshold float64 `yaml:"atm_threshold"` // Max |strike-spot|/spot (default: 0.02)
	TopScored    int     `yaml:"top_scored"`    // Candidates sent to scoring per request (default: 20)
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
