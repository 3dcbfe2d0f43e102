package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/avelez/optionflow/internal/analytics"
	"github.com/avelez/optionflow/internal/auth"
	"github.com/avelez/optionflow/internal/collector"
	"github.com/avelez/optionflow/internal/config"
	"github.com/avelez/optionflow/internal/database"
	"github.com/avelez/optionflow/internal/marketdata"
	"github.com/avelez/optionflow/internal/metrics"
	"github.com/avelez/optionflow/internal/model"
	"github.com/avelez/optionflow/internal/scoring"
	"github.com/avelez/optionflow/internal/store"
	"github.com/avelez/optionflow/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.yaml", "path to config file")
	flag.Parse()

	// Local credentials live in .env during development; absent in prod.
	_ = godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"symbols", cfg.Collector.Symbols,
		"interval", cfg.Collector.Interval,
		"api_url", cfg.API.BaseURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connected")

	st := store.New(db, logger)

	// Token source: refresh-grant when a refresh token is configured,
	// otherwise the static access token.
	var tokens auth.TokenSource
	if cfg.Auth.RefreshToken != "" {
		tokens = auth.NewRefreshingSource(
			cfg.Auth.TokenURL,
			cfg.Auth.ClientID,
			cfg.Auth.ClientSecret,
			cfg.Auth.RefreshToken,
		)
	} else {
		tokens = auth.StaticSource{AccessToken: cfg.Auth.AccessToken}
	}

	// Create market-data client
	client := marketdata.NewClient(
		cfg.API.BaseURL,
		tokens,
		marketdata.WithLogger(logger),
		marketdata.WithTimeout(cfg.API.Timeout),
		marketdata.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
	)

	reg := metrics.NewRegistry()

	// External scorer is optional; without it candidates come back as
	// unscored placeholders.
	var scorer scoring.Scorer
	if cfg.Scoring.URL != "" {
		scorer = scoring.NewHTTPScorer(
			cfg.Scoring.URL,
			cfg.Scoring.APIKey,
			cfg.Scoring.Model,
			scoring.WithTimeout(cfg.Scoring.Timeout),
			scoring.WithLogger(logger),
		)
	} else {
		logger.Warn("no scoring service configured, candidates will be unscored")
	}

	svcCfg := analytics.ServiceConfig{
		Spreads: analytics.SpreadConfig{
			MinCredit: cfg.Analysis.MinCredit,
			MinWidth:  cfg.Analysis.MinWidth,
			MaxWidth:  cfg.Analysis.MaxWidth,
		},
		ATM:       analytics.DefaultATMConfig(),
		TopScored: cfg.Analysis.TopScored,
	}
	svcCfg.ATM.Threshold = cfg.Analysis.ATMThreshold

	svc := analytics.NewService(svcCfg, client, scorer, st, reg, logger)

	coll := collector.New(
		collector.Config{
			Symbols:        cfg.Collector.Symbols,
			Interval:       cfg.Collector.Interval,
			NakedThreshold: cfg.Collector.NakedThreshold,
		},
		client, st, reg, logger,
	)
	coll.Start(ctx)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		coll.Stop(shutdownCtx)
	}()

	// Control/health server
	httpPort := cfg.Metrics.Port
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", httpPort),
		Handler: createControlHandler(ctx, db, coll, svc, st, reg, cfg, logger),
	}

	go func() {
		logger.Info("starting http server", "port", httpPort)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("collector running",
		"symbols", cfg.Collector.Symbols,
		"health_url", fmt.Sprintf("http://localhost:%d/health", httpPort),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	// Graceful shutdown of http server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	logger.Info("collector stopped")
}

// createControlHandler wires the health, status, control, and on-demand
// analysis endpoints.
func createControlHandler(runCtx context.Context, db *pgxpool.Pool, coll *collector.Collector, svc *analytics.Service, st *store.Store, reg *metrics.Registry, cfg *config.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Check collector
		status := coll.Status()
		health.Components["collector"] = status
		if !status.Running {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, coll.Status())
	})

	mux.HandleFunc("/collector/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// The poll loop must outlive the request; tie it to the process
		// context, not r.Context().
		coll.Start(runCtx)
		writeJSON(w, http.StatusOK, coll.Status())
	})

	mux.HandleFunc("/collector/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		coll.Stop(ctx)
		writeJSON(w, http.StatusOK, coll.Status())
	})

	mux.HandleFunc("/analyze/spreads", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		if symbol == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}
		side, err := parseSide(r.URL.Query().Get("side"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		scored, err := svc.BestSpreads(r.Context(), symbol, side)
		if err != nil {
			logger.Error("spread analysis failed", "symbol", symbol, "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":     symbol,
			"side":       side,
			"count":      len(scored),
			"candidates": scored,
		})
	})

	mux.HandleFunc("/analyze/atm", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		if symbol == "" {
			http.Error(w, "symbol is required", http.StatusBadRequest)
			return
		}

		selection, scored, err := svc.ATMSignals(r.Context(), symbol)
		if err != nil {
			logger.Error("atm analysis failed", "symbol", symbol, "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"symbol":     symbol,
			"selection":  selection,
			"candidates": scored,
		})
	})

	mux.HandleFunc("/aggregates/recompute", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		day := r.URL.Query().Get("date")
		if day == "" {
			day = time.Now().UTC().Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", day); err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		aggs, err := st.RecomputeDailyAggregates(r.Context(), day)
		if err != nil {
			logger.Error("aggregate recompute failed", "date", day, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":       day,
			"count":      len(aggs),
			"aggregates": aggs,
		})
	})

	mux.Handle(cfg.Metrics.Path, reg.Handler())

	return mux
}

func parseSide(s string) (model.Side, error) {
	switch strings.ToUpper(s) {
	case "CALL":
		return model.SideCall, nil
	case "PUT":
		return model.SidePut, nil
	default:
		return "", fmt.Errorf("side must be CALL or PUT, got %q", s)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
