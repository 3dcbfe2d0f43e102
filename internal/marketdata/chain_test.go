package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avelez/optionflow/internal/auth"
	"github.com/avelez/optionflow/internal/model"
)

const chainFixture = `{
	"symbol": "SPY",
	"status": "SUCCESS",
	"underlyingPrice": 645.12,
	"callExpDateMap": {
		"2026-08-28:0": {
			"645.0": [{
				"putCall": "CALL",
				"symbol": "SPY 260828C00645000",
				"bid": 1.20,
				"ask": 1.25,
				"last": 1.22,
				"mark": 1.23,
				"totalVolume": 15000,
				"openInterest": 9000,
				"delta": 0.52,
				"gamma": 0.09,
				"theta": -0.45,
				"vega": 0.11,
				"volatility": 18.42,
				"daysToExpiration": 0,
				"inTheMoney": true,
				"strikePrice": 645.0
			}],
			"650.0": [{
				"putCall": "CALL",
				"symbol": "SPY 260828C00650000",
				"bid": 0.35,
				"ask": 0.38,
				"totalVolume": 8000,
				"openInterest": 12000,
				"delta": -999.0,
				"gamma": -999.0,
				"theta": -999.0,
				"vega": -999.0,
				"volatility": -999.0,
				"daysToExpiration": 0,
				"inTheMoney": false,
				"strikePrice": 650.0
			}]
		}
	},
	"putExpDateMap": {
		"2026-08-28:0": {
			"640.0": [{
				"putCall": "PUT",
				"symbol": "SPY 260828P00640000",
				"bid": 0.28,
				"ask": 0.31,
				"totalVolume": 4000,
				"openInterest": 2000,
				"delta": -0.21,
				"volatility": 19.10,
				"daysToExpiration": 0,
				"inTheMoney": false,
				"strikePrice": 640.0
			}]
		}
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := NewClient(server.URL, auth.StaticSource{AccessToken: "test-token"},
		WithTimeout(5*time.Second),
		WithRateLimit(1000, 1000),
	)
	return client, server.Close
}

func TestGetChain(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "SPY" {
			t.Errorf("symbol = %q, want SPY", q.Get("symbol"))
		}
		if q.Get("fromDate") == "" || q.Get("fromDate") != q.Get("toDate") {
			t.Errorf("expected same-day fromDate/toDate, got %q/%q", q.Get("fromDate"), q.Get("toDate"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chainFixture))
	})
	defer closeFn()

	chain, err := client.GetChain(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetChain failed: %v", err)
	}

	if chain.Underlying != "SPY" {
		t.Errorf("Underlying = %q, want SPY", chain.Underlying)
	}
	if chain.Spot != 645.12 {
		t.Errorf("Spot = %g, want 645.12", chain.Spot)
	}
	if len(chain.Calls) != 2 || len(chain.Puts) != 1 {
		t.Fatalf("contracts = %d calls / %d puts, want 2/1", len(chain.Calls), len(chain.Puts))
	}

	// Calls ordered ascending by strike.
	if chain.Calls[0].Strike != 645 || chain.Calls[1].Strike != 650 {
		t.Errorf("call strikes = %g, %g, want 645, 650", chain.Calls[0].Strike, chain.Calls[1].Strike)
	}

	atm := chain.Calls[0]
	if atm.Side != model.SideCall {
		t.Errorf("Side = %q, want CALL", atm.Side)
	}
	if atm.Expiration != "2026-08-28" {
		t.Errorf("Expiration = %q, want 2026-08-28 (DTE suffix stripped)", atm.Expiration)
	}
	if atm.Volume != 15000 || atm.OpenInterest != 9000 {
		t.Errorf("Volume/OI = %d/%d, want 15000/9000", atm.Volume, atm.OpenInterest)
	}
	if atm.ImpliedVol < 0.18 || atm.ImpliedVol > 0.19 {
		t.Errorf("ImpliedVol = %g, want ~0.1842 (percent converted to fraction)", atm.ImpliedVol)
	}
	if atm.FetchedAt == 0 {
		t.Error("FetchedAt not set")
	}
}

func TestGetChain_SentinelGreeksZeroed(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chainFixture))
	})
	defer closeFn()

	chain, err := client.GetChain(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetChain failed: %v", err)
	}

	otm := chain.Calls[1] // strike 650, all greeks -999 upstream
	if otm.Delta != 0 || otm.Gamma != 0 || otm.Theta != 0 || otm.Vega != 0 || otm.ImpliedVol != 0 {
		t.Errorf("sentinel greeks not zeroed: %+v", otm)
	}
}

func TestGetChain_EmptyChain(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"SPY","status":"SUCCESS","underlyingPrice":645.0,"callExpDateMap":{},"putExpDateMap":{}}`))
	})
	defer closeFn()

	chain, err := client.GetChain(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("GetChain failed on empty chain: %v", err)
	}
	if !chain.Empty() {
		t.Errorf("ContractCount = %d, want 0", chain.ContractCount())
	}
}

func TestGetChain_HTTPError(t *testing.T) {
	client, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	defer closeFn()

	_, err := client.GetChain(context.Background(), "SPY")
	if err == nil {
		t.Fatal("GetChain succeeded, want error on 429")
	}
}

func TestGetChain_MissingCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached upstream without a credential")
	}))
	defer server.Close()

	client := NewClient(server.URL, auth.StaticSource{}, WithRateLimit(1000, 1000))

	if _, err := client.GetChain(context.Background(), "SPY"); err == nil {
		t.Fatal("GetChain succeeded, want credential failure")
	}
}
