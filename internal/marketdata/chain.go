package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/avelez/optionflow/internal/model"
)

// greekSentinel marks absent greeks/IV in upstream responses (-999.0).
const greekSentinel = -900.0

// chainResponse is the raw chain shape: contracts nested per expiration date,
// per strike. Date keys look like "2026-08-30:0" (date:DTE); strike keys are
// stringified floats.
type chainResponse struct {
	Symbol          string                               `json:"symbol"`
	Status          string                               `json:"status"`
	UnderlyingPrice float64                              `json:"underlyingPrice"`
	CallExpDateMap  map[string]map[string][]contractDTO  `json:"callExpDateMap"`
	PutExpDateMap   map[string]map[string][]contractDTO  `json:"putExpDateMap"`
}

type contractDTO struct {
	PutCall          string  `json:"putCall"`
	Symbol           string  `json:"symbol"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	Last             float64 `json:"last"`
	Mark             float64 `json:"mark"`
	TotalVolume      int64   `json:"totalVolume"`
	OpenInterest     int64   `json:"openInterest"`
	Delta            float64 `json:"delta"`
	Gamma            float64 `json:"gamma"`
	Theta            float64 `json:"theta"`
	Vega             float64 `json:"vega"`
	Volatility       float64 `json:"volatility"`
	DaysToExpiration int     `json:"daysToExpiration"`
	InTheMoney       bool    `json:"inTheMoney"`
	StrikePrice      float64 `json:"strikePrice"`
}

// GetChain fetches the 0DTE option chain for a symbol and flattens it into a
// typed model. An empty chain (non-trading day) is a valid result, not an
// error.
func (c *Client) GetChain(ctx context.Context, symbol string) (*model.Chain, error) {
	today := c.now().Format("2006-01-02")

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("contractType", "ALL")
	query.Set("fromDate", today)
	query.Set("toDate", today)

	var resp chainResponse
	if err := c.get(ctx, "/chains", query, &resp); err != nil {
		return nil, fmt.Errorf("get chain %s: %w", symbol, err)
	}

	fetchedAt := c.now().UnixMicro()
	chain := &model.Chain{
		Underlying: symbol,
		Spot:       resp.UnderlyingPrice,
		FetchedAt:  fetchedAt,
	}

	chain.Calls = flattenSide(resp.CallExpDateMap, symbol, model.SideCall, fetchedAt)
	chain.Puts = flattenSide(resp.PutExpDateMap, symbol, model.SidePut, fetchedAt)

	c.logger.Debug("fetched chain",
		"symbol", symbol,
		"spot", chain.Spot,
		"contracts", chain.ContractCount(),
	)

	return chain, nil
}

// flattenSide converts one side's nested date/strike maps into a flat contract
// list, ordered by expiration then ascending strike so output is stable across
// fetches of identical data.
func flattenSide(expDateMap map[string]map[string][]contractDTO, underlying string, side model.Side, fetchedAt int64) []model.OptionContract {
	var out []model.OptionContract

	for _, dateKey := range sortedKeys(expDateMap) {
		expiration := dateKey
		if i := strings.IndexByte(dateKey, ':'); i >= 0 {
			expiration = dateKey[:i]
		}

		strikes := expDateMap[dateKey]
		for _, strikeKey := range sortedStrikeKeys(strikes) {
			for _, dto := range strikes[strikeKey] {
				out = append(out, dto.toContract(underlying, side, expiration, strikeKey, fetchedAt))
			}
		}
	}

	return out
}

func (d contractDTO) toContract(underlying string, side model.Side, expiration, strikeKey string, fetchedAt int64) model.OptionContract {
	strike := d.StrikePrice
	if strike == 0 {
		// Some responses omit strikePrice on the contract; fall back to the key.
		strike, _ = strconv.ParseFloat(strikeKey, 64)
	}

	return model.OptionContract{
		Symbol:           d.Symbol,
		Underlying:       underlying,
		Side:             side,
		Strike:           strike,
		Expiration:       expiration,
		Bid:              d.Bid,
		Ask:              d.Ask,
		Last:             d.Last,
		Mark:             d.Mark,
		Volume:           d.TotalVolume,
		OpenInterest:     d.OpenInterest,
		Delta:            normalizeGreek(d.Delta),
		Gamma:            normalizeGreek(d.Gamma),
		Theta:            normalizeGreek(d.Theta),
		Vega:             normalizeGreek(d.Vega),
		ImpliedVol:       normalizeVolatility(d.Volatility),
		DaysToExpiration: d.DaysToExpiration,
		InTheMoney:       d.InTheMoney,
		FetchedAt:        fetchedAt,
	}
}

// normalizeGreek zeroes the upstream's -999 "not available" sentinel.
func normalizeGreek(v float64) float64 {
	if v <= greekSentinel {
		return 0
	}
	return v
}

// normalizeVolatility converts percent IV to a fraction and drops sentinels.
func normalizeVolatility(v float64) float64 {
	if v <= greekSentinel {
		return 0
	}
	if v > 5 {
		// Upstream reports IV in percent (e.g., 18.42); internal convention is
		// a fraction.
		return v / 100
	}
	return v
}

func sortedKeys(m map[string]map[string][]contractDTO) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedStrikeKeys orders strike keys numerically, not lexically.
func sortedStrikeKeys(m map[string][]contractDTO) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.ParseFloat(keys[i], 64)
		b, _ := strconv.ParseFloat(keys[j], 64)
		return a < b
	})
	return keys
}
