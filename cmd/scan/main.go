package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/avelez/optionflow/internal/analytics"
	"github.com/avelez/optionflow/internal/auth"
	"github.com/avelez/optionflow/internal/marketdata"
	"github.com/avelez/optionflow/internal/model"
)

// scan is a one-shot developer tool: fetch the 0DTE chain for a symbol and
// print what the pipeline would make of it, with no database or scorer.
func main() {
	symbol := flag.String("symbol", "SPY", "underlying to scan")
	baseURL := flag.String("url", os.Getenv("OPTIONFLOW_API_URL"), "brokerage API base URL")
	threshold := flag.Float64("threshold", 1.5, "volume/OI anomaly threshold")
	top := flag.Int("top", 5, "spreads to print per side")
	flag.Parse()

	_ = godotenv.Load()

	token := os.Getenv("OPTIONFLOW_ACCESS_TOKEN")
	if token == "" {
		log.Fatal("OPTIONFLOW_ACCESS_TOKEN is not set")
	}
	if *baseURL == "" {
		log.Fatal("API base URL is not set (use -url or OPTIONFLOW_API_URL)")
	}

	client := marketdata.NewClient(
		*baseURL,
		auth.StaticSource{AccessToken: token},
		marketdata.WithTimeout(30*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sym := strings.ToUpper(*symbol)
	fmt.Printf("=== Chain %s ===\n", sym)
	chain, err := client.GetChain(ctx, sym)
	if err != nil {
		log.Fatalf("GetChain failed: %v", err)
	}
	fmt.Printf("Spot: %.2f\n", chain.Spot)
	fmt.Printf("Contracts: %d (%d calls, %d puts)\n",
		chain.ContractCount(), len(chain.Calls), len(chain.Puts))
	if chain.Empty() {
		fmt.Println("No 0DTE contracts today.")
		return
	}

	fmt.Println("\n=== Max Pain ===")
	strike, pain := analytics.MaxPain(chain.Calls, chain.Puts)
	fmt.Printf("Strike: %.2f (total pain $%.0f)\n", strike, pain)

	fmt.Println("\n=== Volume/OI Anomalies ===")
	detector := analytics.NewDetector(*threshold)
	found := 0
	for _, c := range append(append([]model.OptionContract{}, chain.Calls...), chain.Puts...) {
		if ev := detector.Check(c); ev != nil {
			found++
			fmt.Printf("  %s %s %.2f  vol=%d oi=%d ratio=%.2f\n",
				ev.Side, ev.Underlying, ev.Strike, ev.Volume, ev.OpenInterest, ev.Ratio)
		}
	}
	if found == 0 {
		fmt.Println("  none")
	}

	enum := analytics.NewSpreadEnumerator(analytics.DefaultSpreadConfig())
	for _, side := range []model.Side{model.SideCall, model.SidePut} {
		contracts := chain.Calls
		if side == model.SidePut {
			contracts = chain.Puts
		}
		fmt.Printf("\n=== %s Credit Spreads ===\n", side)
		spreads := enum.Enumerate(contracts, side, chain.Spot)
		if len(spreads) > *top {
			spreads = spreads[:*top]
		}
		if len(spreads) == 0 {
			fmt.Println("  none meet the width/credit bounds")
		}
		for i, sp := range spreads {
			fmt.Printf("  %d. %s  credit=%.2f rr=%.2f pop=%.0f%% be=%.2f\n",
				i+1, sp.Describe(), sp.Credit, sp.RiskReward,
				sp.ProbabilityOfProfit*100, sp.BreakEven)
		}
	}

	fmt.Println("\n=== ATM Flow ===")
	sel := analytics.SelectATM(analytics.DefaultATMConfig(), chain.Calls, chain.Puts, sym, chain.Spot)
	printATM("Calls", sel.Calls)
	printATM("Puts", sel.Puts)
}

func printATM(label string, picks []model.ATMCandidate) {
	fmt.Printf("%s:\n", label)
	if len(picks) == 0 {
		fmt.Println("  none within range")
		return
	}
	for _, p := range picks {
		fmt.Printf("  %.2f  vol=%d oi=%d signal=%s\n",
			p.Contract.Strike, p.Contract.Volume, p.Contract.OpenInterest, p.Signal)
	}
}
