// cmd/backtest replays a stored or CSV price series through a strategy
// and the simulator, printing a performance summary.
//
// Usage:
//
//	go run ./cmd/backtest --csv=data/krx_005930.csv --strategy=golden_cross --params=fast_period=5,slow_period=20
//	go run ./cmd/backtest --db=data/engine.db --series=samsung_daily --strategy=rsi_reversion --capital=10000000
//
// Exit codes: 0 success, 1 invalid input, 2 internal computation error.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"quant-enginev1/internal/backtest"
	"quant-enginev1/internal/model"
	sqlitestore "quant-enginev1/internal/store/sqlite"
	"quant-enginev1/internal/strategy"
)

const (
	exitOK       = 0
	exitBadInput = 1
	exitInternal = 2
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	os.Exit(run())
}

func run() int {
	csvPath := flag.String("csv", "", "Path to CSV price series (date,open,high,low,close,volume)")
	dbPath := flag.String("db", "", "Path to SQLite database with stored series")
	seriesName := flag.String("series", "", "Stored series name (with --db)")
	stratName := flag.String("strategy", "golden_cross", "Strategy name (see /api/v1/strategies)")
	paramStr := flag.String("params", "", "Strategy params: key=value,... (defaults apply when omitted)")
	capital := flag.Float64("capital", 1_000_000, "Initial capital")
	commission := flag.Float64("commission", 0, "Commission fraction per fill (e.g. 0.0005)")
	slippage := flag.Float64("slippage", 0, "Slippage fraction per fill")
	export := flag.String("export", "", "Write completed trades to this CSV path")
	flag.Parse()

	series, err := loadSeries(*csvPath, *dbPath, *seriesName)
	if err != nil {
		log.Printf("[backtest] %v", err)
		return exitBadInput
	}

	params, err := parseParams(*paramStr)
	if err != nil {
		log.Printf("[backtest] %v", err)
		return exitBadInput
	}

	signals, err := strategy.Run(series, *stratName, params)
	if err != nil {
		log.Printf("[backtest] signal generation failed: %v", err)
		return exitBadInput
	}

	sim, err := backtest.New(backtest.Config{
		InitialCapital: *capital,
		Commission:     *commission,
		Slippage:       *slippage,
	})
	if err != nil {
		log.Printf("[backtest] %v", err)
		return exitBadInput
	}

	res, err := sim.Run(series, signals)
	if err != nil {
		if errors.Is(err, backtest.ErrNonFinite) {
			log.Printf("[backtest] computation error: %v", err)
			return exitInternal
		}
		log.Printf("[backtest] %v", err)
		return exitBadInput
	}
	res.Strategy = *stratName

	printSummary(series, res)

	if *export != "" {
		if err := backtest.WriteTradesCSV(res.Trades, *export); err != nil {
			log.Printf("[backtest] trade export failed: %v", err)
			return exitInternal
		}
		fmt.Printf("trades written to %s\n", *export)
	}

	return exitOK
}

// loadSeries picks the CSV or SQLite source based on the flags given.
func loadSeries(csvPath, dbPath, seriesName string) (model.PriceSeries, error) {
	switch {
	case csvPath != "" && dbPath != "":
		return nil, fmt.Errorf("--csv and --db are mutually exclusive")
	case csvPath != "":
		return backtest.ReadCSV(csvPath)
	case dbPath != "":
		if seriesName == "" {
			return nil, fmt.Errorf("--series is required with --db")
		}
		store, err := sqlitestore.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadSeries(seriesName)
	default:
		return nil, fmt.Errorf("one of --csv or --db is required")
	}
}

// parseParams parses "fast_period=5,slow_period=20" into strategy params.
func parseParams(s string) (strategy.Params, error) {
	if s == "" {
		return nil, nil
	}
	params := make(strategy.Params)
	for _, part := range strings.Split(s, ",") {
		tokens := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(tokens) != 2 {
			return nil, fmt.Errorf("bad param %q (want key=value)", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(tokens[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad param value %q: %v", tokens[1], err)
		}
		params[strings.TrimSpace(tokens[0])] = v
	}
	return params, nil
}

func printSummary(series model.PriceSeries, res *model.BacktestResult) {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           BACKTEST COMPLETE              ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Strategy:        %-22s ║\n", res.Strategy)
	fmt.Printf("║  Bars:            %-22d ║\n", len(series))
	fmt.Printf("║  Span:            %s → %s ║\n",
		series[0].Date.Format("2006-01-02"),
		series[len(series)-1].Date.Format("2006-01-02"))
	fmt.Printf("║  Signals:         %-22d ║\n", len(res.Signals))
	fmt.Printf("║  Trades (fills):  %-22d ║\n", res.TradeCount)
	fmt.Printf("║  Initial capital: %-22.2f ║\n", res.InitialCapital)
	fmt.Printf("║  Final capital:   %-22.2f ║\n", res.FinalCapital)
	fmt.Printf("║  Total return:    %-21.2f%% ║\n", res.TotalReturnPct)
	fmt.Printf("║  Annual return:   %-21.2f%% ║\n", res.AnnualReturnPct)
	fmt.Printf("║  Win rate:        %-21.2f%% ║\n", res.WinRatePct)
	fmt.Printf("║  Max drawdown:    %-21.2f%% ║\n", res.MaxDrawdownPct)
	fmt.Println("╚══════════════════════════════════════════╝")
}
