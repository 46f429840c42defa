package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quanterre/bookstream/pkg/book"
	"github.com/quanterre/bookstream/pkg/snapshot"
	"go.uber.org/zap"
)

var (
	symbolFlag   = flag.String("symbol", "BTCUSDT", "Symbol of the book snapshot to display")
	strategyFlag = flag.String("strategy", "ABSOLUTE", "Update strategy the book was built with")
	redisAddr    = flag.String("redis-addr", "localhost:6379", "Redis address in the format host:port")
	levelsFlag   = flag.Int("levels", 10, "Number of levels to show per side")
	watchFlag    = flag.Duration("watch", 0, "Refresh interval; 0 prints once and exits")
)

func main() {
	flag.Parse()

	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	strategy, err := book.ParseStrategy(*strategyFlag)
	if err != nil {
		log.Fatal().Err(err).Str("strategy", *strategyFlag).Msg("Invalid strategy")
	}

	snapshot.SetDefaultRedisOptions(&snapshot.RedisOptions{Addr: *redisAddr})
	store := snapshot.NewStore(snapshot.GetRedisClient(), "", 0, zap.NewNop())

	symbol := strings.ToUpper(*symbolFlag)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *watchFlag <= 0 {
		if err := printBook(ctx, store, symbol, strategy); err != nil {
			log.Fatal().Err(err).Str("symbol", symbol).Msg("Failed to display book")
		}
		return
	}

	ticker := time.NewTicker(*watchFlag)
	defer ticker.Stop()
	for {
		if err := printBook(context.Background(), store, symbol, strategy); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("Failed to display book")
		}
		<-ticker.C
		fmt.Print("\033[H\033[2J")
	}
}

func printBook(ctx context.Context, store *snapshot.Store, symbol string, strategy book.Strategy) error {
	b := book.NewOrderBook(symbol, strategy, 0)
	if err := store.Load(ctx, b); err != nil {
		return err
	}
	b.Limit(*levelsFlag)

	color.NoColor = false
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	fmt.Printf("%s  update_id=%d\n", cyan(symbol), b.LastUpdateID())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)

	// Print headers with consistent spacing
	fmt.Fprintf(w, "%15s|%15s|%s\n",
		cyan("Price"),
		cyan("Size"),
		cyan("Side"))
	fmt.Fprintf(w, "%15s|%15s|%s\n",
		"---------------",
		"---------------",
		"----")

	// Asks print worst-first so the best ask sits next to the best bid
	asks := b.Asks().Levels()
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "%15.3f|%15.3f|%s\n",
			parseFloat(asks[i].Price.String()),
			parseFloat(asks[i].Size.String()),
			red("ASK"))
	}

	fmt.Fprintf(w, "%15s|%15s|%s\n",
		"---------------",
		"---------------",
		"----")

	for _, level := range b.Bids().Levels() {
		fmt.Fprintf(w, "%15.3f|%15.3f|%s\n",
			parseFloat(level.Price.String()),
			parseFloat(level.Size.String()),
			green("BID"))
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if spread, ok := b.Spread(); ok {
		fmt.Printf("spread: %s\n", spread)
	}
	return nil
}

// Helper function to parse float strings safely
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
