package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/nikolaydubina/fpdecimal"
	"golang.org/x/time/rate"

	"github.com/quanterre/bookstream/pkg/book"
)

const (
	// histogram range in nanoseconds, 1us..10s
	minLatency = 1_000
	maxLatency = 10_000_000_000
)

func main() {
	workers := flag.Int("workers", 8, "Number of concurrent books")
	updates := flag.Int("updates", 100000, "Updates applied per book")
	deltas := flag.Int("deltas", 10, "Deltas per update")
	strategyName := flag.String("strategy", "ABSOLUTE", "Update strategy under test")
	depth := flag.Int("depth", 1000, "Depth cap per side, 0 for unlimited")
	maxRate := flag.Float64("rate", 0, "Max updates/sec across all workers, 0 for unlimited")
	flag.Parse()

	strategy, err := book.ParseStrategy(*strategyName)
	if err != nil {
		log.Fatalf("Invalid strategy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, stopping...")
		cancel()
	}()

	var limiter *rate.Limiter
	if *maxRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(*maxRate), int(*maxRate))
	}

	var wg sync.WaitGroup
	histograms := make([]*hdrhistogram.Histogram, *workers)
	errChan := make(chan error, *workers)

	start := time.Now()
	log.Printf("Starting %d workers, %d updates per book, strategy %s...", *workers, *updates, strategy)

	for i := 0; i < *workers; i++ {
		histograms[i] = hdrhistogram.New(minLatency, maxLatency, 3)
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if err := runWorker(ctx, workerID, strategy, *depth, *updates, *deltas, limiter, histograms[workerID]); err != nil {
				errChan <- err
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)
	close(errChan)

	for err := range errChan {
		if err != context.Canceled {
			log.Fatalf("Worker failed: %v", err)
		}
	}

	merged := hdrhistogram.New(minLatency, maxLatency, 3)
	for _, h := range histograms {
		merged.Merge(h)
	}

	log.Printf("Load test completed in %v", duration)
	log.Printf("Updates applied: %d (%d deltas each)", merged.TotalCount(), *deltas)
	log.Printf("Throughput: %.0f updates/sec", float64(merged.TotalCount())/duration.Seconds())
	log.Printf("Apply latency: mean=%s p50=%s p90=%s p99=%s p99.9=%s max=%s",
		time.Duration(int64(merged.Mean())),
		time.Duration(merged.ValueAtQuantile(50)),
		time.Duration(merged.ValueAtQuantile(90)),
		time.Duration(merged.ValueAtQuantile(99)),
		time.Duration(merged.ValueAtQuantile(99.9)),
		time.Duration(merged.Max()))
}

// runWorker hammers a private book with random updates, recording the apply
// latency of each one.
func runWorker(ctx context.Context, workerID int, strategy book.Strategy, depth, updates, deltasPerUpdate int, limiter *rate.Limiter, hist *hdrhistogram.Histogram) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	b := book.NewOrderBook(fmt.Sprintf("LOAD%d", workerID), strategy, depth)
	gen := newDeltaGenerator(r, strategy)

	for i := 0; i < updates; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		bids := make([]book.Delta, deltasPerUpdate/2)
		asks := make([]book.Delta, deltasPerUpdate-len(bids))
		for j := range bids {
			bids[j] = gen.next(book.Bid)
		}
		for j := range asks {
			asks[j] = gen.next(book.Ask)
		}

		applyStart := time.Now()
		err := b.ApplyUpdate(bids, asks, b.LastUpdateID()+1)
		elapsed := time.Since(applyStart).Nanoseconds()
		if err != nil {
			return fmt.Errorf("apply failed on update %d: %w", i, err)
		}
		if elapsed < minLatency {
			elapsed = minLatency
		}
		if err := hist.RecordValue(elapsed); err != nil {
			return err
		}
	}
	return nil
}

// deltaGenerator produces strategy-appropriate random deltas around a fixed
// midprice. Zero sizes show up often enough to exercise removals.
type deltaGenerator struct {
	r        *rand.Rand
	strategy book.Strategy
}

func newDeltaGenerator(r *rand.Rand, strategy book.Strategy) *deltaGenerator {
	return &deltaGenerator{r: r, strategy: strategy}
}

func (g *deltaGenerator) next(side book.Side) book.Delta {
	offset := float64(g.r.Intn(400)) * 0.25
	price := 100.0 + offset
	if side == book.Bid {
		price = 100.0 - offset
	}

	size := float64(g.r.Intn(100)) * 0.1

	switch g.strategy {
	case book.Counted:
		count := int64(g.r.Intn(20))
		return book.NewCountedDelta(fpdecimal.FromFloat(price), fpdecimal.FromFloat(size), count)
	case book.Incremental:
		if g.r.Float64() < 0.3 {
			size = -size
		}
		return book.NewDelta(fpdecimal.FromFloat(price), fpdecimal.FromFloat(size))
	case book.OrderIndexed, book.IncrementalOrderIndexed:
		// reuse a bounded id pool so moves and removals land on live orders
		id := fmt.Sprintf("ord-%s-%d", side, g.r.Intn(500))
		return book.NewOrderDelta(fpdecimal.FromFloat(price), fpdecimal.FromFloat(size), id)
	default:
		return book.NewDelta(fpdecimal.FromFloat(price), fpdecimal.FromFloat(size))
	}
}
