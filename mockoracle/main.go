// Command mockoracle is a development stand-in for the upstream
// Hermes-shaped price feed: it serves GET ?ids[]=<feed>&ids[]=<feed>...
// with a JSON array of {id, price: {price, expo, publish_time}}
// entries, random-walking a price per feed so the Aggregator has
// something to poll without a live upstream. Adapted from the
// teacher's deleted synthetic test-mode generator (see DESIGN.md) and
// original_source/src/price_service.rs's response shape.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"priceflow/internal/config"
)

// walkFraction bounds each tick's random move as a share of the
// current price, keeping the synthetic series visually plausible.
const walkFraction = 0.002

// basePrices seeds a plausible starting point per symbol; any symbol
// not listed here starts at defaultBasePrice.
var basePrices = map[string]float64{
	"BTC": 65000,
	"ETH": 3400,
	"SOL": 160,
}

const defaultBasePrice = 10

const exponent = -8

type feedState struct {
	mu    sync.Mutex
	price float64
}

func (f *feedState) next() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	move := (rand.Float64()*2 - 1) * walkFraction
	f.price *= 1 + move
	if f.price < 0 {
		f.price = 0
	}
	return f.price
}

type server struct {
	feeds map[string]*feedState // feed id -> state
}

type priceWire struct {
	Price       string `json:"price"`
	Expo        int    `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

type entryWire struct {
	ID    string    `json:"id"`
	Price priceWire `json:"price"`
}

func (s *server) handle(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["ids[]"]
	if len(ids) == 0 {
		http.Error(w, "missing ids[] query parameter", http.StatusBadRequest)
		return
	}

	now := time.Now().Unix()
	out := make([]entryWire, 0, len(ids))
	for _, id := range ids {
		feed, ok := s.feeds[id]
		if !ok {
			continue
		}
		price := feed.next()
		mantissa := int64(price / pow10(exponent))
		out = append(out, entryWire{
			ID: id,
			Price: priceWire{
				Price:       strconv.FormatInt(mantissa, 10),
				Expo:        exponent,
				PublishTime: now,
			},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func pow10(exp int) float64 {
	result := 1.0
	for i := 0; i > exp; i-- {
		result /= 10
	}
	for i := 0; i < exp; i++ {
		result *= 10
	}
	return result
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mockoracle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg struct {
		config.Shared
		Addr string `env:"MOCKORACLE_ADDR" envDefault:":4943"`
	}
	if err := config.Load(&cfg); err != nil {
		return err
	}

	feeds, err := config.ParseAssetsFeeds(cfg.AssetsFeeds)
	if err != nil {
		return fmt.Errorf("parse assets_feeds: %w", err)
	}

	srv := &server{feeds: make(map[string]*feedState, len(feeds))}
	for _, f := range feeds {
		base, ok := basePrices[f.Symbol]
		if !ok {
			base = defaultBasePrice
		}
		srv.feeds[f.FeedID] = &feedState{price: base}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", srv.handle)

	slog.Info("mockoracle listening", "addr", cfg.Addr, "feeds", len(srv.feeds))
	return http.ListenAndServe(cfg.Addr, mux)
}
