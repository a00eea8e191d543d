// Package view holds the render-facing state of the dashboard. The Store is
// the single place mutated by the reconciler; the render sink only ever sees
// copies.
package view

import (
	"sync"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/utils"
)

const (
	// DefaultBookRows caps each order book side.
	DefaultBookRows = 20

	// DefaultCandleCapacity bounds the candle window.
	DefaultCandleCapacity = 30
)

// Snapshot is a self-contained copy of the store state handed to the render
// sink. Slices are freshly allocated on every call so the sink never aliases
// the store's internals.
type Snapshot struct {
	Symbol         string
	Candles        []types.Candle
	CurrentPrice   decimal.Decimal
	PriceDirection types.PriceDirection
	PricePrecision int
	Asks           []types.BookLevel
	Bids           []types.BookLevel
	Tickers        []types.TickerSnapshot
	Winner         optional.Option[types.RankedInstrument]
	Connection     types.ConnectionState
}

// Store holds the dashboard state. All mutating operations are called from
// the reconciler's dispatch goroutine; the internal mutex exists so the
// render sink can safely take snapshots from its own goroutine.
type Store struct {
	mu sync.Mutex

	symbol         string
	candles        []types.Candle
	candleCapacity int
	currentPrice   decimal.Decimal
	priceDirection types.PriceDirection
	asks           []types.BookLevel
	bids           []types.BookLevel
	bookRows       int
	tickers        []types.TickerSnapshot
	winner         optional.Option[types.RankedInstrument]
	connection     types.ConnectionState

	onUpdate func(Snapshot)
}

// NewStore creates a store for the given symbol with default capacities.
func NewStore(symbol string) *Store {
	return &Store{
		symbol:         symbol,
		candles:        make([]types.Candle, 0, DefaultCandleCapacity),
		candleCapacity: DefaultCandleCapacity,
		priceDirection: types.DirectionNeutral,
		bookRows:       DefaultBookRows,
		connection:     types.StateDisconnected,
	}
}

// SetCandleCapacity overrides the candle window size. Must be called before
// the store is seeded.
func (s *Store) SetCandleCapacity(capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if capacity > 0 {
		s.candleCapacity = capacity
	}
}

// SetOnUpdate registers the render sink callback. The callback receives a
// snapshot after every mutation and must not call back into the store.
func (s *Store) SetOnUpdate(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onUpdate = fn
}

// SeedCandles replaces the candle window with historical bars and derives
// the current price from the newest bar.
func (s *Store) SeedCandles(candles []types.Candle) {
	s.mu.Lock()

	if len(candles) > s.candleCapacity {
		candles = candles[len(candles)-s.candleCapacity:]
	}

	s.candles = append(s.candles[:0], candles...)

	if len(s.candles) > 0 {
		last := s.candles[len(s.candles)-1]
		s.currentPrice = last.Close
		s.priceDirection = last.Direction()
	}

	s.notifyLocked()
}

// MergeCandle folds one live bar into the window: a bar for the current
// bucket replaces the last one, a bar for a newer bucket appends (evicting
// the oldest beyond capacity), and a bar older than the last is ignored.
// The current price and its direction always follow the merged bar.
func (s *Store) MergeCandle(candle types.Candle) types.MergeResult {
	s.mu.Lock()

	result := types.MergeAppended

	switch {
	case len(s.candles) == 0:
		s.candles = append(s.candles, candle)
	case candle.Time == s.candles[len(s.candles)-1].Time:
		s.candles[len(s.candles)-1] = candle
		result = types.MergeReplaced
	case candle.Time > s.candles[len(s.candles)-1].Time:
		s.candles = append(s.candles, candle)
		if len(s.candles) > s.candleCapacity {
			s.candles = s.candles[1:]
		}
	default:
		s.mu.Unlock()

		return types.MergeIgnored
	}

	s.currentPrice = candle.Close
	s.priceDirection = candle.Direction()

	s.notifyLocked()

	return result
}

// SetBookSnapshot replaces both book sides wholesale, truncated to the row
// cap.
func (s *Store) SetBookSnapshot(asks, bids []types.BookLevel) {
	s.mu.Lock()

	s.asks = capSide(append([]types.BookLevel(nil), asks...), s.bookRows)
	s.bids = capSide(append([]types.BookLevel(nil), bids...), s.bookRows)

	s.notifyLocked()
}

// PushDownBook inserts the latest best ask and best bid at the head of their
// sides, pushing existing rows down and evicting past the row cap.
func (s *Store) PushDownBook(bestAsk, bestBid types.BookLevel) {
	s.mu.Lock()

	s.asks = pushDown(s.asks, bestAsk, s.bookRows)
	s.bids = pushDown(s.bids, bestBid, s.bookRows)

	s.notifyLocked()
}

// ReplaceTickers swaps in a fresh ticker collection wholesale.
func (s *Store) ReplaceTickers(tickers []types.TickerSnapshot) {
	s.mu.Lock()

	s.tickers = append([]types.TickerSnapshot(nil), tickers...)

	s.notifyLocked()
}

// SetRankedWinner records the best performer of the watched basket.
func (s *Store) SetRankedWinner(winner optional.Option[types.RankedInstrument]) {
	s.mu.Lock()

	s.winner = winner

	s.notifyLocked()
}

// SetConnectionState records the feed state for display.
func (s *Store) SetConnectionState(state types.ConnectionState) {
	s.mu.Lock()

	s.connection = state

	s.notifyLocked()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	precision := utils.MinPricePrecision
	if s.currentPrice.IsPositive() {
		if p, err := utils.DecimalPrecision(s.currentPrice); err == nil {
			precision = p
		}
	}

	return Snapshot{
		Symbol:         s.symbol,
		Candles:        append([]types.Candle(nil), s.candles...),
		CurrentPrice:   s.currentPrice,
		PriceDirection: s.priceDirection,
		PricePrecision: precision,
		Asks:           append([]types.BookLevel(nil), s.asks...),
		Bids:           append([]types.BookLevel(nil), s.bids...),
		Tickers:        append([]types.TickerSnapshot(nil), s.tickers...),
		Winner:         s.winner,
		Connection:     s.connection,
	}
}

// notifyLocked snapshots under the lock, releases it, then invokes the
// callback so the sink cannot deadlock the store.
func (s *Store) notifyLocked() {
	fn := s.onUpdate
	var snap Snapshot

	if fn != nil {
		snap = s.snapshotLocked()
	}

	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

func pushDown(side []types.BookLevel, level types.BookLevel, limit int) []types.BookLevel {
	side = append([]types.BookLevel{level}, side...)

	return capSide(side, limit)
}

func capSide(side []types.BookLevel, limit int) []types.BookLevel {
	if len(side) > limit {
		return side[:limit]
	}

	return side
}
