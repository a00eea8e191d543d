// Package provider implements the upstream market data collaborators: the
// Binance REST snapshot endpoints, the Binance combined websocket stream,
// and the CoinGecko icon catalog.
package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
)

// DefaultRequestTimeout bounds every one-shot REST fetch. The upstream API
// has no documented limit; without a client timeout a dead connection would
// hang the caller indefinitely.
const DefaultRequestTimeout = 10 * time.Second

// BookSnapshot holds one order book snapshot: asks ascending and bids
// descending by price, as delivered by the exchange.
type BookSnapshot struct {
	LastUpdateID int64
	Asks         []types.BookLevel
	Bids         []types.BookLevel
}

// SnapshotLoader is the one-shot REST surface. Every operation is idempotent
// and safe to retry; failures surface with ErrCodeSnapshotUnavailable and
// never yield partial data.
type SnapshotLoader interface {
	// LoadTickers fetches the full 24h ticker list, filtered to pairs quoted
	// in quoteAsset whose base asset has a known icon, and drops entries
	// failing sanity checks (non-positive price or volume, zero trades).
	LoadTickers(ctx context.Context, quoteAsset string, icons map[string]string) ([]types.TickerSnapshot, error)
	// LoadCandleHistory fetches the most recent limit candles in
	// chronological order, timestamps normalized to local-epoch seconds.
	LoadCandleHistory(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error)
	// LoadOrderBookSnapshot fetches the top depth ask and bid levels.
	LoadOrderBookSnapshot(ctx context.Context, symbol string, depth int) (BookSnapshot, error)
}

// StreamRequest identifies one symbol/interval/depth stream subscription.
type StreamRequest struct {
	Symbol   string `validate:"required"`
	Interval string `validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	Depth    int    `validate:"required,oneof=5 10 20"`
}

// StreamSource yields live market data events. The returned channel closes
// when the connection drops or the context is cancelled; the final event
// before close is always a ConnectionClosedEvent. Reconnecting is the
// caller's responsibility.
type StreamSource interface {
	Subscribe(ctx context.Context, req StreamRequest) (<-chan types.StreamEvent, error)
}

// IconCatalog resolves base asset symbols to icon URLs.
type IconCatalog interface {
	LoadIcons(ctx context.Context, pages int) (map[string]string, error)
}
