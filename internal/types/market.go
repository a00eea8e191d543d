package types

import (
	"github.com/shopspring/decimal"
)

// Candle is an OHLC price summary for one time bucket.
// Time is local-epoch seconds: the exchange open time adjusted by the
// viewer's UTC offset so the chart axis shows local wall-clock time.
type Candle struct {
	Time  int64
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// Direction reports the candle movement: up when close is above open,
// down when below, neutral when equal.
func (c Candle) Direction() PriceDirection {
	switch c.Close.Cmp(c.Open) {
	case 1:
		return DirectionUp
	case -1:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

type PriceDirection string

const (
	DirectionUp      PriceDirection = "up"
	DirectionDown    PriceDirection = "down"
	DirectionNeutral PriceDirection = "neutral"
)

// MergeResult is the outcome of merging a candle tick into a series.
type MergeResult string

const (
	// MergeAppended means the tick opened a new time bucket.
	MergeAppended MergeResult = "appended"
	// MergeReplaced means the tick updated the in-progress last bar.
	MergeReplaced MergeResult = "replaced"
	// MergeIgnored means the tick was older than the last bar and was dropped.
	MergeIgnored MergeResult = "ignored"
)

// BookLevel is a single order book price level.
type BookLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Value is the quote-asset notional of the level (price * quantity).
func (l BookLevel) Value() decimal.Decimal {
	return l.Price.Mul(l.Quantity)
}

// TickerSnapshot is one symbol's 24h market statistics. The collection is
// replaced wholesale on each refresh, never patched.
type TickerSnapshot struct {
	Symbol             string
	BaseAsset          string
	LastPrice          decimal.Decimal
	PriceChangePercent decimal.Decimal
	HighPrice          decimal.Decimal
	LowPrice           decimal.Decimal
	QuoteVolume        decimal.Decimal
	Volume             decimal.Decimal
	TradeCount         int64
	IconURL            string
}

// RankedInstrument is the best performer over the lookback window.
type RankedInstrument struct {
	Symbol        string
	ReturnPercent float64
}
