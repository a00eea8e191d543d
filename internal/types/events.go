package types

// StreamEvent is a tagged event produced by the live market data feed.
// The reconciler pattern-matches on the concrete type and routes it.
type StreamEvent interface {
	streamEvent()
}

// CandleTickEvent carries one kline update for the watched symbol.
type CandleTickEvent struct {
	Symbol string
	Candle Candle
	// IsFinal is true when the exchange closed this bucket.
	IsFinal bool
}

// DepthDeltaEvent carries a partial order book update. Asks ascend and bids
// descend by price, as delivered by the exchange.
type DepthDeltaEvent struct {
	Symbol string
	Asks   []BookLevel
	Bids   []BookLevel
}

// BestAsk returns the lowest ask of the delta, if any.
func (e DepthDeltaEvent) BestAsk() (BookLevel, bool) {
	if len(e.Asks) == 0 {
		return BookLevel{}, false
	}

	return e.Asks[0], true
}

// BestBid returns the highest bid of the delta, if any.
func (e DepthDeltaEvent) BestBid() (BookLevel, bool) {
	if len(e.Bids) == 0 {
		return BookLevel{}, false
	}

	return e.Bids[0], true
}

// ConnectionClosedEvent signals that the feed dropped. The event channel is
// closed right after it; the reconciler decides whether to reconnect.
type ConnectionClosedEvent struct {
	// Err is the close cause, nil on a clean shutdown.
	Err error
}

func (CandleTickEvent) streamEvent()       {}
func (DepthDeltaEvent) streamEvent()       {}
func (ConnectionClosedEvent) streamEvent() {}

// ConnectionState is the reconciler's feed connection state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)
