package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

const (
	// DefaultStreamBaseURL is the Binance combined stream endpoint.
	DefaultStreamBaseURL = "wss://stream.binance.com:9443"

	// streamHandshakeTimeout bounds the websocket dial.
	streamHandshakeTimeout = 10 * time.Second

	// eventBufferSize decouples the read loop from the dispatcher. Depth
	// deltas arrive at up to 10/s; the throttle downstream coalesces them.
	eventBufferSize = 64
)

// BinanceStreamSource implements StreamSource over the Binance combined
// websocket stream, multiplexing the kline channel and the partial depth
// channel of one symbol onto a single typed event channel.
type BinanceStreamSource struct {
	baseURL string
	dialer  *websocket.Dialer
	loc     *time.Location
	log     *logger.Logger
}

// NewBinanceStreamSource creates a stream source against the public Binance
// combined stream endpoint.
func NewBinanceStreamSource(loc *time.Location, log *logger.Logger) *BinanceStreamSource {
	return &BinanceStreamSource{
		baseURL: DefaultStreamBaseURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: streamHandshakeTimeout},
		loc:     loc,
		log:     log,
	}
}

// newBinanceStreamSourceWithBaseURL creates a stream source against a custom
// endpoint. This is used for testing with a mock stream server.
func newBinanceStreamSourceWithBaseURL(baseURL string, loc *time.Location, log *logger.Logger) *BinanceStreamSource {
	s := NewBinanceStreamSource(loc, log)
	s.baseURL = baseURL

	return s
}

// combinedFrame is the envelope of the combined stream: the source stream
// name plus the raw payload.
type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// wsKlinePayload mirrors the kline stream payload.
type wsKlinePayload struct {
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

type wsKline struct {
	StartTime int64  `json:"t"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	IsFinal   bool   `json:"x"`
}

// wsDepthPayload mirrors the partial depth stream payload.
type wsDepthPayload struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// Subscribe implements StreamSource. It dials the combined stream for the
// requested symbol and returns the event channel. The channel closes after a
// ConnectionClosedEvent when the connection drops or ctx is cancelled; the
// caller owns reconnection.
func (s *BinanceStreamSource) Subscribe(ctx context.Context, req StreamRequest) (<-chan types.StreamEvent, error) {
	symbol := strings.ToLower(req.Symbol)
	streams := fmt.Sprintf("%s@kline_%s/%s@depth%d@100ms", symbol, req.Interval, symbol, req.Depth)
	url := fmt.Sprintf("%s/stream?streams=%s", s.baseURL, streams)

	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStreamDialFailed, err, "failed to dial stream for %s", req.Symbol)
	}

	s.log.Info("Stream connected",
		zap.String("symbol", req.Symbol),
		zap.String("interval", req.Interval),
		zap.Int("depth", req.Depth),
	)

	events := make(chan types.StreamEvent, eventBufferSize)
	done := make(chan struct{})

	// Closing the connection on ctx cancellation unblocks the read loop.
	// The done channel releases this watcher when the connection drops on
	// its own, so reconnect cycles do not pile up goroutines.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(done)
		s.readLoop(conn, req, events)
	}()

	return events, nil
}

// readLoop reads frames until the connection drops, emitting typed events.
// A frame that fails to decode is skipped; it never terminates the stream.
func (s *BinanceStreamSource) readLoop(conn *websocket.Conn, req StreamRequest, events chan<- types.StreamEvent) {
	defer close(events)
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			events <- types.ConnectionClosedEvent{
				Err: errors.Wrapf(errors.ErrCodeStreamDisconnected, err, "stream closed for %s", req.Symbol),
			}

			return
		}

		event, err := s.decodeFrame(req.Symbol, message)
		if err != nil {
			s.log.Warn("Skipping malformed stream event",
				zap.String("symbol", req.Symbol),
				zap.Error(err),
			)

			continue
		}

		if event != nil {
			events <- event
		}
	}
}

// decodeFrame converts one combined stream frame to a typed event. Frames
// from streams this source did not subscribe to decode to nil.
func (s *BinanceStreamSource) decodeFrame(symbol string, message []byte) (types.StreamEvent, error) {
	var frame combinedFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid stream envelope", err)
	}

	switch {
	case strings.Contains(frame.Stream, "@kline"):
		return s.decodeKline(frame.Data)
	case strings.Contains(frame.Stream, "@depth"):
		return s.decodeDepth(symbol, frame.Data)
	default:
		return nil, nil
	}
}

func (s *BinanceStreamSource) decodeKline(data json.RawMessage) (types.StreamEvent, error) {
	var payload wsKlinePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid kline payload", err)
	}

	candle, err := candleFromKline(&binance.Kline{
		OpenTime: payload.Kline.StartTime,
		Open:     payload.Kline.Open,
		High:     payload.Kline.High,
		Low:      payload.Kline.Low,
		Close:    payload.Kline.Close,
	}, s.loc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid kline prices", err)
	}

	return types.CandleTickEvent{
		Symbol:  payload.Symbol,
		Candle:  candle,
		IsFinal: payload.Kline.IsFinal,
	}, nil
}

func (s *BinanceStreamSource) decodeDepth(symbol string, data json.RawMessage) (types.StreamEvent, error) {
	var payload wsDepthPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid depth payload", err)
	}

	asks, err := parseBookSide(payload.Asks)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid ask levels", err)
	}

	bids, err := parseBookSide(payload.Bids)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedEvent, "invalid bid levels", err)
	}

	return types.DepthDeltaEvent{
		Symbol: symbol,
		Asks:   asks,
		Bids:   bids,
	}, nil
}

// parseBookSide converts the exchange's [price, quantity] string pairs.
func parseBookSide(raw [][]string) ([]types.BookLevel, error) {
	levels := make([]types.BookLevel, 0, len(raw))

	for _, pair := range raw {
		if len(pair) < 2 {
			return nil, errors.Newf(errors.ErrCodeMalformedEvent, "book level has %d fields, want 2", len(pair))
		}

		level, err := parseBookLevel(pair[0], pair[1])
		if err != nil {
			return nil, err
		}

		levels = append(levels, level)
	}

	return levels, nil
}

// Ensure BinanceStreamSource implements StreamSource.
var _ StreamSource = (*BinanceStreamSource)(nil)
