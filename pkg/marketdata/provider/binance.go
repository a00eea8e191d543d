package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

// Service interfaces for mocking the Binance API

// KlinesService interface for fetching historical candles.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// DepthService interface for fetching order book snapshots.
type DepthService interface {
	Symbol(symbol string) DepthService
	Limit(limit int) DepthService
	Do(ctx context.Context) (*binance.DepthResponse, error)
}

// PriceStatsService interface for fetching 24h ticker statistics.
type PriceStatsService interface {
	Do(ctx context.Context) ([]*binance.PriceChangeStats, error)
}

// BinanceAPI abstracts the Binance REST client for testing.
type BinanceAPI interface {
	NewKlinesService() KlinesService
	NewDepthService() DepthService
	NewListPriceChangeStatsService() PriceStatsService
}

// realBinanceAPI wraps the actual binance.Client.
type realBinanceAPI struct {
	client *binance.Client
}

func (r *realBinanceAPI) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realBinanceAPI) NewDepthService() DepthService {
	return &realDepthService{service: r.client.NewDepthService()}
}

func (r *realBinanceAPI) NewListPriceChangeStatsService() PriceStatsService {
	return &realPriceStatsService{service: r.client.NewListPriceChangeStatsService()}
}

type realKlinesService struct {
	service *binance.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type realDepthService struct {
	service *binance.DepthService
}

func (s *realDepthService) Symbol(symbol string) DepthService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realDepthService) Limit(limit int) DepthService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realDepthService) Do(ctx context.Context) (*binance.DepthResponse, error) {
	return s.service.Do(ctx)
}

type realPriceStatsService struct {
	service *binance.ListPriceChangeStatsService
}

func (s *realPriceStatsService) Do(ctx context.Context) ([]*binance.PriceChangeStats, error) {
	return s.service.Do(ctx)
}

// BinanceSnapshotProvider implements SnapshotLoader using the Binance REST
// API. It is stateless - every call fetches fresh data.
type BinanceSnapshotProvider struct {
	api BinanceAPI
	loc *time.Location
	log *logger.Logger
}

// NewBinanceSnapshotProvider creates a snapshot loader against the public
// Binance REST API. Candle timestamps are adjusted to the given location.
func NewBinanceSnapshotProvider(loc *time.Location, log *logger.Logger) *BinanceSnapshotProvider {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}

	return &BinanceSnapshotProvider{
		api: &realBinanceAPI{client: client},
		loc: loc,
		log: log,
	}
}

// newBinanceSnapshotProviderWithAPI creates a snapshot loader with a custom
// API implementation. This is used for testing with mock services.
func newBinanceSnapshotProviderWithAPI(api BinanceAPI, loc *time.Location, log *logger.Logger) *BinanceSnapshotProvider {
	return &BinanceSnapshotProvider{
		api: api,
		loc: loc,
		log: log,
	}
}

// LoadTickers implements SnapshotLoader. The result replaces the previous
// ticker collection wholesale; entries are kept in the order the exchange
// returns them.
func (p *BinanceSnapshotProvider) LoadTickers(ctx context.Context, quoteAsset string, icons map[string]string) ([]types.TickerSnapshot, error) {
	stats, err := p.api.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotUnavailable, "failed to fetch 24h ticker statistics", err)
	}

	tickers := make([]types.TickerSnapshot, 0, len(stats))

	for _, s := range stats {
		if !strings.HasSuffix(s.Symbol, quoteAsset) {
			continue
		}

		base := strings.TrimSuffix(s.Symbol, quoteAsset)

		iconURL, ok := icons[base]
		if !ok {
			continue
		}

		ticker, convertErr := convertPriceStats(s, base, iconURL)
		if convertErr != nil {
			p.log.Warn("Dropping unparseable ticker entry",
				zap.String("symbol", s.Symbol),
				zap.Error(convertErr),
			)

			continue
		}

		if !tickerIsSane(ticker) {
			continue
		}

		tickers = append(tickers, ticker)
	}

	return tickers, nil
}

// LoadCandleHistory implements SnapshotLoader.
func (p *BinanceSnapshotProvider) LoadCandleHistory(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error) {
	klines, err := p.api.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSnapshotUnavailable, err, "failed to fetch klines for %s", symbol)
	}

	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		candle, convertErr := candleFromKline(k, p.loc)
		if convertErr != nil {
			// A malformed bar means the whole history is suspect: never seed
			// the chart with partial data.
			return nil, errors.Wrapf(errors.ErrCodeSnapshotParseFailed, convertErr, "failed to parse kline for %s", symbol)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// LoadOrderBookSnapshot implements SnapshotLoader.
func (p *BinanceSnapshotProvider) LoadOrderBookSnapshot(ctx context.Context, symbol string, depth int) (BookSnapshot, error) {
	res, err := p.api.NewDepthService().
		Symbol(symbol).
		Limit(depth).
		Do(ctx)
	if err != nil {
		return BookSnapshot{}, errors.Wrapf(errors.ErrCodeSnapshotUnavailable, err, "failed to fetch depth snapshot for %s", symbol)
	}

	asks := make([]types.BookLevel, 0, len(res.Asks))

	for _, a := range res.Asks {
		level, parseErr := parseBookLevel(a.Price, a.Quantity)
		if parseErr != nil {
			return BookSnapshot{}, errors.Wrapf(errors.ErrCodeSnapshotParseFailed, parseErr, "failed to parse ask level for %s", symbol)
		}

		asks = append(asks, level)
	}

	bids := make([]types.BookLevel, 0, len(res.Bids))

	for _, b := range res.Bids {
		level, parseErr := parseBookLevel(b.Price, b.Quantity)
		if parseErr != nil {
			return BookSnapshot{}, errors.Wrapf(errors.ErrCodeSnapshotParseFailed, parseErr, "failed to parse bid level for %s", symbol)
		}

		bids = append(bids, level)
	}

	return BookSnapshot{
		LastUpdateID: res.LastUpdateID,
		Asks:         asks,
		Bids:         bids,
	}, nil
}

// Helper functions

// localBucketTime converts an exchange open time in milliseconds to
// local-epoch seconds: the UTC epoch second shifted by the location's
// offset, so the chart time axis reads as local wall-clock time.
func localBucketTime(openTimeMillis int64, loc *time.Location) int64 {
	sec := openTimeMillis / 1000
	_, offset := time.Unix(sec, 0).In(loc).Zone()

	return sec + int64(offset)
}

// candleFromKline converts a Binance kline to a Candle.
func candleFromKline(k *binance.Kline, loc *time.Location) (types.Candle, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return types.Candle{}, err
	}

	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return types.Candle{}, err
	}

	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return types.Candle{}, err
	}

	closePrice, err := decimal.NewFromString(k.Close)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Time:  localBucketTime(k.OpenTime, loc),
		Open:  open,
		High:  high,
		Low:   low,
		Close: closePrice,
	}, nil
}

// parseBookLevel converts a price/quantity string pair to a BookLevel.
func parseBookLevel(price, quantity string) (types.BookLevel, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return types.BookLevel{}, err
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return types.BookLevel{}, err
	}

	return types.BookLevel{Price: p, Quantity: q}, nil
}

// convertPriceStats converts Binance 24h statistics to a TickerSnapshot.
func convertPriceStats(s *binance.PriceChangeStats, base, iconURL string) (types.TickerSnapshot, error) {
	lastPrice, err := decimal.NewFromString(s.LastPrice)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	changePct, err := decimal.NewFromString(s.PriceChangePercent)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	high, err := decimal.NewFromString(s.HighPrice)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	low, err := decimal.NewFromString(s.LowPrice)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	quoteVolume, err := decimal.NewFromString(s.QuoteVolume)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	volume, err := decimal.NewFromString(s.Volume)
	if err != nil {
		return types.TickerSnapshot{}, err
	}

	return types.TickerSnapshot{
		Symbol:             s.Symbol,
		BaseAsset:          base,
		LastPrice:          lastPrice,
		PriceChangePercent: changePct,
		HighPrice:          high,
		LowPrice:           low,
		QuoteVolume:        quoteVolume,
		Volume:             volume,
		TradeCount:         s.Count,
		IconURL:            iconURL,
	}, nil
}

// tickerIsSane drops entries that would render as an empty or dead market:
// non-positive last price or volumes, or a zero trade count.
func tickerIsSane(t types.TickerSnapshot) bool {
	if !t.LastPrice.IsPositive() {
		return false
	}

	if !t.Volume.IsPositive() || !t.QuoteVolume.IsPositive() {
		return false
	}

	return t.TradeCount > 0
}

// Ensure BinanceSnapshotProvider implements SnapshotLoader.
var _ SnapshotLoader = (*BinanceSnapshotProvider)(nil)
