// Package marketdata assembles the snapshot loader, the icon catalog and the
// stream source behind one configured client.
package marketdata

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
	"github.com/rxtech-lab/argo-dashboard/pkg/marketdata/provider"
)

// Config holds the configuration for the market data client.
type Config struct {
	QuoteAsset      string        `yaml:"quote_asset" json:"quote_asset" jsonschema:"title=Quote Asset,description=Quote asset suffix used to filter tradable pairs,default=USDT" validate:"required,uppercase"`
	Interval        string        `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Candle bucket for the live chart,default=1m" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	HistoryLimit    int           `yaml:"history_limit" json:"history_limit" jsonschema:"title=History Limit,description=Number of historical candles to seed the chart,default=30,minimum=1" validate:"required,min=1,max=1000"`
	Depth           int           `yaml:"depth" json:"depth" jsonschema:"title=Depth,description=Order book levels per side on the live stream,default=10" validate:"required,oneof=5 10 20"`
	IconPages       int           `yaml:"icon_pages" json:"icon_pages" jsonschema:"title=Icon Pages,description=Number of icon catalog pages to fetch,default=2,minimum=1" validate:"required,min=1"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval" jsonschema:"title=Refresh Interval,description=Pause between full ticker refreshes" validate:"required,min=1s"`
}

// DefaultConfig returns the configuration matching the hosted dashboard.
func DefaultConfig() Config {
	return Config{
		QuoteAsset:      "USDT",
		Interval:        "1m",
		HistoryLimit:    30,
		Depth:           10,
		IconPages:       2,
		RefreshInterval: 5 * time.Second,
	}
}

// Client bundles the snapshot loader, icon catalog and stream source for one
// configured market.
type Client struct {
	config   Config
	loader   provider.SnapshotLoader
	catalog  provider.IconCatalog
	source   provider.StreamSource
	validate *validator.Validate
	log      *logger.Logger
}

// NewClient creates a market data client against the public Binance and
// CoinGecko APIs. Candle timestamps are rendered in the given location.
func NewClient(config Config, loc *time.Location, log *logger.Logger) (*Client, error) {
	return newClientWithProviders(
		config,
		provider.NewBinanceSnapshotProvider(loc, log),
		provider.NewCoinGeckoCatalog(log),
		provider.NewBinanceStreamSource(loc, log),
		log,
	)
}

// newClientWithProviders wires explicit providers, used by tests.
func newClientWithProviders(config Config, loader provider.SnapshotLoader, catalog provider.IconCatalog, source provider.StreamSource, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return &Client{
		config:   config,
		loader:   loader,
		catalog:  catalog,
		source:   source,
		validate: validate,
		log:      log,
	}, nil
}

// Config returns the validated configuration.
func (c *Client) Config() Config {
	return c.config
}

// LoadIcons fetches the configured number of icon catalog pages.
func (c *Client) LoadIcons(ctx context.Context) (map[string]string, error) {
	return c.catalog.LoadIcons(ctx, c.config.IconPages)
}

// LoadTickers fetches the tradable pairs for the configured quote asset,
// keeping only entries with a known icon and live market activity.
func (c *Client) LoadTickers(ctx context.Context, icons map[string]string) ([]types.TickerSnapshot, error) {
	return c.loader.LoadTickers(ctx, c.config.QuoteAsset, icons)
}

// LoadCandleHistory seeds the chart window for one symbol at the configured
// interval.
func (c *Client) LoadCandleHistory(ctx context.Context, symbol string) ([]types.Candle, error) {
	return c.loader.LoadCandleHistory(ctx, symbol, c.config.Interval, c.config.HistoryLimit)
}

// LoadOrderBookSnapshot fetches the initial book for one symbol at the
// configured depth.
func (c *Client) LoadOrderBookSnapshot(ctx context.Context, symbol string) (provider.BookSnapshot, error) {
	return c.loader.LoadOrderBookSnapshot(ctx, symbol, c.config.Depth)
}

// SnapshotLoader exposes the underlying loader for callers that fetch at
// their own interval, such as the ranking selector.
func (c *Client) SnapshotLoader() provider.SnapshotLoader {
	return c.loader
}

// StreamRequest builds the validated subscription request for one symbol.
func (c *Client) StreamRequest(symbol string) (provider.StreamRequest, error) {
	req := provider.StreamRequest{
		Symbol:   symbol,
		Interval: c.config.Interval,
		Depth:    c.config.Depth,
	}

	if err := c.validate.Struct(req); err != nil {
		return provider.StreamRequest{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid stream request", err)
	}

	return req, nil
}

// StreamSource exposes the live feed for the reconciler.
func (c *Client) StreamSource() provider.StreamSource {
	return c.source
}

// RunTickerRefresh reloads the ticker collection on the configured interval
// and hands each batch to apply, until ctx is cancelled. A failed refresh
// keeps the previous collection on screen.
func (c *Client) RunTickerRefresh(ctx context.Context, icons map[string]string, apply func([]types.TickerSnapshot)) error {
	ticker := time.NewTicker(c.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tickers, err := c.LoadTickers(ctx, icons)
			if err != nil {
				c.log.Warn("Ticker refresh failed, keeping previous collection", zap.Error(err))

				continue
			}

			apply(tickers)
		}
	}
}
