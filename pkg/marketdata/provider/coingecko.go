package provider

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

const (
	// DefaultIconBaseURL is the CoinGecko REST endpoint.
	DefaultIconBaseURL = "https://api.coingecko.com/api/v3"

	// iconPageSize is the maximum page size CoinGecko allows.
	iconPageSize = 250
)

// CoinGeckoCatalog implements IconCatalog against the CoinGecko markets
// endpoint. Symbols are uppercased so they can be matched against exchange
// base assets directly.
type CoinGeckoCatalog struct {
	client *resty.Client
	log    *logger.Logger
}

// NewCoinGeckoCatalog creates an icon catalog against the public CoinGecko
// API.
func NewCoinGeckoCatalog(log *logger.Logger) *CoinGeckoCatalog {
	client := resty.New().
		SetBaseURL(DefaultIconBaseURL).
		SetTimeout(DefaultRequestTimeout)

	return &CoinGeckoCatalog{
		client: client,
		log:    log,
	}
}

// newCoinGeckoCatalogWithBaseURL creates a catalog against a custom endpoint.
// This is used for testing with a mock server.
func newCoinGeckoCatalogWithBaseURL(baseURL string, log *logger.Logger) *CoinGeckoCatalog {
	c := NewCoinGeckoCatalog(log)
	c.client.SetBaseURL(baseURL)

	return c
}

// coinMarket is the subset of the markets response the catalog needs.
type coinMarket struct {
	Symbol string `json:"symbol"`
	Image  string `json:"image"`
}

// LoadIcons implements IconCatalog. Pages are fetched concurrently and
// merged in page order, so a symbol listed on several pages keeps the
// image of the last page that carries it. Pages that fail are logged and
// skipped; the call fails only when every page fails.
func (c *CoinGeckoCatalog) LoadIcons(ctx context.Context, pages int) (map[string]string, error) {
	if pages <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "pages must be positive, got %d", pages)
	}

	results := make([][]coinMarket, pages)
	pageErrs := make([]error, pages)

	var wg sync.WaitGroup

	for page := 1; page <= pages; page++ {
		wg.Add(1)

		go func(page int) {
			defer wg.Done()

			coins, err := c.fetchPage(ctx, page)
			if err != nil {
				pageErrs[page-1] = err

				return
			}

			results[page-1] = coins
		}(page)
	}

	wg.Wait()

	icons := make(map[string]string)

	for i, coins := range results {
		if pageErrs[i] != nil {
			c.log.Warn("Skipping failed icon catalog page",
				zap.Int("page", i+1),
				zap.Error(pageErrs[i]),
			)

			continue
		}

		for _, coin := range coins {
			if coin.Image == "" {
				continue
			}

			icons[strings.ToUpper(coin.Symbol)] = coin.Image
		}
	}

	if len(icons) == 0 {
		for _, err := range pageErrs {
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeIconCatalogUnavailable, "failed to load any icon catalog page", err)
			}
		}
	}

	return icons, nil
}

func (c *CoinGeckoCatalog) fetchPage(ctx context.Context, page int) ([]coinMarket, error) {
	var coins []coinMarket

	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"order":       "market_cap_desc",
			"per_page":    strconv.Itoa(iconPageSize),
			"page":        strconv.Itoa(page),
			"sparkline":   "false",
		}).
		SetResult(&coins).
		Get("/coins/markets")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeIconCatalogUnavailable, err, "failed to fetch icon catalog page %d", page)
	}

	if !res.IsSuccess() {
		return nil, errors.Newf(errors.ErrCodeIconCatalogUnavailable, "icon catalog page %d returned status %d", page, res.StatusCode())
	}

	return coins, nil
}

// Ensure CoinGeckoCatalog implements IconCatalog.
var _ IconCatalog = (*CoinGeckoCatalog)(nil)
