package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

type CoinGeckoTestSuite struct {
	suite.Suite
}

func (suite *CoinGeckoTestSuite) newServer(pages map[string][]coinMarket, failPages map[string]int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")

		if status, ok := failPages[page]; ok {
			w.WriteHeader(status)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pages[page])
	}))
}

func (suite *CoinGeckoTestSuite) TestLoadIconsUppercasesSymbols() {
	server := suite.newServer(map[string][]coinMarket{
		"1": {
			{Symbol: "btc", Image: "https://img/btc.png"},
			{Symbol: "eth", Image: "https://img/eth.png"},
		},
	}, nil)
	defer server.Close()

	catalog := newCoinGeckoCatalogWithBaseURL(server.URL, logger.NewNopLogger())

	icons, err := catalog.LoadIcons(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Equal("https://img/btc.png", icons["BTC"])
	suite.Equal("https://img/eth.png", icons["ETH"])
}

func (suite *CoinGeckoTestSuite) TestLoadIconsMergesPagesInOrder() {
	server := suite.newServer(map[string][]coinMarket{
		"1": {
			{Symbol: "btc", Image: "https://img/btc-page1.png"},
			{Symbol: "eth", Image: "https://img/eth.png"},
		},
		"2": {
			{Symbol: "btc", Image: "https://img/btc-page2.png"},
			{Symbol: "sol", Image: "https://img/sol.png"},
		},
	}, nil)
	defer server.Close()

	catalog := newCoinGeckoCatalogWithBaseURL(server.URL, logger.NewNopLogger())

	icons, err := catalog.LoadIcons(context.Background(), 2)
	suite.Require().NoError(err)
	suite.Len(icons, 3)
	suite.Equal("https://img/btc-page2.png", icons["BTC"])
	suite.Equal("https://img/sol.png", icons["SOL"])
}

func (suite *CoinGeckoTestSuite) TestLoadIconsSkipsEmptyImages() {
	server := suite.newServer(map[string][]coinMarket{
		"1": {
			{Symbol: "btc", Image: "https://img/btc.png"},
			{Symbol: "mystery", Image: ""},
		},
	}, nil)
	defer server.Close()

	catalog := newCoinGeckoCatalogWithBaseURL(server.URL, logger.NewNopLogger())

	icons, err := catalog.LoadIcons(context.Background(), 1)
	suite.Require().NoError(err)
	suite.Len(icons, 1)
}

func (suite *CoinGeckoTestSuite) TestLoadIconsToleratesPartialFailure() {
	server := suite.newServer(map[string][]coinMarket{
		"1": {{Symbol: "btc", Image: "https://img/btc.png"}},
	}, map[string]int{"2": http.StatusTooManyRequests})
	defer server.Close()

	catalog := newCoinGeckoCatalogWithBaseURL(server.URL, logger.NewNopLogger())

	icons, err := catalog.LoadIcons(context.Background(), 2)
	suite.Require().NoError(err)
	suite.Len(icons, 1)
	suite.Equal("https://img/btc.png", icons["BTC"])
}

func (suite *CoinGeckoTestSuite) TestLoadIconsFailsWhenAllPagesFail() {
	server := suite.newServer(nil, map[string]int{
		"1": http.StatusInternalServerError,
		"2": http.StatusInternalServerError,
	})
	defer server.Close()

	catalog := newCoinGeckoCatalogWithBaseURL(server.URL, logger.NewNopLogger())

	_, err := catalog.LoadIcons(context.Background(), 2)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIconCatalogUnavailable))
}

func (suite *CoinGeckoTestSuite) TestLoadIconsRejectsNonPositivePages() {
	catalog := NewCoinGeckoCatalog(logger.NewNopLogger())

	_, err := catalog.LoadIcons(context.Background(), 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestCoinGeckoTestSuite(t *testing.T) {
	suite.Run(t, new(CoinGeckoTestSuite))
}
