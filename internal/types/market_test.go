package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MarketTypesTestSuite struct {
	suite.Suite
}

func TestMarketTypesSuite(t *testing.T) {
	suite.Run(t, new(MarketTypesTestSuite))
}

func (suite *MarketTypesTestSuite) TestCandleDirectionUp() {
	c := Candle{
		Time:  1704067200,
		Open:  decimal.NewFromFloat(42000),
		Close: decimal.NewFromFloat(42300),
	}
	suite.Equal(DirectionUp, c.Direction())
}

func (suite *MarketTypesTestSuite) TestCandleDirectionDown() {
	c := Candle{
		Time:  1704067200,
		Open:  decimal.NewFromFloat(42300),
		Close: decimal.NewFromFloat(42000),
	}
	suite.Equal(DirectionDown, c.Direction())
}

func (suite *MarketTypesTestSuite) TestCandleDirectionNeutral() {
	c := Candle{
		Time:  1704067200,
		Open:  decimal.NewFromFloat(42000),
		Close: decimal.NewFromFloat(42000),
	}
	suite.Equal(DirectionNeutral, c.Direction())
}

func (suite *MarketTypesTestSuite) TestBookLevelValue() {
	l := BookLevel{
		Price:    decimal.NewFromFloat(42000),
		Quantity: decimal.NewFromFloat(0.5),
	}
	suite.True(l.Value().Equal(decimal.NewFromFloat(21000)))
}

func (suite *MarketTypesTestSuite) TestDepthDeltaBestLevels() {
	delta := DepthDeltaEvent{
		Symbol: "BTCUSDT",
		Asks: []BookLevel{
			{Price: decimal.NewFromFloat(42001), Quantity: decimal.NewFromFloat(1)},
			{Price: decimal.NewFromFloat(42002), Quantity: decimal.NewFromFloat(2)},
		},
		Bids: []BookLevel{
			{Price: decimal.NewFromFloat(42000), Quantity: decimal.NewFromFloat(3)},
		},
	}

	ask, ok := delta.BestAsk()
	suite.True(ok)
	suite.True(ask.Price.Equal(decimal.NewFromFloat(42001)))

	bid, ok := delta.BestBid()
	suite.True(ok)
	suite.True(bid.Price.Equal(decimal.NewFromFloat(42000)))
}

func (suite *MarketTypesTestSuite) TestDepthDeltaEmptySides() {
	delta := DepthDeltaEvent{Symbol: "BTCUSDT"}

	_, ok := delta.BestAsk()
	suite.False(ok)

	_, ok = delta.BestBid()
	suite.False(ok)
}
