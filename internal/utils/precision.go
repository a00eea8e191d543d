package utils

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

const (
	// MinPricePrecision is the fewest decimal places ever displayed.
	MinPricePrecision = 2
	// MaxPricePrecision is the most decimal places ever displayed.
	MaxPricePrecision = 12
)

// PricePrecision maps a price magnitude to the decimal places used to
// display it. High prices need few decimals (>= ~1000 gets 2), micro-cap
// prices need many to stay distinguishable:
//
//	45000       -> 2
//	2.75        -> 4
//	0.02        -> 6
//	0.005       -> 7
//	0.000000235 -> 11
//
// The result is -floor(log10(price)) + 4 clamped to [2, 12]. A non-positive
// price is a contract violation for market data and is rejected.
func PricePrecision(price float64) (int, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive, got %v", price)
	}

	dynamic := -int(math.Floor(math.Log10(price))) + 4
	if dynamic < MinPricePrecision {
		return MinPricePrecision, nil
	}

	if dynamic > MaxPricePrecision {
		return MaxPricePrecision, nil
	}

	return dynamic, nil
}

// DecimalPrecision resolves the display precision of a decimal price.
func DecimalPrecision(price decimal.Decimal) (int, error) {
	return PricePrecision(price.InexactFloat64())
}

// FormatPrice renders a price as a fixed-point string at its resolved
// precision. Falls back to the minimum precision when the price is invalid.
func FormatPrice(price decimal.Decimal) string {
	precision, err := DecimalPrecision(price)
	if err != nil {
		precision = MinPricePrecision
	}

	return price.StringFixed(int32(precision))
}
