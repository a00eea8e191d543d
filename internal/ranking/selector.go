// Package ranking picks the best performing instrument of a basket by
// lookback return over a fixed daily-candle window.
package ranking

import (
	"context"
	"math"
	"sync"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
)

const (
	// LookbackInterval is the candle bucket used for ranking.
	LookbackInterval = "1d"

	// LookbackWindow is the number of daily candles per candidate.
	LookbackWindow = 30
)

// CandleHistoryLoader is the slice of the snapshot loader the selector
// needs.
type CandleHistoryLoader interface {
	LoadCandleHistory(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error)
}

// Selector ranks a basket of instruments by lookback return.
type Selector struct {
	loader CandleHistoryLoader
	log    *logger.Logger
}

// NewSelector creates a selector over the given history loader.
func NewSelector(loader CandleHistoryLoader, log *logger.Logger) *Selector {
	return &Selector{
		loader: loader,
		log:    log,
	}
}

// BestPerformer fetches each candidate's daily window concurrently and
// returns the one with the highest percent return between the first and
// last close, rounded to two decimals. A candidate whose fetch fails or
// whose series is unusable is excluded without failing the ranking; ties
// keep the candidate listed first. Returns None when no candidate yields a
// return, and an error only for an empty basket.
func (s *Selector) BestPerformer(ctx context.Context, basket []string) (optional.Option[types.RankedInstrument], error) {
	if len(basket) == 0 {
		return optional.None[types.RankedInstrument](), errors.New(errors.ErrCodeEmptyBasket, "ranking basket is empty")
	}

	returns := make([]float64, len(basket))
	failures := make([]error, len(basket))

	var wg sync.WaitGroup

	for i, symbol := range basket {
		wg.Add(1)

		go func(i int, symbol string) {
			defer wg.Done()

			pct, err := s.lookbackReturn(ctx, symbol)
			if err != nil {
				failures[i] = err

				return
			}

			returns[i] = pct
		}(i, symbol)
	}

	wg.Wait()

	best := optional.None[types.RankedInstrument]()
	bestReturn := math.Inf(-1)

	for i, symbol := range basket {
		if failures[i] != nil {
			s.log.Warn("Excluding candidate from ranking",
				zap.String("symbol", symbol),
				zap.Error(failures[i]),
			)

			continue
		}

		// Strict comparison keeps the earlier candidate on a tie.
		if returns[i] > bestReturn {
			bestReturn = returns[i]
			best = optional.Some(types.RankedInstrument{
				Symbol:        symbol,
				ReturnPercent: roundToCents(returns[i]),
			})
		}
	}

	return best, nil
}

// lookbackReturn computes the percent change between the first and last
// close of the candidate's daily window.
func (s *Selector) lookbackReturn(ctx context.Context, symbol string) (float64, error) {
	candles, err := s.loader.LoadCandleHistory(ctx, symbol, LookbackInterval, LookbackWindow)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeCandidateUnavailable, err, "failed to load history for %s", symbol)
	}

	if len(candles) == 0 {
		return 0, errors.Newf(errors.ErrCodeCandidateUnavailable, "empty history for %s", symbol)
	}

	first := candles[0].Close
	last := candles[len(candles)-1].Close

	if first.IsZero() {
		return 0, errors.Newf(errors.ErrCodeCandidateUnavailable, "zero opening close for %s", symbol)
	}

	pct, _ := last.Sub(first).Div(first).Float64()

	return pct * 100, nil
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
