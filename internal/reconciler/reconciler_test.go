package reconciler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/view"
	"github.com/rxtech-lab/argo-dashboard/pkg/errors"
	"github.com/rxtech-lab/argo-dashboard/pkg/marketdata/provider"
)

// fakeStreamSource serves one pre-scripted event channel per Subscribe call.
type fakeStreamSource struct {
	mu          sync.Mutex
	scripts     [][]types.StreamEvent
	subscribeAt []time.Time
	dialErr     error
}

func (f *fakeStreamSource) Subscribe(_ context.Context, _ provider.StreamRequest) (<-chan types.StreamEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subscribeAt = append(f.subscribeAt, time.Now())

	if f.dialErr != nil && len(f.subscribeAt) == 1 {
		return nil, f.dialErr
	}

	var script []types.StreamEvent
	if len(f.scripts) > 0 {
		script = f.scripts[0]
		f.scripts = f.scripts[1:]
	}

	events := make(chan types.StreamEvent, len(script)+1)
	for _, event := range script {
		events <- event
	}
	close(events)

	return events, nil
}

func (f *fakeStreamSource) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subscribeAt)
}

type ReconcilerTestSuite struct {
	suite.Suite
	store *view.Store
}

func (suite *ReconcilerTestSuite) SetupTest() {
	suite.store = view.NewStore("BTCUSDT")
}

func (suite *ReconcilerTestSuite) newReconciler(source provider.StreamSource, opts ...Option) *Reconciler {
	req := provider.StreamRequest{Symbol: "BTCUSDT", Interval: "1m", Depth: 10}
	base := []Option{WithReconnectDelay(10 * time.Millisecond)}

	return NewReconciler(source, suite.store, req, logger.NewNopLogger(), append(base, opts...)...)
}

func tick(t int64, close string) types.CandleTickEvent {
	return types.CandleTickEvent{
		Symbol: "BTCUSDT",
		Candle: types.Candle{
			Time:  t,
			Open:  decimal.RequireFromString(close),
			High:  decimal.RequireFromString(close),
			Low:   decimal.RequireFromString(close),
			Close: decimal.RequireFromString(close),
		},
	}
}

func depth(askPrice, bidPrice string) types.DepthDeltaEvent {
	return types.DepthDeltaEvent{
		Symbol: "BTCUSDT",
		Asks:   []types.BookLevel{{Price: decimal.RequireFromString(askPrice), Quantity: decimal.NewFromInt(1)}},
		Bids:   []types.BookLevel{{Price: decimal.RequireFromString(bidPrice), Quantity: decimal.NewFromInt(1)}},
	}
}

// runUntilSubscribes runs the reconciler until the source has seen the
// wanted number of Subscribe calls, then cancels.
func (suite *ReconcilerTestSuite) runUntilSubscribes(r *Reconciler, source *fakeStreamSource, want int) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	deadline := time.After(5 * time.Second)
	for source.subscribeCount() < want {
		select {
		case <-deadline:
			cancel()
			<-done
			suite.FailNow("timed out waiting for subscribe attempts")

			return
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}

func (suite *ReconcilerTestSuite) TestCandleTicksApplyInOrder() {
	source := &fakeStreamSource{scripts: [][]types.StreamEvent{{
		tick(100, "10"),
		tick(100, "10.5"),
		tick(160, "11"),
	}}}

	suite.runUntilSubscribes(suite.newReconciler(source), source, 1)

	snap := suite.store.Snapshot()
	suite.Require().Len(snap.Candles, 2)
	suite.Equal("10.5", snap.Candles[0].Close.String())
	suite.Equal("11", snap.CurrentPrice.String())
}

func (suite *ReconcilerTestSuite) TestDepthDeltasCoalesceThroughThrottle() {
	clock := &manualClock{}

	events := make([]types.StreamEvent, 0, 10)
	for i := range 10 {
		price := decimal.NewFromInt(int64(100 + i))
		events = append(events, depth(price.String(), price.Sub(decimal.NewFromInt(1)).String()))
	}

	source := &fakeStreamSource{scripts: [][]types.StreamEvent{events}}

	suite.runUntilSubscribes(suite.newReconciler(source, withClock(clock)), source, 1)

	// All ten deltas landed inside one unfired window: nothing rendered yet.
	suite.Empty(suite.store.Snapshot().Asks)
}

func (suite *ReconcilerTestSuite) TestThrottleFlushAppliesLatestDelta() {
	store := suite.store
	clock := &manualClock{}

	throttle := newThrottleWithClock(clock, DefaultThrottleWindow, func(delta types.DepthDeltaEvent) {
		bestAsk, _ := delta.BestAsk()
		bestBid, _ := delta.BestBid()
		store.PushDownBook(bestAsk, bestBid)
	})

	for i := range 10 {
		price := decimal.NewFromInt(int64(100 + i))
		throttle.Offer(depth(price.String(), price.Sub(decimal.NewFromInt(1)).String()))
	}

	clock.Advance(DefaultThrottleWindow)

	snap := store.Snapshot()
	suite.Require().Len(snap.Asks, 1)
	suite.Equal("109", snap.Asks[0].Price.String())
	suite.Equal("108", snap.Bids[0].Price.String())
}

func (suite *ReconcilerTestSuite) TestReconnectsAfterDelay() {
	source := &fakeStreamSource{scripts: [][]types.StreamEvent{
		{types.ConnectionClosedEvent{Err: errors.New(errors.ErrCodeStreamDisconnected, "dropped")}},
		{tick(100, "10")},
	}}

	suite.runUntilSubscribes(suite.newReconciler(source), source, 2)

	suite.GreaterOrEqual(source.subscribeCount(), 2)

	elapsed := source.subscribeAt[1].Sub(source.subscribeAt[0])
	suite.GreaterOrEqual(elapsed, 10*time.Millisecond)
}

func (suite *ReconcilerTestSuite) TestDialFailureRetries() {
	source := &fakeStreamSource{
		dialErr: errors.New(errors.ErrCodeStreamDialFailed, "refused"),
		scripts: [][]types.StreamEvent{nil, {tick(100, "10")}},
	}

	suite.runUntilSubscribes(suite.newReconciler(source), source, 2)

	suite.GreaterOrEqual(source.subscribeCount(), 2)
}

func (suite *ReconcilerTestSuite) TestRunStopsOnContextCancel() {
	source := &fakeStreamSource{}
	r := suite.newReconciler(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx)
	suite.ErrorIs(err, context.Canceled)
}

func TestReconcilerTestSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}
