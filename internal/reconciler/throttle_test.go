package reconciler

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-dashboard/internal/types"
)

// manualClock fires scheduled callbacks only when the test advances it.
type manualClock struct {
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	deadline time.Duration
	f        func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	stopped := t.stopped
	t.stopped = true

	return !stopped
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	timer := &manualTimer{deadline: c.now + d, f: f}
	c.timers = append(c.timers, timer)

	return timer
}

// Advance moves the clock forward and fires due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.now += d

	for _, timer := range c.timers {
		if !timer.stopped && timer.deadline <= c.now {
			timer.stopped = true
			timer.f()
		}
	}
}

type ThrottleTestSuite struct {
	suite.Suite
	clock   *manualClock
	flushed []types.DepthDeltaEvent
}

func (suite *ThrottleTestSuite) SetupTest() {
	suite.clock = &manualClock{}
	suite.flushed = nil
}

func (suite *ThrottleTestSuite) newThrottle() *Throttle {
	return newThrottleWithClock(suite.clock, DefaultThrottleWindow, func(delta types.DepthDeltaEvent) {
		suite.flushed = append(suite.flushed, delta)
	})
}

func delta(askPrice string) types.DepthDeltaEvent {
	return types.DepthDeltaEvent{
		Symbol: "BTCUSDT",
		Asks:   []types.BookLevel{{Price: decimal.RequireFromString(askPrice), Quantity: decimal.NewFromInt(1)}},
	}
}

func (suite *ThrottleTestSuite) TestCoalescesToLatestDelta() {
	throttle := suite.newThrottle()

	for i := range 10 {
		throttle.Offer(delta(decimal.NewFromInt(int64(100 + i)).String()))
	}

	suite.Empty(suite.flushed)

	suite.clock.Advance(DefaultThrottleWindow)

	suite.Require().Len(suite.flushed, 1)
	suite.Equal("109", suite.flushed[0].Asks[0].Price.String())
}

func (suite *ThrottleTestSuite) TestSeparateWindowsFlushSeparately() {
	throttle := suite.newThrottle()

	throttle.Offer(delta("100"))
	suite.clock.Advance(DefaultThrottleWindow)

	throttle.Offer(delta("200"))
	suite.clock.Advance(DefaultThrottleWindow)

	suite.Require().Len(suite.flushed, 2)
	suite.Equal("100", suite.flushed[0].Asks[0].Price.String())
	suite.Equal("200", suite.flushed[1].Asks[0].Price.String())
}

func (suite *ThrottleTestSuite) TestIdleWindowDoesNotFlush() {
	throttle := suite.newThrottle()

	throttle.Offer(delta("100"))
	suite.clock.Advance(DefaultThrottleWindow)
	suite.clock.Advance(DefaultThrottleWindow)

	suite.Len(suite.flushed, 1)
}

func (suite *ThrottleTestSuite) TestStopDropsPendingDelta() {
	throttle := suite.newThrottle()

	throttle.Offer(delta("100"))
	throttle.Stop()
	suite.clock.Advance(DefaultThrottleWindow)

	suite.Empty(suite.flushed)
}

func (suite *ThrottleTestSuite) TestOfferAfterStopIsIgnored() {
	throttle := suite.newThrottle()
	throttle.Stop()

	throttle.Offer(delta("100"))
	suite.clock.Advance(DefaultThrottleWindow)

	suite.Empty(suite.flushed)
}

func TestThrottleTestSuite(t *testing.T) {
	suite.Run(t, new(ThrottleTestSuite))
}
