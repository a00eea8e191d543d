// Package reconciler folds the live market data stream into the view state:
// candle ticks synchronously, depth deltas through a coalescing throttle,
// connection drops through a fixed-delay full reconnect.
package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-dashboard/internal/logger"
	"github.com/rxtech-lab/argo-dashboard/internal/types"
	"github.com/rxtech-lab/argo-dashboard/internal/view"
	"github.com/rxtech-lab/argo-dashboard/pkg/marketdata/provider"
)

// DefaultReconnectDelay is the pause before re-dialing a dropped stream.
const DefaultReconnectDelay = 5 * time.Second

// Reconciler consumes one subscription's events and applies them to the
// store. It owns the connection lifecycle; the stream source only ever
// serves single connections.
type Reconciler struct {
	source provider.StreamSource
	store  *view.Store
	req    provider.StreamRequest
	log    *logger.Logger

	reconnectDelay time.Duration
	throttleWindow time.Duration
	clock          Clock
}

// Option adjusts reconciler timing, mainly for tests.
type Option func(*Reconciler)

// WithReconnectDelay overrides the pause between reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(r *Reconciler) {
		r.reconnectDelay = d
	}
}

// WithThrottleWindow overrides the depth coalescing window.
func WithThrottleWindow(d time.Duration) Option {
	return func(r *Reconciler) {
		r.throttleWindow = d
	}
}

func withClock(clock Clock) Option {
	return func(r *Reconciler) {
		r.clock = clock
	}
}

// NewReconciler creates a reconciler for one stream subscription.
func NewReconciler(source provider.StreamSource, store *view.Store, req provider.StreamRequest, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		source:         source,
		store:          store,
		req:            req,
		log:            log,
		reconnectDelay: DefaultReconnectDelay,
		throttleWindow: DefaultThrottleWindow,
		clock:          systemClock{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run drives the connect-drain-reconnect loop until ctx is cancelled. A
// dropped connection is replaced by a full reconnect after the fixed delay;
// events missed in between are not replayed.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.store.SetConnectionState(types.StateConnecting)

		events, err := r.source.Subscribe(ctx, r.req)
		if err != nil {
			r.log.Warn("Stream subscribe failed",
				zap.String("symbol", r.req.Symbol),
				zap.Error(err),
			)
			r.store.SetConnectionState(types.StateDisconnected)

			if waitErr := r.waitReconnect(ctx); waitErr != nil {
				return waitErr
			}

			continue
		}

		r.store.SetConnectionState(types.StateConnected)

		r.drain(events)

		r.store.SetConnectionState(types.StateDisconnected)

		if err := ctx.Err(); err != nil {
			return err
		}

		r.log.Info("Stream dropped, reconnecting",
			zap.String("symbol", r.req.Symbol),
			zap.Duration("delay", r.reconnectDelay),
		)

		if err := r.waitReconnect(ctx); err != nil {
			return err
		}
	}
}

// drain applies events until the channel closes. The throttle lives and
// dies with the connection, so no stale depth flush survives a reconnect.
func (r *Reconciler) drain(events <-chan types.StreamEvent) {
	throttle := newThrottleWithClock(r.clock, r.throttleWindow, r.applyDepth)
	defer throttle.Stop()

	for event := range events {
		switch e := event.(type) {
		case types.CandleTickEvent:
			r.store.MergeCandle(e.Candle)
		case types.DepthDeltaEvent:
			throttle.Offer(e)
		case types.ConnectionClosedEvent:
			if e.Err != nil {
				r.log.Warn("Stream connection closed",
					zap.String("symbol", r.req.Symbol),
					zap.Error(e.Err),
				)
			}
		}
	}
}

// applyDepth pushes the coalesced delta's top of book into the store.
func (r *Reconciler) applyDepth(delta types.DepthDeltaEvent) {
	bestAsk, okAsk := delta.BestAsk()
	bestBid, okBid := delta.BestBid()

	if !okAsk || !okBid {
		return
	}

	r.store.PushDownBook(bestAsk, bestBid)
}

func (r *Reconciler) waitReconnect(ctx context.Context) error {
	timer := time.NewTimer(r.reconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
