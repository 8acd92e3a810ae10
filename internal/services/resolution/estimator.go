// Package resolution estimates when a card auction settles.
package resolution

import (
	"slices"
	"time"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Grace period an auction stays open after the last move of a winning price.
const Grace = time.Hour

// ErrNoEvents is returned when there is no market history to estimate from.
var ErrNoEvents = errors.New("no market events to estimate from")

// extremum best price seen on one side and when it was last improved.
type extremum struct {
	price     decimal.Decimal
	timestamp int64
	set       bool
}

// Result outcome of an estimation.
type Result struct {
	// ResolvesAt estimated settlement instant, UTC.
	ResolvesAt time.Time
	// Crossed reports whether the walk stopped because the highest bid met the lowest ask.
	Crossed bool
	// LowestAsk lowest ask seen during the walk, invalid when none.
	LowestAsk decimal.NullDecimal
	// HighestBid highest bid seen during the walk, invalid when none.
	HighestBid decimal.NullDecimal
}

// Estimator walks market history in time order.
type Estimator struct {
	l *zap.Logger
}

// NewEstimator returns an estimator that traces each step at debug level.
func NewEstimator(l *zap.Logger) *Estimator {
	if l == nil {
		l = zap.NewNop()
	}
	return &Estimator{l: l}
}

// Estimate returns the settlement instant for events using a silent estimator.
func Estimate(events []entity.MarketEvent) (time.Time, error) {
	res, err := NewEstimator(nil).Estimate(events)
	if err != nil {
		return time.Time{}, err
	}
	return res.ResolvesAt, nil
}

// Estimate sorts events by timestamp and tracks the lowest ask and the highest
// bid until they cross. The result is the later of the two last improvements
// plus Grace. Ties never move an extremum. The input slice is not modified.
func (e *Estimator) Estimate(events []entity.MarketEvent) (Result, error) {
	if len(events) == 0 {
		return Result{}, ErrNoEvents
	}

	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b entity.MarketEvent) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})

	var ask, bid extremum
	crossed := false

	for _, ev := range sorted {
		switch ev.Side {
		case entity.SideAsk:
			if !ask.set || ev.Price.LessThan(ask.price) {
				ask = extremum{price: ev.Price, timestamp: ev.Timestamp, set: true}
			}
		case entity.SideBid:
			if !bid.set || ev.Price.GreaterThan(bid.price) {
				bid = extremum{price: ev.Price, timestamp: ev.Timestamp, set: true}
			}
		}

		e.l.Debug("market event",
			zap.String("side", ev.Side.String()),
			zap.String("price", ev.Price.String()),
			zap.Int64("timestamp", ev.Timestamp),
			zap.String("lowest_ask", priceText(ask)),
			zap.String("highest_bid", priceText(bid)),
		)

		if ask.set && bid.set && bid.price.GreaterThanOrEqual(ask.price) {
			crossed = true
			e.l.Debug("highest bid meets lowest ask, stopping walk",
				zap.Int64("ask_timestamp", ask.timestamp),
				zap.Int64("bid_timestamp", bid.timestamp),
			)
			break
		}
	}

	last := max(ask.timestamp, bid.timestamp)
	res := Result{
		ResolvesAt: time.Unix(last, 0).Add(Grace).UTC(),
		Crossed:    crossed,
	}
	if ask.set {
		res.LowestAsk = decimal.NewNullDecimal(ask.price)
	}
	if bid.set {
		res.HighestBid = decimal.NewNullDecimal(bid.price)
	}

	return res, nil
}

func priceText(x extremum) string {
	if !x.set {
		return "none"
	}
	return x.price.String()
}
