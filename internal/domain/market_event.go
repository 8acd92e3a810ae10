package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// MarketEvent one bid or ask observed in a card's market history.
type MarketEvent struct {
	// Price offered.
	Price decimal.Decimal
	// Timestamp unix seconds when the order was placed.
	Timestamp int64
	// Side bid or ask.
	Side Side
}

// NewMarketEvent constructs a validated market event.
func NewMarketEvent(price decimal.Decimal, timestamp int64, side Side) (MarketEvent, error) {
	if !side.IsValid() {
		return MarketEvent{}, errors.Errorf("invalid market side %q", side)
	}
	if price.IsNegative() {
		return MarketEvent{}, errors.New("market event price must not be negative")
	}
	if timestamp < 0 {
		return MarketEvent{}, errors.New("market event timestamp must not be negative")
	}

	return MarketEvent{Price: price, Timestamp: timestamp, Side: side}, nil
}

// HighestBid returns the highest bid price among events, invalid when there are no bids.
func HighestBid(events []MarketEvent) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, ev := range events {
		if ev.Side != SideBid {
			continue
		}
		if !best.Valid || ev.Price.GreaterThan(best.Decimal) {
			best = decimal.NewNullDecimal(ev.Price)
		}
	}
	return best
}

// LowestAsk returns the lowest ask price among events, invalid when there are no asks.
func LowestAsk(events []MarketEvent) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, ev := range events {
		if ev.Side != SideAsk {
			continue
		}
		if !best.Valid || ev.Price.LessThan(best.Decimal) {
			best = decimal.NewNullDecimal(ev.Price)
		}
	}
	return best
}
