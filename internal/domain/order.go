package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CardRef identifies a card print.
type CardRef struct {
	CardID int64
	Season int
}

// String returns the string representation.
func (c CardRef) String() string {
	return fmt.Sprintf("%d S%d", c.CardID, c.Season)
}

// OrderKey identity of a tracked order within one run. The owning account is
// not part of the identity.
type OrderKey struct {
	CardID int64
	Season int
	Side   Side
}

// String returns the key in cardId-season-side form.
func (k OrderKey) String() string {
	return fmt.Sprintf("%d-%d-%s", k.CardID, k.Season, k.Side)
}

// TrackedOrder a bid or ask placed by one of the watched accounts.
type TrackedOrder struct {
	CardID   int64
	Season   int
	Side     Side
	Account  string
	CardName string
}

// NewTrackedOrder constructs a validated tracked order.
func NewTrackedOrder(cardID int64, season int, side Side, account, cardName string) (TrackedOrder, error) {
	if cardID <= 0 {
		return TrackedOrder{}, errors.Errorf("invalid card id %d", cardID)
	}
	if season <= 0 {
		return TrackedOrder{}, errors.Errorf("invalid season %d", season)
	}
	if !side.IsValid() {
		return TrackedOrder{}, errors.Errorf("invalid market side %q", side)
	}
	if account == "" {
		return TrackedOrder{}, errors.New("account is required")
	}

	return TrackedOrder{
		CardID:   cardID,
		Season:   season,
		Side:     side,
		Account:  account,
		CardName: cardName,
	}, nil
}

// Key returns the run identity of the order.
func (o TrackedOrder) Key() OrderKey {
	return OrderKey{CardID: o.CardID, Season: o.Season, Side: o.Side}
}

// Ref returns the card the order is placed on.
func (o TrackedOrder) Ref() CardRef {
	return CardRef{CardID: o.CardID, Season: o.Season}
}

// EnrichedOrder tracked order with market data attached. Only Accounts changes
// after the record is created.
type EnrichedOrder struct {
	TrackedOrder

	ResolutionTime  time.Time
	MarketValue     decimal.Decimal
	HighestBid      decimal.NullDecimal
	LowestAsk       decimal.NullDecimal
	Rarity          Rarity
	Accounts        []string
	InactiveAccount bool
}

// AddAccount appends account unless it is already listed. It reports whether
// the list changed.
func (o *EnrichedOrder) AddAccount(account string) bool {
	for _, a := range o.Accounts {
		if a == account {
			return false
		}
	}
	o.Accounts = append(o.Accounts, account)

	return true
}
