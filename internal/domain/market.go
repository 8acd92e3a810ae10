package domain

import "github.com/shopspring/decimal"

// AuctionEntry one card currently under auction.
type AuctionEntry struct {
	CardID   int64
	Season   int
	Name     string
	Category string
}

// Ref returns the card of the auction.
func (e AuctionEntry) Ref() CardRef {
	return CardRef{CardID: e.CardID, Season: e.Season}
}

// ListedOrder one of an account's own open orders.
type ListedOrder struct {
	CardID    int64
	Season    int
	Name      string
	Price     decimal.Decimal
	Timestamp int64
}

// AccountOrders open asks and bids of a single account.
type AccountOrders struct {
	Account string
	Asks    []ListedOrder
	Bids    []ListedOrder
}

// Tracked converts the listing into tracked orders, asks first, each side in
// listing order.
func (a AccountOrders) Tracked() ([]TrackedOrder, error) {
	out := make([]TrackedOrder, 0, len(a.Asks)+len(a.Bids))
	for _, side := range []struct {
		side   Side
		orders []ListedOrder
	}{{SideAsk, a.Asks}, {SideBid, a.Bids}} {
		for _, lo := range side.orders {
			o, err := NewTrackedOrder(lo.CardID, lo.Season, side.side, a.Account, lo.Name)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
	}

	return out, nil
}

// CardMarket market history and classification of one card.
type CardMarket struct {
	CardID      int64
	Season      int
	Name        string
	Category    string
	MarketValue decimal.Decimal
	Events      []MarketEvent
}
