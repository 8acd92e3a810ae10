package clients

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultNationStatesURL public NationStates API endpoint.
const DefaultNationStatesURL = "https://www.nationstates.net/cgi-bin/api.cgi"

// NationStatesRequestInterval spacing that keeps a client under the API limit
// of 50 requests per 30 seconds.
const NationStatesRequestInterval = 650 * time.Millisecond

// NewNationStatesLimiter returns a limiter meant to be shared by every client
// of the process, since the API limit applies per source address.
func NewNationStatesLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(NationStatesRequestInterval), 1)
}

// NationStatesClient reads card market data from the NationStates API.
type NationStatesClient struct {
	baseURL string
	t       transport
}

// NewNationStatesClient returns a client for baseURL, DefaultNationStatesURL when empty.
// The API rejects requests without a User-Agent, see WithUserAgent.
func NewNationStatesClient(baseURL string, opts ...Option) *NationStatesClient {
	if baseURL == "" {
		baseURL = DefaultNationStatesURL
	}
	return &NationStatesClient{baseURL: baseURL, t: newTransport(opts)}
}

type auctionsResponse struct {
	XMLName  xml.Name     `xml:"CARDS"`
	Auctions []xmlAuction `xml:"AUCTIONS>AUCTION"`
}

type xmlAuction struct {
	CardID   int64  `xml:"CARDID"`
	Season   int    `xml:"SEASON"`
	Name     string `xml:"NAME"`
	Category string `xml:"CATEGORY"`
}

type asksBidsResponse struct {
	XMLName xml.Name     `xml:"CARDS"`
	Asks    []xmlListing `xml:"ASKS>ASK"`
	Bids    []xmlListing `xml:"BIDS>BID"`
}

type xmlListing struct {
	CardID    int64  `xml:"CARDID"`
	Season    int    `xml:"SEASON"`
	Name      string `xml:"NAME"`
	Price     string `xml:"PRICE"`
	Timestamp int64  `xml:"TIMESTAMP"`
}

type cardInfoResponse struct {
	XMLName     xml.Name    `xml:"CARD"`
	CardID      int64       `xml:"CARDID"`
	Season      int         `xml:"SEASON"`
	Name        string      `xml:"NAME"`
	Category    string      `xml:"CATEGORY"`
	MarketValue string      `xml:"MARKET_VALUE"`
	Markets     []xmlMarket `xml:"MARKETS>MARKET"`
}

type xmlMarket struct {
	Nation    string `xml:"NATION"`
	Price     string `xml:"PRICE"`
	Timestamp int64  `xml:"TIMESTAMP"`
	Type      string `xml:"TYPE"`
}

// OrderBook returns every card currently under auction.
func (c *NationStatesClient) OrderBook(ctx context.Context) ([]entity.AuctionEntry, error) {
	var resp auctionsResponse
	if err := c.query(ctx, url.Values{"q": {"cards auctions"}}, &resp); err != nil {
		return nil, errors.Wrap(err, "fetch auctions")
	}

	out := make([]entity.AuctionEntry, 0, len(resp.Auctions))
	for _, a := range resp.Auctions {
		out = append(out, entity.AuctionEntry{
			CardID:   a.CardID,
			Season:   a.Season,
			Name:     a.Name,
			Category: a.Category,
		})
	}

	c.t.l.Debug("fetched auctions", zap.Int("count", len(out)))

	return out, nil
}

// AccountOrders returns the open asks and bids of nation.
func (c *NationStatesClient) AccountOrders(ctx context.Context, nation string) (entity.AccountOrders, error) {
	var resp asksBidsResponse
	q := url.Values{"q": {"cards asksbids"}, "nationname": {nation}}
	if err := c.query(ctx, q, &resp); err != nil {
		return entity.AccountOrders{}, errors.Wrapf(err, "fetch asks and bids of %s", nation)
	}

	asks, err := listedOrders(resp.Asks)
	if err != nil {
		return entity.AccountOrders{}, errors.Wrapf(err, "asks of %s", nation)
	}
	bids, err := listedOrders(resp.Bids)
	if err != nil {
		return entity.AccountOrders{}, errors.Wrapf(err, "bids of %s", nation)
	}

	c.t.l.Debug("fetched asks and bids",
		zap.String("nation", nation),
		zap.Int("asks", len(asks)),
		zap.Int("bids", len(bids)),
	)

	return entity.AccountOrders{Account: nation, Asks: asks, Bids: bids}, nil
}

// CardMarket returns the classification and market history of one card.
func (c *NationStatesClient) CardMarket(ctx context.Context, cardID int64, season int) (entity.CardMarket, error) {
	var resp cardInfoResponse
	q := url.Values{
		"q":      {"card markets info"},
		"cardid": {strconv.FormatInt(cardID, 10)},
		"season": {strconv.Itoa(season)},
	}
	if err := c.query(ctx, q, &resp); err != nil {
		return entity.CardMarket{}, errors.Wrapf(err, "fetch market of card %d S%d", cardID, season)
	}

	mv, err := parsePrice(resp.MarketValue)
	if err != nil {
		return entity.CardMarket{}, errors.Wrapf(err, "market value of card %d S%d", cardID, season)
	}

	events := make([]entity.MarketEvent, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		side, err := entity.ParseSide(strings.ToLower(strings.TrimSpace(m.Type)))
		if err != nil {
			return entity.CardMarket{}, errors.Wrapf(err, "market of card %d S%d", cardID, season)
		}
		price, err := parsePrice(m.Price)
		if err != nil {
			return entity.CardMarket{}, errors.Wrapf(err, "market of card %d S%d", cardID, season)
		}
		ev, err := entity.NewMarketEvent(price, m.Timestamp, side)
		if err != nil {
			return entity.CardMarket{}, errors.Wrapf(err, "market of card %d S%d", cardID, season)
		}
		events = append(events, ev)
	}

	return entity.CardMarket{
		CardID:      cardID,
		Season:      season,
		Name:        resp.Name,
		Category:    resp.Category,
		MarketValue: mv,
		Events:      events,
	}, nil
}

func (c *NationStatesClient) query(ctx context.Context, q url.Values, dst any) error {
	body, err := c.t.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return err
	}

	if err := xml.Unmarshal(body, dst); err != nil {
		return errors.Wrap(err, "decode XML response")
	}
	return nil
}

func listedOrders(raw []xmlListing) ([]entity.ListedOrder, error) {
	out := make([]entity.ListedOrder, 0, len(raw))
	for _, r := range raw {
		price, err := parsePrice(r.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "card %d S%d", r.CardID, r.Season)
		}
		out = append(out, entity.ListedOrder{
			CardID:    r.CardID,
			Season:    r.Season,
			Name:      r.Name,
			Price:     price,
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
