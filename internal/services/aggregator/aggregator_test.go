package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/rotenaple/ns-fischer/internal/services/activeset"
	"github.com/rotenaple/ns-fischer/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ev(side entity.Side, price float64, ts int64) entity.MarketEvent {
	return entity.MarketEvent{Price: decimal.NewFromFloat(price), Timestamp: ts, Side: side}
}

func listing(account string, asks, bids []entity.ListedOrder) entity.AccountOrders {
	return entity.AccountOrders{Account: account, Asks: asks, Bids: bids}
}

func card42Market() entity.CardMarket {
	return entity.CardMarket{
		CardID:      42,
		Season:      3,
		Name:        "Testlandia",
		Category:    "rare",
		MarketValue: decimal.RequireFromString("12.5"),
		Events: []entity.MarketEvent{
			ev(entity.SideAsk, 10.0, 1000),
			ev(entity.SideBid, 8.0, 1050),
		},
	}
}

var book42 = []entity.AuctionEntry{{CardID: 42, Season: 3, Name: "Testlandia", Category: "rare"}}

func TestAggregateSingleAsk(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil).Once()

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, "Testlandia").Return(false, nil)

	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo", []entity.ListedOrder{{CardID: 42, Season: 3}}, nil),
	})
	require.NoError(t, err)

	require.Len(t, res.Asks, 1)
	assert.Empty(t, res.Bids)

	rec := res.Asks[0]
	assert.Equal(t, time.Unix(4650, 0).UTC(), rec.ResolutionTime)
	assert.Equal(t, entity.RarityRare, rec.Rarity)
	assert.Equal(t, []string{"foo"}, rec.Accounts)
	assert.Equal(t, "Testlandia", rec.CardName)
	assert.False(t, rec.InactiveAccount)
	assert.True(t, rec.LowestAsk.Decimal.Equal(decimal.NewFromInt(10)))
	assert.True(t, rec.HighestBid.Decimal.Equal(decimal.NewFromInt(8)))
	assert.True(t, rec.MarketValue.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, entity.RarityRare, res.HighestRarity)
}

func TestAggregateMergesAccounts(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil).Once()

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)

	ask := []entity.ListedOrder{{CardID: 42, Season: 3}}
	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo", ask, nil),
		listing("bar", ask, nil),
		listing("foo", ask, nil),
	})
	require.NoError(t, err)

	require.Len(t, res.Asks, 1)
	assert.Equal(t, []string{"foo", "bar"}, res.Asks[0].Accounts)
}

func TestAggregateFirstCandidateWins(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil).Once()

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)

	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo",
			[]entity.ListedOrder{{CardID: 42, Season: 3}},
			[]entity.ListedOrder{{CardID: 42, Season: 3}},
		),
	})
	require.NoError(t, err)

	assert.Len(t, res.Asks, 1)
	assert.Empty(t, res.Bids)
}

func TestAggregateSkipsFailedCard(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil)
	market.On("CardMarket", mock.Anything, int64(7), 1).Return(entity.CardMarket{}, errors.New("503 from upstream"))

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)

	book := append([]entity.AuctionEntry{{CardID: 7, Season: 1}}, book42...)
	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book, []entity.AccountOrders{
		listing("foo", nil, []entity.ListedOrder{{CardID: 7, Season: 1}, {CardID: 42, Season: 3}}),
	})
	require.NoError(t, err)

	require.Len(t, res.Bids, 1)
	assert.Equal(t, int64(42), res.Bids[0].CardID)
	assert.Equal(t, []entity.OrderKey{{CardID: 7, Season: 1, Side: entity.SideBid}}, res.Skipped)
}

func TestAggregateSkipsAccountWithInvalidOrders(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil).Once()

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)

	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo", []entity.ListedOrder{{CardID: 42, Season: 3}}, nil),
		listing("bar", []entity.ListedOrder{{CardID: 99, Season: 0}, {CardID: 42, Season: 3}}, nil),
	})
	require.NoError(t, err)

	require.Len(t, res.Asks, 1)
	assert.Equal(t, int64(42), res.Asks[0].CardID)
	assert.Equal(t, []string{"foo"}, res.Asks[0].Accounts)
	assert.Empty(t, res.Skipped)
}

func TestAggregateSkipsCardWithoutHistory(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(entity.CardMarket{CardID: 42, Season: 3}, nil)

	activity := mocks.NewActivityChecker(t)

	agg := New(market, activity, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo", []entity.ListedOrder{{CardID: 42, Season: 3}}, nil),
	})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Len(t, res.Skipped, 1)
	assert.Equal(t, entity.RarityCommon, res.HighestRarity)
}

type failingSource struct{}

func (failingSource) ActiveNames(context.Context) ([]string, error) {
	return nil, errors.New("raw.githubusercontent.com unreachable")
}

func TestAggregateActiveLookupFailsOpen(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(card42Market(), nil)

	cache := activeset.NewCache(failingSource{})

	agg := New(market, cache, 1, zap.NewNop())
	res, err := agg.Aggregate(context.Background(), book42, []entity.AccountOrders{
		listing("foo", []entity.ListedOrder{{CardID: 42, Season: 3}}, nil),
	})
	require.NoError(t, err)
	require.Len(t, res.Asks, 1)
	assert.False(t, res.Asks[0].InactiveAccount)
}

func TestAggregateSortsAndTracksRarity(t *testing.T) {
	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(1), 1).Return(entity.CardMarket{
		Name: "late", Category: "epic",
		Events: []entity.MarketEvent{ev(entity.SideAsk, 1, 9000)},
	}, nil)
	market.On("CardMarket", mock.Anything, int64(2), 1).Return(entity.CardMarket{
		Name: "early", Category: "uncommon",
		Events: []entity.MarketEvent{ev(entity.SideAsk, 1, 1000)},
	}, nil)
	market.On("CardMarket", mock.Anything, int64(3), 1).Return(entity.CardMarket{
		Name: "tie", Category: "EPIC",
		Events: []entity.MarketEvent{ev(entity.SideAsk, 1, 9000)},
	}, nil)
	market.On("CardMarket", mock.Anything, int64(4), 1).Return(entity.CardMarket{
		Name: "gone", Category: "mystery",
		Events: []entity.MarketEvent{ev(entity.SideBid, 1, 500)},
	}, nil)

	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, "gone").Return(true, nil)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)

	book := []entity.AuctionEntry{
		{CardID: 1, Season: 1}, {CardID: 2, Season: 1}, {CardID: 3, Season: 1}, {CardID: 4, Season: 1},
	}
	listings := []entity.AccountOrders{
		listing("foo",
			[]entity.ListedOrder{{CardID: 1, Season: 1}, {CardID: 2, Season: 1}, {CardID: 3, Season: 1}},
			[]entity.ListedOrder{{CardID: 4, Season: 1}},
		),
	}

	for _, concurrency := range []int{1, 4} {
		agg := New(market, activity, concurrency, zap.NewNop())
		res, err := agg.Aggregate(context.Background(), book, listings)
		require.NoError(t, err)

		require.Len(t, res.Asks, 3)
		assert.Equal(t, "early", res.Asks[0].CardName)
		assert.Equal(t, "late", res.Asks[1].CardName)
		assert.Equal(t, "tie", res.Asks[2].CardName)

		require.Len(t, res.Bids, 1)
		assert.True(t, res.Bids[0].InactiveAccount)
		assert.Equal(t, entity.RarityCommon, res.Bids[0].Rarity)

		assert.Equal(t, entity.RarityEpic, res.HighestRarity)
	}
}

func TestAggregateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	market := mocks.NewMarketClient(t)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(entity.CardMarket{}, context.Canceled).Maybe()

	agg := New(market, mocks.NewActivityChecker(t), 1, zap.NewNop())
	_, err := agg.Aggregate(ctx, book42, []entity.AccountOrders{
		listing("foo", []entity.ListedOrder{{CardID: 42, Season: 3}}, nil),
	})
	assert.ErrorIs(t, err, context.Canceled)
}
