package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rotenaple/ns-fischer/config"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/rotenaple/ns-fischer/internal/services/notifier"
	"github.com/rotenaple/ns-fischer/internal/storage/runlog"
	"github.com/rotenaple/ns-fischer/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Name:          "main",
		WebhookURL:    "https://discord.com/api/webhooks/1/abc",
		Nations:       []string{"foo", "bar"},
		UserAgent:     "ua",
		Mention:       "<@&1>",
		SnapshotPath:  filepath.Join(t.TempDir(), "snapshot", "auction_snapshot.json"),
		CheckSnapshot: true,
		Concurrency:   2,
	}
}

func titled(title string) any {
	return mock.MatchedBy(func(m notifier.Message) bool {
		return len(m.Embeds) == 1 && m.Embeds[0].Title == title
	})
}

func describedAs(prefix string) any {
	return mock.MatchedBy(func(m notifier.Message) bool {
		return len(m.Embeds) == 1 && strings.HasPrefix(m.Embeds[0].Description, prefix)
	})
}

func ping(mention string) any {
	return mock.MatchedBy(func(m notifier.Message) bool {
		return m.Content == mention && len(m.Embeds) == 0
	})
}

func market42(t *testing.T) *mocks.MarketClient {
	market := mocks.NewMarketClient(t)
	market.On("OrderBook", mock.Anything).Return([]entity.AuctionEntry{
		{CardID: 42, Season: 3, Name: "Testlandia", Category: "rare"},
	}, nil)
	market.On("AccountOrders", mock.Anything, "foo").Return(entity.AccountOrders{
		Account: "foo",
		Asks:    []entity.ListedOrder{{CardID: 42, Season: 3, Name: "Testlandia"}},
	}, nil)
	market.On("AccountOrders", mock.Anything, "bar").Return(entity.AccountOrders{
		Account: "bar",
		Asks:    []entity.ListedOrder{{CardID: 42, Season: 3, Name: "Testlandia"}},
	}, nil)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(entity.CardMarket{
		CardID:      42,
		Season:      3,
		Name:        "Testlandia",
		Category:    "rare",
		MarketValue: decimal.RequireFromString("3.2"),
		Events: []entity.MarketEvent{
			{Price: decimal.NewFromInt(10), Timestamp: 1000, Side: entity.SideAsk},
			{Price: decimal.NewFromInt(8), Timestamp: 1050, Side: entity.SideBid},
		},
	}, nil)
	return market
}

func activeChecker(t *testing.T) *mocks.ActivityChecker {
	activity := mocks.NewActivityChecker(t)
	activity.On("IsInactive", mock.Anything, mock.Anything).Return(false, nil)
	return activity
}

func TestWatcherReportsOnlyNewOrders(t *testing.T) {
	conf := testConfig(t)

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, ping("<@&1>")).Return(nil).Once()
	sender.On("Send", mock.Anything, titled("Active Auctions in Progress")).Return(nil).Once()

	journal := mocks.NewRunJournal(t)
	journal.On("Save", mock.MatchedBy(func(r runlog.Record) bool {
		return r.Config == "main" && r.Asks == 1 && r.Error == ""
	})).Return(nil).Twice()

	w := NewWatcher(conf, market42(t), activeChecker(t), sender, journal, zap.NewNop())

	rep, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Asks)
	assert.Equal(t, 0, rep.Bids)
	assert.True(t, rep.HasNew)
	assert.True(t, rep.Notified)
	assert.NotEmpty(t, rep.RunID)

	rep, err = w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.HasNew)
	assert.False(t, rep.Notified)

	_, err = os.Stat(conf.SnapshotPath)
	assert.NoError(t, err)
}

func TestWatcherAlwaysNotifiesWithoutSnapshotCheck(t *testing.T) {
	conf := testConfig(t)
	conf.CheckSnapshot = false
	conf.Mention = ""
	conf.NoPing = true

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, titled("Active Auctions in Progress")).Return(nil).Twice()

	w := NewWatcher(conf, market42(t), activeChecker(t), sender, nil, zap.NewNop())
	for range 2 {
		rep, err := w.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, rep.Notified)
	}
}

func TestWatcherOrderBookFailure(t *testing.T) {
	conf := testConfig(t)

	market := mocks.NewMarketClient(t)
	market.On("OrderBook", mock.Anything).Return(nil, errors.New("503 Service Unavailable"))

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, describedAs("Failed to fetch active auctions: 503")).Return(nil).Once()

	journal := mocks.NewRunJournal(t)
	journal.On("Save", mock.MatchedBy(func(r runlog.Record) bool {
		return strings.Contains(r.Error, "fetch auctions")
	})).Return(nil).Once()

	w := NewWatcher(conf, market, mocks.NewActivityChecker(t), sender, journal, zap.NewNop())
	_, err := w.Run(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(conf.SnapshotPath)
	assert.True(t, os.IsNotExist(statErr), "failed run must not write a snapshot")
}

func TestWatcherSkipsFailingNation(t *testing.T) {
	conf := testConfig(t)
	conf.Debug = true

	market := mocks.NewMarketClient(t)
	market.On("OrderBook", mock.Anything).Return([]entity.AuctionEntry{{CardID: 42, Season: 3}}, nil)
	market.On("AccountOrders", mock.Anything, "foo").Return(entity.AccountOrders{}, errors.New("timeout"))
	market.On("AccountOrders", mock.Anything, "bar").Return(entity.AccountOrders{
		Account: "bar",
		Bids:    []entity.ListedOrder{{CardID: 42, Season: 3}},
	}, nil)
	market.On("CardMarket", mock.Anything, int64(42), 3).Return(entity.CardMarket{
		Name:     "Testlandia",
		Category: "legendary",
		Events:   []entity.MarketEvent{{Price: decimal.NewFromInt(1), Timestamp: 10, Side: entity.SideBid}},
	}, nil)

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, describedAs("Failed to fetch active bids and asks for foo: timeout")).Return(nil).Once()
	sender.On("Send", mock.Anything, ping("<@&1>")).Return(nil).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m notifier.Message) bool {
		return len(m.Embeds) == 1 &&
			m.Embeds[0].Color == entity.RarityLegendary.Color() &&
			strings.Contains(m.Embeds[0].Description, "[bar](")
	})).Return(nil).Once()
	sender.On("Send", mock.Anything, titled("Debug")).Return(nil).Once()

	w := NewWatcher(conf, market, activeChecker(t), sender, nil, zap.NewNop())
	rep, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Bids)
}

func TestWatcherMalformedSnapshotSendsNothing(t *testing.T) {
	conf := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(conf.SnapshotPath), 0o755))
	require.NoError(t, os.WriteFile(conf.SnapshotPath, []byte("{not json"), 0o644))

	sender := mocks.NewSender(t)

	w := NewWatcher(conf, market42(t), activeChecker(t), sender, nil, zap.NewNop())
	_, err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check snapshot")

	data, readErr := os.ReadFile(conf.SnapshotPath)
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))
}

func TestWatcherNoOrdersSendsPlaceholder(t *testing.T) {
	conf := testConfig(t)
	conf.CheckSnapshot = false

	market := mocks.NewMarketClient(t)
	market.On("OrderBook", mock.Anything).Return([]entity.AuctionEntry{}, nil)
	market.On("AccountOrders", mock.Anything, mock.Anything).Return(entity.AccountOrders{Account: "x"}, nil)

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, describedAs("No active auctions at the moment.")).Return(nil).Once()

	w := NewWatcher(conf, market, mocks.NewActivityChecker(t), sender, nil, zap.NewNop())
	_, err := w.Run(context.Background())
	require.NoError(t, err)
}

func TestWatcherSendFailureDoesNotFailRun(t *testing.T) {
	conf := testConfig(t)
	conf.CheckSnapshot = false
	conf.Mention = ""
	conf.NoPing = true

	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("webhook gone"))

	w := NewWatcher(conf, market42(t), activeChecker(t), sender, nil, zap.NewNop())
	rep, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Notified)
}
