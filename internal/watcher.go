package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rotenaple/ns-fischer/config"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/rotenaple/ns-fischer/internal/services/aggregator"
	"github.com/rotenaple/ns-fischer/internal/services/notifier"
	"github.com/rotenaple/ns-fischer/internal/storage/runlog"
	"github.com/rotenaple/ns-fischer/internal/storage/snapshot"
	"go.uber.org/zap"
)

// MarketClient card marketplace used by a watcher.
type MarketClient interface {
	OrderBook(ctx context.Context) ([]entity.AuctionEntry, error)
	AccountOrders(ctx context.Context, account string) (entity.AccountOrders, error)
	CardMarket(ctx context.Context, cardID int64, season int) (entity.CardMarket, error)
}

type activityChecker interface {
	IsInactive(ctx context.Context, name string) (bool, error)
}

type runJournal interface {
	Save(rec runlog.Record) error
}

// Report summary of one watcher run.
type Report struct {
	RunID    string
	Bids     int
	Asks     int
	Skipped  int
	HasNew   bool
	Notified bool
}

// Watcher runs the auction pipeline for one config.
type Watcher struct {
	Config     config.Config
	market     MarketClient
	aggregator *aggregator.Aggregator
	notifier   *notifier.Notifier
	snapshots  *snapshot.Store
	journal    runJournal
	now        func() time.Time
	l          *zap.Logger
}

// NewWatcher wires a watcher. journal may be nil.
func NewWatcher(
	conf config.Config,
	market MarketClient,
	activity activityChecker,
	sender notifier.Sender,
	journal runJournal,
	l *zap.Logger,
) *Watcher {
	return &Watcher{
		Config:     conf,
		market:     market,
		aggregator: aggregator.New(market, activity, conf.Concurrency, l),
		notifier:   notifier.New(sender, notifier.Options{Mention: conf.Mention, NoPing: conf.NoPing}, l),
		snapshots:  snapshot.NewStore(conf.SnapshotPath),
		journal:    journal,
		now:        time.Now,
		l:          l,
	}
}

// Run fetches the auctions and the watched nations' orders, reports what is
// new and rewrites the snapshot. Failing to fetch the auction list or to
// persist the snapshot fails the run; a nation whose orders cannot be fetched
// is reported and skipped.
func (w *Watcher) Run(ctx context.Context) (Report, error) {
	started := w.now()
	rep := Report{RunID: runlog.NewRunID()}
	l := w.l.With(zap.String("run_id", rep.RunID))

	err := w.run(ctx, l, &rep)
	if err != nil {
		l.Error("watcher run failed", zap.Error(err))
	} else {
		l.Info("watcher run finished",
			zap.Int("bids", rep.Bids),
			zap.Int("asks", rep.Asks),
			zap.Int("skipped", rep.Skipped),
			zap.Bool("notified", rep.Notified),
			zap.Duration("took", w.now().Sub(started)),
		)
	}

	w.record(l, started, rep, err)

	return rep, err
}

func (w *Watcher) run(ctx context.Context, l *zap.Logger, rep *Report) error {
	book, err := w.market.OrderBook(ctx)
	if err != nil {
		w.reportError(ctx, l, fmt.Sprintf("Failed to fetch active auctions: %s", err))
		return errors.Wrap(err, "fetch auctions")
	}
	l.Debug("fetched active auctions", zap.Int("auctions", len(book)))

	listings := make([]entity.AccountOrders, 0, len(w.Config.Nations))
	for _, nation := range w.Config.Nations {
		orders, err := w.market.AccountOrders(ctx, nation)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.Warn("failed to fetch asks and bids", zap.String("nation", nation), zap.Error(err))
			w.reportError(ctx, l, fmt.Sprintf("Failed to fetch active bids and asks for %s: %s", nation, err))
			continue
		}
		l.Debug("tracking orders",
			zap.String("nation", nation),
			zap.Int("asks", len(orders.Asks)),
			zap.Int("bids", len(orders.Bids)),
		)
		listings = append(listings, orders)
	}

	res, err := w.aggregator.Aggregate(ctx, book, listings)
	if err != nil {
		return err
	}
	rep.Bids, rep.Asks, rep.Skipped = len(res.Bids), len(res.Asks), len(res.Skipped)

	for _, side := range [][]entity.EnrichedOrder{res.Bids, res.Asks} {
		for _, o := range side {
			l.Debug("order",
				zap.String("order", o.Key().String()),
				zap.String("card", o.CardName),
				zap.Time("resolves_at", o.ResolutionTime),
				zap.Strings("nations", o.Accounts),
			)
		}
	}

	shouldSend := true
	if w.Config.CheckSnapshot {
		diff, err := w.snapshots.Check(res.Bids, res.Asks)
		if err != nil {
			return errors.Wrap(err, "check snapshot")
		}
		shouldSend = diff.HasNew()
		l.Debug("compared with snapshot",
			zap.Bool("has_new", shouldSend),
			zap.Int("new_bids", len(diff.NewBids)),
			zap.Int("new_asks", len(diff.NewAsks)),
		)
	}
	rep.HasNew = shouldSend

	if err := w.snapshots.Write(res.Bids, res.Asks); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	l.Debug("snapshot written", zap.String("path", w.snapshots.Path()))

	if shouldSend {
		if err := w.notifier.Announce(ctx, res.Bids, res.Asks, res.HighestRarity); err != nil {
			l.Error("failed to send auctions", zap.Error(err))
		} else {
			rep.Notified = true
		}
	} else {
		l.Info("no new auctions found, no messages sent")
	}

	if w.Config.Debug {
		if err := w.notifier.ReportDebug(ctx); err != nil {
			l.Warn("failed to send debug message", zap.Error(err))
		}
	}

	return nil
}

func (w *Watcher) reportError(ctx context.Context, l *zap.Logger, description string) {
	if err := w.notifier.ReportError(ctx, description); err != nil {
		l.Warn("failed to send error message", zap.Error(err))
	}
}

func (w *Watcher) record(l *zap.Logger, started time.Time, rep Report, runErr error) {
	if w.journal == nil {
		return
	}

	rec := runlog.Record{
		RunID:      rep.RunID,
		Config:     w.Config.Name,
		StartedAt:  started.UTC(),
		FinishedAt: w.now().UTC(),
		Bids:       rep.Bids,
		Asks:       rep.Asks,
		HasNew:     rep.HasNew,
		Notified:   rep.Notified,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	if err := w.journal.Save(rec); err != nil {
		l.Warn("failed to journal run", zap.Error(err))
	}
}
