// Package aggregator matches watched accounts' orders against the auction list
// and builds one enriched record per order identity.
package aggregator

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
	"github.com/rotenaple/ns-fischer/internal/services/resolution"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type cardMarketFetcher interface {
	CardMarket(ctx context.Context, cardID int64, season int) (entity.CardMarket, error)
}

type activityChecker interface {
	IsInactive(ctx context.Context, name string) (bool, error)
}

// Result aggregated orders of one run.
type Result struct {
	// Bids and Asks sorted by resolution time, ties in first-seen order.
	Bids []entity.EnrichedOrder
	Asks []entity.EnrichedOrder
	// HighestRarity highest tier among all records, common when there are none.
	HighestRarity entity.Rarity
	// Skipped identities whose card data could not be loaded.
	Skipped []entity.OrderKey
}

// Empty reports whether no order survived aggregation.
func (r Result) Empty() bool {
	return len(r.Bids) == 0 && len(r.Asks) == 0
}

// Aggregator builds enriched orders.
type Aggregator struct {
	market      cardMarketFetcher
	activity    activityChecker
	estimator   *resolution.Estimator
	concurrency int
	l           *zap.Logger
}

// New returns an aggregator running at most concurrency card lookups at once.
func New(market cardMarketFetcher, activity activityChecker, concurrency int, l *zap.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Aggregator{
		market:      market,
		activity:    activity,
		estimator:   resolution.NewEstimator(l),
		concurrency: concurrency,
		l:           l,
	}
}

// Aggregate matches listings against the auction book. For every auctioned card
// the first matching order of each account counts. Orders reached through
// several accounts collapse into one record listing every account.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	book []entity.AuctionEntry,
	listings []entity.AccountOrders,
) (Result, error) {
	order, seen := a.match(book, listings)

	records := make([]*entity.EnrichedOrder, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, key := range order {
		p := seen[key]
		g.Go(func() error {
			rec, err := a.enrich(gctx, p)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.l.Warn("skipping order, failed to load card data",
					zap.String("order", key.String()),
					zap.String("account", p.Account),
					zap.Error(err),
				)
				return nil
			}
			records[i] = &rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, errors.Wrap(err, "aggregate orders")
	}

	return assemble(order, records), nil
}

// match walks the book once per account and returns identities in first-seen
// order. An account with an invalid listing is left out.
func (a *Aggregator) match(
	book []entity.AuctionEntry,
	listings []entity.AccountOrders,
) ([]entity.OrderKey, map[entity.OrderKey]*entity.EnrichedOrder) {
	var order []entity.OrderKey
	seen := make(map[entity.OrderKey]*entity.EnrichedOrder)

	for _, listing := range listings {
		candidates, err := listing.Tracked()
		if err != nil {
			a.l.Warn("skipping account, invalid orders",
				zap.String("account", listing.Account),
				zap.Error(err),
			)
			continue
		}

		for _, entry := range book {
			idx := slices.IndexFunc(candidates, func(c entity.TrackedOrder) bool {
				return c.Ref() == entry.Ref()
			})
			if idx < 0 {
				continue
			}

			cand := candidates[idx]
			if cand.CardName == "" {
				cand.CardName = entry.Name
			}

			key := cand.Key()
			if p, ok := seen[key]; ok {
				p.AddAccount(cand.Account)
				continue
			}

			seen[key] = &entity.EnrichedOrder{TrackedOrder: cand, Accounts: []string{cand.Account}}
			order = append(order, key)
		}
	}

	return order, seen
}

// enrich fills the market data of a matched identity. p is not modified.
func (a *Aggregator) enrich(ctx context.Context, p *entity.EnrichedOrder) (entity.EnrichedOrder, error) {
	o := p.TrackedOrder

	market, err := a.market.CardMarket(ctx, o.CardID, o.Season)
	if err != nil {
		return entity.EnrichedOrder{}, err
	}

	est, err := a.estimator.Estimate(market.Events)
	if err != nil {
		return entity.EnrichedOrder{}, errors.Wrapf(err, "estimate resolution of %s", o.Ref())
	}

	rarity, known := entity.ParseRarity(market.Category)
	if !known {
		a.l.Debug("unknown card category, treating as common",
			zap.String("order", o.Key().String()),
			zap.String("category", market.Category),
		)
	}

	if market.Name != "" {
		o.CardName = market.Name
	}

	inactive, err := a.activity.IsInactive(ctx, o.CardName)
	if err != nil {
		a.l.Debug("active nation lookup failed, assuming active",
			zap.String("nation", o.CardName),
			zap.Error(err),
		)
		inactive = false
	}

	return entity.EnrichedOrder{
		TrackedOrder:    o,
		ResolutionTime:  est.ResolvesAt,
		MarketValue:     market.MarketValue,
		HighestBid:      entity.HighestBid(market.Events),
		LowestAsk:       entity.LowestAsk(market.Events),
		Rarity:          rarity,
		Accounts:        slices.Clone(p.Accounts),
		InactiveAccount: inactive,
	}, nil
}

func assemble(order []entity.OrderKey, records []*entity.EnrichedOrder) Result {
	res := Result{HighestRarity: entity.RarityCommon}
	highest := entity.Rarity(-1)

	for i, rec := range records {
		if rec == nil {
			res.Skipped = append(res.Skipped, order[i])
			continue
		}

		if rec.Rarity > highest {
			highest = rec.Rarity
			res.HighestRarity = rec.Rarity
		}

		switch rec.Side {
		case entity.SideBid:
			res.Bids = append(res.Bids, *rec)
		case entity.SideAsk:
			res.Asks = append(res.Asks, *rec)
		}
	}

	byResolution := func(a, b entity.EnrichedOrder) int {
		return a.ResolutionTime.Compare(b.ResolutionTime)
	}
	slices.SortStableFunc(res.Bids, byResolution)
	slices.SortStableFunc(res.Asks, byResolution)

	return res
}
