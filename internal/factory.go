package internal

import (
	"github.com/rotenaple/ns-fischer/config"
	"github.com/rotenaple/ns-fischer/internal/clients"
	"github.com/rotenaple/ns-fischer/internal/logger"
	"github.com/rotenaple/ns-fischer/internal/services/activeset"
	"github.com/rotenaple/ns-fischer/internal/storage/runlog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dependencies process-wide collaborators shared by every watcher.
type Dependencies struct {
	// Activity shared active nation cache.
	Activity *activeset.Cache
	// Limiter shared NationStates request budget.
	Limiter *rate.Limiter
	// Journal optional run journal.
	Journal *runlog.WALStore
	// MarketURL overrides the NationStates API endpoint when set.
	MarketURL string
	Logger    *zap.Logger
}

// NewWatcherFromConfig builds the clients of conf and wires them into a watcher.
func NewWatcherFromConfig(conf config.Config, deps Dependencies) *Watcher {
	l := logger.ForConfig(deps.Logger, conf.Name, conf.Debug)

	market := clients.NewNationStatesClient(deps.MarketURL,
		clients.WithUserAgent(conf.UserAgent),
		clients.WithLimiter(deps.Limiter),
		clients.WithLogger(l),
	)
	sender := clients.NewWebhookClient(conf.WebhookURL, clients.WithLogger(l))

	var journal runJournal
	if deps.Journal != nil {
		journal = deps.Journal
	}

	return NewWatcher(conf, market, deps.Activity, sender, journal, l)
}

// BuildWatchers returns a watcher per valid entry. Invalid entries are logged
// and left out.
func BuildWatchers(entries []config.Entry, deps Dependencies) []*Watcher {
	var watchers []*Watcher
	for _, e := range entries {
		if e.Err != nil {
			deps.Logger.Error("skipping invalid config",
				zap.String("source", e.Source),
				zap.String("config", e.Config.Name),
				zap.Error(e.Err),
			)
			continue
		}
		watchers = append(watchers, NewWatcherFromConfig(e.Config, deps))
	}
	return watchers
}
