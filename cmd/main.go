// Command ns-fischer reports the NationStates card auctions that a set of
// nations is bidding or asking in to a Discord webhook.
//
// Usage:
//
//	ns-fischer -config config.json
//	ns-fischer -config ./configs -interval 15m
//	ns-fischer -setup -config config.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/rotenaple/ns-fischer/config"
	"github.com/rotenaple/ns-fischer/internal"
	"github.com/rotenaple/ns-fischer/internal/clients"
	"github.com/rotenaple/ns-fischer/internal/logger"
	"github.com/rotenaple/ns-fischer/internal/services/activeset"
	"github.com/rotenaple/ns-fischer/internal/setup"
	"github.com/rotenaple/ns-fischer/internal/storage/runlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags, err := config.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if flags.Setup {
		if err := setup.RunTUI(flags.ConfigPath); err != nil {
			fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
			return 1
		}
		return 0
	}

	base, err := logger.New(logger.Options{Level: zapcore.DebugLevel, File: flags.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer base.Sync()

	entries, err := config.Load(flags.ConfigPath)
	if err != nil {
		base.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	configs := config.Valid(entries)
	if len(configs) == 0 {
		for _, e := range entries {
			base.Error("invalid config", zap.String("source", e.Source), zap.Error(e.Err))
		}
		base.Error("no valid configuration found", zap.String("path", flags.ConfigPath))
		return 1
	}

	l := base
	if !slices.ContainsFunc(configs, func(c config.Config) bool { return c.Debug }) {
		l = base.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := internal.Dependencies{
		Activity: activeset.NewCache(
			clients.NewActiveNationsClient(flags.ActiveURL, clients.WithLogger(l)),
			activeset.WithLogger(l),
		),
		Limiter: clients.NewNationStatesLimiter(),
		Logger:  base,
	}

	journal, err := runlog.NewWALStore(flags.JournalDir)
	if err != nil {
		l.Warn("run journal disabled", zap.Error(err))
	} else {
		deps.Journal = journal
		defer func() {
			if err := journal.Close(); err != nil {
				l.Warn("failed to close run journal", zap.Error(err))
			}
		}()
	}

	watchers := internal.BuildWatchers(entries, deps)
	l.Info("starting",
		zap.Int("configs", len(watchers)),
		zap.Int("invalid", len(entries)-len(watchers)),
		zap.Duration("interval", flags.Interval),
	)

	if err := internal.NewRunner(watchers, l).Run(ctx, flags.Interval); err != nil && ctx.Err() == nil {
		l.Error("runner stopped", zap.Error(err))
	}

	l.Info("done")
	return 0
}
