package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/purselabs/purse/keychain"
	"github.com/purselabs/purse/reconciler"
	"github.com/purselabs/purse/wallet"
	"github.com/purselabs/purse/worker/poller"
	"github.com/purselabs/purse/worker/refresher"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	opt struct {
		config string
		debug  bool
	}

	version = "0.0.1-src"
	commit  = versioninfo.Short()
)

func main() {
	flag.StringVar(&opt.config, "config", "config.yaml", "config file path")
	flag.BoolVar(&opt.debug, "debug", false, "debug mode")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := initViper()
	logger := initLogger()

	app, cleanup, err := setupApp(v, logger)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return
	}

	defer cleanup()

	logger.Info("purse walletd launched", "version", version, "commit", commit)

	if err := enableReplica(ctx, v, app.reconciler); err != nil {
		logger.Error("enable replica failed", "err", err)
		return
	}

	var g errgroup.Group

	g.Go(func() error {
		return app.refresher.Run(ctx)
	})

	g.Go(func() error {
		return watchPending(ctx, app)
	})

	if err := g.Wait(); err != nil {
		logger.Error("walletd exit", "err", err)
	}
}

type app struct {
	wallet     *wallet.Wallet
	keychain   *keychain.Keychain
	poller     *poller.Poller
	refresher  *refresher.Refresher
	reconciler *reconciler.Reconciler
	logger     *slog.Logger
}

// watchPending re-attaches pollers to mint quotes that were outstanding at
// shutdown, then parks until cancelled.
func watchPending(ctx context.Context, app app) error {
	quotes, err := app.wallet.PendingMintQuotes(ctx)
	if err != nil {
		return err
	}

	for _, quote := range quotes {
		app.poller.Watch(ctx, quote, poller.Events{})
	}

	if len(quotes) > 0 {
		app.logger.Info("re-attached pending invoices", "count", len(quotes))
	}

	<-ctx.Done()
	return ctx.Err()
}

func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if opt.debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func initViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(opt.config)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Panicln(err)
	}

	return v
}

func enableReplica(ctx context.Context, v *viper.Viper, rec *reconciler.Reconciler) error {
	if !v.GetBool("replica.enabled") {
		return nil
	}

	store, err := provideReplicaStore(v)
	if err != nil {
		return err
	}

	return rec.EnableRemote(ctx, store)
}
