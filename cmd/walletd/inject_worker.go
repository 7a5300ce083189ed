package main

import (
	"log/slog"
	"time"

	"github.com/google/wire"
	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/keychain"
	"github.com/purselabs/purse/reconciler"
	"github.com/purselabs/purse/store/invoice"
	"github.com/purselabs/purse/wallet"
	"github.com/purselabs/purse/worker/poller"
	"github.com/purselabs/purse/worker/refresher"
	"github.com/spf13/viper"
)

var workerSet = wire.NewSet(
	provideReconciler,
	provideWallet,
	provideKeychain,
	providePoller,
	provideRefresher,
)

func provideReconciler(
	keys core.KeyStore,
	invoices invoice.Store,
	properties core.PropertyStore,
	logger *slog.Logger,
) *reconciler.Reconciler {
	return reconciler.New(keys, invoices, properties, logger)
}

// provideWallet routes invoice history through the reconciler so settled
// invoices land in the replica when remote mode is on; quotes and pending
// markers stay in the local store.
func provideWallet(
	proofs core.ProofStore,
	invoices invoice.Store,
	rec *reconciler.Reconciler,
	mintz core.MintService,
	logger *slog.Logger,
) *wallet.Wallet {
	return wallet.New(proofs, invoices, rec, invoices, mintz, logger)
}

func provideKeychain(
	w *wallet.Wallet,
	rec *reconciler.Reconciler,
	credz core.CredentialService,
	invoices invoice.Store,
	logger *slog.Logger,
) *keychain.Keychain {
	return keychain.New(w, rec, credz, invoices, logger)
}

func providePoller(v *viper.Viper, w *wallet.Wallet, logger *slog.Logger) *poller.Poller {
	v.SetDefault("poller.interval", "5s")

	return poller.New(w, logger, poller.Config{
		Interval:  v.GetDuration("poller.interval"),
		Countdown: time.Second,
	})
}

func provideRefresher(v *viper.Viper, k *keychain.Keychain, logger *slog.Logger) *refresher.Refresher {
	v.SetDefault("refresher.interval", "5m")

	return refresher.New(k, logger, refresher.Config{
		Interval: v.GetDuration("refresher.interval"),
	})
}
