package refresher

import (
	"context"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/purselabs/purse/keychain"
)

type Config struct {
	Interval time.Duration `valid:"required"`
}

func New(keychain *keychain.Keychain, logger *slog.Logger, cfg Config) *Refresher {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &Refresher{
		keychain: keychain,
		logger:   logger.With("worker", "refresher"),
		cfg:      cfg,
	}
}

// Refresher periodically re-reads every credential's remote balance with
// the bulk policy, so stale "healthy" balances don't linger on screen.
type Refresher struct {
	keychain *keychain.Keychain
	logger   *slog.Logger
	cfg      Config
}

func (w *Refresher) Run(ctx context.Context) error {
	w.logger.Info("refresher start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
			if _, err := w.keychain.RefreshAll(ctx); err != nil {
				w.logger.Error("keychain.RefreshAll", "err", err)
			}
		}
	}
}
