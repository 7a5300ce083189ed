package keychain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
)

// Funder turns stored proof value into bearer tokens and back. The wallet
// satisfies this.
type Funder interface {
	SendToken(ctx context.Context, mintURL string, amount uint64) (string, error)
	Receive(ctx context.Context, token string) (uint64, error)
}

func New(
	funder Funder,
	keys core.KeyStore,
	credz core.CredentialService,
	pending core.PendingStore,
	logger *slog.Logger,
) *Keychain {
	return &Keychain{
		funder:  funder,
		keys:    keys,
		credz:   credz,
		pending: pending,
		logger:  logger.With("component", "keychain"),
	}
}

// Keychain manages bearer API credentials funded from proof value. Balances
// are remote-authoritative; local records only mirror the last known state.
type Keychain struct {
	funder  Funder
	keys    core.KeyStore
	credz   core.CredentialService
	pending core.PendingStore
	logger  *slog.Logger
}

// Create spends amount into a token and exchanges it for a fresh credential.
// If the exchange fails after the spend, the token is kept as an escrow
// record for manual recovery and the error reports partial fund loss, which
// callers must surface above a plain transport failure.
func (k *Keychain) Create(ctx context.Context, baseURL, mintURL string, amount uint64, label string) (*core.ApiKey, error) {
	if amount == 0 {
		return nil, core.ErrInvalidAmount
	}

	token, err := k.funder.SendToken(ctx, mintURL, amount)
	if err != nil {
		return nil, err
	}

	key, err := k.credz.Exchange(ctx, baseURL, token, label)
	if err != nil {
		return nil, k.escrow(ctx, amount, token, err)
	}

	if err := k.keys.SaveKey(ctx, key); err != nil {
		return nil, err
	}

	k.logger.Info("credential created", "base_url", baseURL, "amount", amount)
	return key, nil
}

// Refresh re-reads one credential's remote balance. A transport failure
// leaves the stored record untouched: one flaky call must not destroy a
// known-good balance.
func (k *Keychain) Refresh(ctx context.Context, key *core.ApiKey) (*core.ApiKey, error) {
	balance, err := k.credz.Info(ctx, key)
	switch {
	case err == nil:
		key.Balance = &balance
		key.Invalid = false
	case errors.Is(err, core.ErrInvalidCredential):
		key.Balance = nil
		key.Invalid = true
	default:
		return nil, err
	}

	if err := k.keys.SaveKey(ctx, key); err != nil {
		return nil, err
	}

	return key, nil
}

// RefreshAll re-reads every credential. Unlike Refresh, any failure marks
// the credential invalid: in bulk the base URL itself may be unreachable,
// and showing stale "healthy" balances is worse than a false negative.
func (k *Keychain) RefreshAll(ctx context.Context) ([]*core.ApiKey, error) {
	keys, err := k.keys.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		balance, err := k.credz.Info(ctx, key)
		if err != nil {
			k.logger.Warn("credential refresh failed", "base_url", key.BaseURL, "err", err)
			key.Balance = nil
			key.Invalid = true
		} else {
			key.Balance = &balance
			key.Invalid = false
		}

		if err := k.keys.SaveKey(ctx, key); err != nil {
			return nil, err
		}
	}

	return keys, nil
}

// TopUp spends amount into a token and posts it to the credential's top-up
// endpoint. Failure after the spend is partial fund loss, never reported as
// an insufficient balance.
func (k *Keychain) TopUp(ctx context.Context, key *core.ApiKey, mintURL string, amount uint64) error {
	if amount == 0 {
		return core.ErrInvalidAmount
	}

	token, err := k.funder.SendToken(ctx, mintURL, amount)
	if err != nil {
		return err
	}

	if err := k.credz.TopUp(ctx, key, token); err != nil {
		return k.escrow(ctx, amount, token, err)
	}

	if balance, err := k.credz.Info(ctx, key); err == nil {
		key.Balance = &balance
		key.Invalid = false
		if err := k.keys.SaveKey(ctx, key); err != nil {
			return err
		}
	}

	k.logger.Info("credential topped up", "base_url", key.BaseURL, "amount", amount)
	return nil
}

// Refund zeroes the credential's remote balance and receives the value back
// into the proof store. A credential with nothing to refund succeeds as a
// no-op.
func (k *Keychain) Refund(ctx context.Context, key *core.ApiKey) (uint64, error) {
	token, err := k.credz.Refund(ctx, key)
	if err != nil {
		return 0, err
	}

	if token == "" {
		return 0, nil
	}

	amount, err := k.funder.Receive(ctx, token)
	if err != nil {
		return 0, k.escrow(ctx, 0, token, err)
	}

	// The refund call just authenticated, so the key is proven valid.
	var zero uint64
	key.Balance = &zero
	key.Invalid = false
	if err := k.keys.SaveKey(ctx, key); err != nil {
		return 0, err
	}

	k.logger.Info("credential refunded", "base_url", key.BaseURL, "amount", amount)
	return amount, nil
}

// Delete removes a credential after refunding it. When the refund fails,
// deletion destroys the remote balance, so it proceeds only with the
// explicit force acknowledgement.
func (k *Keychain) Delete(ctx context.Context, key *core.ApiKey, force bool) error {
	if _, err := k.Refund(ctx, key); err != nil {
		if !force {
			return fmt.Errorf("%w: deletion blocked: %v", core.ErrRefundFailed, err)
		}

		k.logger.Warn("deleting credential despite failed refund", "base_url", key.BaseURL, "err", err)
	}

	if err := k.keys.DeleteKey(ctx, key.Key); err != nil {
		return err
	}

	k.logger.Info("credential deleted", "base_url", key.BaseURL)
	return nil
}

// Keys lists stored credentials.
func (k *Keychain) Keys(ctx context.Context) ([]*core.ApiKey, error) {
	return k.keys.ListKeys(ctx)
}

// escrow records a spent-but-unredeemed token so the value can be recovered
// manually, then reports the loss.
func (k *Keychain) escrow(ctx context.Context, amount uint64, token string, cause error) error {
	record := &core.PendingTransaction{
		ID:        uuid.NewString(),
		Direction: core.DirectionOut,
		Amount:    amount,
		Token:     token,
		CreatedAt: time.Now(),
	}

	if err := k.pending.SavePending(ctx, record); err != nil {
		k.logger.Error("escrow record failed", "err", err)
	}

	return fmt.Errorf("%w: %v", core.ErrPartialFundLoss, cause)
}
