package keychain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/service/mint"
	"github.com/purselabs/purse/store/apikey"
	"github.com/purselabs/purse/store/db"
	"github.com/purselabs/purse/store/invoice"
	"github.com/purselabs/purse/store/proof"
	"github.com/purselabs/purse/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsenart/nap"
)

// splitMint scripts only the swap and receive operations a funding
// round-trip needs; everything else is out of scope here.
type splitMint struct{}

func (splitMint) Info(_ context.Context, mintURL string) (*core.MintInfo, error) {
	return &core.MintInfo{URL: mintURL, Unit: "sat"}, nil
}

func (splitMint) CreateMintQuote(context.Context, string, uint64) (*core.MintQuote, error) {
	panic("not scripted")
}

func (splitMint) CheckMintQuote(context.Context, *core.MintQuote) (*core.MintQuoteStatus, error) {
	panic("not scripted")
}

func (splitMint) MintProofs(context.Context, *core.MintQuote) (core.Proofs, error) {
	panic("not scripted")
}

func (splitMint) CreateMeltQuote(context.Context, string, string) (*core.MeltQuote, error) {
	panic("not scripted")
}

func (splitMint) PayMeltQuote(context.Context, *core.MeltQuote, core.Proofs) (*core.MeltResult, error) {
	panic("not scripted")
}

func (splitMint) Split(_ context.Context, mintURL string, proofs core.Proofs, amount uint64) (core.Proofs, core.Proofs, error) {
	send := core.Proofs{freshProof(mintURL, amount)}
	var keep core.Proofs
	if change := proofs.Sum() - amount; change > 0 {
		keep = core.Proofs{freshProof(mintURL, change)}
	}
	return send, keep, nil
}

func (splitMint) Receive(_ context.Context, token string) (core.Proofs, error) {
	mintURL, proofs, err := mint.DecodeToken(token)
	if err != nil {
		return nil, err
	}
	return core.Proofs{freshProof(mintURL, proofs.Sum())}, nil
}

func (splitMint) EncodeToken(mintURL string, proofs core.Proofs) (string, error) {
	return mint.EncodeToken(mintURL, proofs)
}

func freshProof(mintURL string, amount uint64) *core.Proof {
	return &core.Proof{
		Amount:    amount,
		Secret:    uuid.NewString(),
		Signature: "sig",
		KeysetID:  "keyset-1",
		MintURL:   mintURL,
		CreatedAt: time.Now(),
	}
}

// balanceCredz is a stateful credential service: exchanged and topped-up
// value accrues, refund drains it once.
type balanceCredz struct {
	balance uint64
}

func (c *balanceCredz) Exchange(_ context.Context, baseURL, token, label string) (*core.ApiKey, error) {
	_, proofs, err := mint.DecodeToken(token)
	if err != nil {
		return nil, err
	}

	c.balance = proofs.Sum()
	balance := c.balance
	return &core.ApiKey{
		Key:       "sk-funded",
		Label:     label,
		BaseURL:   baseURL,
		Balance:   &balance,
		CreatedAt: time.Now(),
	}, nil
}

func (c *balanceCredz) Info(context.Context, *core.ApiKey) (uint64, error) {
	return c.balance, nil
}

func (c *balanceCredz) TopUp(_ context.Context, _ *core.ApiKey, token string) error {
	_, proofs, err := mint.DecodeToken(token)
	if err != nil {
		return err
	}

	c.balance += proofs.Sum()
	return nil
}

func (c *balanceCredz) Refund(context.Context, *core.ApiKey) (string, error) {
	if c.balance == 0 {
		return "", nil
	}

	token, err := mint.EncodeToken(mintA, core.Proofs{freshProof(mintA, c.balance)})
	if err != nil {
		return "", err
	}

	c.balance = 0
	return token, nil
}

// Funding round-trip: 100 in proofs, 30 into a fresh credential, refunded
// back in full, then deleted without any force override.
func TestCredentialFundingEndToEnd(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := nap.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn.Master()))

	ctx := context.Background()
	proofs := proof.New(conn)
	invoices := invoice.New(conn)
	keys := apikey.New(conn)
	credz := &balanceCredz{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := wallet.New(proofs, invoices, invoices, invoices, splitMint{}, logger)
	k := New(w, keys, credz, invoices, logger)

	require.NoError(t, proofs.Save(ctx, core.Proofs{
		freshProof(mintA, 64),
		freshProof(mintA, 32),
		freshProof(mintA, 4),
	}))

	key, err := k.Create(ctx, baseURL, mintA, 30, "funded")
	require.NoError(t, err)

	balance, err := w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), balance)

	remote, err := credz.Info(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), remote)

	amount, err := k.Refund(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), amount)

	balance, err = w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance)

	// The drained credential deletes cleanly; refund is now a no-op.
	require.NoError(t, k.Delete(ctx, key, false))

	keysLeft, err := k.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keysLeft)
}
