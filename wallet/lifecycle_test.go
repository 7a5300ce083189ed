package wallet

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/worker/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full inbound settlement: quote created, remote reports UNPAID for a while,
// then ISSUED with paid=false; the poller drives the wallet to a single
// credit and a single history record.
func TestMintLifecycleEndToEnd(t *testing.T) {
	w, mintz, _, invoices := setupWallet(t)
	ctx := context.Background()

	scriptMintQuote(mintz, "q64", 64)

	var checks atomic.Int32
	mintz.checkMint = func(*core.MintQuote) (*core.MintQuoteStatus, error) {
		if checks.Add(1) < 3 {
			return &core.MintQuoteStatus{State: core.QuoteStateUnpaid}, nil
		}
		return &core.MintQuoteStatus{State: core.QuoteStateIssued, Paid: false}, nil
	}
	mintz.mintProofs = func(quote *core.MintQuote) (core.Proofs, error) {
		return testProofs(quote.MintURL, 32, 16, 8, 4, 2, 1, 1), nil
	}

	quote, err := w.CreateMintQuote(ctx, mintA, 64)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := poller.New(w, logger, poller.Config{
		Interval:  20 * time.Millisecond,
		Countdown: 5 * time.Millisecond,
	})

	settled := make(chan struct{})
	p.Watch(ctx, quote, poller.Events{
		OnSettled: func(*core.MintQuote) { close(settled) },
	})

	select {
	case <-settled:
	case <-time.After(5 * time.Second):
		t.Fatal("quote never settled")
	}

	balance, err := w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), balance)

	history, err := invoices.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.InvoiceTypeMint, history[0].Type)
	assert.Equal(t, uint64(64), history[0].Amount)
	assert.Equal(t, 1, mintz.calls(&mintz.mintCalls))
}
