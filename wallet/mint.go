package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
)

// CreateMintQuote requests an inbound funding invoice from the mint and
// records a pending marker so the settlement survives a reload.
func (w *Wallet) CreateMintQuote(ctx context.Context, mintURL string, amount uint64) (*core.MintQuote, error) {
	if amount == 0 {
		return nil, core.ErrInvalidAmount
	}

	quote, err := w.mintz.CreateMintQuote(ctx, mintURL, amount)
	if err != nil {
		return nil, err
	}

	if err := w.quotes.SaveMintQuote(ctx, quote); err != nil {
		return nil, err
	}

	if err := w.pending.SavePending(ctx, &core.PendingTransaction{
		ID:        quote.ID,
		Direction: core.DirectionIn,
		Amount:    amount,
		QuoteID:   quote.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, err
	}

	w.logger.Info("mint quote created", "quote", quote.ID, "amount", amount)
	return quote, nil
}

// CheckMintQuote polls the remote settlement state and credits the proof
// store exactly once when the quote settles. It is safe to call any number
// of times and from overlapping triggers: concurrent calls for one quote
// collapse into a single check, and a quote already credited returns
// success without touching the store.
func (w *Wallet) CheckMintQuote(ctx context.Context, quoteID string) (*core.MintQuote, error) {
	v, err, _ := w.sf.Do(quoteID, func() (interface{}, error) {
		return w.checkMintQuote(ctx, quoteID)
	})
	if err != nil {
		return nil, err
	}

	return v.(*core.MintQuote), nil
}

func (w *Wallet) checkMintQuote(ctx context.Context, quoteID string) (*core.MintQuote, error) {
	logger := w.logger.With("quote", quoteID)

	quote, err := w.quotes.FindMintQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.State == core.QuoteStateIssued {
		// Already credited; repeated checks are a no-op success.
		return quote, nil
	}

	status, err := w.mintz.CheckMintQuote(ctx, quote)
	if err != nil {
		return nil, err
	}

	// ISSUED counts as settled even when the mint reports paid=false.
	if !status.State.Settled() {
		return quote, nil
	}

	minted, err := w.mintz.MintProofs(ctx, quote)
	if errors.Is(err, core.ErrAlreadyIssued) {
		// The mint credited this quote in an earlier life. Reconcile
		// bookkeeping instead of trusting the pending amount.
		logger.Warn("quote already issued upstream, reconciling")
		return quote, w.settleWithoutCredit(ctx, quote)
	} else if err != nil {
		return nil, err
	}

	// Persist the value before claiming the quote. A failure here leaves
	// the quote unpaid, so the next check retries the mint and credits;
	// the reverse order would mark the quote settled with nothing stored.
	if err := w.proofs.Save(ctx, minted); err != nil {
		return nil, err
	}

	// Claim the credit. Losing the optimistic lock means another writer
	// settled the quote and did the bookkeeping; the value is stored
	// either way.
	if err := w.quotes.UpdateMintQuoteState(ctx, quote, core.QuoteStateIssued); err != nil {
		logger.Warn("lost settle race, skipping bookkeeping", "err", err)
		return quote, nil
	}

	if err := w.invoices.SaveInvoice(ctx, &core.StoredInvoice{
		ID:             uuid.NewString(),
		Type:           core.InvoiceTypeMint,
		QuoteID:        quote.ID,
		MintURL:        quote.MintURL,
		Amount:         quote.Amount,
		PaymentRequest: quote.PaymentRequest,
		CreatedAt:      time.Now(),
	}); err != nil {
		logger.Error("invoices.SaveInvoice", "err", err)
		return nil, err
	}

	if err := w.pending.DeletePending(ctx, quote.ID); err != nil {
		logger.Error("pending.DeletePending", "err", err)
	}

	w.notifyBalanceChanged()
	logger.Info("mint quote credited", "amount", quote.Amount)
	return quote, nil
}

// settleWithoutCredit marks a quote issued without minting: the proofs were
// credited in a previous run. Listeners get notified so callers re-read the
// authoritative balance.
func (w *Wallet) settleWithoutCredit(ctx context.Context, quote *core.MintQuote) error {
	if err := w.quotes.UpdateMintQuoteState(ctx, quote, core.QuoteStateIssued); err != nil {
		// Another writer already settled it; nothing left to reconcile.
		return nil
	}

	if err := w.pending.DeletePending(ctx, quote.ID); err != nil {
		w.logger.Error("pending.DeletePending", "quote", quote.ID, "err", err)
	}

	w.notifyBalanceChanged()
	return nil
}

// PendingMintQuotes returns quotes still awaiting settlement, so pollers can
// be re-attached after a restart.
func (w *Wallet) PendingMintQuotes(ctx context.Context) ([]*core.MintQuote, error) {
	return w.quotes.ListMintQuotes(ctx, core.QuoteStateUnpaid)
}
