package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/store"
)

// CreateMeltQuote requests an outbound payment quote. A payment request that
// already has a quote in flight is rejected rather than re-quoted, so the
// same funds cannot back two fee reservations.
func (w *Wallet) CreateMeltQuote(ctx context.Context, mintURL, paymentRequest string) (*core.MeltQuote, error) {
	if paymentRequest == "" {
		return nil, core.ErrInvalidAmount
	}

	w.imux.Lock()
	if w.inflight.Has(paymentRequest) {
		w.imux.Unlock()
		return nil, core.ErrDuplicateRequest
	}
	w.inflight.Put(paymentRequest)
	w.imux.Unlock()

	if existing, err := w.quotes.FindMeltQuoteByRequest(ctx, paymentRequest); err == nil && existing != nil {
		w.releaseRequest(paymentRequest)
		return nil, core.ErrDuplicateRequest
	} else if err != nil && !store.IsErrNotFound(err) {
		w.releaseRequest(paymentRequest)
		return nil, err
	}

	quote, err := w.mintz.CreateMeltQuote(ctx, mintURL, paymentRequest)
	if err != nil {
		w.releaseRequest(paymentRequest)
		return nil, err
	}

	if err := w.quotes.SaveMeltQuote(ctx, quote); err != nil {
		w.releaseRequest(paymentRequest)
		return nil, err
	}

	if err := w.pending.SavePending(ctx, &core.PendingTransaction{
		ID:        quote.ID,
		Direction: core.DirectionOut,
		Amount:    quote.Amount,
		QuoteID:   quote.ID,
		CreatedAt: time.Now(),
	}); err != nil {
		w.releaseRequest(paymentRequest)
		return nil, err
	}

	w.logger.Info("melt quote created", "quote", quote.ID, "amount", quote.Amount, "fee_reserve", quote.FeeReserve)
	return quote, nil
}

// PayMeltQuote funds a melt quote from stored proofs and settles it. The
// local amount+feeReserve check runs before any network call so a
// guaranteed-to-fail payment never reaches the mint.
func (w *Wallet) PayMeltQuote(ctx context.Context, quoteID string) (*core.MeltResult, error) {
	quote, err := w.quotes.FindMeltQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.State == core.QuoteStatePaid {
		return &core.MeltResult{State: quote.State, FeePaid: quote.FeePaid}, nil
	}

	need := quote.Amount + quote.FeeReserve

	w.mux.Lock()
	defer w.mux.Unlock()

	selected, err := w.proofs.List(ctx, quote.MintURL, need, selectLimit)
	if err != nil {
		return nil, err
	}

	if selected.Sum() < need {
		return nil, core.ErrInsufficientBalance
	}

	result, err := w.mintz.PayMeltQuote(ctx, quote, selected)
	if err != nil {
		// Proof store untouched; the caller decides whether to retry.
		return nil, err
	}

	if result.State != core.QuoteStatePaid {
		// The mint kept the quote open; nothing was spent.
		return nil, fmt.Errorf("%w: quote %s reported %s", core.ErrPaymentFailed, quote.ID, result.State)
	}

	if err := w.proofs.Replace(ctx, selected, result.Change); err != nil {
		// The payment settled remotely but the local ledger still counts
		// the spent proofs. Keep the pending marker for manual recovery.
		w.logger.Error("proofs.Replace after paid melt", "quote", quote.ID, "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrPartialFundLoss, err)
	}

	quote.FeePaid = result.FeePaid
	if err := w.quotes.UpdateMeltQuoteState(ctx, quote, core.QuoteStatePaid); err != nil {
		w.logger.Error("quotes.UpdateMeltQuoteState", "quote", quote.ID, "err", err)
	}

	if err := w.invoices.SaveInvoice(ctx, &core.StoredInvoice{
		ID:             uuid.NewString(),
		Type:           core.InvoiceTypeMelt,
		QuoteID:        quote.ID,
		MintURL:        quote.MintURL,
		Amount:         quote.Amount,
		Fee:            result.FeePaid,
		PaymentRequest: quote.PaymentRequest,
		CreatedAt:      time.Now(),
	}); err != nil {
		w.logger.Error("invoices.SaveInvoice", "quote", quote.ID, "err", err)
	}

	if err := w.pending.DeletePending(ctx, quote.ID); err != nil {
		w.logger.Error("pending.DeletePending", "quote", quote.ID, "err", err)
	}

	w.releaseRequest(quote.PaymentRequest)
	w.notifyBalanceChanged()
	w.logger.Info("melt quote paid", "quote", quote.ID, "amount", quote.Amount, "fee", result.FeePaid)
	return result, nil
}

// CancelMeltQuote abandons an unpaid melt quote and frees its payment
// request for re-quoting.
func (w *Wallet) CancelMeltQuote(ctx context.Context, quoteID string) error {
	quote, err := w.quotes.FindMeltQuote(ctx, quoteID)
	if err != nil {
		return err
	}

	if quote.State != core.QuoteStateUnpaid {
		return nil
	}

	if err := w.quotes.DeleteMeltQuote(ctx, quote.ID); err != nil {
		return err
	}

	if err := w.pending.DeletePending(ctx, quote.ID); err != nil {
		return err
	}

	w.releaseRequest(quote.PaymentRequest)
	return nil
}

func (w *Wallet) releaseRequest(paymentRequest string) {
	w.imux.Lock()
	w.inflight.Remove(paymentRequest)
	w.imux.Unlock()
}
