package wallet

import (
	"context"
	"log/slog"
	"sync"

	"github.com/purselabs/purse/core"
	"github.com/shopspring/decimal"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/singleflight"
)

// selectLimit caps how many proofs one spend may gather.
const selectLimit = 256

func New(
	proofs core.ProofStore,
	quotes core.QuoteStore,
	invoices core.InvoiceStore,
	pending core.PendingStore,
	mintz core.MintService,
	logger *slog.Logger,
) *Wallet {
	return &Wallet{
		proofs:   proofs,
		quotes:   quotes,
		invoices: invoices,
		pending:  pending,
		mintz:    mintz,
		logger:   logger.With("component", "wallet"),
		inflight: mapset.New[string](),
	}
}

// Wallet is the custody engine: it owns proof selection and replacement and
// drives the mint/melt invoice lifecycle against the remote mint.
type Wallet struct {
	proofs   core.ProofStore
	quotes   core.QuoteStore
	invoices core.InvoiceStore
	pending  core.PendingStore
	mintz    core.MintService
	logger   *slog.Logger

	// mux serializes proof selection and replacement. It is held across
	// the mint round-trip so a re-entrant spend cannot select the same
	// proofs twice.
	mux sync.Mutex

	// sf collapses concurrent settlement checks for the same quote.
	sf singleflight.Group

	// inflight tracks outbound payment requests that already have a quote,
	// guarded by imux.
	inflight mapset.Set[string]
	imux     sync.Mutex

	listeners []func()
	lmux      sync.Mutex
}

// Balance sums stored proofs for one mint.
func (w *Wallet) Balance(ctx context.Context, mintURL string) (uint64, error) {
	balance, err := w.proofs.SumBalance(ctx, mintURL)
	if err != nil {
		return 0, err
	}

	return balance.Amount, nil
}

// TotalBalance sums across mints, normalizing each mint's declared unit to
// base units before adding.
func (w *Wallet) TotalBalance(ctx context.Context) (uint64, error) {
	balances, err := w.proofs.SumBalances(ctx)
	if err != nil {
		return 0, err
	}

	var total decimal.Decimal
	for _, b := range balances {
		info, err := w.mintz.Info(ctx, b.MintURL)
		if err != nil {
			return 0, err
		}

		amount := decimal.NewFromInt(int64(b.Amount))
		if info.Unit == "msat" {
			amount = amount.Div(decimal.NewFromInt(1000)).Floor()
		}

		total = total.Add(amount)
	}

	return uint64(total.IntPart()), nil
}

// Receive redeems a bearer token from a peer into fresh proofs.
func (w *Wallet) Receive(ctx context.Context, token string) (uint64, error) {
	proofs, err := w.mintz.Receive(ctx, token)
	if err != nil {
		return 0, err
	}

	if err := w.proofs.Save(ctx, proofs); err != nil {
		return 0, err
	}

	w.notifyBalanceChanged()
	return proofs.Sum(), nil
}

// Spend selects proofs worth at least amount, swaps them at the mint for an
// exact send set plus change, and atomically replaces the selection with the
// change. A failed swap leaves the store byte-for-byte untouched.
func (w *Wallet) Spend(ctx context.Context, mintURL string, amount uint64) (core.Proofs, error) {
	if amount == 0 {
		return nil, core.ErrInvalidAmount
	}

	w.mux.Lock()
	defer w.mux.Unlock()

	selected, err := w.proofs.List(ctx, mintURL, amount, selectLimit)
	if err != nil {
		return nil, err
	}

	if selected.Sum() < amount {
		return nil, core.ErrInsufficientBalance
	}

	send, keep, err := w.mintz.Split(ctx, mintURL, selected, amount)
	if err != nil {
		return nil, err
	}

	if err := w.proofs.Replace(ctx, selected, keep); err != nil {
		return nil, err
	}

	w.notifyBalanceChanged()
	return send, nil
}

// SendToken spends amount and serializes the resulting proofs into a
// portable bearer token.
func (w *Wallet) SendToken(ctx context.Context, mintURL string, amount uint64) (string, error) {
	send, err := w.Spend(ctx, mintURL, amount)
	if err != nil {
		return "", err
	}

	return w.mintz.EncodeToken(mintURL, send)
}

// PendingTransactions lists in-flight settlement markers, for UI display and
// startup recovery.
func (w *Wallet) PendingTransactions(ctx context.Context) ([]*core.PendingTransaction, error) {
	return w.pending.ListPending(ctx)
}

// Invoices lists the durable settlement history.
func (w *Wallet) Invoices(ctx context.Context) ([]*core.StoredInvoice, error) {
	return w.invoices.ListInvoices(ctx)
}
