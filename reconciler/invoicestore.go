package reconciler

import (
	"context"
	"database/sql"

	"github.com/purselabs/purse/core"
)

func (r *Reconciler) SaveInvoice(ctx context.Context, invoice *core.StoredInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localInvoices.SaveInvoice(ctx, invoice)
	}

	next := r.snapshot.Clone()
	for i, existing := range next.Invoices {
		if existing.ID == invoice.ID {
			next.Invoices[i] = cloneInvoice(invoice)
			return r.swap(ctx, next)
		}
	}

	next.Invoices = append(next.Invoices, cloneInvoice(invoice))
	return r.swap(ctx, next)
}

func (r *Reconciler) DeleteInvoice(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localInvoices.DeleteInvoice(ctx, id)
	}

	next := r.snapshot.Clone()
	for i, existing := range next.Invoices {
		if existing.ID == id {
			next.Invoices = append(next.Invoices[:i], next.Invoices[i+1:]...)
			return r.swap(ctx, next)
		}
	}

	return nil
}

func (r *Reconciler) ListInvoices(ctx context.Context) ([]*core.StoredInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localInvoices.ListInvoices(ctx)
	}

	invoices := make([]*core.StoredInvoice, len(r.snapshot.Invoices))
	for i, invoice := range r.snapshot.Invoices {
		invoices[i] = cloneInvoice(invoice)
	}

	return invoices, nil
}

func (r *Reconciler) FindInvoiceByQuote(ctx context.Context, quoteID string) (*core.StoredInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localInvoices.FindInvoiceByQuote(ctx, quoteID)
	}

	for _, existing := range r.snapshot.Invoices {
		if existing.QuoteID == quoteID {
			return cloneInvoice(existing), nil
		}
	}

	return nil, sql.ErrNoRows
}

func cloneInvoice(invoice *core.StoredInvoice) *core.StoredInvoice {
	dup := *invoice
	return &dup
}
