package invoice

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/purselabs/purse/core"
)

func (s *store) SaveInvoice(ctx context.Context, invoice *core.StoredInvoice) error {
	b := sq.Insert("invoices").
		Columns("id", "type", "quote_id", "mint_url", "amount", "fee", "payment_request", "created_at").
		Values(invoice.ID, invoice.Type, invoice.QuoteID, invoice.MintURL, invoice.Amount, invoice.Fee, invoice.PaymentRequest, invoice.CreatedAt)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) DeleteInvoice(ctx context.Context, id string) error {
	b := sq.Delete("invoices").Where("id = ?", id)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) ListInvoices(ctx context.Context) ([]*core.StoredInvoice, error) {
	b := sq.Select(invoiceColumns...).
		From("invoices").
		OrderBy("created_at DESC")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var invoices []*core.StoredInvoice
	for rows.Next() {
		var invoice core.StoredInvoice
		if err := scanInvoice(rows, &invoice); err != nil {
			return nil, err
		}

		invoices = append(invoices, &invoice)
	}

	return invoices, rows.Err()
}

func (s *store) FindInvoiceByQuote(ctx context.Context, quoteID string) (*core.StoredInvoice, error) {
	b := sq.Select(invoiceColumns...).
		From("invoices").
		Where("quote_id = ?", quoteID)
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var invoice core.StoredInvoice
	if err := scanInvoice(row, &invoice); err != nil {
		return nil, err
	}

	return &invoice, nil
}
