package invoice

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/purselabs/purse/core"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) Store {
	return &store{db: db}
}

// Store bundles the quote, invoice and pending-transaction persistence that
// the invoice lifecycle shares one database with.
type Store interface {
	core.QuoteStore
	core.InvoiceStore
	core.PendingStore
}

type store struct {
	db *nap.DB
}

func (s *store) SaveMintQuote(ctx context.Context, quote *core.MintQuote) error {
	b := sq.Insert("mint_quotes").
		Columns("id", "mint_url", "amount", "payment_request", "state", "expiry", "created_at").
		Values(quote.ID, quote.MintURL, quote.Amount, quote.PaymentRequest, quote.State, quote.Expiry, quote.CreatedAt)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) FindMintQuote(ctx context.Context, id string) (*core.MintQuote, error) {
	b := sq.Select(mintQuoteColumns...).
		From("mint_quotes").
		Where("id = ?", id)
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var quote core.MintQuote
	if err := scanMintQuote(row, &quote); err != nil {
		return nil, err
	}

	return &quote, nil
}

// UpdateMintQuoteState transitions state with an optimistic lock on the
// previous value. Losing the race means another caller already settled the
// quote; callers treat that as already credited, never as a second credit.
func (s *store) UpdateMintQuoteState(ctx context.Context, quote *core.MintQuote, to core.QuoteState) error {
	b := sq.Update("mint_quotes").
		Set("state", to).
		Where("id = ? AND state = ?", quote.ID, quote.State)
	stmt, args := b.MustSql()
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	quote.State = to
	return nil
}

func (s *store) ListMintQuotes(ctx context.Context, state core.QuoteState) ([]*core.MintQuote, error) {
	b := sq.Select(mintQuoteColumns...).
		From("mint_quotes").
		Where("state = ?", state).
		OrderBy("created_at")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var quotes []*core.MintQuote
	for rows.Next() {
		var quote core.MintQuote
		if err := scanMintQuote(rows, &quote); err != nil {
			return nil, err
		}

		quotes = append(quotes, &quote)
	}

	return quotes, rows.Err()
}

func (s *store) SaveMeltQuote(ctx context.Context, quote *core.MeltQuote) error {
	b := sq.Insert("melt_quotes").
		Columns("id", "mint_url", "payment_request", "amount", "fee_reserve", "fee_paid", "state", "expiry", "created_at").
		Values(quote.ID, quote.MintURL, quote.PaymentRequest, quote.Amount, quote.FeeReserve, quote.FeePaid, quote.State, quote.Expiry, quote.CreatedAt)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) FindMeltQuote(ctx context.Context, id string) (*core.MeltQuote, error) {
	b := sq.Select(meltQuoteColumns...).
		From("melt_quotes").
		Where("id = ?", id)
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var quote core.MeltQuote
	if err := scanMeltQuote(row, &quote); err != nil {
		return nil, err
	}

	return &quote, nil
}

func (s *store) FindMeltQuoteByRequest(ctx context.Context, paymentRequest string) (*core.MeltQuote, error) {
	b := sq.Select(meltQuoteColumns...).
		From("melt_quotes").
		Where("payment_request = ? AND state = ?", paymentRequest, core.QuoteStateUnpaid).
		OrderBy("created_at DESC").
		Limit(1)
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var quote core.MeltQuote
	if err := scanMeltQuote(row, &quote); err != nil {
		return nil, err
	}

	return &quote, nil
}

func (s *store) DeleteMeltQuote(ctx context.Context, id string) error {
	b := sq.Delete("melt_quotes").Where("id = ?", id)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) UpdateMeltQuoteState(ctx context.Context, quote *core.MeltQuote, to core.QuoteState) error {
	b := sq.Update("melt_quotes").
		Set("state", to).
		Set("fee_paid", quote.FeePaid).
		Where("id = ? AND state = ?", quote.ID, quote.State)
	stmt, args := b.MustSql()
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("optimistic lock failed")
	}

	quote.State = to
	return nil
}
