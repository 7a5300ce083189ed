package invoice

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/purselabs/purse/core"
)

func (s *store) SavePending(ctx context.Context, tx *core.PendingTransaction) error {
	b := sq.Insert("pending_txs").
		Columns("id", "direction", "amount", "quote_id", "token", "created_at").
		Values(tx.ID, tx.Direction, tx.Amount, tx.QuoteID, tx.Token, tx.CreatedAt)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) DeletePending(ctx context.Context, id string) error {
	b := sq.Delete("pending_txs").Where("id = ?", id)
	stmt, args := b.MustSql()
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *store) ListPending(ctx context.Context) ([]*core.PendingTransaction, error) {
	b := sq.Select("id", "direction", "amount", "quote_id", "token", "created_at").
		From("pending_txs").
		OrderBy("created_at")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var txs []*core.PendingTransaction
	for rows.Next() {
		var tx core.PendingTransaction
		if err := rows.Scan(&tx.ID, &tx.Direction, &tx.Amount, &tx.QuoteID, &tx.Token, &tx.CreatedAt); err != nil {
			return nil, err
		}

		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}
