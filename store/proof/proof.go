package proof

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pandodao/generic"
	"github.com/purselabs/purse/core"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.ProofStore {
	return &store{db: db}
}

type store struct {
	db *nap.DB
}

func save(ctx context.Context, tx *sql.Tx, proof *core.Proof) error {
	b := sq.Insert("proofs").
		Columns("secret", "amount", "keyset_id", "signature", "mint_url", "created_at").
		Values(proof.Secret, proof.Amount, proof.KeysetID, proof.Signature, proof.MintURL, proof.CreatedAt)
	stmt, args := b.MustSql()
	_, err := tx.ExecContext(ctx, stmt, args...)
	return err
}

// remove deletes one proof by exact identity. A miss aborts the enclosing
// transaction so a lost-update race cannot be masked.
func remove(ctx context.Context, tx *sql.Tx, proof *core.Proof) error {
	b := sq.Delete("proofs").
		Where("secret = ? AND amount = ? AND keyset_id = ?", proof.Secret, proof.Amount, proof.KeysetID)
	stmt, args := b.MustSql()
	result, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: amount %d", core.ErrProofMissing, proof.Amount)
	}

	return nil
}

func (s *store) Save(ctx context.Context, proofs core.Proofs) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	for _, proof := range proofs {
		if err := save(ctx, tx, proof); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *store) Delete(ctx context.Context, proofs core.Proofs) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	for _, proof := range proofs {
		if err := remove(ctx, tx, proof); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *store) Replace(ctx context.Context, spent, keep core.Proofs) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	for _, proof := range spent {
		if err := remove(ctx, tx, proof); err != nil {
			return err
		}
	}

	for _, proof := range keep {
		if err := save(ctx, tx, proof); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *store) List(ctx context.Context, mintURL string, target uint64, limit int) (core.Proofs, error) {
	b := sq.Select(scanColumns...).
		From("proofs").
		Where("mint_url = ?", mintURL).
		OrderBy("created_at", "secret").
		Limit(uint64(limit))
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var (
		proofs core.Proofs
		sum    uint64
	)

	for rows.Next() {
		var proof core.Proof
		if err := scanProof(rows, &proof); err != nil {
			return nil, err
		}

		proofs = append(proofs, &proof)
		if sum += proof.Amount; sum >= target {
			break
		}
	}

	return proofs, rows.Err()
}

func (s *store) ListAll(ctx context.Context, mintURL string) (core.Proofs, error) {
	b := sq.Select(scanColumns...).
		From("proofs").
		Where("mint_url = ?", mintURL).
		OrderBy("created_at", "secret")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var proofs core.Proofs
	for rows.Next() {
		var proof core.Proof
		if err := scanProof(rows, &proof); err != nil {
			return nil, err
		}

		proofs = append(proofs, &proof)
	}

	return proofs, rows.Err()
}

func (s *store) SumBalance(ctx context.Context, mintURL string) (*core.Balance, error) {
	b := sq.Select("COALESCE(SUM(amount), 0)", "COUNT(*)").
		From("proofs").
		Where("mint_url = ?", mintURL)
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	balance := core.Balance{MintURL: mintURL}
	if err := row.Scan(&balance.Amount, &balance.Count); err != nil {
		return nil, err
	}

	return &balance, nil
}

func (s *store) SumBalances(ctx context.Context) ([]*core.Balance, error) {
	b := sq.Select("mint_url", "SUM(amount)", "COUNT(*)").
		From("proofs").
		GroupBy("mint_url")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var balances []*core.Balance
	for rows.Next() {
		var balance core.Balance
		if err := rows.Scan(&balance.MintURL, &balance.Amount, &balance.Count); err != nil {
			return nil, err
		}

		balances = append(balances, &balance)
	}

	return balances, rows.Err()
}
