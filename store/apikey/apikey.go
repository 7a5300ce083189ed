package apikey

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/purselabs/purse/core"
	"github.com/tsenart/nap"
)

func New(db *nap.DB) core.KeyStore {
	keys, err := lru.New[string, *core.ApiKey](256)
	if err != nil {
		panic(err)
	}

	return &store{
		db:   db,
		keys: keys,
	}
}

type store struct {
	db   *nap.DB
	keys *lru.Cache[string, *core.ApiKey]
}

var columns = []string{"key", "label", "base_url", "balance", "invalid", "created_at"}

func (s *store) SaveKey(ctx context.Context, key *core.ApiKey) error {
	var balance sql.NullInt64
	if key.Balance != nil {
		balance = sql.NullInt64{Int64: int64(*key.Balance), Valid: true}
	}

	b := sq.Insert("api_keys").
		Columns(columns...).
		Values(key.Key, key.Label, key.BaseURL, balance, key.Invalid, key.CreatedAt).
		Suffix("ON CONFLICT(key) DO UPDATE SET label = excluded.label, balance = excluded.balance, invalid = excluded.invalid")
	stmt, args := b.MustSql()
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}

	s.keys.Remove(key.Key)
	return nil
}

func (s *store) DeleteKey(ctx context.Context, key string) error {
	b := sq.Delete("api_keys").Where("key = ?", key)
	stmt, args := b.MustSql()
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}

	s.keys.Remove(key)
	return nil
}

func (s *store) FindKey(ctx context.Context, key string) (*core.ApiKey, error) {
	if k, ok := s.keys.Get(key); ok {
		return k, nil
	}

	k, err := s.find(ctx, key)
	if err != nil {
		return nil, err
	}

	s.keys.Add(key, k)
	return k, nil
}

func (s *store) find(ctx context.Context, key string) (*core.ApiKey, error) {
	b := sq.Select(columns...).From("api_keys").Where(sq.Eq{"key": key})
	stmt, args := b.MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)
	return scanKey(row)
}

func (s *store) ListKeys(ctx context.Context) ([]*core.ApiKey, error) {
	b := sq.Select(columns...).From("api_keys").OrderBy("created_at")
	stmt, args := b.MustSql()
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var keys []*core.ApiKey
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}

		keys = append(keys, key)
	}

	return keys, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanKey(scanner scanner) (*core.ApiKey, error) {
	var (
		key     core.ApiKey
		balance sql.NullInt64
	)

	if err := scanner.Scan(&key.Key, &key.Label, &key.BaseURL, &balance, &key.Invalid, &key.CreatedAt); err != nil {
		return nil, err
	}

	if balance.Valid {
		b := uint64(balance.Int64)
		key.Balance = &b
	}

	return &key, nil
}
