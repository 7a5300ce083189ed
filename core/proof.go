package core

import (
	"context"
	"time"
)

// Proof is a bearer token for a fixed amount of value, issued by a mint.
// Proofs are immutable once issued and are consumed all-or-nothing when spent.
type Proof struct {
	Amount    uint64    `json:"amount"`
	Secret    string    `json:"secret"`
	Signature string    `json:"C"`
	KeysetID  string    `json:"id"`
	MintURL   string    `json:"mint_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type Proofs []*Proof

func (ps Proofs) Sum() uint64 {
	var sum uint64
	for _, p := range ps {
		sum += p.Amount
	}

	return sum
}

type Balance struct {
	MintURL string `json:"mint_url"`
	Amount  uint64 `json:"amount"`
	Count   int    `json:"count"`
}

type ProofStore interface {
	// Save appends proofs. Duplicate secrets are a caller bug and must
	// surface as an error, never merge silently.
	Save(ctx context.Context, proofs Proofs) error
	// Delete removes proofs by exact identity (secret+amount+keyset) and
	// fails if any requested proof is absent.
	Delete(ctx context.Context, proofs Proofs) error
	// Replace atomically swaps spent proofs for keep proofs. Either both
	// sides apply or neither does.
	Replace(ctx context.Context, spent, keep Proofs) error
	// List returns proofs of one mint in insertion order until their sum
	// reaches target, capped at limit rows.
	List(ctx context.Context, mintURL string, target uint64, limit int) (Proofs, error)
	ListAll(ctx context.Context, mintURL string) (Proofs, error)
	SumBalance(ctx context.Context, mintURL string) (*Balance, error)
	SumBalances(ctx context.Context) ([]*Balance, error)
}
