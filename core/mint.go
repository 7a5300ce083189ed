package core

import "context"

// MintInfo describes a mint's declared accounting unit. Multi-mint balance
// totals normalize sub-unit mints before summing.
type MintInfo struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Unit string `json:"unit"`
}

// MintQuoteStatus is the remote-reported settlement status of a mint quote.
// Paid is carried verbatim from the wire; State is authoritative.
type MintQuoteStatus struct {
	State QuoteState `json:"state"`
	Paid  bool       `json:"paid"`
}

// MeltResult is the outcome of paying a melt quote: change proofs to keep
// and the fee actually charged.
type MeltResult struct {
	State   QuoteState `json:"state"`
	Change  Proofs     `json:"change"`
	FeePaid uint64     `json:"fee_paid"`
}

// MintService is the remote mint/ledger collaborator.
type MintService interface {
	Info(ctx context.Context, mintURL string) (*MintInfo, error)

	CreateMintQuote(ctx context.Context, mintURL string, amount uint64) (*MintQuote, error)
	CheckMintQuote(ctx context.Context, quote *MintQuote) (*MintQuoteStatus, error)
	MintProofs(ctx context.Context, quote *MintQuote) (Proofs, error)

	CreateMeltQuote(ctx context.Context, mintURL, paymentRequest string) (*MeltQuote, error)
	PayMeltQuote(ctx context.Context, quote *MeltQuote, proofs Proofs) (*MeltResult, error)

	// Split asks the mint to swap the given proofs into a send set worth
	// exactly amount plus a keep set carrying the change.
	Split(ctx context.Context, mintURL string, proofs Proofs, amount uint64) (send, keep Proofs, err error)
	// Receive redeems a serialized token into fresh proofs owned by this
	// wallet.
	Receive(ctx context.Context, token string) (Proofs, error)

	EncodeToken(mintURL string, proofs Proofs) (string, error)
}
