package core

import (
	"context"
	"fmt"
	"time"
)

type QuoteState uint8

const (
	_ QuoteState = iota
	QuoteStateUnpaid
	QuoteStatePaid
	QuoteStateIssued
)

//go:generate enumer -type=QuoteState -trimprefix=QuoteState -json

// ParseQuoteState maps a remote-reported state string onto the closed enum.
// Unknown states are an error so a new remote state is a visible gap, not a
// silent UNPAID.
func ParseQuoteState(s string) (QuoteState, error) {
	switch s {
	case "UNPAID":
		return QuoteStateUnpaid, nil
	case "PAID":
		return QuoteStatePaid, nil
	case "ISSUED":
		return QuoteStateIssued, nil
	default:
		return 0, fmt.Errorf("unknown quote state %q", s)
	}
}

func (s QuoteState) String() string {
	switch s {
	case QuoteStateUnpaid:
		return "UNPAID"
	case QuoteStatePaid:
		return "PAID"
	case QuoteStateIssued:
		return "ISSUED"
	default:
		return fmt.Sprintf("QuoteState(%d)", uint8(s))
	}
}

// Settled reports whether the quote has been paid on the network. ISSUED
// counts as settled regardless of any accompanying paid flag: some mints
// report ISSUED with paid=false after they garbage-collect the invoice.
func (s QuoteState) Settled() bool {
	return s == QuoteStatePaid || s == QuoteStateIssued
}

// MintQuote is a promise for an inbound network payment that, once settled,
// authorizes minting new proofs. Lifecycle: UNPAID -> PAID|ISSUED.
type MintQuote struct {
	ID             string     `json:"id"`
	MintURL        string     `json:"mint_url"`
	Amount         uint64     `json:"amount"`
	PaymentRequest string     `json:"payment_request"`
	State          QuoteState `json:"state"`
	Expiry         time.Time  `json:"expiry,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MeltQuote is a promise for an outbound network payment funded by
// surrendering proofs worth at least Amount+FeeReserve.
type MeltQuote struct {
	ID             string     `json:"id"`
	MintURL        string     `json:"mint_url"`
	PaymentRequest string     `json:"payment_request"`
	Amount         uint64     `json:"amount"`
	FeeReserve     uint64     `json:"fee_reserve"`
	FeePaid        uint64     `json:"fee_paid,omitempty"`
	State          QuoteState `json:"state"`
	Expiry         time.Time  `json:"expiry,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type QuoteStore interface {
	SaveMintQuote(ctx context.Context, quote *MintQuote) error
	FindMintQuote(ctx context.Context, id string) (*MintQuote, error)
	// UpdateMintQuoteState transitions a quote with an optimistic lock on
	// the current state; it fails if another writer got there first.
	UpdateMintQuoteState(ctx context.Context, quote *MintQuote, to QuoteState) error
	ListMintQuotes(ctx context.Context, state QuoteState) ([]*MintQuote, error)

	SaveMeltQuote(ctx context.Context, quote *MeltQuote) error
	FindMeltQuote(ctx context.Context, id string) (*MeltQuote, error)
	FindMeltQuoteByRequest(ctx context.Context, paymentRequest string) (*MeltQuote, error)
	UpdateMeltQuoteState(ctx context.Context, quote *MeltQuote, to QuoteState) error
	// DeleteMeltQuote drops an abandoned quote so its payment request can
	// be quoted again.
	DeleteMeltQuote(ctx context.Context, id string) error
}
