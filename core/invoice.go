package core

import (
	"context"
	"time"
)

type InvoiceType uint8

const (
	_ InvoiceType = iota
	InvoiceTypeMint
	InvoiceTypeMelt
)

//go:generate enumer -type=InvoiceType -trimprefix=InvoiceType -json

func (t InvoiceType) String() string {
	switch t {
	case InvoiceTypeMint:
		return "mint"
	case InvoiceTypeMelt:
		return "melt"
	default:
		return "unknown"
	}
}

// StoredInvoice is the durable history record of a settled mint or melt
// quote. Quotes may be garbage-collected by the remote mint; invoices
// persist for user-facing history and audit.
type StoredInvoice struct {
	ID             string      `json:"id"`
	Type           InvoiceType `json:"type"`
	QuoteID        string      `json:"quote_id"`
	MintURL        string      `json:"mint_url"`
	Amount         uint64      `json:"amount"`
	Fee            uint64      `json:"fee,omitempty"`
	PaymentRequest string      `json:"payment_request,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

type InvoiceStore interface {
	SaveInvoice(ctx context.Context, invoice *StoredInvoice) error
	DeleteInvoice(ctx context.Context, id string) error
	ListInvoices(ctx context.Context) ([]*StoredInvoice, error)
	FindInvoiceByQuote(ctx context.Context, quoteID string) (*StoredInvoice, error)
}

type Direction uint8

const (
	_ Direction = iota
	DirectionIn
	DirectionOut
)

//go:generate enumer -type=Direction -trimprefix=Direction -json

// PendingTransaction marks an in-flight settlement so it survives a reload.
// Outbound markers double as escrow records: Token carries the serialized
// proofs when a spend succeeded locally but the remote exchange failed.
type PendingTransaction struct {
	ID        string    `json:"id"`
	Direction Direction `json:"direction"`
	Amount    uint64    `json:"amount"`
	QuoteID   string    `json:"quote_id,omitempty"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PendingStore interface {
	SavePending(ctx context.Context, tx *PendingTransaction) error
	DeletePending(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]*PendingTransaction, error)
}
