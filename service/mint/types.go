package mint

import "github.com/purselabs/purse/core"

type infoResponse struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type mintQuoteRequest struct {
	Amount uint64 `json:"amount"`
	Unit   string `json:"unit,omitempty"`
}

type mintQuoteResponse struct {
	Quote          string `json:"quote"`
	PaymentRequest string `json:"request"`
	Amount         uint64 `json:"amount"`
	State          string `json:"state"`
	Paid           bool   `json:"paid"`
	Expiry         int64  `json:"expiry"`
}

type mintRequest struct {
	Quote  string `json:"quote"`
	Amount uint64 `json:"amount"`
}

type mintResponse struct {
	Proofs []*core.Proof `json:"proofs"`
}

type meltQuoteRequest struct {
	PaymentRequest string `json:"request"`
}

type meltQuoteResponse struct {
	Quote          string `json:"quote"`
	Amount         uint64 `json:"amount"`
	FeeReserve     uint64 `json:"fee_reserve"`
	State          string `json:"state"`
	Expiry         int64  `json:"expiry"`
}

type meltRequest struct {
	Proofs []*core.Proof `json:"proofs"`
}

type meltResponse struct {
	State   string        `json:"state"`
	Change  []*core.Proof `json:"change"`
	FeePaid uint64        `json:"fee_paid"`
}

type swapRequest struct {
	Proofs []*core.Proof `json:"proofs"`
	Amount uint64        `json:"amount"`
}

type swapResponse struct {
	Send []*core.Proof `json:"send"`
	Keep []*core.Proof `json:"keep"`
}

type receiveRequest struct {
	Proofs []*core.Proof `json:"proofs"`
}

type receiveResponse struct {
	Proofs []*core.Proof `json:"proofs"`
}
