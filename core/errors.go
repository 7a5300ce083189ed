package core

import "errors"

var (
	// ErrInvalidAmount rejects a non-positive or unparseable amount before
	// any network call.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is a locally computable shortfall, rejected
	// before any network call where possible.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadySpent means the remote rejected proofs as already consumed.
	// Terminal: no retry, local state untouched.
	ErrAlreadySpent = errors.New("proofs already spent")

	// ErrAlreadyIssued means the remote reports a mint quote already
	// credited. Treated as success with a reconciliation fetch, never as a
	// failure path.
	ErrAlreadyIssued = errors.New("quote already issued")

	// ErrInvalidCredential is a remote-confirmed bad bearer key. The
	// credential is marked inert, not deleted.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrUnreachable is a transport failure. The poller retries it;
	// one-shot user operations surface it immediately.
	ErrUnreachable = errors.New("remote unreachable")

	// ErrPartialFundLoss means a spend succeeded locally but the follow-up
	// remote exchange failed. Higher severity than ErrUnreachable and never
	// folded into it.
	ErrPartialFundLoss = errors.New("funds spent but remote exchange failed")

	// ErrPaymentFailed means the mint accepted a melt request but reported
	// the payment unsettled. Proofs stay untouched; the caller may retry.
	ErrPaymentFailed = errors.New("payment not settled")

	// ErrProofMissing means a removal referenced a proof absent from the
	// store, which would otherwise mask a lost-update race.
	ErrProofMissing = errors.New("proof not found in store")

	// ErrDuplicateRequest rejects an outbound payment request that already
	// has a quote in flight.
	ErrDuplicateRequest = errors.New("payment request already in flight")

	// ErrRefundFailed marks a credential refund that did not complete;
	// deletion is blocked unless the caller explicitly overrides.
	ErrRefundFailed = errors.New("refund failed")
)
