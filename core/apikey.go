package core

import (
	"context"
	"time"
)

// ApiKey is a bearer API credential funded from proof value. Balance is
// authoritative on the remote service; a nil Balance together with Invalid
// marks a credential whose remote lookup failed authentication, which is
// distinct from a transient network failure.
type ApiKey struct {
	Key       string    `json:"key"`
	Label     string    `json:"label,omitempty"`
	BaseURL   string    `json:"base_url"`
	Balance   *uint64   `json:"balance"`
	Invalid   bool      `json:"invalid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Equal compares every user-visible field. The reconciler relies on this to
// tell a stale remote echo apart from a genuinely newer record.
func (k *ApiKey) Equal(other *ApiKey) bool {
	if k == nil || other == nil {
		return k == other
	}

	if k.Key != other.Key ||
		k.Label != other.Label ||
		k.BaseURL != other.BaseURL ||
		k.Invalid != other.Invalid {
		return false
	}

	switch {
	case k.Balance == nil && other.Balance == nil:
		return true
	case k.Balance == nil || other.Balance == nil:
		return false
	default:
		return *k.Balance == *other.Balance
	}
}

type KeyStore interface {
	SaveKey(ctx context.Context, key *ApiKey) error
	DeleteKey(ctx context.Context, key string) error
	FindKey(ctx context.Context, key string) (*ApiKey, error)
	ListKeys(ctx context.Context) ([]*ApiKey, error)
}

// CredentialService talks to the remote API-credential service at a key's
// base URL.
type CredentialService interface {
	// Exchange hands a serialized token to the service and receives a fresh
	// credential with its initial balance.
	Exchange(ctx context.Context, baseURL, token, label string) (*ApiKey, error)
	// Info returns the remote balance for the credential.
	Info(ctx context.Context, key *ApiKey) (uint64, error)
	// TopUp posts a serialized token to credit the credential.
	TopUp(ctx context.Context, key *ApiKey, token string) error
	// Refund zeroes the remote balance and returns a serialized refund
	// token. A credential with no balance to refund returns ("", nil).
	Refund(ctx context.Context, key *ApiKey) (string, error)
}
