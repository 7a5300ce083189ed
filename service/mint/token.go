package mint

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/purselabs/purse/core"
)

type tokenPayload struct {
	Mint   string        `json:"mint"`
	Proofs []*core.Proof `json:"proofs"`
}

// EncodeToken serializes proofs into a portable bearer token string.
func EncodeToken(mintURL string, proofs core.Proofs) (string, error) {
	if len(proofs) == 0 {
		return "", fmt.Errorf("no proofs to encode")
	}

	raw, err := json.Marshal(tokenPayload{Mint: mintURL, Proofs: proofs})
	if err != nil {
		return "", err
	}

	return tokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeToken parses a bearer token back into its issuing mint and proofs.
func DecodeToken(token string) (string, core.Proofs, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return "", nil, fmt.Errorf("unknown token format")
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		return "", nil, fmt.Errorf("malformed token: %w", err)
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", nil, fmt.Errorf("malformed token: %w", err)
	}

	if payload.Mint == "" || len(payload.Proofs) == 0 {
		return "", nil, fmt.Errorf("token missing mint or proofs")
	}

	return payload.Mint, core.Proofs(payload.Proofs), nil
}
