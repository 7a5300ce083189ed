package mint

import (
	"testing"
	"time"

	"github.com/purselabs/purse/core"
)

func TestEncodeDecodeToken(t *testing.T) {
	testCases := []struct {
		name    string
		mintURL string
		amounts []uint64
	}{
		{"single proof", "https://mint.a", []uint64{8}},
		{"multiple proofs", "https://mint.a", []uint64{1, 2, 4}},
		{"other mint", "https://mint.b/path", []uint64{64}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			proofs := make(core.Proofs, len(tc.amounts))
			for i, amount := range tc.amounts {
				proofs[i] = &core.Proof{
					Amount:    amount,
					Secret:    "secret",
					Signature: "sig",
					KeysetID:  "keyset-1",
					MintURL:   tc.mintURL,
					CreatedAt: time.Now(),
				}
			}

			token, err := EncodeToken(tc.mintURL, proofs)
			if err != nil {
				t.Fatalf("EncodeToken: %v", err)
			}

			mintURL, decoded, err := DecodeToken(token)
			if err != nil {
				t.Fatalf("DecodeToken: %v", err)
			}

			if mintURL != tc.mintURL {
				t.Errorf("mint url mismatch: got %q, want %q", mintURL, tc.mintURL)
			}

			if decoded.Sum() != proofs.Sum() {
				t.Errorf("amount mismatch: got %d, want %d", decoded.Sum(), proofs.Sum())
			}
		})
	}
}

func TestEncodeTokenEmpty(t *testing.T) {
	if _, err := EncodeToken("https://mint.a", nil); err == nil {
		t.Error("expected an error for empty proofs")
	}
}

func TestDecodeTokenInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"unknown prefix", "cashuAeyJtaW50IjoiIn0"},
		{"not base64", tokenPrefix + "!!!not-base64!!!"},
		{"not json", tokenPrefix + "bm90LWpzb24"},
		{"missing mint", tokenPrefix + "eyJtaW50IjoiIiwicHJvb2ZzIjpbXX0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeToken(tc.token); err == nil {
				t.Error("expected an error, but got nil")
			}
		})
	}
}
