package proof

import "github.com/purselabs/purse/core"

type scanner interface {
	Scan(dest ...interface{}) error
}

var scanColumns = []string{
	"secret",
	"amount",
	"keyset_id",
	"signature",
	"mint_url",
	"created_at",
}

func scanProof(scanner scanner, proof *core.Proof) error {
	return scanner.Scan(
		&proof.Secret,
		&proof.Amount,
		&proof.KeysetID,
		&proof.Signature,
		&proof.MintURL,
		&proof.CreatedAt,
	)
}
