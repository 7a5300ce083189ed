package invoice

import "github.com/purselabs/purse/core"

type scanner interface {
	Scan(dest ...interface{}) error
}

var mintQuoteColumns = []string{
	"id",
	"mint_url",
	"amount",
	"payment_request",
	"state",
	"expiry",
	"created_at",
}

func scanMintQuote(scanner scanner, quote *core.MintQuote) error {
	return scanner.Scan(
		&quote.ID,
		&quote.MintURL,
		&quote.Amount,
		&quote.PaymentRequest,
		&quote.State,
		&quote.Expiry,
		&quote.CreatedAt,
	)
}

var meltQuoteColumns = []string{
	"id",
	"mint_url",
	"payment_request",
	"amount",
	"fee_reserve",
	"fee_paid",
	"state",
	"expiry",
	"created_at",
}

func scanMeltQuote(scanner scanner, quote *core.MeltQuote) error {
	return scanner.Scan(
		&quote.ID,
		&quote.MintURL,
		&quote.PaymentRequest,
		&quote.Amount,
		&quote.FeeReserve,
		&quote.FeePaid,
		&quote.State,
		&quote.Expiry,
		&quote.CreatedAt,
	)
}

var invoiceColumns = []string{
	"id",
	"type",
	"quote_id",
	"mint_url",
	"amount",
	"fee",
	"payment_request",
	"created_at",
}

func scanInvoice(scanner scanner, invoice *core.StoredInvoice) error {
	return scanner.Scan(
		&invoice.ID,
		&invoice.Type,
		&invoice.QuoteID,
		&invoice.MintURL,
		&invoice.Amount,
		&invoice.Fee,
		&invoice.PaymentRequest,
		&invoice.CreatedAt,
	)
}
