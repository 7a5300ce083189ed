package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
	basestore "github.com/purselabs/purse/store"
	"github.com/purselabs/purse/store/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsenart/nap"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *nap.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := nap.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(conn.Master()))
	return conn
}

func newMintQuote(id string, state core.QuoteState) *core.MintQuote {
	return &core.MintQuote{
		ID:             id,
		MintURL:        "https://mint.a",
		Amount:         21,
		PaymentRequest: "lnbc-" + id,
		State:          state,
		Expiry:         time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMintQuoteLifecycle(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	quote := newMintQuote("q1", core.QuoteStateUnpaid)
	require.NoError(t, s.SaveMintQuote(ctx, quote))

	got, err := s.FindMintQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, quote.Amount, got.Amount)
	assert.Equal(t, core.QuoteStateUnpaid, got.State)

	require.NoError(t, s.UpdateMintQuoteState(ctx, got, core.QuoteStateIssued))
	assert.Equal(t, core.QuoteStateIssued, got.State)

	got, err = s.FindMintQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, core.QuoteStateIssued, got.State)
}

func TestUpdateMintQuoteStateOptimisticLock(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.SaveMintQuote(ctx, newMintQuote("q1", core.QuoteStateUnpaid)))

	// Two writers read the same UNPAID row; only the first transition wins.
	first := newMintQuote("q1", core.QuoteStateUnpaid)
	second := newMintQuote("q1", core.QuoteStateUnpaid)

	require.NoError(t, s.UpdateMintQuoteState(ctx, first, core.QuoteStateIssued))
	assert.Error(t, s.UpdateMintQuoteState(ctx, second, core.QuoteStateIssued))
}

func TestFindMintQuoteNotFound(t *testing.T) {
	s := New(setupDB(t))

	_, err := s.FindMintQuote(context.Background(), "nope")
	assert.True(t, basestore.IsErrNotFound(err))
}

func TestListMintQuotesByState(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.SaveMintQuote(ctx, newMintQuote("q1", core.QuoteStateUnpaid)))
	require.NoError(t, s.SaveMintQuote(ctx, newMintQuote("q2", core.QuoteStateIssued)))
	require.NoError(t, s.SaveMintQuote(ctx, newMintQuote("q3", core.QuoteStateUnpaid)))

	quotes, err := s.ListMintQuotes(ctx, core.QuoteStateUnpaid)
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func newMeltQuote(id, request string, state core.QuoteState) *core.MeltQuote {
	return &core.MeltQuote{
		ID:             id,
		MintURL:        "https://mint.a",
		PaymentRequest: request,
		Amount:         10,
		FeeReserve:     1,
		State:          state,
		CreatedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFindMeltQuoteByRequestOnlyUnpaid(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	quote := newMeltQuote("m1", "lnbc-out", core.QuoteStateUnpaid)
	require.NoError(t, s.SaveMeltQuote(ctx, quote))

	got, err := s.FindMeltQuoteByRequest(ctx, "lnbc-out")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)

	// A paid quote no longer blocks re-quoting the same request.
	got.FeePaid = 1
	require.NoError(t, s.UpdateMeltQuoteState(ctx, got, core.QuoteStatePaid))

	_, err = s.FindMeltQuoteByRequest(ctx, "lnbc-out")
	assert.True(t, basestore.IsErrNotFound(err))

	paid, err := s.FindMeltQuote(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, core.QuoteStatePaid, paid.State)
	assert.Equal(t, uint64(1), paid.FeePaid)
}

func TestSaveInvoiceUniquePerQuote(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	inv := &core.StoredInvoice{
		ID:        "inv1",
		Type:      core.InvoiceTypeMint,
		QuoteID:   "q1",
		MintURL:   "https://mint.a",
		Amount:    21,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveInvoice(ctx, inv))

	dup := *inv
	dup.ID = "inv2"
	assert.Error(t, s.SaveInvoice(ctx, &dup), "one settled quote maps to exactly one history record")

	got, err := s.FindInvoiceByQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "inv1", got.ID)
}

func TestInvoiceDeleteAndList(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	for i, quote := range []string{"q1", "q2"} {
		require.NoError(t, s.SaveInvoice(ctx, &core.StoredInvoice{
			ID:        fmt.Sprintf("inv%d", i+1),
			Type:      core.InvoiceTypeMelt,
			QuoteID:   quote,
			MintURL:   "https://mint.a",
			Amount:    5,
			Fee:       1,
			CreatedAt: time.Now(),
		}))
	}

	require.NoError(t, s.DeleteInvoice(ctx, "inv1"))

	invoices, err := s.ListInvoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "inv2", invoices[0].ID)
}

func TestPendingRoundtrip(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	tx := &core.PendingTransaction{
		ID:        "p1",
		Direction: core.DirectionOut,
		Amount:    7,
		Token:     "purseA-escrow",
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SavePending(ctx, tx))

	list, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.DirectionOut, list[0].Direction)
	assert.Equal(t, "purseA-escrow", list[0].Token)

	require.NoError(t, s.DeletePending(ctx, "p1"))

	list, err = s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
