package wallet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/purselabs/purse/core"
	"github.com/purselabs/purse/store/db"
	"github.com/purselabs/purse/store/invoice"
	"github.com/purselabs/purse/store/proof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsenart/nap"

	_ "modernc.org/sqlite"
)

func setupWallet(t *testing.T) (*Wallet, *fakeMint, core.ProofStore, invoice.Store) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := nap.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn.Master()))

	proofs := proof.New(conn)
	invoices := invoice.New(conn)
	mintz := &fakeMint{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(proofs, invoices, invoices, invoices, mintz, logger)
	return w, mintz, proofs, invoices
}

// fakeMint scripts the remote mint per test and counts the calls that must
// not repeat.
type fakeMint struct {
	mu         sync.Mutex
	mintCalls  int
	splitCalls int
	payCalls   int

	info       func(mintURL string) (*core.MintInfo, error)
	createMint func(mintURL string, amount uint64) (*core.MintQuote, error)
	checkMint  func(quote *core.MintQuote) (*core.MintQuoteStatus, error)
	mintProofs func(quote *core.MintQuote) (core.Proofs, error)
	createMelt func(mintURL, paymentRequest string) (*core.MeltQuote, error)
	payMelt    func(quote *core.MeltQuote, proofs core.Proofs) (*core.MeltResult, error)
	split      func(mintURL string, proofs core.Proofs, amount uint64) (core.Proofs, core.Proofs, error)
	receive    func(token string) (core.Proofs, error)
}

func (f *fakeMint) count(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	*n++
	return *n
}

func (f *fakeMint) calls(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *n
}

func (f *fakeMint) Info(_ context.Context, mintURL string) (*core.MintInfo, error) {
	if f.info == nil {
		return &core.MintInfo{URL: mintURL, Unit: "sat"}, nil
	}
	return f.info(mintURL)
}

func (f *fakeMint) CreateMintQuote(_ context.Context, mintURL string, amount uint64) (*core.MintQuote, error) {
	return f.createMint(mintURL, amount)
}

func (f *fakeMint) CheckMintQuote(_ context.Context, quote *core.MintQuote) (*core.MintQuoteStatus, error) {
	return f.checkMint(quote)
}

func (f *fakeMint) MintProofs(_ context.Context, quote *core.MintQuote) (core.Proofs, error) {
	f.count(&f.mintCalls)
	return f.mintProofs(quote)
}

func (f *fakeMint) CreateMeltQuote(_ context.Context, mintURL, paymentRequest string) (*core.MeltQuote, error) {
	return f.createMelt(mintURL, paymentRequest)
}

func (f *fakeMint) PayMeltQuote(_ context.Context, quote *core.MeltQuote, proofs core.Proofs) (*core.MeltResult, error) {
	f.count(&f.payCalls)
	return f.payMelt(quote, proofs)
}

func (f *fakeMint) Split(_ context.Context, mintURL string, proofs core.Proofs, amount uint64) (core.Proofs, core.Proofs, error) {
	f.count(&f.splitCalls)
	return f.split(mintURL, proofs, amount)
}

func (f *fakeMint) Receive(_ context.Context, token string) (core.Proofs, error) {
	return f.receive(token)
}

func (f *fakeMint) EncodeToken(mintURL string, proofs core.Proofs) (string, error) {
	return fmt.Sprintf("token:%s:%d", mintURL, proofs.Sum()), nil
}

func testProofs(mintURL string, amounts ...uint64) core.Proofs {
	proofs := make(core.Proofs, len(amounts))
	for i, amount := range amounts {
		proofs[i] = &core.Proof{
			Amount:    amount,
			Secret:    uuid.NewString(),
			Signature: "sig",
			KeysetID:  "keyset-1",
			MintURL:   mintURL,
			CreatedAt: time.Now(),
		}
	}
	return proofs
}

const mintA = "https://mint.a"

func TestSpendReplacesSelectionWithChange(t *testing.T) {
	w, mintz, proofs, _ := setupWallet(t)
	ctx := context.Background()

	require.NoError(t, proofs.Save(ctx, testProofs(mintA, 8)))

	mintz.split = func(mintURL string, selected core.Proofs, amount uint64) (core.Proofs, core.Proofs, error) {
		assert.Equal(t, uint64(8), selected.Sum())
		return testProofs(mintURL, 4, 1), testProofs(mintURL, 2, 1), nil
	}

	send, err := w.Spend(ctx, mintA, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), send.Sum())

	balance, err := w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), balance)
}

func TestSpendSplitFailureLeavesStoreUntouched(t *testing.T) {
	w, mintz, proofs, _ := setupWallet(t)
	ctx := context.Background()

	require.NoError(t, proofs.Save(ctx, testProofs(mintA, 4, 2)))

	mintz.split = func(string, core.Proofs, uint64) (core.Proofs, core.Proofs, error) {
		return nil, nil, core.ErrUnreachable
	}

	_, err := w.Spend(ctx, mintA, 5)
	require.ErrorIs(t, err, core.ErrUnreachable)

	balance, err := w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), balance)

	stored, err := proofs.ListAll(ctx, mintA)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSpendInsufficientBalanceBeforeNetwork(t *testing.T) {
	w, mintz, proofs, _ := setupWallet(t)
	ctx := context.Background()

	require.NoError(t, proofs.Save(ctx, testProofs(mintA, 2)))

	_, err := w.Spend(ctx, mintA, 5)
	require.ErrorIs(t, err, core.ErrInsufficientBalance)
	assert.Zero(t, mintz.calls(&mintz.splitCalls))
}

func TestSpendZeroAmount(t *testing.T) {
	w, _, _, _ := setupWallet(t)

	_, err := w.Spend(context.Background(), mintA, 0)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestReceiveCreditsProofs(t *testing.T) {
	w, mintz, _, _ := setupWallet(t)
	ctx := context.Background()

	mintz.receive = func(token string) (core.Proofs, error) {
		assert.Equal(t, "token-from-peer", token)
		return testProofs(mintA, 4, 2), nil
	}

	amount, err := w.Receive(ctx, "token-from-peer")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), amount)

	balance, err := w.Balance(ctx, mintA)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), balance)
}

func TestTotalBalanceNormalizesUnits(t *testing.T) {
	w, mintz, proofs, _ := setupWallet(t)
	ctx := context.Background()

	require.NoError(t, proofs.Save(ctx, testProofs("https://mint.msat", 2500)))
	require.NoError(t, proofs.Save(ctx, testProofs("https://mint.sat", 10)))

	mintz.info = func(mintURL string) (*core.MintInfo, error) {
		unit := "sat"
		if mintURL == "https://mint.msat" {
			unit = "msat"
		}
		return &core.MintInfo{URL: mintURL, Unit: unit}, nil
	}

	total, err := w.TotalBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), total)
}

func TestBalanceChangeNotifiesListeners(t *testing.T) {
	w, mintz, _, _ := setupWallet(t)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		fired int
	)
	w.OnBalanceChanged(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	mintz.receive = func(string) (core.Proofs, error) {
		return testProofs(mintA, 1), nil
	}

	_, err := w.Receive(ctx, "token")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fired)
}
