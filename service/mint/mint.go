package mint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/purselabs/purse/core"
	"github.com/zyedidia/generic/cache"
)

const tokenPrefix = "purseA"

func New() core.MintService {
	return &service{
		http:  resty.New().SetTimeout(15 * time.Second),
		infos: cache.New[string, *core.MintInfo](16),
	}
}

type service struct {
	http *resty.Client

	infos *cache.Cache[string, *core.MintInfo]
	mux   sync.RWMutex
}

func (s *service) Info(ctx context.Context, mintURL string) (*core.MintInfo, error) {
	s.mux.RLock()
	v, ok := s.infos.Get(mintURL)
	s.mux.RUnlock()

	if ok {
		return v, nil
	}

	var body infoResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(mintURL + "/v1/info")
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	if body.Unit == "" {
		body.Unit = "sat"
	}

	info := &core.MintInfo{URL: mintURL, Name: body.Name, Unit: body.Unit}

	s.mux.Lock()
	s.infos.Put(mintURL, info)
	s.mux.Unlock()

	return info, nil
}

func (s *service) CreateMintQuote(ctx context.Context, mintURL string, amount uint64) (*core.MintQuote, error) {
	var body mintQuoteResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(mintQuoteRequest{Amount: amount}).
		SetResult(&body).
		Post(mintURL + "/v1/mint/quote")
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	state, err := core.ParseQuoteState(body.State)
	if err != nil {
		return nil, err
	}

	return &core.MintQuote{
		ID:             body.Quote,
		MintURL:        mintURL,
		Amount:         amount,
		PaymentRequest: body.PaymentRequest,
		State:          state,
		Expiry:         time.Unix(body.Expiry, 0),
		CreatedAt:      time.Now(),
	}, nil
}

func (s *service) CheckMintQuote(ctx context.Context, quote *core.MintQuote) (*core.MintQuoteStatus, error) {
	var body mintQuoteResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(quote.MintURL + "/v1/mint/quote/" + quote.ID)
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	state, err := core.ParseQuoteState(body.State)
	if err != nil {
		return nil, err
	}

	return &core.MintQuoteStatus{State: state, Paid: body.Paid}, nil
}

func (s *service) MintProofs(ctx context.Context, quote *core.MintQuote) (core.Proofs, error) {
	var body mintResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(mintRequest{Quote: quote.ID, Amount: quote.Amount}).
		SetResult(&body).
		Post(quote.MintURL + "/v1/mint")
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	return stamp(body.Proofs, quote.MintURL), nil
}

func (s *service) CreateMeltQuote(ctx context.Context, mintURL, paymentRequest string) (*core.MeltQuote, error) {
	var body meltQuoteResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(meltQuoteRequest{PaymentRequest: paymentRequest}).
		SetResult(&body).
		Post(mintURL + "/v1/melt/quote")
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	state, err := core.ParseQuoteState(body.State)
	if err != nil {
		return nil, err
	}

	return &core.MeltQuote{
		ID:             body.Quote,
		MintURL:        mintURL,
		PaymentRequest: paymentRequest,
		Amount:         body.Amount,
		FeeReserve:     body.FeeReserve,
		State:          state,
		Expiry:         time.Unix(body.Expiry, 0),
		CreatedAt:      time.Now(),
	}, nil
}

func (s *service) PayMeltQuote(ctx context.Context, quote *core.MeltQuote, proofs core.Proofs) (*core.MeltResult, error) {
	var body meltResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(meltRequest{Proofs: proofs}).
		SetResult(&body).
		Post(quote.MintURL + "/v1/melt/" + quote.ID)
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	state, err := core.ParseQuoteState(body.State)
	if err != nil {
		return nil, err
	}

	return &core.MeltResult{
		State:   state,
		Change:  stamp(body.Change, quote.MintURL),
		FeePaid: body.FeePaid,
	}, nil
}

func (s *service) Split(ctx context.Context, mintURL string, proofs core.Proofs, amount uint64) (core.Proofs, core.Proofs, error) {
	var body swapResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(swapRequest{Proofs: proofs, Amount: amount}).
		SetResult(&body).
		Post(mintURL + "/v1/swap")
	if err := wrapError(resp, err); err != nil {
		return nil, nil, err
	}

	return stamp(body.Send, mintURL), stamp(body.Keep, mintURL), nil
}

func (s *service) Receive(ctx context.Context, token string) (core.Proofs, error) {
	mintURL, proofs, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}

	var body receiveResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(receiveRequest{Proofs: proofs}).
		SetResult(&body).
		Post(mintURL + "/v1/receive")
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	return stamp(body.Proofs, mintURL), nil
}

func (s *service) EncodeToken(mintURL string, proofs core.Proofs) (string, error) {
	return EncodeToken(mintURL, proofs)
}

// stamp fills in the owning mint and receipt time on proofs coming off the
// wire.
func stamp(proofs core.Proofs, mintURL string) core.Proofs {
	now := time.Now()
	for _, p := range proofs {
		p.MintURL = mintURL
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
	}

	return proofs
}

type apiError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Status int    `json:"-"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("mint: %s: %s (http %d)", e.Code, e.Detail, e.Status)
}

// wrapError folds a resty response into the core error taxonomy. Transport
// failures become ErrUnreachable; structured mint errors map onto their
// terminal sentinels.
func wrapError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}

	if resp.IsSuccess() {
		return nil
	}

	ae := apiError{Status: resp.StatusCode()}
	_ = json.Unmarshal(resp.Body(), &ae)

	switch ae.Code {
	case "TOKEN_ALREADY_SPENT":
		return fmt.Errorf("%w: %s", core.ErrAlreadySpent, ae.Detail)
	case "QUOTE_ALREADY_ISSUED":
		return fmt.Errorf("%w: %s", core.ErrAlreadyIssued, ae.Detail)
	default:
		return &ae
	}
}
