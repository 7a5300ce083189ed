package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/purselabs/purse/core"
)

func New() core.CredentialService {
	return &service{
		http: resty.New().SetTimeout(15 * time.Second),
	}
}

type service struct {
	http *resty.Client
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type infoResponse struct {
	Balance uint64 `json:"balance"`
}

type createRequest struct {
	Token string `json:"token"`
	Label string `json:"label,omitempty"`
}

type createResponse struct {
	Key     string `json:"key"`
	Balance uint64 `json:"balance"`
}

type topupRequest struct {
	Token string `json:"token"`
}

type refundResponse struct {
	Token string `json:"token"`
}

func (s *service) Exchange(ctx context.Context, baseURL, token, label string) (*core.ApiKey, error) {
	var body createResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(createRequest{Token: token, Label: label}).
		SetResult(&body).
		Post(endpoint(baseURL, "wallet/create"))
	if err := wrapError(resp, err); err != nil {
		return nil, err
	}

	balance := body.Balance
	return &core.ApiKey{
		Key:       body.Key,
		Label:     label,
		BaseURL:   baseURL,
		Balance:   &balance,
		CreatedAt: time.Now(),
	}, nil
}

func (s *service) Info(ctx context.Context, key *core.ApiKey) (uint64, error) {
	var body infoResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(key.Key).
		SetResult(&body).
		Get(endpoint(key.BaseURL, "wallet/info"))
	if err := wrapError(resp, err); err != nil {
		return 0, err
	}

	return body.Balance, nil
}

func (s *service) TopUp(ctx context.Context, key *core.ApiKey, token string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(key.Key).
		SetBody(topupRequest{Token: token}).
		Post(endpoint(key.BaseURL, "wallet/topup"))
	return wrapError(resp, err)
}

func (s *service) Refund(ctx context.Context, key *core.ApiKey) (string, error) {
	var body refundResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(key.Key).
		SetResult(&body).
		Post(endpoint(key.BaseURL, "wallet/refund"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}

	if resp.IsSuccess() {
		return body.Token, nil
	}

	var er errorResponse
	_ = json.Unmarshal(resp.Body(), &er)

	switch er.Error {
	case "no_balance":
		// Nothing to refund is a successful no-op, not a failure.
		return "", nil
	case "invalid_api_key":
		return "", fmt.Errorf("%w: %s", core.ErrInvalidCredential, er.Detail)
	default:
		return "", fmt.Errorf("%w: %s (http %d)", core.ErrRefundFailed, er.Error, resp.StatusCode())
	}
}

func endpoint(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path
}

func wrapError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}

	if resp.IsSuccess() {
		return nil
	}

	var er errorResponse
	_ = json.Unmarshal(resp.Body(), &er)

	if er.Error == "invalid_api_key" {
		return fmt.Errorf("%w: %s", core.ErrInvalidCredential, er.Detail)
	}

	return fmt.Errorf("credential service: %s (http %d)", er.Error, resp.StatusCode())
}
