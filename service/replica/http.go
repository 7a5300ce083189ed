package replica

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/purselabs/purse/core"
)

// NewHTTPBlobStore talks to a remote replica endpoint addressed by an
// application identifier, authenticated by the identity layer's bearer
// token.
func NewHTTPBlobStore(baseURL, appID, bearer string) BlobStore {
	return &httpBlobs{
		http:   resty.New().SetTimeout(15 * time.Second),
		url:    strings.TrimSuffix(baseURL, "/") + "/replica/" + appID,
		bearer: bearer,
	}
}

type httpBlobs struct {
	http   *resty.Client
	url    string
	bearer string
}

func (s *httpBlobs) Get(ctx context.Context) ([]byte, bool, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(s.bearer).
		Get(s.url)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, false, nil
	case resp.IsSuccess():
		return resp.Body(), true, nil
	default:
		return nil, false, fmt.Errorf("replica fetch failed (http %d)", resp.StatusCode())
	}
}

func (s *httpBlobs) Put(ctx context.Context, blob []byte) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(s.bearer).
		SetBody(blob).
		Put(s.url)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUnreachable, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("replica write failed (http %d)", resp.StatusCode())
	}

	return nil
}
