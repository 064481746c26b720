// Fingerprint Server APIのeventをmodel.Identificationに変換する
package fingerprint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authsvc/internal/domain/model"
	"authsvc/internal/observability"

	"github.com/samber/oops"
)

// レスポンスの上限（events APIは数KB）
const maxBodyBytes = 1 << 20

// /events/{request_id} のうち使う部分だけ
type eventResponse struct {
	Products struct {
		Identification struct {
			Data *identificationData `json:"data"`
		} `json:"identification"`
	} `json:"products"`
}

type identificationData struct {
	VisitorID  string `json:"visitorId"`
	RequestID  string `json:"requestId"`
	Timestamp  *int64 `json:"timestamp"` // unix ms
	Confidence struct {
		Score float64 `json:"score"`
	} `json:"confidence"`
}

// Clientは1リクエストにつき1回だけeventを取りに行く（リトライしない）
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// DI。timeoutを超えたらErrProvider
func NewClient(baseURL string, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// テスト用にhttp.Clientを差し替える
func NewClientWithHTTP(baseURL string, apiKey string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

// Verifyは識別サービスに問い合わせて結果を返す
func (c *Client) Verify(ctx context.Context, requestID string) (ident model.Identification, err error) {
	started := time.Now()
	defer func() { observability.ObserveProviderLatency(time.Since(started), err == nil) }()

	errb := oops.In("fingerprint").Code("PROVIDER_ERROR").With("request_id", requestID)

	if requestID == "" {
		return ident, errb.Wrapf(model.ErrIdentityProvider, "empty request id")
	}

	endpoint := c.baseURL + "/events/" + url.PathEscape(requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ident, errb.Wrapf(errors.Join(model.ErrIdentityProvider, err), "build request")
	}
	req.Header.Set("Auth-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ident, errb.Wrapf(errors.Join(model.ErrIdentityProvider, err), "get event")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ident, errb.Wrapf(errors.Join(model.ErrIdentityProvider, err), "read event")
	}

	if resp.StatusCode != http.StatusOK {
		//中身はログ用（呼び出し側には出さない）
		return ident, errb.With("status", resp.StatusCode).
			Wrapf(model.ErrIdentityProvider, "unexpected status %d", resp.StatusCode)
	}

	var ev eventResponse
	if err := json.Unmarshal(body, &ev); err != nil {
		return ident, errb.Wrapf(errors.Join(model.ErrIdentityProvider, err), "decode event")
	}

	data := ev.Products.Identification.Data
	if data == nil {
		return ident, errb.Wrapf(model.ErrIdentityProvider, "missing identification data")
	}
	if data.Timestamp == nil {
		return ident, errb.Wrapf(model.ErrIdentityProvider, "missing identification timestamp")
	}

	return model.Identification{
		VisitorID:    data.VisitorID,
		Confidence:   data.Confidence.Score,
		IdentifiedAt: time.UnixMilli(*data.Timestamp),
	}, nil
}
