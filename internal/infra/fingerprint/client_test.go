package fingerprint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authsvc/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// APIキーとパスを確認
		if r.Header.Get("Auth-API-Key") != "secret-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/events/req-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Verify_Success(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{
		"products": {
			"identification": {
				"data": {
					"visitorId": "visitor-abc",
					"requestId": "req-1",
					"timestamp": 1708102555327,
					"confidence": {"score": 0.97}
				}
			}
		}
	}`)

	c := NewClient(srv.URL, "secret-key", time.Second)
	ident, err := c.Verify(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "visitor-abc", ident.VisitorID)
	assert.InDelta(t, 0.97, ident.Confidence, 1e-9)
	assert.Equal(t, time.UnixMilli(1708102555327), ident.IdentifiedAt)
}

func TestClient_Verify_MissingTimestamp(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"products":{"identification":{"data":{"visitorId":"v","confidence":{"score":1}}}}}`)

	_, err := NewClient(srv.URL, "secret-key", time.Second).Verify(context.Background(), "req-1")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}

func TestClient_Verify_MissingIdentification(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"products":{}}`)

	_, err := NewClient(srv.URL, "secret-key", time.Second).Verify(context.Background(), "req-1")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}

func TestClient_Verify_BadJSON(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{not json`)

	_, err := NewClient(srv.URL, "secret-key", time.Second).Verify(context.Background(), "req-1")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}

func TestClient_Verify_Non200(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{}`)

	// 違うキー => 403
	_, err := NewClient(srv.URL, "wrong-key", time.Second).Verify(context.Background(), "req-1")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}

func TestClient_Verify_EmptyRequestID(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "secret-key", time.Second).Verify(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}

func TestClient_Verify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, "secret-key", 50*time.Millisecond).Verify(context.Background(), "req-1")
	assert.ErrorIs(t, err, model.ErrIdentityProvider)
}
