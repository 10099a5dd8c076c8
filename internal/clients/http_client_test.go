package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

func TestHTTPClient_MakeHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("accept"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPClient().MakeHTTPRequest(context.Background(), entity.HTTPRequest{
		URL:     srv.URL,
		Headers: map[string]string{"accept": "application/json"},
		Params:  map[string]string{"page": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
}

func TestHTTPClient_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	_, err := NewHTTPClient().WithMaxResponseBytes(16).MakeHTTPRequest(context.Background(), entity.HTTPRequest{URL: srv.URL})
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func TestHTTPClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPClient().WithTimeout(20*time.Millisecond).MakeHTTPRequest(context.Background(), entity.HTTPRequest{URL: srv.URL})
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPClient().MakeHTTPRequest(context.Background(), entity.HTTPRequest{URL: addr})
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
}
