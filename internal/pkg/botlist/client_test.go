package botlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient("secret", "123", WithBaseURL(srv.URL), WithHTTPClient(httpclient.NewClient(httpclient.WithHTTPTimeout(time.Second))))
}

func TestHasVoted(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bots/123/check", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))

		if r.URL.Query().Get("userId") == "42" {
			w.Write([]byte(`{"voted":1}`))
			return
		}
		w.Write([]byte(`{"voted":0}`))
	})

	voted, err := client.HasVoted(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, voted)

	voted, err = client.HasVoted(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestIsWeekend(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weekend", r.URL.Path)
		w.Write([]byte(`{"is_weekend":true}`))
	})

	weekend, err := client.IsWeekend(context.Background())
	require.NoError(t, err)
	assert.True(t, weekend)
}

func TestClientErrors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.HasVoted(context.Background(), 42)
		assert.Error(t, err)
	})

	t.Run("garbage body", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})

		_, err := client.IsWeekend(context.Background())
		assert.Error(t, err)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.HasVoted(context.Background(), 42)
		assert.Error(t, err)
	})
}
