package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>hello</p>"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithUserAgent("test-agent").Build()
	require.NoError(t, err)

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(body))
}

func TestHTTPClient_Fetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *common.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, server.URL, fetchErr.URL)

	var httpErr *common.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestHTTPClient_Fetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), serverURL)

	var netErr *common.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestHTTPClient_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithTimeoutSeconds(1).Build()
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Fetch(context.Background(), server.URL)

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPClient_Fetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetries(3, 1).Build()
	require.NoError(t, err)

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Fetch_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithRetries(3, 1).Build()
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Fetch_MaxContentSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).WithMaxContentSize(10).Build()
	require.NoError(t, err)

	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, 10)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "server error", err: common.NewHTTPErrorWithURL(502, "", "u"), want: true},
		{name: "client error", err: common.NewHTTPErrorWithURL(404, "", "u"), want: false},
		{name: "network", err: common.NewNetworkError("u", "dial", errors.New("refused")), want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
