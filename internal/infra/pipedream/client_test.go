package pipedream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_AccessTokenIsCached(t *testing.T) {
	var hits int32
	srv := newTokenServer(t, &hits)

	c := NewClient(Config{ClientID: "cid", ClientSecret: "secret", TokenURL: srv.URL})

	for i := 0; i < 3; i++ {
		tok, err := c.AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-123", tok)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_Headers(t *testing.T) {
	c := NewClient(Config{
		ProjectID:      "proj_1",
		Environment:    "development",
		ExternalUserID: "brad-test",
		AppSlug:        "google_docs",
	})

	h := c.Headers("tok")
	assert.Equal(t, "Bearer tok", h["Authorization"])
	assert.Equal(t, "proj_1", h[HeaderProjectID])
	assert.Equal(t, "development", h[HeaderEnvironment])
	assert.Equal(t, "brad-test", h[HeaderExternalUserID])
	assert.Equal(t, "google_docs", h[HeaderAppSlug])
	assert.Equal(t, DefaultMCPURL, c.MCPURL())
}

func TestClient_TokenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "cid", ClientSecret: "bad", TokenURL: srv.URL})
	_, err := c.AccessToken(context.Background())
	assert.Error(t, err)
}

func TestHeaderTransport(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &headerTransport{
		base:    http.DefaultTransport,
		headers: map[string]string{HeaderAppSlug: "google_docs"},
	}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "google_docs", got.Get(HeaderAppSlug))
}

func TestClient_AccessTokenHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Stall until the caller gives up
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(Config{ClientID: "cid", ClientSecret: "secret", TokenURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.AccessToken(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	// A waiter behind the stalled fetch is bounded by its own context too
	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = c.AccessToken(first)
	}()
	<-started

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelWait()
	start = time.Now()
	_, err = c.AccessToken(waitCtx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	cancelFirst()
}
