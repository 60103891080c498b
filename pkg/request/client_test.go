package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warshipfetch/pkg/tracker"
)

type memCache struct {
	data map[string][]byte
}

func (m *memCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) SetCache(ctx context.Context, key string, val []byte) error {
	m.data[key] = val
	return nil
}

func TestGetWithHeaders_UserAgent(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantUA  string
	}{
		{"ClientDefault", nil, "WarshipDataFetcher/1.0 (test)"},
		{"CallerOverride", map[string]string{"user-agent": "Custom/2.0"}, "Custom/2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA, gotAccept string
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				gotAccept = r.Header.Get("Accept")
				_, _ = w.Write([]byte("ok"))
			}))
			defer svr.Close()

			headers := map[string]string{"Accept": "application/sparql-results+json"}
			for k, v := range tt.headers {
				headers[k] = v
			}

			client := New(nil, nil, Options{UserAgent: "WarshipDataFetcher/1.0 (test)"})
			body, err := client.GetWithHeaders(context.Background(), svr.URL, headers, "", nil)
			require.NoError(t, err)
			assert.Equal(t, "ok", string(body))
			assert.Equal(t, tt.wantUA, gotUA)
			assert.Equal(t, "application/sparql-results+json", gotAccept)
		})
	}
}

func TestGetWithHeaders_NoRetry(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer svr.Close()

	tr := tracker.New()
	client := New(nil, tr, Options{})

	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "", nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se), "expected StatusError, got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "slow down", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "request must not be retried")

	u, err := url.Parse(svr.URL)
	require.NoError(t, err)
	stats := tr.Snapshot()[u.Host]
	assert.Equal(t, int64(1), stats.APIFailures)
}

func TestGetWithHeaders_Timeout(t *testing.T) {
	release := make(chan struct{})
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer svr.Close()
	defer close(release)

	client := New(nil, nil, Options{Timeout: 50 * time.Millisecond})
	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "", nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout error, got %v", err)
}

func TestGetWithHeaders_ConnectionRefused(t *testing.T) {
	svr := httptest.NewServer(http.NotFoundHandler())
	target := svr.URL
	svr.Close()

	client := New(nil, nil, Options{Timeout: time.Second})
	_, err := client.GetWithHeaders(context.Background(), target, nil, "", nil)
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}

func TestGetWithHeaders_Cache(t *testing.T) {
	var hits int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer svr.Close()

	mc := &memCache{data: map[string][]byte{}}
	client := New(mc, nil, Options{})

	for i := 0; i < 3; i++ {
		body, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "sparql_key", nil)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(body))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "only the first call should reach the server")

	// Without a key the cache is bypassed
	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGetWithHeaders_InvalidURL(t *testing.T) {
	client := New(nil, nil, Options{})
	_, err := client.GetWithHeaders(context.Background(), "://bad", nil, "", nil)
	require.Error(t, err)
}

func TestGetWithHeaders_Validator(t *testing.T) {
	var hits int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			_, _ = w.Write([]byte("partial"))
			return
		}
		_, _ = w.Write([]byte("complete"))
	}))
	defer svr.Close()

	errIncomplete := errors.New("incomplete")
	validate := func(body []byte) error {
		if string(body) != "complete" {
			return errIncomplete
		}
		return nil
	}

	tr := tracker.New()
	mc := &memCache{data: map[string][]byte{}}
	client := New(mc, tr, Options{})

	_, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "key", validate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, errIncomplete)
	assert.Empty(t, mc.data, "rejected body must not be cached")

	body, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "key", validate)
	require.NoError(t, err)
	assert.Equal(t, "complete", string(body))
	assert.Equal(t, "complete", string(mc.data["key"]))

	u, err := url.Parse(svr.URL)
	require.NoError(t, err)
	stats := tr.Snapshot()[u.Host]
	assert.Equal(t, int64(1), stats.APIFailures)
	assert.Equal(t, int64(1), stats.APISuccess)
}

func TestGetWithHeaders_RejectedCacheEntryIsMiss(t *testing.T) {
	var hits int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer svr.Close()

	mc := &memCache{data: map[string][]byte{"key": []byte("stale")}}
	client := New(mc, nil, Options{})
	validate := func(body []byte) error {
		if string(body) == "stale" {
			return errors.New("stale")
		}
		return nil
	}

	body, err := client.GetWithHeaders(context.Background(), svr.URL, nil, "key", validate)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, "fresh", string(mc.data["key"]))
}
