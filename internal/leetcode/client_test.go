package leetcode

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karou9/leetsync/internal/config"
	"github.com/karou9/leetsync/internal/metrics"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewClient(
		config.APIConfig{
			BaseURL:        baseURL,
			TimeoutSeconds: 5,
			// Pacing off so tests run instantly.
			ListPerMinute:   0,
			DetailPerMinute: 0,
		},
		&config.Secrets{Session: "test-session", CSRFToken: "test-csrf"},
		metrics.NewCollector(logger),
		logger,
	)
	c.SetRetryPolicy(RetryPolicy{
		MaxAttempts:       3,
		RateLimitAttempts: 5,
		BaseDelay:         time.Millisecond,
	})
	return c
}

func TestListSubmissions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/submissions/", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Contains(t, r.Header.Get("Cookie"), "LEETCODE_SESSION=test-session")
		assert.Contains(t, r.Header.Get("Cookie"), "csrftoken=test-csrf")
		assert.Equal(t, "test-csrf", r.Header.Get("x-csrftoken"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"submissions_dump": [
				{"id": 101, "status_display": "Accepted", "lang": "cpp", "timestamp": 1747404243, "title": "Two Sum", "title_slug": "two-sum"},
				{"id": 100, "status_display": "Wrong Answer", "lang": "cpp", "timestamp": 1747404000, "title": "Two Sum", "title_slug": "two-sum"}
			],
			"has_next": true,
			"last_key": "abc123"
		}`))
	}))
	defer server.Close()

	page, err := testClient(t, server.URL).ListSubmissions(context.Background(), PageRequest{Limit: 20})
	require.NoError(t, err)

	require.Len(t, page.Submissions, 2)
	assert.EqualValues(t, 101, page.Submissions[0].ID)
	assert.True(t, page.Submissions[0].Accepted())
	assert.False(t, page.Submissions[1].Accepted())
	assert.True(t, page.HasNext)
	assert.Equal(t, "abc123", page.LastKey)
}

func TestFetchDetail_RecoversFromRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 4 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": 101, "code": "// Math-1. Two Sum.cpp\nint main() {}", "lang": "cpp"}`))
	}))
	defer server.Close()

	detail, err := testClient(t, server.URL).FetchDetail(context.Background(), 101)
	require.NoError(t, err, "5th attempt must succeed within the rate-limit budget")
	assert.Equal(t, 5, attempts)
	assert.Contains(t, detail.Code, "Two Sum")
}

func TestFetchDetail_RateLimitExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).FetchDetail(context.Background(), 101)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err), "exhausted rate-limit retries must stay identifiable")
}

func TestListSubmissions_InBandRateSignal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error": "rate exceeded, slow down"}`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).ListSubmissions(context.Background(), PageRequest{})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestListSubmissions_TransientRetriesBounded(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).ListSubmissions(context.Background(), PageRequest{})
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
	assert.Equal(t, 3, attempts, "transient failures get exactly MaxAttempts tries")
}

func TestListSubmissions_MalformedBodyRetriesThenFails(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"submissions_dump": [truncated`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).ListSubmissions(context.Background(), PageRequest{})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestFetchDetail_TransientThenSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": 7, "code": "pass", "lang": "python3"}`))
	}))
	defer server.Close()

	detail, err := testClient(t, server.URL).FetchDetail(context.Background(), 7)
	require.NoError(t, err)
	assert.EqualValues(t, 7, detail.ID)
	assert.Equal(t, "python3", detail.Lang)
}

func TestRetryPolicy_BackoffCurves(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second}

	// Transient: 1s, 2s, 4s (±10% jitter).
	assert.InDelta(t, float64(time.Second), float64(p.Backoff(1, false)), float64(150*time.Millisecond))
	assert.InDelta(t, float64(2*time.Second), float64(p.Backoff(2, false)), float64(300*time.Millisecond))

	// Rate limited: 3s, 9s, 27s (±10% jitter) — deliberately steeper.
	assert.InDelta(t, float64(3*time.Second), float64(p.Backoff(1, true)), float64(450*time.Millisecond))
	assert.InDelta(t, float64(9*time.Second), float64(p.Backoff(2, true)), float64(1350*time.Millisecond))
}

func TestGet_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	c.SetRetryPolicy(RetryPolicy{MaxAttempts: 3, RateLimitAttempts: 5, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchDetail(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
