package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastSpec keeps retry waits negligible in tests.
func fastSpec(spec CallSpec) CallSpec {
	spec.MaxRetries = 3
	spec.BaseDelay = time.Millisecond
	spec.SleepDelay = time.Millisecond
	return spec
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := DefaultClientConfig()
	cfg.Host = u.Host
	cfg.Tokens = StaticToken("test-token")
	cfg.RateLimit = 10000
	cfg.RateBurst = 1000
	// The test server speaks plain HTTP.
	cfg.Transport = rewriteToHTTP{}
	return NewClient(cfg), srv
}

// rewriteToHTTP downgrades the scheme so requests reach httptest servers.
type rewriteToHTTP struct{}

func (rewriteToHTTP) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = "http"
	return http.DefaultTransport.RoundTrip(clone)
}

func writeEnvelope(w http.ResponseWriter, records []Record, next string) {
	env := map[string]any{"data": records}
	if next != "" {
		env["paging"] = map[string]any{"next": next}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func writeAPIError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "OAuthException",
			"code":    code,
		},
	})
}

func records(n int, prefix string) []Record {
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Record{"id": fmt.Sprintf("%s%d", prefix, i)})
	}
	return out
}

func TestCall_SinglePage(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeEnvelope(w, records(3, "c"), "")
	}))

	result, err := client.Call(context.Background(), fastSpec(CallSpec{
		ObjectID:  "act_1",
		Edge:      "campaigns",
		Fields:    []string{"id", "name", "status"},
		Params:    map[string]string{"level": "campaign"},
		TimeRange: &TimeRange{Since: "2026-05-01", Until: "2026-08-24"},
	}))
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.True(t, result.Complete)
	assert.Equal(t, 1, result.Pages)

	assert.Equal(t, "id,name,status", gotQuery.Get("fields"))
	assert.Equal(t, "campaign", gotQuery.Get("level"))
	assert.Equal(t, "test-token", gotQuery.Get("access_token"))
	assert.JSONEq(t, `{"since":"2026-05-01","until":"2026-08-24"}`, gotQuery.Get("time_range"))
}

func TestCall_FollowsPagination(t *testing.T) {
	var srvURL string
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			writeEnvelope(w, records(2, "a"), srvURL+"/v22.0/act_1/ads?page=2")
		case 2:
			writeEnvelope(w, records(2, "b"), "")
		default:
			t.Errorf("unexpected extra page fetch")
		}
	})
	client, srv := newTestClient(t, handler)
	srvURL = srv.URL

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
	require.NoError(t, err)

	assert.Len(t, result.Records, 4)
	assert.Equal(t, 2, result.Pages)
	assert.True(t, result.Complete)
	assert.Equal(t, "a0", result.Records[0]["id"])
	assert.Equal(t, "b1", result.Records[3]["id"])
}

func TestCall_LimitTruncatesFirstPage(t *testing.T) {
	var srvURL string
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// Eight records and a next page the client must not fetch.
		writeEnvelope(w, records(8, "r"), srvURL+"/v22.0/act_1/adcreatives?page=2")
	})
	client, srv := newTestClient(t, handler)
	srvURL = srv.URL

	result, err := client.Call(context.Background(), fastSpec(CallSpec{
		ObjectID: "act_1",
		Edge:     "adcreatives",
		Limit:    5,
	}))
	require.NoError(t, err)

	assert.Len(t, result.Records, 5)
	assert.True(t, result.Complete)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "second page must not be fetched once the limit is met")
}

func TestCall_LimitAppliedAcrossPages(t *testing.T) {
	var srvURL string
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			writeEnvelope(w, records(2, "a"), srvURL+"/v22.0/act_1/ads?page=2")
		default:
			writeEnvelope(w, records(5, "b"), srvURL+"/v22.0/act_1/ads?page=3")
		}
	})
	client, srv := newTestClient(t, handler)
	srvURL = srv.URL

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads", Limit: 3}))
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.Equal(t, 2, result.Pages)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCall_PartialResultsPreservedOnPageFailure(t *testing.T) {
	var srvURL string
	var calls int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeEnvelope(w, records(4, "ok"), srvURL+"/v22.0/act_1/ads?page=2")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, 1, "server melted")
	})
	client, srv := newTestClient(t, handler)
	srvURL = srv.URL

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
	require.NoError(t, err)

	assert.Len(t, result.Records, 4, "page one must survive the page-two failure")
	assert.False(t, result.Complete)
	assert.Equal(t, "rate_limit", result.Reason)
	assert.Equal(t, 1, result.Pages)
}

func TestCall_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			writeAPIError(w, http.StatusBadRequest, 17, "User request limit reached")
			return
		}
		writeEnvelope(w, records(1, "x"), "")
	}))

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "campaigns"}))
	require.NoError(t, err)

	assert.True(t, result.Complete)
	assert.Len(t, result.Records, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestCall_FatalErrorAbortsWithoutRetry(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeAPIError(w, http.StatusBadRequest, 100, "Unsupported get request")
	}))

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_bad", Edge: "ads"}))
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.False(t, result.Complete)
	assert.Equal(t, "fatal", result.Reason)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "fatal errors must not be retried")
}

func TestCall_RetryExhaustionReturnsEmptyNotError(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeAPIError(w, http.StatusTooManyRequests, 80004, "too many calls")
	}))

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "insights"}))
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.False(t, result.Complete)
	assert.Equal(t, "rate_limit", result.Reason)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

// failNTransport fails the first n round trips at the network level.
type failNTransport struct {
	remaining *int32
	inner     http.RoundTripper
}

func (f failNTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if atomic.AddInt32(f.remaining, -1) >= 0 {
		return nil, errors.New("connection reset by peer")
	}
	return f.inner.RoundTrip(req)
}

func TestCall_TransportErrorsRetriedLinearly(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, records(2, "t"), "")
	}))
	remaining := int32(2)
	client.httpClient.Transport = failNTransport{remaining: &remaining, inner: rewriteToHTTP{}}

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
	require.NoError(t, err)

	assert.True(t, result.Complete)
	assert.Len(t, result.Records, 2)
}

func TestCall_TokenResolvedLazilyAndCached(t *testing.T) {
	var resolutions int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, nil, "")
	}))
	client.config.Tokens = TokenFunc(func() (string, error) {
		atomic.AddInt32(&resolutions, 1)
		return "lazy-token", nil
	})

	for i := 0; i < 3; i++ {
		_, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&resolutions))
}

func TestCall_InvalidTokenDropsCache(t *testing.T) {
	var calls, resolutions int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			writeAPIError(w, http.StatusUnauthorized, 190, "Error validating access token")
			return
		}
		writeEnvelope(w, records(1, "n"), "")
	}))
	client.config.Tokens = TokenFunc(func() (string, error) {
		n := atomic.AddInt32(&resolutions, 1)
		return fmt.Sprintf("token-%d", n), nil
	})

	result, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, "fatal", result.Reason)

	result, err = client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1", Edge: "ads"}))
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.EqualValues(t, 2, atomic.LoadInt32(&resolutions), "rejected token must be re-resolved on the next call")
}

func TestCall_TokenFailureIsAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be made without a token")
	}))
	client.config.Tokens = TokenFunc(func() (string, error) {
		return "", errors.New("secret store unreachable")
	})

	_, err := client.Call(context.Background(), fastSpec(CallSpec{ObjectID: "act_1"}))
	assert.Error(t, err)
}

func TestCall_MissingObjectID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	_, err := client.Call(context.Background(), CallSpec{})
	assert.Error(t, err)
}

func TestGetObject(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v22.0/987654321", r.URL.Path)
		assert.Equal(t, "source", r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"source": "https://video.example/signed.mp4?sig=abc",
			"id":     "987654321",
		})
	}))

	record, err := client.GetObject(context.Background(), "987654321", []string{"source"})
	require.NoError(t, err)
	assert.Equal(t, "https://video.example/signed.mp4?sig=abc", record["source"])
}

func TestBackoffFormulas(t *testing.T) {
	client := NewClient(DefaultClientConfig())
	spec := CallSpec{BaseDelay: time.Second, SleepDelay: 5 * time.Second}

	tests := []struct {
		category Category
		attempt  int
		want     time.Duration
	}{
		{CategoryRateLimit, 0, 6 * time.Second},  // 1*2^0 + 5
		{CategoryRateLimit, 1, 7 * time.Second},  // 1*2^1 + 5
		{CategoryRateLimit, 3, 13 * time.Second}, // 1*2^3 + 5
		{CategoryTransport, 0, 5 * time.Second},  // 5 + 0*2
		{CategoryTransport, 2, 9 * time.Second},  // 5 + 2*2
	}
	for _, tt := range tests {
		got := client.backoffFor(tt.category, tt.attempt, spec)
		if got != tt.want {
			t.Errorf("backoffFor(%v, %d) = %v, want %v", tt.category, tt.attempt, got, tt.want)
		}
	}
}
