package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/izv-data/internal/resilience"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:   "test-agent",
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		RatePerHost: 1000,
		BaseBackoff: time.Millisecond,
	})
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	body, err := f.Download(context.Background(), srv.URL+"/data")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDownload_NotFoundIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Download(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file content here"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	n, err := f.DownloadToFile(context.Background(), srv.URL+"/file", path)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file content here", string(data))

	_, err = os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(err), "partial file should be renamed away")
}

func TestDownloadToFile_ShortTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("only a few bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "short.zip")
	_, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL+"/short", path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "truncated file must not appear at the destination")
	_, statErr = os.Stat(path + ".part")
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

func TestDownloadToFile_ErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "denied.zip")
	_, err := newTestFetcher().DownloadToFile(context.Background(), srv.URL+"/denied", path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("success"))
	}))
	defer srv.Close()

	body, err := newTestFetcher().Download(context.Background(), srv.URL+"/retry")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "success", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryExhausted(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		MaxRetries:  2,
		RatePerHost: 1000,
		BaseBackoff: time.Millisecond,
	})

	_, err := f.Download(context.Background(), srv.URL+"/fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted after 3 attempts")
	assert.Equal(t, int32(3), attempts.Load())
	assert.True(t, resilience.IsTransient(err))
}

func TestZeroRetriesMakesOneRequest(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// A long backoff would show up if the fetcher slept after its only attempt.
	f := NewHTTPFetcher(HTTPOptions{
		RatePerHost: 1000,
		BaseBackoff: 5 * time.Second,
	})

	start := time.Now()
	_, err := f.Download(context.Background(), srv.URL+"/index")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Contains(t, err.Error(), "503")
	assert.True(t, resilience.IsTransient(err), "a 503 stays retryable for the caller")
}

func TestNoBackoffAfterLastAttempt(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	// One retry sleeps at most 1.5s with jitter; a trailing sleep would add
	// another 3s.
	f := NewHTTPFetcher(HTTPOptions{
		MaxRetries:  1,
		RatePerHost: 1000,
		BaseBackoff: time.Second,
	})

	start := time.Now()
	_, err := f.Download(context.Background(), srv.URL+"/fail")
	require.Error(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Less(t, time.Since(start), 2500*time.Millisecond)
}

func TestRateLimiting(t *testing.T) {
	var reqTimes []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTimes = append(reqTimes, time.Now())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		MaxRetries:  1,
		RatePerHost: 2,
	})

	ctx := context.Background()
	for range 4 {
		body, err := f.Download(ctx, srv.URL+"/limited")
		require.NoError(t, err)
		body.Close()
	}

	// Burst of 2, then 2 req/s.
	require.Len(t, reqTimes, 4)
	duration := reqTimes[3].Sub(reqTimes[0])
	assert.GreaterOrEqual(t, duration.Milliseconds(), int64(500), "requests should be rate limited")
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Download(ctx, srv.URL)
	require.Error(t, err)
}

func TestWriteAtomic_LengthUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, writeTestFile(path+".part", "stale"))

	n, err := writeAtomic(path, stringReader("abc"), -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestWriteAtomic_ShortIsTransient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.bin")
	_, err := writeAtomic(path, stringReader("abc"), 10)
	require.Error(t, err)

	var te *resilience.TransientError
	assert.True(t, errors.As(err, &te))
	assert.True(t, resilience.IsTransient(err))
}

func TestSchemeFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("via http"))
	}))
	defer srv.Close()

	sf := NewSchemeFetcher(newTestFetcher(), NewFTPFetcher(FTPOptions{}))

	body, err := sf.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, "via http", string(data))

	_, err = sf.Download(context.Background(), "gopher://example.com/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")

	_, err = (&SchemeFetcher{}).DownloadToFile(context.Background(), "ftp://example.com/x.zip", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
}
