package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

func TestHTTPSourceFetchPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Leads", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("If-Modified-Since"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"}],"info":{"more_records":true}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, StaticTokenProvider("test-token"))

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	page, err := src.FetchPage(context.Background(), models.KindCandidates, 2, 100, &since)
	require.NoError(t, err)

	assert.Len(t, page.Records, 2)
	assert.True(t, page.HasMore)
}

func TestHTTPSourceFetchPage_EmptyPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, StaticTokenProvider("t"))

	page, err := src.FetchPage(context.Background(), models.KindTasks, 1, 100, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.False(t, page.HasMore)
}

func TestHTTPSourceFetchPage_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"1"}],"info":{"more_records":false}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, StaticTokenProvider("t"), WithMaxRetries(5))

	page, err := src.FetchPage(context.Background(), models.KindCandidates, 1, 100, nil)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPSourceFetchPage_AuthFailureNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, StaticTokenProvider("bad"), WithMaxRetries(5))

	_, err := src.FetchPage(context.Background(), models.KindCandidates, 1, 100, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSourceFetchPage_UnknownKind(t *testing.T) {
	t.Parallel()

	src := NewHTTPSource("http://localhost", StaticTokenProvider("t"))
	_, err := src.FetchPage(context.Background(), models.RecordKind("bogus"), 1, 100, nil)
	assert.Error(t, err)
}
