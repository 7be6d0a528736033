package sources

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/retry"
)

func testFetcher() *Fetcher {
	cfg := config.Default().HTTP
	return NewFetcher(cfg).WithPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2))
}

func TestFetchSendsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	t.Cleanup(server.Close)

	data, err := testFetcher().Fetch(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(data))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("third time"))
	}))
	t.Cleanup(server.Close)

	data, err := testFetcher().Fetch(t.Context(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "third time", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := testFetcher().Fetch(t.Context(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.True(t, ferrors.CanRetry(err))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	_, err := testFetcher().Fetch(t.Context(), server.URL+"/moved/")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "/moved/")

	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	status, _ := classified.Context().Get("status")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, classified.CanRetry())
	assert.Contains(t, classified.Hint(), "update the source URL")
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	data, err := testFetcher().Fetch(t.Context(), server.URL+"/old/")
	require.NoError(t, err)
	assert.Equal(t, "moved", string(data))
}

func TestFetchStopsRedirectLoops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	t.Cleanup(server.Close)

	f := testFetcher().WithClient(NewHTTPClient(time.Second, 3))
	_, err := f.Fetch(t.Context(), server.URL+"/loop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 3 redirects")
}

func TestFetchRejectsOversizedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().HTTP
	cfg.MaxBodyBytes = 32
	_, err := NewFetcher(cfg).Fetch(t.Context(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response too large")
}

func TestFetchLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0o600))

	f := testFetcher()
	data, err := f.Fetch(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	data, err = f.Fetch(t.Context(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	_, err = f.Fetch(t.Context(), filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))

	_, err = f.Fetch(t.Context(), "ftp://example.com/x")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestFetchExtensionSourcesFailsOnEitherArtifact(t *testing.T) {
	dir := t.TempDir()
	registry := filepath.Join(dir, "registry.py")
	require.NoError(t, os.WriteFile(registry, []byte(`"gnome": GNOME,`), 0o600))

	_, err := FetchExtensionSources(t.Context(), testFetcher(), registry, filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	_, err = FetchExtensionSources(t.Context(), testFetcher(), filepath.Join(dir, "missing.py"), registry)
	require.Error(t, err)
}
