package remoteregistry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/fieldchat"
)

func TestHTTPFetcher_Fetch_Resolution(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path != "/qa.yml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(taskYAML("qa", "base"))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL + "/")
	require.NoError(t, err)
	data, err := h.Fetch(context.Background(), "qa", "prod")
	require.NoError(t, err)
	assert.Contains(t, string(data), "base")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/qa.prod.yaml", "/qa.prod.yml", "/qa.yaml", "/qa.yml"}, paths)
}

func TestHTTPFetcher_Fetch_HeadersAndAuth(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		assert.Contains(t, r.Header.Get("User-Agent"), "fieldchat-remote-registry")
		_, _ = w.Write(taskYAML("auth", "ok"))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL, WithAuthToken("secret-token"))
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "auth", "")
	require.NoError(t, err)

	anon, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = anon.Fetch(context.Background(), "auth", "")
	require.ErrorIs(t, err, ErrHTTPStatus)
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestHTTPFetcher_Fetch_NotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "nonexistent", "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = New(h).GetTask(context.Background(), "nonexistent", "")
	require.ErrorIs(t, err, fieldchat.ErrTaskNotFound)
}

func TestHTTPFetcher_Fetch_InvalidName(t *testing.T) {
	t.Parallel()
	h, err := NewHTTPFetcher("https://example.invalid/tasks")
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "../secrets", "")
	require.ErrorIs(t, err, fieldchat.ErrInvalidName)
}

func TestHTTPFetcher_NewInvalidURL(t *testing.T) {
	t.Parallel()
	for _, u := range []string{"", "://invalid", "no-scheme", "https://"} {
		_, err := NewHTTPFetcher(u)
		require.Error(t, err, u)
	}
}

func TestHTTPFetcher_Fetch_BodyTooLarge(t *testing.T) {
	t.Parallel()
	big := bytes.Repeat([]byte("x"), maxBodySize+1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(big)
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "large", "")
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestHTTPFetcher_WithHTTPClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(taskYAML("client_test", "ok"))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL, WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	require.NoError(t, err)
	_, err = h.Fetch(context.Background(), "client_test", "")
	require.NoError(t, err)

	h2, err := NewHTTPFetcher(srv.URL, WithHTTPClient(nil))
	require.NoError(t, err)
	_, err = h2.Fetch(context.Background(), "client_test", "")
	require.NoError(t, err)
}

func TestHTTPFetcher_Fetch_ContextCancellation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(taskYAML("x", "x"))
	}))
	defer srv.Close()
	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Fetch(ctx, "x", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_RegistryEndToEnd(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qa.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(taskYAML("qa", "Answer questions."))
	}))
	defer srv.Close()

	h, err := NewHTTPFetcher(srv.URL)
	require.NoError(t, err)
	reg := New(h)
	task, err := reg.GetTask(context.Background(), "qa", "staging")
	require.NoError(t, err)
	assert.Equal(t, "staging", task.Metadata.Environment)

	model := fieldchat.ModelFunc(func(context.Context, []fieldchat.ChatMessage, map[string]any) ([]string, error) {
		return []string{"[[[ ### answer ### ]]]\n42"}, nil
	})
	got, err := fieldchat.NewClient().Run(context.Background(), model, task, fieldchat.Values{"question": "?"}, fieldchat.ModeBlocking, nil)
	require.NoError(t, err)
	assert.Equal(t, []fieldchat.ParsedFields{{"answer": "42"}}, got)
}
