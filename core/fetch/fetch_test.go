package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gaurav-prasanna/motopipe/core"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price-list":
			require.Equal(t, "https://example.com/ref", r.Header.Get("Referer"))
			require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<table><tr><td>MT-07</td></tr></table>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "test-agent", Timeout: 5 * time.Second})

	res, err := f.Fetch(context.Background(), srv.URL+"/price-list", map[string]string{
		"Referer": "https://example.com/ref",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", res.ContentType)
	require.Equal(t, "<table><tr><td>MT-07</td></tr></table>", string(res.Body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing", nil)
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := New(Options{Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)
}

func TestRemoteRendererRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/content", r.URL.Path)
		require.Equal(t, "secret", r.URL.Query().Get("token"))

		var body renderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://www.honda.com.tr/motorsiklet", body.URL)
		require.Equal(t, int64(10000), body.GotoOptions.Timeout)
		require.Equal(t, "ua", body.SetExtraHTTPHeaders["User-Agent"])

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>CB 500X 275.000 TL</body></html>"))
	}))
	defer srv.Close()

	r := NewRemoteRenderer(srv.URL+"/", "secret", nil)
	html, err := r.Render(context.Background(), "https://www.honda.com.tr/motorsiklet", core.RenderOptions{
		Timeout:   10 * time.Second,
		UserAgent: "ua",
	})
	require.NoError(t, err)
	require.Contains(t, html, "CB 500X")
}

func TestRemoteRendererError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewRemoteRenderer(srv.URL, "", nil)
	_, err := r.Render(context.Background(), "https://example.com", core.RenderOptions{})
	require.ErrorContains(t, err, "status 502")
}
