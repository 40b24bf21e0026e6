package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phishguard/phishguard/internal/model"
)

func fetchFrom(t *testing.T, handler http.HandlerFunc) func(path string) model.ContentProfile {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := New(srv.Client(), 0)
	return func(path string) model.ContentProfile {
		u, err := url.Parse(srv.URL + path)
		require.NoError(t, err)
		return f.Fetch(context.Background(), u)
	}
}

func TestFetchExtractsSignals(t *testing.T) {
	page := `<html><head><title>Acme Bank</title></head><body>
		<form action="/submit"><input type="text" name="user"><input type="password" name="pw"></form>
		<a href="https://other.example/a">one</a>
		<a href="http://another.example/b">two</a>
		<a href="/relative">not counted</a>
		<script>eval(atob("ZG8="))</script>
	</body></html>`

	fetch := fetchFrom(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	})

	p := fetch("/")
	assert.True(t, p.Retrieved)
	assert.Equal(t, "Acme Bank", p.Title)
	assert.True(t, p.HasLoginForm)
	assert.Equal(t, 2, p.ExternalLinks)
	assert.True(t, p.SuspiciousScripts)
}

func TestFetchLoginKeywordWithoutPasswordInput(t *testing.T) {
	fetch := fetchFrom(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<form><button>Sign in</button></form>`))
	})
	assert.True(t, fetch("/").HasLoginForm)
}

func TestFetchCleanPage(t *testing.T) {
	fetch := fetchFrom(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Docs</title></head><body><p>hello</p></body></html>`))
	})
	p := fetch("/")
	assert.True(t, p.Retrieved)
	assert.Equal(t, "Docs", p.Title)
	assert.False(t, p.HasLoginForm)
	assert.Zero(t, p.ExternalLinks)
	assert.False(t, p.SuspiciousScripts)
}

func TestFetchNonTextResponse(t *testing.T) {
	fetch := fetchFrom(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x1f, 0x8b})
	})
	assert.False(t, fetch("/").Retrieved)
}

func TestFetchNetworkErrorYieldsEmptyProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	f := New(nil, 0)
	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.False(t, f.Fetch(context.Background(), u).Retrieved)
}

func TestFetchCapsBodyRead(t *testing.T) {
	chunk := strings.Repeat("a", 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<title>big</title>"))
		for i := 0; i < 64; i++ {
			_, _ = w.Write([]byte(chunk))
		}
	}))
	defer srv.Close()

	f := New(srv.Client(), 16*1024)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	p := f.Fetch(context.Background(), u)
	assert.True(t, p.Retrieved)
	assert.Equal(t, "big", p.Title)
}
