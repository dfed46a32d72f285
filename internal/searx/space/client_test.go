package space

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:          baseURL,
		DirectoryTimeout: 5 * time.Second,
		InstanceTimeout:  5 * time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClient_FetchDirectory(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		statusCode int
		wantErr    error
		wantLen    int
	}{
		{
			name:       "ok",
			body:       `{"instances": {"https://a/": {"html": {"grade": "C"}, "network_type": "normal"}}}`,
			statusCode: http.StatusOK,
			wantLen:    1,
		},
		{
			name:       "server error",
			body:       `oops`,
			statusCode: http.StatusInternalServerError,
			wantErr:    domain.ErrDirectoryUnavailable,
		},
		{
			name:       "missing instances",
			body:       `{"metadata": {}}`,
			statusCode: http.StatusOK,
			wantErr:    domain.ErrDirectoryUnavailable,
		},
		{
			name:       "invalid json",
			body:       `{"instances":`,
			statusCode: http.StatusOK,
			wantErr:    domain.ErrDirectoryUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			dir, err := client.FetchDirectory(context.Background())

			if gotPath != "/data/instances.json" {
				t.Errorf("request path = %q, want /data/instances.json", gotPath)
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FetchDirectory() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchDirectory() unexpected error = %v", err)
			}
			if len(dir) != tt.wantLen {
				t.Errorf("FetchDirectory() got %d instances, want %d", len(dir), tt.wantLen)
			}
		})
	}
}

func TestClient_FetchDirectory_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).FetchDirectory(context.Background())
	if !errors.Is(err, domain.ErrDirectoryUnavailable) {
		t.Errorf("FetchDirectory() error = %v, want %v", err, domain.ErrDirectoryUnavailable)
	}
}

func TestClient_FetchSearchPage(t *testing.T) {
	var gotQuery, gotPath, gotUA, gotEncoding string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="/x">x</a>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	body, err := client.FetchSearchPage(context.Background(), server.URL+"/", "big cats & dogs")
	if err != nil {
		t.Fatalf("FetchSearchPage() error = %v", err)
	}

	if body != `<a href="/x">x</a>` {
		t.Errorf("FetchSearchPage() body = %q", body)
	}
	if gotPath != "/search" {
		t.Errorf("path = %q, want /search", gotPath)
	}
	if gotQuery != "big cats & dogs" {
		t.Errorf("q = %q, want %q", gotQuery, "big cats & dogs")
	}
	if gotUA != userAgent {
		t.Errorf("User-Agent = %q, want browser UA", gotUA)
	}
	if gotEncoding != "gzip, deflate, br" {
		t.Errorf("Accept-Encoding = %q", gotEncoding)
	}
}

func TestClient_FetchSearchPage_Compressed(t *testing.T) {
	const page = `<html><body><img src="/logo.png"></body></html>`

	compress := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			zw.Write(b)
			zw.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			bw.Write(b)
			bw.Close()
			return buf.Bytes()
		},
	}

	for encoding, fn := range compress {
		t.Run(encoding, func(t *testing.T) {
			payload := fn([]byte(page))
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", encoding)
				w.Write(payload)
			}))
			defer server.Close()

			body, err := newTestClient(t, server.URL).FetchSearchPage(context.Background(), server.URL+"/", "q")
			if err != nil {
				t.Fatalf("FetchSearchPage() error = %v", err)
			}
			if body != page {
				t.Errorf("FetchSearchPage() body = %q, want %q", body, page)
			}
		})
	}
}

func TestClient_FetchSearchPage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"too many requests", http.StatusTooManyRequests},
		{"server error", http.StatusBadGateway},
		{"not found", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).FetchSearchPage(context.Background(), server.URL+"/", "q")
			if !errors.Is(err, domain.ErrInstanceUnreachable) {
				t.Errorf("FetchSearchPage() error = %v, want %v", err, domain.ErrInstanceUnreachable)
			}
		})
	}

	t.Run("bad instance url", func(t *testing.T) {
		_, err := newTestClient(t, "http://localhost/").FetchSearchPage(context.Background(), "not a url", "q")
		if !errors.Is(err, domain.ErrInstanceUnreachable) {
			t.Errorf("FetchSearchPage() error = %v, want %v", err, domain.ErrInstanceUnreachable)
		}
	})
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		instance string
		query    string
		want     string
	}{
		{"http://searx.jp/", "semaphore", "http://searx.jp/search?q=semaphore"},
		{"https://a/", "big cats", "https://a/search?q=big+cats"},
		{"https://a/searx/", "x", "https://a/search?q=x"},
		{"https://a", "x", "https://a/search?q=x"},
	}

	for _, tt := range tests {
		got, err := SearchURL(tt.instance, tt.query)
		if err != nil {
			t.Errorf("SearchURL(%q, %q) error = %v", tt.instance, tt.query, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SearchURL(%q, %q) = %q, want %q", tt.instance, tt.query, got, tt.want)
		}
	}
}
